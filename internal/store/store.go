// Package store defines the durable attendance log. Concrete backends live in
// the sqlite, postgres and mysql subpackages; csvlog mirrors every insertion
// into a human-readable file.
package store

import (
	"context"
	"fmt"
	"time"
)

// DefaultDedupWindow is the minimum gap between two persisted records for the
// same student. It guards against restarts and duplicate pipeline instances
// independently of the in-memory session state.
const DefaultDedupWindow = 3 * time.Minute

// Date and time layouts used in the durable layout (separate text columns).
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Record is one attendance event.
type Record struct {
	ID        int64  `json:"id"`
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

// Recorder is the attendance store contract.
type Recorder interface {
	// Mark inserts an attendance record unless one exists for the student
	// within the dedup window. Returns whether a record was inserted.
	Mark(ctx context.Context, studentID, name string) (inserted bool, err error)
	// All returns every record, most recent first (date desc, time desc).
	All(ctx context.Context) ([]Record, error)
	// Window returns records on the given date at or after fromTime,
	// ascending by time. Used by the session report aggregator.
	Window(ctx context.Context, date, fromTime string) ([]Record, error)
	Close() error
}

// FormatStamp splits a timestamp into the stored date and time columns.
func FormatStamp(t time.Time) (date, clock string) {
	return t.Format(DateLayout), t.Format(TimeLayout)
}

// ParseStamp combines stored date and time columns back into a timestamp.
func ParseStamp(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing attendance stamp %q %q: %w", date, clock, err)
	}
	return t, nil
}
