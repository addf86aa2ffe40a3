package store

import (
	"context"
	"io"
	"log"
	"time"
)

// Mirror receives a copy of every successful insertion. Implementations apply
// their own dedup against their own backing data; the mirror and the database
// are not transactionally linked, so a crash between the two writes can leave
// them inconsistent. The database is authoritative.
type Mirror interface {
	Append(studentID, name, date, clock string) error
}

// WriteThrough marks attendance in the durable store and mirrors successful
// insertions. Mirror failures are logged, never returned as a mark failure.
type WriteThrough struct {
	Recorder
	mirror Mirror
	now    func() time.Time
}

// NewWriteThrough wraps a recorder with a mirror sink. A nil mirror is allowed.
func NewWriteThrough(rec Recorder, mirror Mirror) *WriteThrough {
	return &WriteThrough{Recorder: rec, mirror: mirror, now: time.Now}
}

// Mark writes to the database first; only an actual insertion reaches the
// mirror.
func (w *WriteThrough) Mark(ctx context.Context, studentID, name string) (bool, error) {
	inserted, err := w.Recorder.Mark(ctx, studentID, name)
	if err != nil || !inserted {
		return inserted, err
	}

	if w.mirror != nil {
		date, clock := FormatStamp(w.now())
		if err := w.mirror.Append(studentID, name, date, clock); err != nil {
			log.Printf("mirror write failed for %s: %v", studentID, err)
		}
	}
	return true, nil
}

// Close closes the store and, when the mirror holds resources, the mirror.
func (w *WriteThrough) Close() error {
	if c, ok := w.mirror.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Printf("closing mirror: %v", err)
		}
	}
	return w.Recorder.Close()
}
