// Package report aggregates the attendance records of one session into a CSV
// artifact and an attendee list for notification.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/classtrack/classtrack/internal/store"
)

// EmptySummary is the sentinel summary when the session window has no records.
const EmptySummary = "No attendance recorded in this session."

// Attendee is one unique student present in the session.
type Attendee struct {
	Name      string `json:"name"`
	StudentID string `json:"student_id"`
	Time      string `json:"time"`
}

// Report is the aggregation result. Path is empty for the no-records sentinel.
type Report struct {
	Path      string     `json:"path,omitempty"`
	Summary   string     `json:"summary"`
	Attendees []Attendee `json:"attendees,omitempty"`
}

// Generator writes session report artifacts into Dir.
type Generator struct {
	Dir string
	now func() time.Time
}

// NewGenerator creates a report generator writing artifacts into dir.
func NewGenerator(dir string) *Generator {
	return &Generator{Dir: dir, now: time.Now}
}

// Generate collects the store's records from the session start onward,
// deduplicates by student keeping the earliest occurrence, and writes the CSV
// artifact. The query compares time-of-day within the start date only, so a
// session must not cross midnight.
func (g *Generator) Generate(ctx context.Context, rec store.Recorder, sessionStart time.Time, sessionName string) (*Report, error) {
	date, clock := store.FormatStamp(sessionStart)
	records, err := rec.Window(ctx, date, clock)
	if err != nil {
		return nil, fmt.Errorf("querying session records: %w", err)
	}
	if len(records) == 0 {
		return &Report{Summary: EmptySummary}, nil
	}

	// First occurrence per student wins; Window returns ascending time.
	seen := make(map[string]struct{}, len(records))
	var unique []store.Record
	for _, r := range records {
		if _, ok := seen[r.StudentID]; ok {
			continue
		}
		seen[r.StudentID] = struct{}{}
		unique = append(unique, r)
	}

	path, err := g.writeArtifact(unique, sessionName)
	if err != nil {
		return nil, err
	}

	attendees := make([]Attendee, len(unique))
	for i, r := range unique {
		attendees[i] = Attendee{Name: r.Name, StudentID: r.StudentID, Time: r.Time}
	}

	return &Report{
		Path:      path,
		Summary:   fmt.Sprintf("Session report: %d students present. Saved to: %s", len(unique), filepath.Base(path)),
		Attendees: attendees,
	}, nil
}

func (g *Generator) writeArtifact(records []store.Record, sessionName string) (string, error) {
	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	filename := fmt.Sprintf("Attendance_%s_%s.csv",
		SanitizeSessionName(sessionName), g.now().Format("20060102_150405"))
	path := filepath.Join(g.Dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report artifact: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Student ID", "Name", "Date", "Time", "Status", "Session"}); err != nil {
		return "", fmt.Errorf("writing report header: %w", err)
	}
	for _, r := range records {
		if err := w.Write([]string{r.StudentID, r.Name, r.Date, r.Time, "Present", sessionName}); err != nil {
			return "", fmt.Errorf("writing report row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing report: %w", err)
	}
	return path, nil
}

// removeDiacritics strips diacritical marks (e.g., "Jiří" -> "Jiri").
func removeDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// SanitizeSessionName reduces a session name to a safe filename fragment.
func SanitizeSessionName(name string) string {
	name = removeDiacritics(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "Session"
	}
	return b.String()
}
