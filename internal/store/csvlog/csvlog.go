// Package csvlog mirrors attendance insertions into a human-readable CSV
// file. The mirror rechecks the dedup window against its own rows, so a
// database record skipped there is also skipped here even after a restart.
package csvlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/classtrack/classtrack/internal/store"
)

var header = []string{"Student ID", "Name", "Date", "Time", "Status"}

// Logger appends attendance rows to a CSV file.
type Logger struct {
	path  string
	dedup time.Duration

	mu       sync.Mutex
	lastSeen map[string]time.Time // per-student timestamp of the last logged row
}

// Open creates the log file with a header row if missing, and indexes the
// existing rows so the dedup check survives restarts.
func Open(path string, dedup time.Duration) (*Logger, error) {
	if dedup <= 0 {
		dedup = store.DefaultDedupWindow
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
	}

	l := &Logger{path: path, dedup: dedup, lastSeen: make(map[string]time.Time)}

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		if err != nil {
			return nil, fmt.Errorf("reading existing log %s: %w", path, err)
		}
		for i, row := range rows {
			if i == 0 || len(row) < 4 {
				continue
			}
			if ts, err := store.ParseStamp(row[2], row[3]); err == nil {
				l.lastSeen[row[0]] = ts
			}
		}
	case os.IsNotExist(err):
		if err := l.writeHeader(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("opening log %s: %w", path, err)
	}

	return l, nil
}

func (l *Logger) writeHeader() error {
	f, err := os.Create(l.path)
	if err != nil {
		return fmt.Errorf("creating log %s: %w", l.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing log header: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Append logs one attendance row unless the student was logged within the
// dedup window. The row is flushed and synced before Append returns.
func (l *Logger) Append(studentID, name, date, clock string) error {
	ts, err := store.ParseStamp(date, clock)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.lastSeen[studentID]; ok && ts.Sub(last) < l.dedup {
		return nil
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log for append: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{studentID, name, date, clock, "Present"}); err != nil {
		return fmt.Errorf("writing log row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing log row: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing log: %w", err)
	}

	l.lastSeen[studentID] = ts
	return nil
}

// Path returns the log file location.
func (l *Logger) Path() string {
	return l.path
}
