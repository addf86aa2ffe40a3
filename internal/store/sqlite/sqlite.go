// Package sqlite is the default embedded attendance store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/classtrack/classtrack/internal/store"
)

// Store is a SQLite-backed attendance recorder.
type Store struct {
	db    *sql.DB
	dedup time.Duration
	now   func() time.Time
}

// Open opens (and creates, if needed) the attendance database at path.
// A dedup of 0 uses the default window.
func Open(path string, dedup time.Duration) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite database path is required")
	}
	if dedup <= 0 {
		dedup = store.DefaultDedupWindow
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dedup: dedup, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS attendance (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			student_id TEXT NOT NULL,
			name       TEXT NOT NULL,
			date       TEXT NOT NULL,
			time       TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("creating attendance table: %w", err)
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_attendance_student ON attendance (student_id, id)`)
	if err != nil {
		return fmt.Errorf("creating attendance index: %w", err)
	}
	return nil
}

// Mark inserts a record unless the student already has one within the dedup
// window. The insert is committed before Mark returns.
func (s *Store) Mark(ctx context.Context, studentID, name string) (bool, error) {
	now := s.now()

	var lastDate, lastTime string
	err := s.db.QueryRowContext(ctx,
		`SELECT date, time FROM attendance WHERE student_id = ? ORDER BY id DESC LIMIT 1`,
		studentID).Scan(&lastDate, &lastTime)
	switch {
	case err == nil:
		// Unparseable stamps are ignored and a new record is written.
		if last, perr := store.ParseStamp(lastDate, lastTime); perr == nil && now.Sub(last) < s.dedup {
			return false, nil
		}
	case errors.Is(err, sql.ErrNoRows):
		// First record for this student.
	default:
		return false, fmt.Errorf("querying last attendance for %s: %w", studentID, err)
	}

	date, clock := store.FormatStamp(now)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attendance (student_id, name, date, time) VALUES (?, ?, ?, ?)`,
		studentID, name, date, clock)
	if err != nil {
		return false, fmt.Errorf("inserting attendance for %s: %w", studentID, err)
	}
	return true, nil
}

// All returns every record, most recent first.
func (s *Store) All(ctx context.Context) ([]store.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, student_id, name, date, time FROM attendance ORDER BY date DESC, time DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying attendance: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Window returns records on date at or after fromTime, ascending by time.
// A session crossing midnight is not supported by this comparison.
func (s *Store) Window(ctx context.Context, date, fromTime string) ([]store.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, student_id, name, date, time FROM attendance
		 WHERE date = ? AND time >= ? ORDER BY time ASC`,
		date, fromTime)
	if err != nil {
		return nil, fmt.Errorf("querying attendance window: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing sqlite database: %w", err)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]store.Record, error) {
	var records []store.Record
	for rows.Next() {
		var r store.Record
		if err := rows.Scan(&r.ID, &r.StudentID, &r.Name, &r.Date, &r.Time); err != nil {
			return nil, fmt.Errorf("scanning attendance record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attendance records: %w", err)
	}
	return records, nil
}
