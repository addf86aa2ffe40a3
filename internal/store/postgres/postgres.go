// Package postgres is an optional attendance store backend for deployments
// that already run PostgreSQL. The embedded sqlite backend is the default.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/classtrack/classtrack/internal/store"
)

// Store is a PostgreSQL-backed attendance recorder.
type Store struct {
	db    *sql.DB
	dedup time.Duration
	now   func() time.Time
}

// Open connects to PostgreSQL using a lib/pq DSN.
func Open(dsn string, dedup time.Duration) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("PostgreSQL DSN is required")
	}
	if dedup <= 0 {
		dedup = store.DefaultDedupWindow
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	s := &Store{db: db, dedup: dedup, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS attendance (
			id         BIGSERIAL PRIMARY KEY,
			student_id TEXT NOT NULL,
			name       TEXT NOT NULL,
			date       TEXT NOT NULL,
			time       TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("creating attendance table: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_attendance_student ON attendance (student_id, id)`)
	if err != nil {
		return fmt.Errorf("creating attendance index: %w", err)
	}
	return nil
}

// Mark inserts a record unless the student already has one within the dedup
// window.
func (s *Store) Mark(ctx context.Context, studentID, name string) (bool, error) {
	now := s.now()

	var lastDate, lastTime string
	err := s.db.QueryRowContext(ctx,
		`SELECT date, time FROM attendance WHERE student_id = $1 ORDER BY id DESC LIMIT 1`,
		studentID).Scan(&lastDate, &lastTime)
	switch {
	case err == nil:
		if last, perr := store.ParseStamp(lastDate, lastTime); perr == nil && now.Sub(last) < s.dedup {
			return false, nil
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return false, fmt.Errorf("querying last attendance for %s: %w", studentID, err)
	}

	date, clock := store.FormatStamp(now)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attendance (student_id, name, date, time) VALUES ($1, $2, $3, $4)`,
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
func (s *Store) Window(ctx context.Context, date, fromTime string) ([]store.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, student_id, name, date, time FROM attendance
		 WHERE date = $1 AND time >= $2 ORDER BY time ASC`,
		date, fromTime)
	if err != nil {
		return nil, fmt.Errorf("querying attendance window: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing PostgreSQL connection: %w", err)
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
