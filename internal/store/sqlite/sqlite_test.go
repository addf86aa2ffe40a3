package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "attendance.db"), 3*time.Minute)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	now := time.Date(2025, 9, 1, 9, 0, 0, 0, time.Local)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestMark_InsertsRecord(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	inserted, err := s.Mark(ctx, "S1", "Alice")
	if err != nil {
		t.Fatalf("Mark failed: %v", err)
	}
	if !inserted {
		t.Error("expected first mark to insert")
	}

	records, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.StudentID != "S1" || r.Name != "Alice" || r.Date != "2025-09-01" || r.Time != "09:00:00" {
		t.Errorf("unexpected record: %+v", r)
	}
}

func TestMark_DedupWindow(t *testing.T) {
	s, now := newTestStore(t)
	ctx := context.Background()

	if inserted, _ := s.Mark(ctx, "S1", "Alice"); !inserted {
		t.Fatal("expected first mark to insert")
	}

	// Within the 3-minute window: skipped.
	*now = now.Add(1 * time.Minute)
	inserted, err := s.Mark(ctx, "S1", "Alice")
	if err != nil {
		t.Fatalf("Mark failed: %v", err)
	}
	if inserted {
		t.Error("expected mark within dedup window to be skipped")
	}

	// At the window boundary: inserted again.
	*now = now.Add(2 * time.Minute)
	inserted, err = s.Mark(ctx, "S1", "Alice")
	if err != nil {
		t.Fatalf("Mark failed: %v", err)
	}
	if !inserted {
		t.Error("expected mark after dedup window to insert")
	}

	records, _ := s.All(ctx)
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
}

func TestMark_DedupIsPerStudent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.Mark(ctx, "S1", "Alice")
	inserted, err := s.Mark(ctx, "S2", "Bob")
	if err != nil {
		t.Fatalf("Mark failed: %v", err)
	}
	if !inserted {
		t.Error("expected different student to insert inside another student's window")
	}
}

func TestAll_OrderedMostRecentFirst(t *testing.T) {
	s, now := newTestStore(t)
	ctx := context.Background()

	s.Mark(ctx, "S1", "Alice")
	*now = now.Add(5 * time.Minute)
	s.Mark(ctx, "S2", "Bob")
	*now = now.Add(24 * time.Hour)
	s.Mark(ctx, "S1", "Alice")

	records, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Date != "2025-09-02" {
		t.Errorf("expected most recent record first, got %+v", records[0])
	}
	if records[1].StudentID != "S2" || records[2].StudentID != "S1" {
		t.Errorf("expected same-day records ordered by time desc, got %+v then %+v", records[1], records[2])
	}
}

func TestWindow_FiltersByDateAndTime(t *testing.T) {
	s, now := newTestStore(t)
	ctx := context.Background()

	s.Mark(ctx, "S1", "Alice") // 09:00:00
	*now = now.Add(10 * time.Minute)
	s.Mark(ctx, "S2", "Bob") // 09:10:00

	records, err := s.Window(ctx, "2025-09-01", "09:05:00")
	if err != nil {
		t.Fatalf("Window failed: %v", err)
	}
	if len(records) != 1 || records[0].StudentID != "S2" {
		t.Errorf("expected only S2 in window, got %+v", records)
	}

	records, err = s.Window(ctx, "2025-09-01", "09:00:00")
	if err != nil {
		t.Fatalf("Window failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records in window, got %d", len(records))
	}
	if records[0].StudentID != "S1" {
		t.Errorf("expected window ordered by time asc, got %+v first", records[0])
	}

	if records, _ := s.Window(ctx, "2025-08-31", "00:00:00"); len(records) != 0 {
		t.Errorf("expected no records for another date, got %d", len(records))
	}
}
