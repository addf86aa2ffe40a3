package session

import (
	"testing"
	"time"
)

// fakeClock lets tests step time deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestManager(hold time.Duration) (*Manager, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)}
	m := NewManager(hold)
	m.now = clock.now
	return m, clock
}

func TestOnRecognition_MarksOncePerSession(t *testing.T) {
	m, _ := newTestManager(4 * time.Second)
	m.Start("Morning")

	if !m.OnRecognition("S1", "Alice") {
		t.Error("expected first recognition to mark")
	}
	if m.OnRecognition("S1", "Alice") {
		t.Error("expected second recognition in same session not to mark")
	}
	if !m.Marked("S1") {
		t.Error("expected S1 to be marked")
	}
	if m.MarkedCount() != 1 {
		t.Errorf("expected marked count 1, got %d", m.MarkedCount())
	}
}

func TestOnRecognition_InactiveSession(t *testing.T) {
	m, _ := newTestManager(4 * time.Second)

	if m.OnRecognition("S1", "Alice") {
		t.Error("expected no mark without an active session")
	}
}

func TestStart_ClearsMarkedSet(t *testing.T) {
	m, _ := newTestManager(4 * time.Second)

	m.Start("Morning")
	m.OnRecognition("S1", "Alice")

	m.Start("Afternoon")
	if m.Marked("S1") {
		t.Error("expected new session to clear the marked set")
	}
	if !m.OnRecognition("S1", "Alice") {
		t.Error("expected S1 to mark again in the new session")
	}
}

func TestHold_ExpiryBoundary(t *testing.T) {
	m, clock := newTestManager(4 * time.Second)
	m.Start("Morning")
	m.OnRecognition("S1", "Alice")

	clock.advance(3900 * time.Millisecond)
	hold, ok := m.ActiveHold()
	if !ok {
		t.Fatal("expected hold to still be active at T+3.9s")
	}
	if hold.StudentID != "S1" || hold.Name != "Alice" {
		t.Errorf("unexpected hold: %+v", hold)
	}

	clock.advance(200 * time.Millisecond) // T+4.1s
	if _, ok := m.ActiveHold(); ok {
		t.Error("expected hold to be expired at T+4.1s")
	}
	// Removed, not just hidden.
	if _, ok := m.ActiveHold(); ok {
		t.Error("expected expired hold to be removed")
	}
	// Expiry never un-marks.
	if !m.Marked("S1") {
		t.Error("expected S1 to stay marked after hold expiry")
	}
}

func TestHold_RepeatRecognitionDoesNotRefresh(t *testing.T) {
	m, clock := newTestManager(4 * time.Second)
	m.Start("Morning")
	m.OnRecognition("S1", "Alice")

	clock.advance(2 * time.Second)
	m.OnRecognition("S1", "Alice") // already marked, no refresh

	clock.advance(2100 * time.Millisecond) // T+4.1s from the first mark
	if _, ok := m.ActiveHold(); ok {
		t.Error("expected hold to expire on the original deadline")
	}
}

func TestStop_ReturnsSessionWindow(t *testing.T) {
	m, clock := newTestManager(4 * time.Second)
	started := clock.t
	m.Start("Morning")

	name, at, ok := m.Stop()
	if !ok {
		t.Fatal("expected Stop to report an active session")
	}
	if name != "Morning" {
		t.Errorf("expected session name 'Morning', got '%s'", name)
	}
	if !at.Equal(started) {
		t.Errorf("expected start time %v, got %v", started, at)
	}
	if m.Active() {
		t.Error("expected session to be inactive after Stop")
	}

	if _, _, ok := m.Stop(); ok {
		t.Error("expected second Stop to report no active session")
	}
}

func TestStart_AssignsUniqueIDs(t *testing.T) {
	m, _ := newTestManager(0)

	id1, _ := m.Start("A")
	id2, _ := m.Start("B")

	if id1 == "" || id1 == id2 {
		t.Errorf("expected distinct non-empty session ids, got '%s' and '%s'", id1, id2)
	}
}
