// Package session tracks the active attendance session: which students have
// already been marked, and the short confirmation hold shown after a mark.
// It is the admission gate between recognition events and the durable store.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultHoldDuration is how long the confirmation overlay stays up after a
// student is marked. While a hold is active the pipeline skips recognition.
const DefaultHoldDuration = 4 * time.Second

// Hold is the transient confirmed-display state for one student.
// At most one hold is active at a time: the first registered hold wins and a
// new one can only be installed after it expires. Displaying several
// simultaneously confirmed students is a known, accepted limitation.
type Hold struct {
	StudentID string
	Name      string
	ExpiresAt time.Time
}

// Manager is the per-process session state machine. Methods are safe for
// concurrent use from the pipeline and the web handlers.
type Manager struct {
	holdDuration time.Duration
	now          func() time.Time

	mu        sync.Mutex
	active    bool
	id        string
	name      string
	startedAt time.Time
	marked    map[string]struct{}
	hold      *Hold
}

// NewManager creates a session manager. A holdDuration of 0 uses the default.
func NewManager(holdDuration time.Duration) *Manager {
	if holdDuration <= 0 {
		holdDuration = DefaultHoldDuration
	}
	return &Manager{
		holdDuration: holdDuration,
		now:          time.Now,
		marked:       make(map[string]struct{}),
	}
}

// Start begins a new session, clearing the marked set from any previous run.
func (m *Manager) Start(name string) (id string, startedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name == "" {
		name = "Session"
	}
	m.active = true
	m.id = uuid.NewString()
	m.name = name
	m.startedAt = m.now()
	m.marked = make(map[string]struct{})
	m.hold = nil
	return m.id, m.startedAt
}

// Stop ends the session and returns its name and start time for aggregation.
// Returns ok=false if no session was running.
func (m *Manager) Stop() (name string, startedAt time.Time, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return "", time.Time{}, false
	}
	m.active = false
	name, startedAt = m.name, m.startedAt
	m.startedAt = time.Time{}
	return name, startedAt, true
}

// Active reports whether a session is running.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Info returns the current session id, name and start time.
func (m *Manager) Info() (id, name string, startedAt time.Time, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id, m.name, m.startedAt, m.active
}

// OnRecognition decides whether a recognition event should be persisted.
// The first recognition of a student in a session marks it and installs the
// confirmation hold; repeats return false and do not refresh the hold.
func (m *Manager) OnRecognition(studentID, name string) (shouldMark bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return false
	}
	if _, done := m.marked[studentID]; done {
		return false
	}

	m.marked[studentID] = struct{}{}
	m.hold = &Hold{
		StudentID: studentID,
		Name:      name,
		ExpiresAt: m.now().Add(m.holdDuration),
	}
	return true
}

// ActiveHold returns the current hold, expiring and removing it first if its
// deadline has passed. Expiry never un-marks the student.
func (m *Manager) ActiveHold() (Hold, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hold == nil {
		return Hold{}, false
	}
	if !m.now().Before(m.hold.ExpiresAt) {
		m.hold = nil
		return Hold{}, false
	}
	return *m.hold, true
}

// Marked reports whether the student was already marked this session.
func (m *Manager) Marked(studentID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, done := m.marked[studentID]
	return done
}

// MarkedCount returns how many students have been marked this session.
func (m *Manager) MarkedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.marked)
}
