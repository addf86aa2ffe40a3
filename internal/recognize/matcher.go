// Package recognize classifies observed face embeddings against the loaded
// gallery: nearest gallery entry within the profile threshold wins, anything
// farther is reported as unknown.
package recognize

import (
	"fmt"
	"sync"

	"github.com/classtrack/classtrack/internal/gallery"
)

// UnknownName is the display name reported when no gallery entry is close enough.
const UnknownName = "Unknown"

// Result is the outcome of matching one embedding. StudentID is empty for
// unknown faces; Distance still carries the observed minimum for diagnostics,
// or -1 when the gallery was empty and no distance was computed.
type Result struct {
	StudentID string
	Name      string
	Distance  float64
}

// Recognized reports whether the result identifies a gallery student.
func (r Result) Recognized() bool {
	return r.StudentID != ""
}

// Matcher classifies a single embedding. Implementations are safe for
// concurrent use; Reload atomically replaces the gallery in use.
type Matcher interface {
	Match(embedding []float32) Result
	Reload(entries []gallery.Entry) error
	Len() int
}

// FlatMatcher is an exact nearest-neighbor matcher using a linear scan.
// Galleries here are classroom sized, so the scan is the default; see
// HNSWMatcher for large deployments.
type FlatMatcher struct {
	profile  Profile
	distance func(a, b []float32) float64

	mu      sync.RWMutex
	entries []gallery.Entry
}

// NewFlatMatcher creates a matcher for the given profile and gallery entries.
func NewFlatMatcher(profile Profile, entries []gallery.Entry) (*FlatMatcher, error) {
	dist, err := profile.DistanceFunc()
	if err != nil {
		return nil, err
	}
	m := &FlatMatcher{profile: profile, distance: dist}
	if err := m.Reload(entries); err != nil {
		return nil, err
	}
	return m, nil
}

// Match returns the closest gallery identity within the profile threshold.
// An empty gallery returns unknown immediately without computing any distance.
func (m *FlatMatcher) Match(embedding []float32) Result {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.entries) == 0 {
		return Result{Name: UnknownName, Distance: -1}
	}

	best := 0
	bestDist := m.distance(embedding, m.entries[0].Embedding)
	for i := 1; i < len(m.entries); i++ {
		// Strict less-than keeps the first entry at the minimum (stable tie-break).
		if d := m.distance(embedding, m.entries[i].Embedding); d < bestDist {
			best = i
			bestDist = d
		}
	}

	if bestDist > m.profile.Threshold {
		return Result{Name: UnknownName, Distance: bestDist}
	}
	return Result{
		StudentID: m.entries[best].StudentID,
		Name:      m.entries[best].Name,
		Distance:  bestDist,
	}
}

// Reload atomically replaces the gallery entries in use.
func (m *FlatMatcher) Reload(entries []gallery.Entry) error {
	for i := range entries {
		if len(entries[i].Embedding) != m.profile.Dim {
			return fmt.Errorf("entry %s has dimension %d, profile %s expects %d",
				entries[i].StudentID, len(entries[i].Embedding), m.profile.Name, m.profile.Dim)
		}
	}

	m.mu.Lock()
	m.entries = entries
	m.mu.Unlock()
	return nil
}

// Len returns the number of gallery entries in use.
func (m *FlatMatcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
