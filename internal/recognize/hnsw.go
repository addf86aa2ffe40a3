package recognize

import (
	"fmt"
	"sync"

	"github.com/coder/hnsw"

	"github.com/classtrack/classtrack/internal/gallery"
)

// hnswMaxNeighbors is the M parameter of the HNSW graph.
const hnswMaxNeighbors = 16

// HNSWMatcher is an approximate nearest-neighbor matcher for large galleries.
// Same contract as FlatMatcher; the graph is rebuilt on Reload.
type HNSWMatcher struct {
	profile  Profile
	distance func(a, b []float32) float64

	mu      sync.RWMutex
	graph   *hnsw.Graph[int]
	entries []gallery.Entry
}

// NewHNSWMatcher creates an HNSW-backed matcher for the given profile.
func NewHNSWMatcher(profile Profile, entries []gallery.Entry) (*HNSWMatcher, error) {
	dist, err := profile.DistanceFunc()
	if err != nil {
		return nil, err
	}
	m := &HNSWMatcher{profile: profile, distance: dist}
	if err := m.Reload(entries); err != nil {
		return nil, err
	}
	return m, nil
}

// Match searches the graph for the nearest gallery entry and applies the
// profile threshold. An empty gallery returns unknown immediately.
func (m *HNSWMatcher) Match(embedding []float32) Result {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.graph == nil || len(m.entries) == 0 {
		return Result{Name: UnknownName, Distance: -1}
	}

	neighbors := m.graph.Search(embedding, 1)
	if len(neighbors) == 0 {
		return Result{Name: UnknownName, Distance: -1}
	}

	// Recompute with the profile metric; graph distances are float32.
	entry := m.entries[neighbors[0].Key]
	d := m.distance(embedding, entry.Embedding)
	if d > m.profile.Threshold {
		return Result{Name: UnknownName, Distance: d}
	}
	return Result{StudentID: entry.StudentID, Name: entry.Name, Distance: d}
}

// Reload rebuilds the graph from the given entries.
func (m *HNSWMatcher) Reload(entries []gallery.Entry) error {
	for i := range entries {
		if len(entries[i].Embedding) != m.profile.Dim {
			return fmt.Errorf("entry %s has dimension %d, profile %s expects %d",
				entries[i].StudentID, len(entries[i].Embedding), m.profile.Name, m.profile.Dim)
		}
	}

	var g *hnsw.Graph[int]
	if len(entries) > 0 {
		g = hnsw.NewGraph[int]()
		g.M = hnswMaxNeighbors
		g.Ml = 1.0 / float64(hnswMaxNeighbors) // Standard HNSW formula
		switch m.profile.Metric {
		case "cosine":
			g.Distance = hnsw.CosineDistance
		default:
			g.Distance = hnsw.EuclideanDistance
		}
		for i := range entries {
			g.Add(hnsw.MakeNode(i, entries[i].Embedding))
		}
	}

	m.mu.Lock()
	m.graph = g
	m.entries = entries
	m.mu.Unlock()
	return nil
}

// Len returns the number of gallery entries in use.
func (m *HNSWMatcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
