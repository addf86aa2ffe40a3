package recognize

import (
	"math"
	"testing"

	"github.com/classtrack/classtrack/internal/gallery"
)

func testProfile(metric string, threshold float64, dim int) Profile {
	return Profile{Name: "test", Metric: metric, Threshold: threshold, Dim: dim}
}

func TestFlatMatcher_EmptyGallery(t *testing.T) {
	m, err := NewFlatMatcher(testProfile("euclidean", 0.45, 4), nil)
	if err != nil {
		t.Fatalf("NewFlatMatcher failed: %v", err)
	}

	res := m.Match([]float32{1, 2, 3, 4})

	if res.Recognized() {
		t.Error("expected unknown result for empty gallery")
	}
	if res.Name != UnknownName {
		t.Errorf("expected name '%s', got '%s'", UnknownName, res.Name)
	}
	if res.Distance != -1 {
		t.Errorf("expected distance -1 (none computed), got %f", res.Distance)
	}
}

func TestFlatMatcher_ExactMatch(t *testing.T) {
	entries := []gallery.Entry{
		{StudentID: "S1", Name: "Alice", Embedding: []float32{0.1, 0.2, 0.3, 0.4}},
		{StudentID: "S2", Name: "Bob", Embedding: []float32{0.9, 0.8, 0.7, 0.6}},
	}
	m, err := NewFlatMatcher(testProfile("euclidean", 0.45, 4), entries)
	if err != nil {
		t.Fatalf("NewFlatMatcher failed: %v", err)
	}

	res := m.Match([]float32{0.9, 0.8, 0.7, 0.6})

	if !res.Recognized() {
		t.Fatal("expected a recognized result")
	}
	if res.StudentID != "S2" || res.Name != "Bob" {
		t.Errorf("expected S2/Bob, got %s/%s", res.StudentID, res.Name)
	}
	if res.Distance != 0 {
		t.Errorf("expected distance 0 for identical embedding, got %f", res.Distance)
	}
}

func TestFlatMatcher_AboveThresholdIsUnknown(t *testing.T) {
	entries := []gallery.Entry{
		{StudentID: "S1", Name: "Alice", Embedding: []float32{0, 0, 0, 0}},
	}
	m, err := NewFlatMatcher(testProfile("euclidean", 0.45, 4), entries)
	if err != nil {
		t.Fatalf("NewFlatMatcher failed: %v", err)
	}

	// Distance to the only entry is exactly 0.5, above the 0.45 threshold.
	res := m.Match([]float32{0.5, 0, 0, 0})

	if res.Recognized() {
		t.Error("expected unknown result above threshold")
	}
	if math.Abs(res.Distance-0.5) > 1e-9 {
		t.Errorf("expected reported distance 0.5, got %f", res.Distance)
	}
}

func TestFlatMatcher_TieBreakFirstEntryWins(t *testing.T) {
	entries := []gallery.Entry{
		{StudentID: "S1", Name: "Alice", Embedding: []float32{0.1, 0, 0, 0}},
		{StudentID: "S2", Name: "Bob", Embedding: []float32{-0.1, 0, 0, 0}},
	}
	m, err := NewFlatMatcher(testProfile("euclidean", 0.45, 4), entries)
	if err != nil {
		t.Fatalf("NewFlatMatcher failed: %v", err)
	}

	// Equidistant from both entries; the first one must win.
	res := m.Match([]float32{0, 0, 0, 0})

	if res.StudentID != "S1" {
		t.Errorf("expected tie-break to pick S1, got %s", res.StudentID)
	}
}

func TestFlatMatcher_Reload(t *testing.T) {
	m, err := NewFlatMatcher(testProfile("euclidean", 0.45, 2), []gallery.Entry{
		{StudentID: "S1", Name: "Alice", Embedding: []float32{1, 0}},
	})
	if err != nil {
		t.Fatalf("NewFlatMatcher failed: %v", err)
	}

	if err := m.Reload([]gallery.Entry{
		{StudentID: "S2", Name: "Bob", Embedding: []float32{0, 1}},
	}); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	res := m.Match([]float32{0, 1})
	if res.StudentID != "S2" {
		t.Errorf("expected reloaded gallery to match S2, got %s", res.StudentID)
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 entry after reload, got %d", m.Len())
	}
}

func TestFlatMatcher_ReloadRejectsWrongDimension(t *testing.T) {
	m, err := NewFlatMatcher(testProfile("euclidean", 0.45, 2), nil)
	if err != nil {
		t.Fatalf("NewFlatMatcher failed: %v", err)
	}

	err = m.Reload([]gallery.Entry{
		{StudentID: "S1", Name: "Alice", Embedding: []float32{1, 0, 0}},
	})
	if err == nil {
		t.Error("expected error for mismatched embedding dimension")
	}
}

func TestHNSWMatcher_MatchesAndThresholds(t *testing.T) {
	entries := []gallery.Entry{
		{StudentID: "S1", Name: "Alice", Embedding: []float32{0, 0, 0, 0}},
		{StudentID: "S2", Name: "Bob", Embedding: []float32{5, 5, 5, 5}},
	}
	m, err := NewHNSWMatcher(testProfile("euclidean", 0.45, 4), entries)
	if err != nil {
		t.Fatalf("NewHNSWMatcher failed: %v", err)
	}

	res := m.Match([]float32{0, 0, 0, 0})
	if res.StudentID != "S1" || res.Distance != 0 {
		t.Errorf("expected exact match for S1, got %+v", res)
	}

	res = m.Match([]float32{2, 2, 2, 2})
	if res.Recognized() {
		t.Errorf("expected unknown for distant query, got %+v", res)
	}
}

func TestHNSWMatcher_EmptyGallery(t *testing.T) {
	m, err := NewHNSWMatcher(testProfile("cosine", 0.68, 4), nil)
	if err != nil {
		t.Fatalf("NewHNSWMatcher failed: %v", err)
	}
	if res := m.Match([]float32{1, 0, 0, 0}); res.Recognized() || res.Distance != -1 {
		t.Errorf("expected empty-gallery unknown, got %+v", res)
	}
}

func TestLoadProfile(t *testing.T) {
	p, err := LoadProfile("dlib", 0)
	if err != nil {
		t.Fatalf("LoadProfile failed: %v", err)
	}
	if p.Metric != "euclidean" || p.Threshold != 0.45 || p.Dim != 128 {
		t.Errorf("unexpected dlib profile: %+v", p)
	}

	p, err = LoadProfile("arcface", 0.5)
	if err != nil {
		t.Fatalf("LoadProfile failed: %v", err)
	}
	if p.Threshold != 0.5 {
		t.Errorf("expected threshold override 0.5, got %f", p.Threshold)
	}

	if _, err := LoadProfile("nonexistent", 0); err == nil {
		t.Error("expected error for unknown profile")
	}
}
