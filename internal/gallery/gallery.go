// Package gallery holds the reference face embeddings the matcher searches.
// The artifact is produced by `classtrack gallery build` and loaded read-only
// at startup; a reload atomically replaces the in-use entries.
package gallery

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one reference embedding for a student. A student registered with
// multiple reference images has multiple entries sharing the same StudentID.
type Entry struct {
	StudentID string
	Name      string
	Embedding []float32
}

// Artifact is the on-disk gallery format.
type Artifact struct {
	Profile string // matcher profile the embeddings were produced with
	Dim     int
	Entries []Entry
}

// Load reads a gallery artifact from disk.
func Load(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening gallery artifact: %w", err)
	}
	defer f.Close()

	var a Artifact
	if err := gob.NewDecoder(f).Decode(&a); err != nil {
		return nil, fmt.Errorf("decoding gallery artifact: %w", err)
	}
	return &a, nil
}

// Save writes the artifact atomically (temp file + rename) so a concurrent
// reload never observes a partially written gallery.
func Save(path string, a *Artifact) error {
	if a == nil {
		return errors.New("nil gallery artifact")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating gallery directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".gallery-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp gallery file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(a); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding gallery artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp gallery file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing gallery artifact: %w", err)
	}
	return nil
}

// Person is one student folder found in the dataset directory.
type Person struct {
	StudentID string
	Name      string
	Images    []string // absolute paths to reference images
}

// ScanDataset walks a dataset directory laid out as <id>_<name>/*.jpg and
// returns one Person per folder. Folders without images are skipped.
func ScanDataset(dir string) ([]Person, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading dataset directory: %w", err)
	}

	var people []Person
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, name, ok := strings.Cut(e.Name(), "_")
		if !ok || id == "" || name == "" {
			continue
		}

		images, err := listImages(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if len(images) == 0 {
			continue
		}
		people = append(people, Person{StudentID: id, Name: name, Images: images})
	}
	return people, nil
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading image directory: %w", err)
	}
	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png", ".bmp":
			images = append(images, filepath.Join(dir, e.Name()))
		}
	}
	return images, nil
}
