package camera

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// Dir replays still images from a directory in filename order, looping at the
// end. Useful for offline runs and tests without camera hardware.
type Dir struct {
	paths []string
	next  int
}

// OpenDir creates a directory-backed source.
func OpenDir(dir string) (*Dir, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading frame directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png", ".bmp":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no frames found in %s", dir)
	}
	sort.Strings(paths)

	return &Dir{paths: paths}, nil
}

// ReadFrame decodes the next image, wrapping around at the end.
func (d *Dir) ReadFrame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := d.paths[d.next%len(d.paths)]
	d.next++

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening frame %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding frame %s: %w", path, err)
	}
	return img, nil
}

// Close is a no-op for directory sources.
func (d *Dir) Close() error {
	return nil
}

// DirOpener returns an Opener for a frame directory.
func DirOpener(dir string) Opener {
	return func(ctx context.Context) (Source, error) {
		return OpenDir(dir)
	}
}
