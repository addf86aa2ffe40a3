// Package camera provides the video sources the pipeline pulls frames from.
// A source is a scoped resource: the pipeline opens it lazily, closes it
// whenever attendance is inactive and reopens it on the next active frame.
package camera

import (
	"context"
	"image"
)

// Source is a pull-based video source. ReadFrame failures are transient; the
// caller is expected to close the source and retry with a fresh one.
type Source interface {
	ReadFrame(ctx context.Context) (image.Image, error)
	Close() error
}

// Opener acquires a fresh Source. The pipeline holds an Opener rather than a
// Source so the underlying device is not held while attendance is stopped.
type Opener func(ctx context.Context) (Source, error)
