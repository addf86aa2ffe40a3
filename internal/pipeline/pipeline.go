// Package pipeline runs the continuous recognition loop: pull a frame,
// detect and match faces, let the session manager decide whether to persist,
// and publish the annotated frame for the operator stream.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/classtrack/classtrack/internal/camera"
	"github.com/classtrack/classtrack/internal/detect"
	"github.com/classtrack/classtrack/internal/recognize"
	"github.com/classtrack/classtrack/internal/session"
	"github.com/classtrack/classtrack/internal/store"
)

// mode is the pipeline state for one iteration.
type mode int

const (
	modeSuspended mode = iota
	modeInactive
	modeHold
	modeNormal
)

// idleDelay is the pause between iterations while suspended or inactive, and
// after a failed frame read.
const idleDelay = 500 * time.Millisecond

// FaceService detects faces and computes their embeddings. Implemented by
// detect.Client; faked in tests.
type FaceService interface {
	Detect(ctx context.Context, frameJPEG []byte) ([]detect.Box, error)
	Encode(ctx context.Context, frameJPEG []byte) ([]detect.Face, error)
}

// Options configures a Pipeline.
type Options struct {
	ScaleFactor float64 // detection downscale factor, default 0.5
	MaxFPS      float64 // frame-rate cap, default 15
}

// Pipeline owns the camera resource and drives recognition. All mutable
// per-frame state (current source, hold slot, marked set) is reached only
// from the Run loop; control methods are safe to call concurrently.
type Pipeline struct {
	open     camera.Opener
	faces    FaceService
	matcher  recognize.Matcher
	sessions *session.Manager
	recorder store.Recorder
	scale    float64
	limiter  *rate.Limiter
	idle     time.Duration

	frames    *broadcaster
	suspended atomic.Bool

	src camera.Source // open only while a session is active

	statusMu sync.Mutex
	status   string // last non-fatal persistence problem, for the operator
}

// New creates a pipeline. The camera is not opened until a session starts.
func New(open camera.Opener, faces FaceService, matcher recognize.Matcher,
	sessions *session.Manager, recorder store.Recorder, opts Options) *Pipeline {
	if opts.ScaleFactor <= 0 || opts.ScaleFactor > 1 {
		opts.ScaleFactor = 0.5
	}
	if opts.MaxFPS <= 0 {
		opts.MaxFPS = 15
	}
	return &Pipeline{
		open:     open,
		faces:    faces,
		matcher:  matcher,
		sessions: sessions,
		recorder: recorder,
		scale:    opts.ScaleFactor,
		limiter:  rate.NewLimiter(rate.Limit(opts.MaxFPS), 1),
		idle:     idleDelay,
		frames:   newBroadcaster(),
	}
}

// Frames returns a subscription to the annotated frame stream.
func (p *Pipeline) Frames() (<-chan []byte, func()) {
	return p.frames.Subscribe()
}

// Suspend pauses all processing, e.g. while registration capture uses the
// camera. Resume with Resume.
func (p *Pipeline) Suspend() { p.suspended.Store(true) }

// Resume continues processing after Suspend.
func (p *Pipeline) Resume() { p.suspended.Store(false) }

// LastStatus returns the most recent non-fatal problem ("" when healthy).
func (p *Pipeline) LastStatus() string {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	return p.status
}

func (p *Pipeline) setStatus(s string) {
	p.statusMu.Lock()
	p.status = s
	p.statusMu.Unlock()
}

// Run drives the loop until ctx is canceled. Transient failures (camera
// reads, face service hiccups) degrade to a waiting state and retry; they
// never abort the loop.
func (p *Pipeline) Run(ctx context.Context) error {
	defer p.releaseCamera()

	for {
		if err := p.limiter.Wait(ctx); err != nil {
			return ctx.Err()
		}
		switch _, err := p.step(ctx); {
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			log.Printf("pipeline: %v", err)
			if !sleep(ctx, p.idle) {
				return ctx.Err()
			}
		}
	}
}

// step executes one iteration and reports which mode ran.
func (p *Pipeline) step(ctx context.Context) (mode, error) {
	if p.suspended.Load() {
		sleep(ctx, p.idle)
		return modeSuspended, nil
	}

	if !p.sessions.Active() {
		// Do not hold the camera while attendance is stopped.
		p.releaseCamera()
		if jpg, err := encodeJPEG(placeholderFrame()); err == nil {
			p.frames.Publish(jpg)
		}
		sleep(ctx, p.idle)
		return modeInactive, nil
	}

	frame, err := p.readFrame(ctx)
	if err != nil {
		return modeNormal, fmt.Errorf("reading frame: %w", err)
	}

	if hold, ok := p.sessions.ActiveHold(); ok {
		return modeHold, p.holdFrame(ctx, frame, hold)
	}
	return modeNormal, p.recognizeFrame(ctx, frame)
}

// readFrame pulls the next frame, opening the camera lazily. On failure the
// source is released so the next iteration reacquires it.
func (p *Pipeline) readFrame(ctx context.Context) (image.Image, error) {
	if p.src == nil {
		src, err := p.open(ctx)
		if err != nil {
			return nil, fmt.Errorf("opening camera: %w", err)
		}
		p.src = src
	}

	frame, err := p.src.ReadFrame(ctx)
	if err != nil {
		p.releaseCamera()
		return nil, err
	}
	return frame, nil
}

func (p *Pipeline) releaseCamera() {
	if p.src != nil {
		if err := p.src.Close(); err != nil {
			log.Printf("closing camera: %v", err)
		}
		p.src = nil
	}
}

// holdFrame keeps the confirmation overlay anchored on-screen while the hold
// lasts: detection only, no matching and no new recognition events.
func (p *Pipeline) holdFrame(ctx context.Context, frame image.Image, hold session.Hold) error {
	small, err := encodeJPEG(downscale(frame, p.scale))
	if err != nil {
		return err
	}
	boxes, err := p.faces.Detect(ctx, small)
	if err != nil {
		return fmt.Errorf("detecting faces: %w", err)
	}

	annotated := toRGBA(frame)
	if len(boxes) > 0 {
		// Assume the first face is the held student.
		box := boxes[0].Scale(1 / p.scale)
		drawBox(annotated, box, colorRecognized, fmt.Sprintf("%s - Mark Success", hold.Name))
	}
	drawText(annotated, "VERIFIED", 50, 50, colorRecognized)

	return p.publish(annotated)
}

// recognizeFrame runs the full pipeline on one frame: detect, encode, match,
// decide, persist, annotate.
func (p *Pipeline) recognizeFrame(ctx context.Context, frame image.Image) error {
	small, err := encodeJPEG(downscale(frame, p.scale))
	if err != nil {
		return err
	}
	faces, err := p.faces.Encode(ctx, small)
	if err != nil {
		return fmt.Errorf("encoding faces: %w", err)
	}

	annotated := toRGBA(frame)
	for _, face := range faces {
		res := p.matcher.Match(face.Embedding)
		box := face.Box.Scale(1 / p.scale)

		if !res.Recognized() {
			drawBox(annotated, box, colorUnknown, recognize.UnknownName)
			continue
		}

		label := fmt.Sprintf("%s (%s)", res.Name, res.StudentID)
		drawBox(annotated, box, colorRecognized, label)

		if p.sessions.OnRecognition(res.StudentID, res.Name) {
			p.mark(ctx, res)
		}
	}

	return p.publish(annotated)
}

// mark persists a recognition the session manager admitted. A persistence
// failure is logged and surfaced as a status; the marked set is deliberately
// not rolled back, so the operator can re-mark manually after fixing the
// store.
func (p *Pipeline) mark(ctx context.Context, res recognize.Result) {
	inserted, err := p.recorder.Mark(ctx, res.StudentID, res.Name)
	switch {
	case err != nil:
		log.Printf("attendance write failed for %s (%s): %v", res.Name, res.StudentID, err)
		p.setStatus(fmt.Sprintf("attendance write failed for %s: %v", res.StudentID, err))
	case inserted:
		log.Printf("marked attendance for %s (%s), distance %.3f", res.Name, res.StudentID, res.Distance)
		p.setStatus("")
	default:
		// Recently recorded at store level (e.g., previous process run).
		log.Printf("attendance for %s (%s) already recorded recently", res.Name, res.StudentID)
	}
}

func (p *Pipeline) publish(frame image.Image) error {
	jpg, err := encodeJPEG(frame)
	if err != nil {
		return err
	}
	p.frames.Publish(jpg)
	return nil
}

// CaptureSamples suspends recognition and saves count raw frames into dir,
// used to collect reference images when registering a student. The pipeline
// resumes afterwards even on failure.
func (p *Pipeline) CaptureSamples(ctx context.Context, dir string, count int, interval time.Duration) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating sample directory: %w", err)
	}

	p.Suspend()
	defer p.Resume()

	src, err := p.open(ctx)
	if err != nil {
		return 0, fmt.Errorf("opening camera for capture: %w", err)
	}
	defer src.Close()

	saved := 0
	for saved < count {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		frame, err := src.ReadFrame(ctx)
		if err != nil {
			if !sleep(ctx, 100*time.Millisecond) {
				return saved, ctx.Err()
			}
			continue
		}
		jpg, err := encodeJPEG(frame)
		if err != nil {
			return saved, err
		}
		path := filepath.Join(dir, fmt.Sprintf("%d.jpg", saved))
		if err := os.WriteFile(path, jpg, 0o644); err != nil {
			return saved, fmt.Errorf("saving sample: %w", err)
		}
		saved++
		if saved < count && !sleep(ctx, interval) {
			return saved, ctx.Err()
		}
	}
	return saved, nil
}

// sleep waits d or until ctx is done, reporting whether the full delay
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
