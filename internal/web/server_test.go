package web

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/classtrack/classtrack/internal/config"
	"github.com/classtrack/classtrack/internal/recognize"
	"github.com/classtrack/classtrack/internal/report"
	"github.com/classtrack/classtrack/internal/session"
	"github.com/classtrack/classtrack/internal/store"
)

type stubRecorder struct{}

func (stubRecorder) Mark(ctx context.Context, studentID, name string) (bool, error) {
	return true, nil
}
func (stubRecorder) All(ctx context.Context) ([]store.Record, error) { return nil, nil }
func (stubRecorder) Window(ctx context.Context, date, fromTime string) ([]store.Record, error) {
	return nil, nil
}
func (stubRecorder) Close() error { return nil }

type stubPipeline struct{}

func (stubPipeline) LastStatus() string { return "" }
func (stubPipeline) CaptureSamples(ctx context.Context, dir string, count int, interval time.Duration) (int, error) {
	return count, nil
}

type stubFrames struct{}

func (stubFrames) Frames() (<-chan []byte, func()) {
	ch := make(chan []byte)
	close(ch)
	return ch, func() {}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	profile, err := recognize.LoadProfile("dlib", 0)
	if err != nil {
		t.Fatalf("loading profile: %v", err)
	}
	matcher, err := recognize.NewFlatMatcher(profile, nil)
	if err != nil {
		t.Fatalf("creating matcher: %v", err)
	}

	return NewServer(&config.Config{}, 8080, "localhost", Deps{
		Sessions:    session.NewManager(0),
		Recorder:    stubRecorder{},
		Reports:     report.NewGenerator(t.TempDir()),
		Matcher:     matcher,
		Frames:      stubFrames{},
		Pipeline:    stubPipeline{},
		GalleryPath: "gallery.gob",
		DatasetDir:  "dataset",
	})
}

func TestServer_HealthRoute(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	recorder := httptest.NewRecorder()

	server.Router().ServeHTTP(recorder, req)

	if recorder.Code != 200 {
		t.Errorf("expected 200, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health body: %s", recorder.Body.String())
	}
}

func TestServer_Dashboard(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest("GET", "/", nil)
	recorder := httptest.NewRecorder()

	server.Router().ServeHTTP(recorder, req)

	if recorder.Code != 200 {
		t.Errorf("expected 200, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "/video") {
		t.Error("expected the dashboard to embed the video stream")
	}
}

func TestServer_SessionLifecycleThroughRouter(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/v1/sessions/start", strings.NewReader(`{"name":"Morning"}`))
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, req)
	if recorder.Code != 200 {
		t.Fatalf("start failed with %d: %s", recorder.Code, recorder.Body.String())
	}

	req = httptest.NewRequest("POST", "/api/v1/sessions/stop", nil)
	recorder = httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, req)
	if recorder.Code != 200 {
		t.Fatalf("stop failed with %d: %s", recorder.Code, recorder.Body.String())
	}
	if !strings.Contains(recorder.Body.String(), report.EmptySummary) {
		t.Errorf("expected empty-session summary, got: %s", recorder.Body.String())
	}
}
