package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/classtrack/classtrack/internal/report"
	"github.com/classtrack/classtrack/internal/store"
)

type fakeRecorder struct {
	records []store.Record
	err     error
}

func (f *fakeRecorder) Mark(ctx context.Context, studentID, name string) (bool, error) {
	return true, f.err
}

func (f *fakeRecorder) All(ctx context.Context) ([]store.Record, error) {
	return f.records, f.err
}

func (f *fakeRecorder) Window(ctx context.Context, date, fromTime string) ([]store.Record, error) {
	return f.records, f.err
}

func (f *fakeRecorder) Close() error { return nil }

type fakeNotifier struct {
	enabled bool
	sent    chan string
}

func newFakeNotifier(enabled bool) *fakeNotifier {
	return &fakeNotifier{enabled: enabled, sent: make(chan string, 1)}
}

func (f *fakeNotifier) Enabled() bool { return f.enabled }

func (f *fakeNotifier) SendReport(sessionName string, start, end time.Time, rep *report.Report) error {
	f.sent <- sessionName
	return nil
}

type fakePipeline struct {
	status   string
	captured int
	err      error
	dir      string
}

func (f *fakePipeline) LastStatus() string { return f.status }

func (f *fakePipeline) CaptureSamples(ctx context.Context, dir string, count int, interval time.Duration) (int, error) {
	f.dir = dir
	if f.err != nil {
		return f.captured, f.err
	}
	f.captured = count
	return count, nil
}

func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.NewDecoder(recorder.Body).Decode(target); err != nil {
		t.Fatalf("failed to parse JSON response: %v", err)
	}
}

func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d (body: %s)", expected, recorder.Code, recorder.Body.String())
	}
}

func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var resp map[string]string
	parseJSONResponse(t, recorder, &resp)
	if resp["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, resp["error"])
	}
}
