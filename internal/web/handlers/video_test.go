package handlers

import (
	"bufio"
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeFrameSource struct {
	frames chan []byte
}

func (f *fakeFrameSource) Frames() (<-chan []byte, func()) {
	return f.frames, func() {}
}

func TestVideoHandler_StreamsFrames(t *testing.T) {
	source := &fakeFrameSource{frames: make(chan []byte, 2)}
	source.frames <- []byte("jpeg-one")
	source.frames <- []byte("jpeg-two")
	close(source.frames)

	handler := NewVideoHandler(source)

	req := httptest.NewRequest("GET", "/video", nil)
	recorder := httptest.NewRecorder()

	handler.Stream(recorder, req)

	if ct := recorder.Header().Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("expected MJPEG content type, got '%s'", ct)
	}

	body := recorder.Body.String()
	for _, want := range []string{"--frame", "Content-Type: image/jpeg", "jpeg-one", "jpeg-two"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected stream to contain '%s'", want)
		}
	}

	// Both parts must carry correct lengths.
	scanner := bufio.NewScanner(bytes.NewBufferString(body))
	lengths := 0
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "Content-Length: 8") {
			lengths++
		}
	}
	if lengths != 2 {
		t.Errorf("expected 2 content-length headers, got %d", lengths)
	}
}

func TestVideoHandler_StopsOnDisconnect(t *testing.T) {
	source := &fakeFrameSource{frames: make(chan []byte)}
	handler := NewVideoHandler(source)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/video", nil).WithContext(ctx)
	recorder := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler.Stream(recorder, req)
		close(done)
	}()

	cancel()
	<-done
}
