package handlers

import (
	"fmt"
	"net/http"
)

// FrameSource is a subscription to the pipeline's annotated frame stream.
type FrameSource interface {
	Frames() (frames <-chan []byte, cancel func())
}

// VideoHandler serves the live annotated stream as MJPEG.
type VideoHandler struct {
	source FrameSource
}

// NewVideoHandler creates the MJPEG stream handler.
func NewVideoHandler(source FrameSource) *VideoHandler {
	return &VideoHandler{source: source}
}

// Stream writes a multipart/x-mixed-replace response, one JPEG part per
// pipeline frame, until the client disconnects.
func (h *VideoHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	frames, cancel := h.source.Frames()
	defer cancel()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(frame)); err != nil {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			if _, err := fmt.Fprint(w, "\r\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
