package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// Capturer grabs raw camera frames for student registration. Implemented by
// pipeline.Pipeline.
type Capturer interface {
	CaptureSamples(ctx context.Context, dir string, count int, interval time.Duration) (int, error)
}

const (
	defaultSampleCount    = 5
	maxSampleCount        = 30
	defaultSampleInterval = 400 * time.Millisecond
)

// RegisterHandler captures reference images for a new student into the
// dataset directory. The gallery must be rebuilt afterwards to pick them up.
type RegisterHandler struct {
	capturer   Capturer
	datasetDir string
}

// NewRegisterHandler creates a student registration handler.
func NewRegisterHandler(capturer Capturer, datasetDir string) *RegisterHandler {
	return &RegisterHandler{capturer: capturer, datasetDir: datasetDir}
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Samples   int    `json:"samples"`
}

// RegisterResponse confirms the captured samples.
type RegisterResponse struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Saved     int    `json:"saved"`
	Dir       string `json:"dir"`
	Note      string `json:"note"`
}

func validPathComponent(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\\")
}

// Capture suspends recognition, saves sample frames into
// <dataset>/<id>_<name>/ and resumes.
func (h *RegisterHandler) Capture(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if !validPathComponent(req.StudentID) {
		respondError(w, http.StatusBadRequest, "student_id is required")
		return
	}
	if !validPathComponent(req.Name) {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Samples <= 0 {
		req.Samples = defaultSampleCount
	}
	if req.Samples > maxSampleCount {
		req.Samples = maxSampleCount
	}

	dir := filepath.Join(h.datasetDir, fmt.Sprintf("%s_%s", req.StudentID, req.Name))
	saved, err := h.capturer.CaptureSamples(r.Context(), dir, req.Samples, defaultSampleInterval)
	if err != nil {
		log.Printf("capturing samples for %s: %v", sanitizeForLog(req.StudentID), err)
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("captured %d of %d samples", saved, req.Samples))
		return
	}

	log.Printf("registered %d samples for %s (%s)", saved, sanitizeForLog(req.Name), sanitizeForLog(req.StudentID))
	respondJSON(w, http.StatusOK, RegisterResponse{
		StudentID: req.StudentID,
		Name:      req.Name,
		Saved:     saved,
		Dir:       dir,
		Note:      "run 'classtrack gallery build' to add the student to the gallery",
	})
}
