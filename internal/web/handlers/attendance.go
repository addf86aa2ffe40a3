package handlers

import (
	"net/http"

	"github.com/classtrack/classtrack/internal/store"
)

// AttendanceHandler serves the durable attendance log.
type AttendanceHandler struct {
	recorder store.Recorder
}

// NewAttendanceHandler creates an attendance log handler.
func NewAttendanceHandler(recorder store.Recorder) *AttendanceHandler {
	return &AttendanceHandler{recorder: recorder}
}

// AttendanceResponse is the full log, most recent first.
type AttendanceResponse struct {
	Count   int            `json:"count"`
	Records []store.Record `json:"records"`
}

// List returns every attendance record.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.recorder.All(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read attendance log")
		return
	}
	if records == nil {
		records = []store.Record{}
	}

	respondJSON(w, http.StatusOK, AttendanceResponse{
		Count:   len(records),
		Records: records,
	})
}
