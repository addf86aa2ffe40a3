package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/classtrack/classtrack/internal/report"
	"github.com/classtrack/classtrack/internal/session"
	"github.com/classtrack/classtrack/internal/store"
)

// ReportNotifier pushes a finished session report to operator channels.
// Implemented by notify.Notifier.
type ReportNotifier interface {
	Enabled() bool
	SendReport(sessionName string, start, end time.Time, rep *report.Report) error
}

// PipelineStatus exposes the pipeline's last non-fatal problem to the API.
type PipelineStatus interface {
	LastStatus() string
}

// SessionsHandler controls the attendance session lifecycle.
type SessionsHandler struct {
	sessions *session.Manager
	recorder store.Recorder
	reports  *report.Generator
	notifier ReportNotifier
	pipeline PipelineStatus
	now      func() time.Time
}

// NewSessionsHandler creates a session lifecycle handler. notifier and
// pipeline may be nil.
func NewSessionsHandler(sessions *session.Manager, recorder store.Recorder,
	reports *report.Generator, notifier ReportNotifier, pipeline PipelineStatus) *SessionsHandler {
	return &SessionsHandler{
		sessions: sessions,
		recorder: recorder,
		reports:  reports,
		notifier: notifier,
		pipeline: pipeline,
		now:      time.Now,
	}
}

// StartRequest is the body of POST /sessions/start.
type StartRequest struct {
	Name string `json:"name"`
}

// StartResponse confirms the new session.
type StartResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartedAt string `json:"started_at"`
}

// Start begins a new attendance session.
func (h *SessionsHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if h.sessions.Active() {
		respondError(w, http.StatusConflict, "a session is already running")
		return
	}

	id, startedAt := h.sessions.Start(req.Name)
	log.Printf("session '%s' started (%s)", sanitizeForLog(req.Name), id)

	respondJSON(w, http.StatusOK, StartResponse{
		ID:        id,
		Name:      req.Name,
		StartedAt: startedAt.Format(time.RFC3339),
	})
}

// StopResponse carries the aggregated session report.
type StopResponse struct {
	Name    string         `json:"name"`
	Summary string         `json:"summary"`
	Report  *report.Report `json:"report"`
}

// Stop ends the session, aggregates its report and dispatches notifications.
// Report generation failures still stop the session; the error is returned so
// the operator can regenerate offline from the durable store.
func (h *SessionsHandler) Stop(w http.ResponseWriter, r *http.Request) {
	name, startedAt, ok := h.sessions.Stop()
	if !ok {
		respondError(w, http.StatusConflict, "no session is running")
		return
	}
	log.Printf("session '%s' stopped", sanitizeForLog(name))

	rep, err := h.reports.Generate(r.Context(), h.recorder, startedAt, name)
	if err != nil {
		log.Printf("generating report for session '%s': %v", sanitizeForLog(name), err)
		respondError(w, http.StatusInternalServerError, "session stopped but report generation failed")
		return
	}

	if h.notifier != nil && h.notifier.Enabled() {
		// Delivery must not hold up the stop response.
		end := h.now()
		go func() {
			if err := h.notifier.SendReport(name, startedAt, end, rep); err != nil {
				log.Printf("notifying session report: %v", err)
			}
		}()
	}

	respondJSON(w, http.StatusOK, StopResponse{
		Name:    name,
		Summary: rep.Summary,
		Report:  rep,
	})
}

// StatusResponse describes the current session state.
type StatusResponse struct {
	Active      bool   `json:"active"`
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	StartedAt   string `json:"started_at,omitempty"`
	MarkedCount int    `json:"marked_count"`
	LastProblem string `json:"last_problem,omitempty"`
}

// Status reports the session state and the pipeline's last problem.
func (h *SessionsHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, name, startedAt, active := h.sessions.Info()

	resp := StatusResponse{
		Active:      active,
		MarkedCount: h.sessions.MarkedCount(),
	}
	if active {
		resp.ID = id
		resp.Name = name
		resp.StartedAt = startedAt.Format(time.RFC3339)
	}
	if h.pipeline != nil {
		resp.LastProblem = h.pipeline.LastStatus()
	}

	respondJSON(w, http.StatusOK, resp)
}
