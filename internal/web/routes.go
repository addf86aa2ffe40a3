package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/classtrack/classtrack/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	sessionsHandler := handlers.NewSessionsHandler(s.deps.Sessions, s.deps.Recorder,
		s.deps.Reports, s.deps.Notifier, s.deps.Pipeline)
	attendanceHandler := handlers.NewAttendanceHandler(s.deps.Recorder)
	videoHandler := handlers.NewVideoHandler(s.deps.Frames)
	galleryHandler := handlers.NewGalleryHandler(s.deps.GalleryPath, s.deps.Matcher)
	registerHandler := handlers.NewRegisterHandler(s.deps.Pipeline, s.deps.DatasetDir)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// Live annotated stream for the operator dashboard
	s.router.Get("/video", videoHandler.Stream)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions/start", sessionsHandler.Start)
		r.Post("/sessions/stop", sessionsHandler.Stop)
		r.Get("/sessions/status", sessionsHandler.Status)

		r.Get("/attendance", attendanceHandler.List)

		r.Post("/gallery/reload", galleryHandler.Reload)
		r.Post("/register", registerHandler.Capture)
	})

	s.router.Get("/", s.serveDashboard)
}

// serveDashboard returns a minimal operator page wrapping the video stream
// and the session controls.
func (s *Server) serveDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>ClassTrack</title>
    <style>
        body { font-family: system-ui, sans-serif; display: flex; flex-direction: column; align-items: center; margin: 0; background: #1a1a2e; color: #eee; }
        h1 { color: #00d9ff; }
        img { border: 2px solid #2a2a3e; border-radius: 4px; max-width: 90vw; }
        .controls { margin: 16px; }
        button { background: #00d9ff; color: #1a1a2e; border: none; padding: 8px 20px; margin: 0 6px; border-radius: 4px; cursor: pointer; font-size: 1em; }
        input { padding: 8px; border-radius: 4px; border: 1px solid #2a2a3e; background: #2a2a3e; color: #eee; }
        #summary { color: #aaa; max-width: 640px; white-space: pre-wrap; }
    </style>
</head>
<body>
    <h1>ClassTrack</h1>
    <img src="/video" alt="live stream">
    <div class="controls">
        <input id="name" placeholder="Session name">
        <button onclick="start()">Start</button>
        <button onclick="stop()">Stop</button>
    </div>
    <div id="summary"></div>
    <script>
        async function start() {
            const name = document.getElementById('name').value;
            const res = await fetch('/api/v1/sessions/start', { method: 'POST', headers: {'Content-Type': 'application/json'}, body: JSON.stringify({name}) });
            const data = await res.json();
            document.getElementById('summary').textContent = res.ok ? 'Session started: ' + (data.name || data.id) : data.error;
        }
        async function stop() {
            const res = await fetch('/api/v1/sessions/stop', { method: 'POST' });
            const data = await res.json();
            document.getElementById('summary').textContent = res.ok ? data.summary : data.error;
        }
    </script>
</body>
</html>`))
}
