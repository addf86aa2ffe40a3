// Package web exposes the operator surface: the live annotated video stream,
// session lifecycle endpoints and the attendance log.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/classtrack/classtrack/internal/config"
	"github.com/classtrack/classtrack/internal/recognize"
	"github.com/classtrack/classtrack/internal/report"
	"github.com/classtrack/classtrack/internal/session"
	"github.com/classtrack/classtrack/internal/store"
	"github.com/classtrack/classtrack/internal/web/handlers"
	"github.com/classtrack/classtrack/internal/web/middleware"
)

// Deps are the collaborators the handlers are wired to.
type Deps struct {
	Sessions *session.Manager
	Recorder store.Recorder
	Reports  *report.Generator
	Matcher  recognize.Matcher
	Notifier handlers.ReportNotifier
	Frames   handlers.FrameSource
	Pipeline interface {
		handlers.PipelineStatus
		handlers.Capturer
	}
	GalleryPath string
	DatasetDir  string
}

// Server represents the web server
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
	deps       Deps
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, port int, host string, deps Deps) *Server {
	r := chi.NewRouter()

	s := &Server{
		config: cfg,
		router: r,
		deps:   deps,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", host, port),
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// No write timeout: the MJPEG stream stays open for the whole session.
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
