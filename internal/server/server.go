// Package server exposes the job registry over a small read-only HTTP API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	apperrors "github.com/jobsherpa/jobsherpa/internal/errors"
	"github.com/jobsherpa/jobsherpa/pkg/jobregistry"
)

// Server serves the status API for one job registry.
type Server struct {
	host    string
	port    int
	version string
	tracker *jobregistry.Tracker
	logger  *zap.Logger
	router  chi.Router
}

// New creates a server. The tracker may be nil, in which case job routes
// respond 503.
func New(host string, port int, version string, tracker *jobregistry.Tracker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		host:    host,
		port:    port,
		version: version,
		tracker: tracker,
		logger:  logger,
	}
	s.router = s.routes()
	return s
}

// Port returns the configured listen port.
func (s *Server) Port() int { return s.port }

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.NotFound(apperrors.NotFoundHandler)
	r.MethodNotAllowed(apperrors.MethodNotAllowedHandler)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Get("/jobs", s.handleListJobs)
	r.Get("/jobs/{jobID}", s.handleGetJob)
	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, readTimeout, writeTimeout, idleTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status API listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// handleListJobs refreshes non-terminal jobs against the scheduler, then
// returns every record newest first.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		apperrors.WriteJSON(w, http.StatusServiceUnavailable, "REGISTRY_UNAVAILABLE", "job registry is not configured")
		return
	}
	if err := s.tracker.CheckAndUpdateAll(r.Context()); err != nil {
		// Serve the cached view; staleness beats an error page here.
		s.logger.Warn("status refresh failed, serving cached records", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, s.tracker.All())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		apperrors.WriteJSON(w, http.StatusServiceUnavailable, "REGISTRY_UNAVAILABLE", "job registry is not configured")
		return
	}
	jobID := chi.URLParam(r, "jobID")
	if _, ok, err := s.tracker.GetStatus(r.Context(), jobID); err != nil {
		s.logger.Warn("status refresh failed, serving cached record",
			zap.String("job_id", jobID),
			zap.Error(err))
	} else if !ok {
		apperrors.WriteJSON(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("no record of job %s", jobID))
		return
	}
	rec, ok := s.tracker.Record(jobID)
	if !ok {
		apperrors.WriteJSON(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("no record of job %s", jobID))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
