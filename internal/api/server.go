// Package api exposes the HTTP interface for the project dashboard.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/project-dashboard/internal/dashboard"
	"github.com/JakeFAU/project-dashboard/internal/metrics"
	"github.com/JakeFAU/project-dashboard/internal/policy/ratelimit"
	"github.com/JakeFAU/project-dashboard/internal/project"
)

// Dashboard is the application layer the handlers call into.
type Dashboard interface {
	List(ctx context.Context, opts project.ListOptions) (project.Page, error)
	Summary(ctx context.Context) ([]project.StatusCount, error)
	Create(ctx context.Context, req project.CreateRequest) (project.Project, error)
	Export(ctx context.Context) (dashboard.ExportResult, error)
	Ready(ctx context.Context) error
}

// Options configure the HTTP surface.
type Options struct {
	// APIKey guards /api/v1 when non-empty.
	APIKey         string
	RequestTimeout time.Duration
	ReadyTimeout   time.Duration
	PageSize       int
	Limiter        *ratelimit.Limiter
}

// Server wires HTTP handlers to the dashboard service.
type Server struct {
	router chi.Router
	svc    Dashboard
	logger *zap.Logger
	opts   Options
	page   *pageRenderer
}

const maxBodyBytes = 1 << 20

// NewServer constructs a Server with middleware and routes.
func NewServer(svc Dashboard, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = project.DefaultPageSize
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 2 * time.Second
	}
	s := &Server{
		svc:    svc,
		logger: logger.Named("api"),
		opts:   opts,
		page:   newPageRenderer(),
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoverMiddleware(s.logger))
	r.Use(timeoutMiddleware(opts.RequestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Get("/", s.index)
	r.With(rateLimitMiddleware(opts.Limiter)).Post("/projects", s.createForm)

	r.Route("/api/v1", func(r chi.Router) {
		if opts.APIKey != "" {
			r.Use(apiKeyMiddleware(opts.APIKey))
		}
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.listProjects)
			r.With(rateLimitMiddleware(opts.Limiter)).Post("/", s.createProject)
			r.Get("/summary", s.summary)
		})
		r.With(rateLimitMiddleware(opts.Limiter)).Post("/exports", s.export)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.ReadyTimeout)
	defer cancel()
	if err := s.svc.Ready(ctx); err != nil {
		s.logger.Warn("readiness check failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// errorStatus maps domain errors to HTTP status codes and client-safe messages.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, project.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, project.ErrDuplicate):
		return http.StatusConflict, err.Error()
	case errors.Is(err, dashboard.ErrExportDisabled):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream timed out"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
	}
	writeError(w, status, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
