// Package api exposes assessments over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/efebarandurmaz/ontometer/internal/evaluation"
	"github.com/efebarandurmaz/ontometer/internal/history"
	"github.com/efebarandurmaz/ontometer/internal/observability"
	"github.com/efebarandurmaz/ontometer/internal/server"
)

// DefaultMaxUploadBytes bounds request bodies when Options leave it unset.
const DefaultMaxUploadBytes = 32 << 20

// Assessor runs assessments. *evaluation.Service implements it.
type Assessor interface {
	Assess(ctx context.Context, req evaluation.Request) (*evaluation.Assessment, error)
}

// History reads and deletes stored assessments. *history.Store implements it.
type History interface {
	Get(ctx context.Context, id string) (*evaluation.Assessment, error)
	List(ctx context.Context, source string, limit int) ([]history.Summary, error)
	Delete(ctx context.Context, id string) error
}

// Options wire a Server. Assessor is required.
type Options struct {
	Assessor       Assessor
	History        History
	Metrics        *observability.Metrics
	Health         *server.HealthServer
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// Server routes the assessment API.
type Server struct {
	router    *mux.Router
	assessor  Assessor
	history   History
	metrics   *observability.Metrics
	health    *server.HealthServer
	maxUpload int64
	logger    *slog.Logger
}

// NewServer builds the router.
func NewServer(opts Options) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		assessor:  opts.Assessor,
		history:   opts.History,
		metrics:   opts.Metrics,
		health:    opts.Health,
		maxUpload: opts.MaxUploadBytes,
		logger:    opts.Logger,
	}
	if s.maxUpload <= 0 {
		s.maxUpload = DefaultMaxUploadBytes
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(s.loggingMiddleware)

	if s.health != nil {
		s.health.Routes(s.router)
	}
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/assess", s.handleAssess).Methods(http.MethodPost)
	api.HandleFunc("/assessments", s.handleListAssessments).Methods(http.MethodGet)
	api.HandleFunc("/assessments/{id}", s.handleGetAssessment).Methods(http.MethodGet)
	api.HandleFunc("/assessments/{id}", s.handleDeleteAssessment).Methods(http.MethodDelete)
	api.HandleFunc("/assessments/{id}/report", s.handleGetReport).Methods(http.MethodGet)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer returns an http.Server for addr. Write timeouts are left to
// the assessment itself, which may run a slow reasoner.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

type requestIDKey struct{}

// RequestID returns the ID the logging middleware assigned to r.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, requestID))

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		level := slog.LevelInfo
		if rw.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration", time.Since(start),
			"request_id", requestID)
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered",
					"error", fmt.Errorf("panic: %v", rec),
					"method", r.Method,
					"path", r.URL.Path)
				writeErrorResponse(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
