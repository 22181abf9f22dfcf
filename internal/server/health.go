// Package server provides the health endpoints and shutdown sequencing
// shared by the HTTP API and the workflow worker.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
)

// HealthCheck is the result of probing one dependency.
type HealthCheck struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthResponse is the response from health endpoints.
type HealthResponse struct {
	Status    HealthStatus  `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Version   string        `json:"version,omitempty"`
	Checks    []HealthCheck `json:"checks,omitempty"`
}

// HealthChecker probes a dependency.
type HealthChecker func(ctx context.Context) HealthCheck

// HealthServer answers liveness, readiness and dependency probes.
type HealthServer struct {
	mu           sync.RWMutex
	checks       map[string]HealthChecker
	version      string
	checkTimeout time.Duration
	ready        bool
	live         bool
	shutdownOnce sync.Once
	shutdownChan chan struct{}
}

// HealthConfig configures the health server.
type HealthConfig struct {
	Version      string
	CheckTimeout time.Duration // per /health request, default 5s
}

// NewHealthServer creates a health server that is live but not ready.
func NewHealthServer(config *HealthConfig) *HealthServer {
	s := &HealthServer{
		checks:       make(map[string]HealthChecker),
		checkTimeout: 5 * time.Second,
		live:         true,
		shutdownChan: make(chan struct{}),
	}
	if config != nil {
		s.version = config.Version
		if config.CheckTimeout > 0 {
			s.checkTimeout = config.CheckTimeout
		}
	}
	return s
}

// RegisterCheck adds or replaces a named dependency check.
func (s *HealthServer) RegisterCheck(name string, checker HealthChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = checker
}

// SetReady marks the server as ready to accept traffic.
func (s *HealthServer) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// SetLive marks the process as live (or not).
func (s *HealthServer) SetLive(live bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = live
}

// Routes mounts the probe endpoints on r.
func (s *HealthServer) Routes(r *mux.Router) {
	for _, p := range []string{"/health", "/healthz"} {
		r.HandleFunc(p, s.handleHealth).Methods(http.MethodGet)
	}
	for _, p := range []string{"/ready", "/readyz"} {
		r.HandleFunc(p, s.handleReady).Methods(http.MethodGet)
	}
	for _, p := range []string{"/live", "/livez"} {
		r.HandleFunc(p, s.handleLive).Methods(http.MethodGet)
	}
}

// Handler returns a router serving only the probe endpoints.
func (s *HealthServer) Handler() http.Handler {
	r := mux.NewRouter()
	s.Routes(r)
	return r
}

// ListenAndServe serves the probe endpoints on addr until Shutdown.
func (s *HealthServer) ListenAndServe(addr string) error {
	if addr == "" {
		addr = ":8081"
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: s.checkTimeout + 5*time.Second,
	}

	go func() {
		<-s.shutdownChan
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops a running ListenAndServe. It is safe to call twice.
func (s *HealthServer) Shutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdownChan) })
}

// Check runs every registered check concurrently and aggregates them.
// Checks are reported in name order.
func (s *HealthServer) Check(ctx context.Context) HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, s.checkTimeout)
	defer cancel()

	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	checks := make(map[string]HealthChecker, len(s.checks))
	for k, v := range s.checks {
		names = append(names, k)
		checks[k] = v
	}
	version := s.version
	s.mu.RUnlock()
	sort.Strings(names)

	results := make([]HealthCheck, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			check := checks[name](ctx)
			check.Name = name
			results[i] = check
		}(i, name)
	}
	wg.Wait()

	response := HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now().UTC(),
		Version:   version,
		Checks:    results,
	}
	for _, check := range results {
		if check.Status == HealthStatusUnhealthy {
			response.Status = HealthStatusUnhealthy
		} else if check.Status == HealthStatusDegraded && response.Status == HealthStatusHealthy {
			response.Status = HealthStatusDegraded
		}
	}
	return response
}

func (s *HealthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := s.Check(r.Context())
	statusCode := http.StatusOK
	if response.Status == HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, response)
}

func (s *HealthServer) handleReady(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	ready := s.ready
	s.mu.RUnlock()
	writeProbe(w, ready)
}

func (s *HealthServer) handleLive(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	live := s.live
	s.mu.RUnlock()
	writeProbe(w, live)
}

func writeProbe(w http.ResponseWriter, ok bool) {
	response := HealthResponse{Status: HealthStatusHealthy, Timestamp: time.Now().UTC()}
	if !ok {
		response.Status = HealthStatusUnhealthy
		writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Common health checkers

// DependencyChecker reports name as unhealthy when pingFn fails. Optional
// dependencies should pass degraded=true so a failure only degrades.
func DependencyChecker(label string, degraded bool, pingFn func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheck {
		if err := pingFn(ctx); err != nil {
			status := HealthStatusUnhealthy
			if degraded {
				status = HealthStatusDegraded
			}
			return HealthCheck{Status: status, Message: label + " unreachable: " + err.Error()}
		}
		return HealthCheck{Status: HealthStatusHealthy, Message: label + " OK"}
	}
}

// HistoryHealthChecker checks the assessment history database.
func HistoryHealthChecker(pingFn func(ctx context.Context) error) HealthChecker {
	return DependencyChecker("History store", false, pingFn)
}

// TemporalHealthChecker checks the workflow service connection.
func TemporalHealthChecker(checkFn func(ctx context.Context) error) HealthChecker {
	return DependencyChecker("Temporal", false, checkFn)
}

// GraphHealthChecker checks the taxonomy graph database. Exports are
// optional, so a failure only degrades.
func GraphHealthChecker(verifyFn func(ctx context.Context) error) HealthChecker {
	return DependencyChecker("Graph database", true, verifyFn)
}

// PublisherHealthChecker checks the assessment message bus.
func PublisherHealthChecker(connected func() bool) HealthChecker {
	return func(ctx context.Context) HealthCheck {
		if !connected() {
			return HealthCheck{Status: HealthStatusDegraded, Message: "Publisher disconnected"}
		}
		return HealthCheck{Status: HealthStatusHealthy, Message: "Publisher connected"}
	}
}

// ReasonerHealthChecker reports whether the external reasoner binary can
// be found. An empty command means the built-in reasoner is in use.
func ReasonerHealthChecker(command string) HealthChecker {
	return func(ctx context.Context) HealthCheck {
		if command == "" {
			return HealthCheck{Status: HealthStatusHealthy, Message: "Built-in structural reasoner"}
		}
		path, err := exec.LookPath(command)
		if err != nil {
			return HealthCheck{
				Status:  HealthStatusDegraded,
				Message: "Reasoner not found: " + err.Error(),
				Details: map[string]string{"command": command},
			}
		}
		return HealthCheck{
			Status:  HealthStatusHealthy,
			Message: "Reasoner available",
			Details: map[string]string{"command": command, "path": path},
		}
	}
}
