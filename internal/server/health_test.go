package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func serve(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNewHealthServer_Defaults(t *testing.T) {
	s := NewHealthServer(nil)
	if s.ready {
		t.Fatal("expected not ready initially")
	}
	if !s.live {
		t.Fatal("expected live initially")
	}
	if s.checkTimeout != 5*time.Second {
		t.Fatalf("expected 5s check timeout, got %v", s.checkTimeout)
	}
}

func TestNewHealthServer_WithConfig(t *testing.T) {
	s := NewHealthServer(&HealthConfig{Version: "1.2.0", CheckTimeout: time.Second})
	if s.version != "1.2.0" {
		t.Fatalf("expected version 1.2.0, got %s", s.version)
	}
	if s.checkTimeout != time.Second {
		t.Fatalf("expected 1s check timeout, got %v", s.checkTimeout)
	}
}

func TestHealthServer_HandleHealth(t *testing.T) {
	s := NewHealthServer(&HealthConfig{Version: "1.2.0"})
	s.RegisterCheck("history", func(ctx context.Context) HealthCheck {
		return HealthCheck{Status: HealthStatusHealthy, Message: "all good"}
	})

	w := serve(t, s.Handler(), "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %s", ct)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != HealthStatusHealthy {
		t.Fatalf("expected healthy, got %s", resp.Status)
	}
	if resp.Version != "1.2.0" {
		t.Fatalf("expected version 1.2.0, got %s", resp.Version)
	}
	if len(resp.Checks) != 1 || resp.Checks[0].Name != "history" {
		t.Fatalf("unexpected checks %+v", resp.Checks)
	}
}

func TestHealthServer_Aggregation(t *testing.T) {
	tests := []struct {
		name     string
		statuses []HealthStatus
		want     HealthStatus
		code     int
	}{
		{"all healthy", []HealthStatus{HealthStatusHealthy, HealthStatusHealthy}, HealthStatusHealthy, http.StatusOK},
		{"one degraded", []HealthStatus{HealthStatusHealthy, HealthStatusDegraded}, HealthStatusDegraded, http.StatusOK},
		{"one unhealthy", []HealthStatus{HealthStatusDegraded, HealthStatusUnhealthy}, HealthStatusUnhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewHealthServer(nil)
			for i, st := range tt.statuses {
				st := st
				s.RegisterCheck(string(rune('a'+i)), func(ctx context.Context) HealthCheck {
					return HealthCheck{Status: st}
				})
			}
			w := serve(t, s.Handler(), "/health")
			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, w.Code)
			}
			var resp HealthResponse
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Status != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, resp.Status)
			}
		})
	}
}

func TestHealthServer_CheckOrderAndTimeout(t *testing.T) {
	s := NewHealthServer(&HealthConfig{CheckTimeout: 50 * time.Millisecond})
	s.RegisterCheck("zeta", func(ctx context.Context) HealthCheck {
		return HealthCheck{Status: HealthStatusHealthy}
	})
	s.RegisterCheck("alpha", func(ctx context.Context) HealthCheck {
		<-ctx.Done()
		return HealthCheck{Status: HealthStatusUnhealthy, Message: ctx.Err().Error()}
	})

	resp := s.Check(context.Background())
	if resp.Checks[0].Name != "alpha" || resp.Checks[1].Name != "zeta" {
		t.Fatalf("checks not sorted by name: %+v", resp.Checks)
	}
	if resp.Status != HealthStatusUnhealthy {
		t.Fatalf("expected unhealthy after timeout, got %s", resp.Status)
	}
}

func TestHealthServer_Probes(t *testing.T) {
	s := NewHealthServer(nil)
	h := s.Handler()

	if w := serve(t, h, "/ready"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("not ready: expected 503, got %d", w.Code)
	}
	s.SetReady(true)
	if w := serve(t, h, "/ready"); w.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", w.Code)
	}

	if w := serve(t, h, "/live"); w.Code != http.StatusOK {
		t.Fatalf("live: expected 200, got %d", w.Code)
	}
	s.SetLive(false)
	if w := serve(t, h, "/live"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("not live: expected 503, got %d", w.Code)
	}
}

func TestHealthServer_KubernetesAliases(t *testing.T) {
	s := NewHealthServer(nil)
	s.SetReady(true)

	for _, path := range []string{"/healthz", "/readyz", "/livez"} {
		t.Run(path, func(t *testing.T) {
			if w := serve(t, s.Handler(), path); w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
		})
	}
}

func TestHealthServer_RoutesOnSharedRouter(t *testing.T) {
	s := NewHealthServer(nil)
	r := mux.NewRouter()
	r.HandleFunc("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	s.Routes(r)

	if w := serve(t, r, "/live"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := serve(t, r, "/api/ping"); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for POST, got %d", w.Code)
	}
}

func TestDependencyChecker(t *testing.T) {
	ok := DependencyChecker("Store", false, func(ctx context.Context) error { return nil })(context.Background())
	if ok.Status != HealthStatusHealthy {
		t.Fatalf("expected healthy, got %s", ok.Status)
	}

	down := errors.New("connection refused")
	hard := HistoryHealthChecker(func(ctx context.Context) error { return down })(context.Background())
	if hard.Status != HealthStatusUnhealthy {
		t.Fatalf("expected unhealthy, got %s", hard.Status)
	}
	soft := GraphHealthChecker(func(ctx context.Context) error { return down })(context.Background())
	if soft.Status != HealthStatusDegraded {
		t.Fatalf("expected degraded, got %s", soft.Status)
	}
	tmp := TemporalHealthChecker(func(ctx context.Context) error { return down })(context.Background())
	if tmp.Status != HealthStatusUnhealthy {
		t.Fatalf("expected unhealthy, got %s", tmp.Status)
	}
}

func TestPublisherHealthChecker(t *testing.T) {
	if c := PublisherHealthChecker(func() bool { return true })(context.Background()); c.Status != HealthStatusHealthy {
		t.Fatalf("expected healthy, got %s", c.Status)
	}
	if c := PublisherHealthChecker(func() bool { return false })(context.Background()); c.Status != HealthStatusDegraded {
		t.Fatalf("expected degraded, got %s", c.Status)
	}
}

func TestReasonerHealthChecker(t *testing.T) {
	builtin := ReasonerHealthChecker("")(context.Background())
	if builtin.Status != HealthStatusHealthy {
		t.Fatalf("expected healthy, got %s", builtin.Status)
	}

	missing := ReasonerHealthChecker("ontometer-no-such-reasoner")(context.Background())
	if missing.Status != HealthStatusDegraded {
		t.Fatalf("expected degraded, got %s", missing.Status)
	}
	if missing.Details["command"] != "ontometer-no-such-reasoner" {
		t.Fatalf("expected command detail, got %v", missing.Details)
	}
}
