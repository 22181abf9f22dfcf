package server

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"
)

// ShutdownHandler runs registered cleanup hooks once, on a signal or on
// request.
type ShutdownHandler struct {
	mu           sync.Mutex
	hooks        []ShutdownHook
	timeout      time.Duration
	signals      []os.Signal
	logger       *slog.Logger
	shutdownCh   chan struct{}
	doneCh       chan struct{}
	started      bool
	shutdownOnce sync.Once
	doneOnce     sync.Once
}

// ShutdownHook is a cleanup step. Lower priorities run first.
type ShutdownHook struct {
	Name     string
	Priority int
	Fn       func(ctx context.Context) error
}

// Hook priorities used by ontometer's services.
const (
	PriorityHTTP     = 10
	PriorityWorker   = 20
	PriorityPublish  = 60
	PriorityTracing  = 80
	PriorityStore    = 90
	PriorityAuditLog = 95
)

// ShutdownConfig configures the shutdown handler.
type ShutdownConfig struct {
	// Timeout for all hooks together (default: 30s)
	Timeout time.Duration
	// Signals to listen for (default: SIGTERM, SIGINT)
	Signals []os.Signal
	Logger  *slog.Logger
}

// DefaultShutdownConfig returns default configuration.
func DefaultShutdownConfig() *ShutdownConfig {
	return &ShutdownConfig{
		Timeout: 30 * time.Second,
		Signals: []os.Signal{syscall.SIGTERM, syscall.SIGINT},
	}
}

// NewShutdownHandler creates a new shutdown handler.
func NewShutdownHandler(config *ShutdownConfig) *ShutdownHandler {
	def := DefaultShutdownConfig()
	if config == nil {
		config = def
	}
	h := &ShutdownHandler{
		timeout:    config.Timeout,
		signals:    config.Signals,
		logger:     config.Logger,
		shutdownCh: make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	if h.timeout <= 0 {
		h.timeout = def.Timeout
	}
	if len(h.signals) == 0 {
		h.signals = def.Signals
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// RegisterHook adds a shutdown hook.
func (s *ShutdownHandler) RegisterHook(name string, priority int, fn func(ctx context.Context) error) {
	s.Add(ShutdownHook{Name: name, Priority: priority, Fn: fn})
}

// Add registers a prebuilt hook such as CloserHook.
func (s *ShutdownHandler) Add(hook ShutdownHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
	sort.SliceStable(s.hooks, func(i, j int) bool {
		return s.hooks[i].Priority < s.hooks[j].Priority
	})
}

// Start begins listening for shutdown signals.
func (s *ShutdownHandler) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, s.signals...)

	go func() {
		select {
		case sig := <-sigCh:
			signal.Stop(sigCh)
			s.logger.Info("shutdown signal received", "signal", sig.String())
			s.trigger()
		case <-s.shutdownCh:
			signal.Stop(sigCh)
		}
		s.shutdown()
	}()
}

// Shutdown triggers a manual shutdown. It is a no-op before Start.
func (s *ShutdownHandler) Shutdown() {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		s.trigger()
	}
}

func (s *ShutdownHandler) trigger() {
	s.shutdownOnce.Do(func() { close(s.shutdownCh) })
}

// Wait blocks until shutdown is complete.
func (s *ShutdownHandler) Wait() {
	<-s.doneCh
}

// WaitWithTimeout blocks until shutdown is complete or timeout.
func (s *ShutdownHandler) WaitWithTimeout(timeout time.Duration) bool {
	select {
	case <-s.doneCh:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Done returns a channel that closes when shutdown is complete.
func (s *ShutdownHandler) Done() <-chan struct{} {
	return s.doneCh
}

// ShutdownCh returns a channel that closes when shutdown starts.
func (s *ShutdownHandler) ShutdownCh() <-chan struct{} {
	return s.shutdownCh
}

func (s *ShutdownHandler) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.mu.Lock()
	hooks := make([]ShutdownHook, len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	// A failing hook does not stop the rest.
	for _, hook := range hooks {
		start := time.Now()
		if err := hook.Fn(ctx); err != nil {
			s.logger.Error("shutdown hook failed", "hook", hook.Name, "error", err)
			continue
		}
		s.logger.Debug("shutdown hook done", "hook", hook.Name, "duration", time.Since(start))
	}

	s.doneOnce.Do(func() { close(s.doneCh) })
}

// Common shutdown hooks

// HTTPServerShutdownHook stops an HTTP server from accepting requests.
func HTTPServerShutdownHook(name string, shutdownFn func(ctx context.Context) error) ShutdownHook {
	return ShutdownHook{Name: name, Priority: PriorityHTTP, Fn: shutdownFn}
}

// TemporalWorkerShutdownHook stops a workflow worker.
func TemporalWorkerShutdownHook(stopFn func()) ShutdownHook {
	return ShutdownHook{
		Name:     "temporal-worker",
		Priority: PriorityWorker,
		Fn: func(ctx context.Context) error {
			stopFn()
			return nil
		},
	}
}

// CloserHook wraps a plain Close method such as the history store's.
func CloserHook(name string, priority int, closeFn func() error) ShutdownHook {
	return ShutdownHook{
		Name:     name,
		Priority: priority,
		Fn: func(ctx context.Context) error {
			return closeFn()
		},
	}
}

// TracingShutdownHook flushes and stops the tracer provider.
func TracingShutdownHook(shutdownFn func(ctx context.Context) error) ShutdownHook {
	return ShutdownHook{Name: "tracing", Priority: PriorityTracing, Fn: shutdownFn}
}

// GracefulServer combines health checks with shutdown handling.
type GracefulServer struct {
	Health   *HealthServer
	Shutdown *ShutdownHandler
}

// NewGracefulServer wires readiness to the shutdown sequence: the server
// turns unready as soon as shutdown begins.
func NewGracefulServer(healthConfig *HealthConfig, shutdownConfig *ShutdownConfig) *GracefulServer {
	health := NewHealthServer(healthConfig)
	shutdown := NewShutdownHandler(shutdownConfig)

	shutdown.RegisterHook("health-server", 5, func(ctx context.Context) error {
		health.Shutdown()
		return nil
	})

	go func() {
		<-shutdown.ShutdownCh()
		health.SetReady(false)
	}()

	return &GracefulServer{Health: health, Shutdown: shutdown}
}

// Start begins signal handling and, when addr is non-empty, serves the
// probe endpoints on their own listener. Readiness is left to the caller.
func (g *GracefulServer) Start(addr string) {
	g.Shutdown.Start()
	if addr == "" {
		return
	}
	go func() {
		if err := g.Health.ListenAndServe(addr); err != nil {
			g.Shutdown.logger.Error("health server stopped", "addr", addr, "error", err)
		}
	}()
}

// Wait waits for shutdown to complete.
func (g *GracefulServer) Wait() {
	g.Shutdown.Wait()
}

// RegisterHook adds a shutdown hook.
func (g *GracefulServer) RegisterHook(name string, priority int, fn func(ctx context.Context) error) {
	g.Shutdown.RegisterHook(name, priority, fn)
}
