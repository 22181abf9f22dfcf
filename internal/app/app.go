// Package app wires ontometer's components together from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"

	"github.com/efebarandurmaz/ontometer/internal/config"
	"github.com/efebarandurmaz/ontometer/internal/evaluation"
	"github.com/efebarandurmaz/ontometer/internal/graph"
	"github.com/efebarandurmaz/ontometer/internal/graph/neo4j"
	"github.com/efebarandurmaz/ontometer/internal/history"
	"github.com/efebarandurmaz/ontometer/internal/httpx"
	"github.com/efebarandurmaz/ontometer/internal/lexical"
	"github.com/efebarandurmaz/ontometer/internal/loader"
	"github.com/efebarandurmaz/ontometer/internal/observability"
	"github.com/efebarandurmaz/ontometer/internal/publish"
	"github.com/efebarandurmaz/ontometer/internal/quality"
	"github.com/efebarandurmaz/ontometer/internal/qualitygate"
	"github.com/efebarandurmaz/ontometer/internal/rdf"
	"github.com/efebarandurmaz/ontometer/internal/reasoner"
	"github.com/efebarandurmaz/ontometer/internal/secrets"
	"github.com/efebarandurmaz/ontometer/internal/server"
)

// Version is reported by health endpoints and traces.
var Version = "0.1.0"

// Options select which optional components Start brings up. The CLI's
// one-shot evaluate skips the long-lived sinks; serve and the worker use
// them all.
type Options struct {
	History bool
	Publish bool
	Graph   bool
	Tracing bool
}

// App holds every component built from a Config.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Metrics   *observability.Metrics
	Tracer    *observability.TracerProvider
	Audit     *observability.AuditLogger
	Loader    *loader.Loader
	Evaluator *evaluation.Evaluator
	Service   *evaluation.Service

	// Optional sinks; nil when not configured or not requested.
	History   *history.Store
	Publisher publish.Publisher
	Graph     graph.Repository

	embedded *natsserver.Server
}

// NewLogger builds the process logger from cfg, writing to w.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a config level name to a slog level; unknown names
// mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewReasoner builds the consistency checker named by cfg.
func NewReasoner(cfg config.ReasonerConfig) (reasoner.Reasoner, error) {
	switch cfg.Kind {
	case "", "structural":
		return reasoner.NewStructural(), nil
	case "none":
		return reasoner.Disabled{}, nil
	case "command":
		if cfg.Command == "" {
			return nil, errors.New("reasoner kind 'command' requires reasoner.command")
		}
		return &reasoner.CommandReasoner{Path: cfg.Command, Args: cfg.Args}, nil
	default:
		return nil, fmt.Errorf("unknown reasoner kind %q", cfg.Kind)
	}
}

func retryConfig(timeout time.Duration, maxRetries int) *httpx.RetryConfig {
	rc := httpx.DefaultRetryConfig()
	if timeout > 0 {
		rc.Timeout = timeout
	}
	if maxRetries >= 0 {
		rc.MaxRetries = maxRetries
	}
	return rc
}

// New builds the core components. No network connections are made;
// Start brings up the optional sinks.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		def, err := config.Default()
		if err != nil {
			return nil, err
		}
		cfg = def
	}
	if logger == nil {
		logger = slog.Default()
	}

	r, err := NewReasoner(cfg.Reasoner)
	if err != nil {
		return nil, err
	}

	format := rdf.FormatTurtle
	if cfg.Loader.DefaultFormat != "" {
		if format, err = rdf.ParseFormat(cfg.Loader.DefaultFormat); err != nil {
			return nil, fmt.Errorf("loader.default_format: %w", err)
		}
	}

	audit := observability.Audit()
	if cfg.Audit.Enabled {
		if audit, err = observability.NewAuditLogger(&observability.AuditConfig{
			Enabled:    true,
			OutputPath: cfg.Audit.Path,
		}); err != nil {
			return nil, err
		}
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(),
		Audit:   audit,
	}
	a.Loader = loader.New(loader.Options{
		Retry:          retryConfig(cfg.Loader.Timeout, cfg.Loader.MaxRetries),
		ResolveImports: cfg.Loader.ResolveImports,
		MaxImportDepth: cfg.Loader.MaxImportDepth,
		DefaultFormat:  format,
		RemoteOnly:     cfg.Loader.RemoteOnly,
		Logger:         logger,
	})
	a.Evaluator = evaluation.NewEvaluator(evaluation.Options{
		Reasoner:        r,
		ReasonerTimeout: cfg.Reasoner.Timeout,
		Logger:          logger,
		Metrics:         a.Metrics,
	})
	a.rebuildService()
	return a, nil
}

func (a *App) rebuildService() {
	cfg := a.Config
	opts := evaluation.ServiceOptions{
		Loader:    a.Loader,
		Evaluator: a.Evaluator,
		Metrics:   a.Metrics,
		Audit:     a.Audit,
		Logger:    a.Logger,
	}
	if cfg.Lexical.DatamuseURL != "" {
		source := lexical.NewDatamuse(cfg.Lexical.DatamuseURL, retryConfig(cfg.Lexical.Timeout, -1))
		opts.Lexical = lexical.NewAnalyzer(source, cfg.Lexical.Threshold, a.Logger)
	} else {
		opts.Lexical = lexical.NewAnalyzer(nil, cfg.Lexical.Threshold, a.Logger)
	}
	if cfg.Quality.Enabled {
		retry := retryConfig(cfg.Quality.Timeout, -1)
		opts.Quality = quality.NewAssessor(
			quality.NewFOOPS(cfg.Quality.FOOPSURL, retry),
			quality.NewProber(retry),
			a.Logger)
	}
	if cfg.Gates.Enabled {
		gates := cfg.Gates
		opts.Gates = qualitygate.BuildPipeline(&gates)
	}
	if a.History != nil {
		opts.Store = a.History
	}
	if a.Publisher != nil {
		opts.Publisher = a.Publisher
	}
	a.Service = evaluation.NewService(opts)
}

// NewSecretsResolver builds the resolver for credential references. The
// Vault token may itself be an "env:" or "file:" reference.
func NewSecretsResolver(ctx context.Context, cfg config.SecretsConfig) (*secrets.Resolver, error) {
	if cfg.VaultAddr == "" {
		return secrets.NewResolver(nil), nil
	}
	token, err := secrets.NewResolver(nil).Resolve(ctx, cfg.VaultToken)
	if err != nil {
		return nil, fmt.Errorf("secrets.vault_token: %w", err)
	}
	vault, err := secrets.NewVaultProvider(secrets.VaultConfig{
		Address:   cfg.VaultAddr,
		Token:     token,
		MountPath: cfg.VaultMount,
	})
	if err != nil {
		return nil, err
	}
	return secrets.NewResolver(vault), nil
}

// Start brings up the optional components requested by opts and rebuilds
// the service so assessments flow to them. On error, whatever was started
// is closed again.
func (a *App) Start(ctx context.Context, opts Options) (err error) {
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()
	cfg := a.Config

	if opts.Tracing && cfg.Tracing.Enabled {
		tc := observability.DefaultTracingConfig()
		tc.ServiceVersion = Version
		tc.OTLPEndpoint = cfg.Tracing.Endpoint
		tc.Insecure = cfg.Tracing.Insecure
		tc.SampleRate = cfg.Tracing.SampleRatio
		if a.Tracer, err = observability.InitTracing(ctx, tc); err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
	}

	if opts.History && cfg.History.Path != "" {
		if a.History, err = history.Open(cfg.History.Path); err != nil {
			return fmt.Errorf("open history: %w", err)
		}
	}

	resolver, err := NewSecretsResolver(ctx, cfg.Secrets)
	if err != nil {
		return err
	}

	if opts.Publish {
		url := cfg.Publish.NATSURL
		if err = resolver.ResolveAll(ctx, &url); err != nil {
			return fmt.Errorf("publish.nats_url: %w", err)
		}
		if err = a.startPublisher(url); err != nil {
			return err
		}
	}

	if opts.Graph && cfg.Graph.URI != "" {
		user, pass := cfg.Graph.Username, cfg.Graph.Password
		if err = resolver.ResolveAll(ctx, &user, &pass); err != nil {
			return fmt.Errorf("graph credentials: %w", err)
		}
		repo, err := neo4j.NewNeo4j(ctx, cfg.Graph.URI, user, pass, cfg.Graph.Database)
		if err != nil {
			return fmt.Errorf("connect graph database: %w", err)
		}
		a.Graph = repo
	}

	a.rebuildService()
	return nil
}

func (a *App) startPublisher(url string) error {
	cfg := a.Config.Publish
	if cfg.Embedded {
		ns, err := natsserver.NewServer(&natsserver.Options{
			Port:   -1, // Random available port
			NoLog:  true,
			NoSigs: true,
		})
		if err != nil {
			return fmt.Errorf("create embedded NATS server: %w", err)
		}
		go ns.Start()
		if !ns.ReadyForConnections(5 * time.Second) {
			ns.Shutdown()
			return errors.New("embedded NATS server failed to start")
		}
		a.embedded = ns
		url = ns.ClientURL()
		a.Logger.Info("embedded NATS server started", "url", url)
	}
	if url == "" {
		return nil
	}
	p, err := publish.Connect(url, cfg.Subject)
	if err != nil {
		return err
	}
	a.Publisher = p
	return nil
}

// NATSURL returns the URL of the embedded NATS server, or "".
func (a *App) NATSURL() string {
	if a.embedded == nil {
		return ""
	}
	return a.embedded.ClientURL()
}

// RegisterHealthChecks adds a check for every started dependency.
func (a *App) RegisterHealthChecks(h *server.HealthServer) {
	h.RegisterCheck("reasoner", server.ReasonerHealthChecker(a.Config.Reasoner.Command))
	if a.History != nil {
		h.RegisterCheck("history", server.HistoryHealthChecker(a.History.Ping))
	}
	if p, ok := a.Publisher.(*publish.NATS); ok {
		h.RegisterCheck("publisher", server.PublisherHealthChecker(p.Connected))
	}
	if repo, ok := a.Graph.(*neo4j.Neo4jRepository); ok {
		h.RegisterCheck("graph", server.GraphHealthChecker(repo.VerifyConnectivity))
	}
}

// RegisterShutdownHooks closes every started component on shutdown.
func (a *App) RegisterShutdownHooks(s *server.ShutdownHandler) {
	s.Add(server.ShutdownHook{Name: "app", Priority: server.PriorityPublish, Fn: a.Close})
}

// Close releases every started component. Errors are joined.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Publisher != nil {
		errs = append(errs, a.Publisher.Close())
		a.Publisher = nil
	}
	if a.embedded != nil {
		a.embedded.Shutdown()
		a.embedded = nil
	}
	if a.Graph != nil {
		errs = append(errs, a.Graph.Close(ctx))
		a.Graph = nil
	}
	if a.History != nil {
		errs = append(errs, a.History.Close())
		a.History = nil
	}
	if a.Tracer != nil {
		errs = append(errs, a.Tracer.Shutdown(ctx))
		a.Tracer = nil
	}
	if a.Audit != nil {
		errs = append(errs, a.Audit.Close())
	}
	return errors.Join(errs...)
}
