package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"

	"github.com/efebarandurmaz/ontometer/internal/app"
	"github.com/efebarandurmaz/ontometer/internal/config"
	"github.com/efebarandurmaz/ontometer/internal/server"
	temporalmod "github.com/efebarandurmaz/ontometer/internal/temporal"
)

func main() {
	configPath := flag.String("config", "", "Config file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	cfg.Loader.RemoteOnly = true
	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	if err := a.Start(ctx, app.Options{History: true, Publish: true, Tracing: true}); err != nil {
		return err
	}

	temporalmod.SetDependencies(&temporalmod.Dependencies{Service: a.Service})

	c, err := temporalmod.Dial(cfg.Temporal.Host, cfg.Temporal.Namespace, logger)
	if err != nil {
		a.Close(ctx)
		return err
	}

	w, err := temporalmod.StartWorker(c, cfg.Temporal.TaskQueue)
	if err != nil {
		c.Close()
		a.Close(ctx)
		return err
	}
	logger.Info("worker started", "task_queue", cfg.Temporal.TaskQueue, "namespace", cfg.Temporal.Namespace)

	gs := server.NewGracefulServer(
		&server.HealthConfig{Version: app.Version},
		&server.ShutdownConfig{Timeout: cfg.Server.ShutdownTimeout, Logger: logger},
	)
	a.RegisterHealthChecks(gs.Health)
	gs.Health.RegisterCheck("temporal", server.TemporalHealthChecker(func(ctx context.Context) error {
		_, err := c.CheckHealth(ctx, &client.CheckHealthRequest{})
		return err
	}))

	gs.Shutdown.Add(server.TemporalWorkerShutdownHook(w.Stop))
	a.RegisterShutdownHooks(gs.Shutdown)
	gs.Shutdown.Add(server.CloserHook("temporal-client", server.PriorityStore, func() error {
		c.Close()
		return nil
	}))

	gs.Start(cfg.Server.HealthAddr)
	gs.Health.SetReady(true)
	gs.Wait()
	logger.Info("worker stopped")
	return nil
}
