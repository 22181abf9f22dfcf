package main

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/ontometer/internal/api"
	"github.com/efebarandurmaz/ontometer/internal/app"
	"github.com/efebarandurmaz/ontometer/internal/server"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr, healthAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the assessment HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("health-addr") {
				cfg.Server.HealthAddr = healthAddr
			}

			// Clients must not make the server read its own files.
			cfg.Loader.RemoteOnly = true
			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := a.Start(ctx, app.Options{History: true, Publish: true, Graph: true, Tracing: true}); err != nil {
				return err
			}

			gs := server.NewGracefulServer(
				&server.HealthConfig{Version: app.Version},
				&server.ShutdownConfig{Timeout: cfg.Server.ShutdownTimeout, Logger: logger},
			)
			a.RegisterHealthChecks(gs.Health)
			a.RegisterShutdownHooks(gs.Shutdown)

			opts := api.Options{
				Assessor:       a.Service,
				Metrics:        a.Metrics,
				Health:         gs.Health,
				MaxUploadBytes: cfg.Server.MaxUploadBytes,
				Logger:         logger,
			}
			if a.History != nil {
				opts.History = a.History
			}
			httpServer := api.NewServer(opts).HTTPServer(cfg.Server.Addr)
			gs.Shutdown.Add(server.HTTPServerShutdownHook("api", httpServer.Shutdown))

			// A separate probe listener only makes sense on another port.
			probeAddr := cfg.Server.HealthAddr
			if probeAddr == cfg.Server.Addr {
				probeAddr = ""
			}
			gs.Start(probeAddr)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("API listening", "addr", cfg.Server.Addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()
			gs.Health.SetReady(true)

			select {
			case err = <-errCh:
			case <-ctx.Done():
			case <-gs.Shutdown.ShutdownCh():
			}
			gs.Shutdown.Shutdown()
			gs.Wait()
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "API listen address")
	cmd.Flags().StringVar(&healthAddr, "health-addr", ":8081", "Probe listen address; empty disables the separate listener")
	return cmd
}
