package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/ontometer/internal/app"
	"github.com/efebarandurmaz/ontometer/internal/config"
)

// errGatesFailed makes the process exit non-zero without printing an
// extra error line; the gate report already explains the failure.
var errGatesFailed = errors.New("quality gates failed")

type globalFlags struct {
	configPath string
	logLevel   string
}

// load reads the configuration and builds the logger. Logs go to stderr
// so report output on stdout stays machine-readable.
func (g *globalFlags) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	logger := app.NewLogger(cfg.Log, cmd.ErrOrStderr())
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:           "ontometer",
		Short:         "Structural quality evaluation for OWL ontologies",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file path (default: built-in defaults plus ONTOMETER_* env)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newEvaluateCmd(g),
		newServeCmd(g),
		newHistoryCmd(g),
		newExportCmd(g),
		newSubmitCmd(g),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errGatesFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
