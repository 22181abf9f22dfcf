package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/efebarandurmaz/ontometer/internal/app"
	"github.com/efebarandurmaz/ontometer/internal/evaluation"
	"github.com/efebarandurmaz/ontometer/internal/qualitygate"
	"github.com/efebarandurmaz/ontometer/internal/watch"
)

type evaluateFlags struct {
	keyword  string
	url      string
	jsonOut  bool
	yamlOut  bool
	full     bool
	gates    bool
	save     bool
	publish  bool
	watch    bool
	reasoner string
}

func newEvaluateCmd(g *globalFlags) *cobra.Command {
	f := &evaluateFlags{}
	cmd := &cobra.Command{
		Use:   "evaluate <file-or-url>",
		Short: "Evaluate an ontology and print its report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.jsonOut && f.yamlOut {
				return fmt.Errorf("--json and --yaml are mutually exclusive")
			}
			cfg, logger, err := g.load(cmd)
			if err != nil {
				return err
			}
			if f.gates {
				cfg.Gates.Enabled = true
			}
			if f.reasoner != "" {
				cfg.Reasoner.Kind = f.reasoner
			}

			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := a.Start(ctx, app.Options{History: f.save, Publish: f.publish}); err != nil {
				return err
			}
			defer a.Close(context.Background())

			req := evaluation.Request{Source: args[0], OntologyURL: f.url, Keyword: f.keyword}
			out := cmd.OutOrStdout()
			err = evaluateOnce(ctx, a.Service, req, f, out)
			if !f.watch {
				return err
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
			return watchAndEvaluate(ctx, a.Service, req, f, out, cmd.ErrOrStderr(), logger)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.keyword, "keyword", "", "Domain keyword for lexical coverage")
	flags.StringVar(&f.url, "url", "", "Published ontology URL for the FOOPS! and content negotiation checks")
	flags.BoolVar(&f.jsonOut, "json", false, "Print the report as JSON")
	flags.BoolVar(&f.yamlOut, "yaml", false, "Print the report as YAML")
	flags.BoolVar(&f.full, "full", false, "With --json or --yaml, print the whole assessment instead of the report")
	flags.BoolVar(&f.gates, "gates", false, "Run quality gates and exit non-zero when they fail")
	flags.BoolVar(&f.save, "save", false, "Store the assessment in the history database")
	flags.BoolVar(&f.publish, "publish", false, "Publish the assessment to the configured NATS subject")
	flags.BoolVar(&f.watch, "watch", false, "Re-evaluate whenever the ontology file changes")
	flags.StringVar(&f.reasoner, "reasoner", "", "Override reasoner.kind (structural, command, none)")
	return cmd
}

func evaluateOnce(ctx context.Context, svc *evaluation.Service, req evaluation.Request, f *evaluateFlags, w io.Writer) error {
	a, err := svc.Assess(ctx, req)
	if err != nil {
		return err
	}

	var v any = a.Report
	if f.full {
		v = a
	}
	switch {
	case f.jsonOut:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return err
		}
	case f.yamlOut:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	default:
		a.Report.PrintSummary(w, "Ontology Evaluation: "+a.Source)
		for _, e := range a.Errors {
			fmt.Fprintf(w, "  ! %s\n", e)
		}
		if f.gates && a.Gates != nil {
			fmt.Fprint(w, qualitygate.FormatReport(a.Gates))
		}
	}

	if f.gates && a.Gates != nil && a.Gates.Status == qualitygate.GateFailed {
		return errGatesFailed
	}
	return nil
}

func watchAndEvaluate(ctx context.Context, svc *evaluation.Service, req evaluation.Request, f *evaluateFlags, out, errOut io.Writer, logger *slog.Logger) error {
	if _, err := os.Stat(req.Source); err != nil {
		return fmt.Errorf("--watch needs a local file: %w", err)
	}
	w, err := watch.New(req.Source, 0, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(errOut, "Watching %s for changes (Ctrl+C to stop)\n", req.Source)
	return w.Run(ctx, func(ctx context.Context) {
		if err := evaluateOnce(ctx, svc, req, f, out); err != nil && err != errGatesFailed {
			fmt.Fprintf(errOut, "Error: %v\n", err)
		}
	})
}
