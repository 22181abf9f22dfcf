package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/ontometer/internal/evaluation"
	"github.com/efebarandurmaz/ontometer/internal/temporal"
)

func newSubmitCmd(g *globalFlags) *cobra.Command {
	var (
		id      string
		keyword string
		url     string
		wait    bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "submit <file-or-url>",
		Short: "Submit an assessment to the workflow worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load(cmd)
			if err != nil {
				return err
			}
			in, err := assessmentInput(args[0])
			if err != nil {
				return err
			}
			in.AssessmentID = id
			in.Keyword = keyword
			in.OntologyURL = url
			in.StructuralTimeout = timeout

			c, err := temporal.Dial(cfg.Temporal.Host, cfg.Temporal.Namespace, logger)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := cmd.Context()
			run, err := temporal.StartAssessment(ctx, c, cfg.Temporal.TaskQueue, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Started workflow %s (run %s)\n", run.GetID(), run.GetRunID())
			if !wait {
				return nil
			}

			var a evaluation.Assessment
			if err := run.Get(ctx, &a); err != nil {
				return fmt.Errorf("assessment workflow: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(&a)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Assessment ID (default: random UUID)")
	cmd.Flags().StringVar(&keyword, "keyword", "", "Domain keyword for lexical coverage")
	cmd.Flags().StringVar(&url, "url", "", "Published ontology URL for the quality checks")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the workflow and print the assessment")
	cmd.Flags().DurationVar(&timeout, "structural-timeout", temporal.DefaultStructuralTimeout, "Time limit for loading and the reasoner")
	return cmd
}

// assessmentInput uploads local files so the worker need not share a
// filesystem with the submitter. URLs are fetched by the worker.
func assessmentInput(source string) (temporal.AssessmentInput, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return temporal.AssessmentInput{Source: source}, nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return temporal.AssessmentInput{}, err
	}
	return temporal.AssessmentInput{Upload: data, UploadName: filepath.Base(source)}, nil
}
