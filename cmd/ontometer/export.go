package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/ontometer/internal/app"
	"github.com/efebarandurmaz/ontometer/internal/graph"
	"github.com/efebarandurmaz/ontometer/internal/structural"
)

type exportFlags struct {
	format   string
	output   string
	neo4j    bool
	ontology string
}

func newExportCmd(g *globalFlags) *cobra.Command {
	f := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "export <file-or-url>",
		Short: "Export the class hierarchy as DOT, Mermaid or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load(cmd)
			if err != nil {
				return err
			}
			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := a.Start(ctx, app.Options{Graph: f.neo4j}); err != nil {
				return err
			}
			defer a.Close(context.Background())

			gr, _, err := a.Loader.Load(ctx, args[0])
			if err != nil {
				return err
			}
			tax := structural.BuildTaxonomy(gr, structural.Options{Logger: logger})

			if f.neo4j {
				if a.Graph == nil {
					return fmt.Errorf("--neo4j needs graph.uri to be configured")
				}
				name := f.ontology
				if name == "" {
					name = ontologyName(args[0])
				}
				if err := storeTaxonomy(ctx, a.Graph, name, tax); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Stored %d classes and %d edges as ontology %q\n", len(tax.Nodes), len(tax.Edges), name)
			}

			out := cmd.OutOrStdout()
			if f.output != "" {
				file, err := os.Create(f.output)
				if err != nil {
					return err
				}
				defer file.Close()
				out = file
			}
			return writeTaxonomy(out, tax, f.format)
		},
	}
	cmd.Flags().StringVar(&f.format, "format", "dot", "Output format: dot, mermaid, json or stats")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().BoolVar(&f.neo4j, "neo4j", false, "Also store the hierarchy in the configured Neo4j database")
	cmd.Flags().StringVar(&f.ontology, "ontology", "", "Name the hierarchy is stored under (default: file name)")
	return cmd
}

func writeTaxonomy(w io.Writer, tax *structural.Taxonomy, format string) error {
	switch strings.ToLower(format) {
	case "dot":
		_, err := io.WriteString(w, structural.ExportDOT(tax))
		return err
	case "mermaid":
		_, err := io.WriteString(w, structural.ExportMermaid(tax))
		return err
	case "json":
		data, err := structural.ExportJSON(tax)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "stats":
		_, err := io.WriteString(w, structural.FormatStats(tax.Stats))
		return err
	default:
		return fmt.Errorf("unknown format %q (want dot, mermaid, json or stats)", format)
	}
}

// storeTaxonomy replaces the stored hierarchy of ontology.
func storeTaxonomy(ctx context.Context, repo graph.Repository, ontology string, tax *structural.Taxonomy) error {
	if err := repo.StoreTaxonomy(ctx, ontology, tax); err != nil {
		return fmt.Errorf("store hierarchy: %w", err)
	}
	return nil
}

func ontologyName(source string) string {
	base := filepath.Base(strings.TrimRight(source, "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
