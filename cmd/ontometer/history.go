package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/efebarandurmaz/ontometer/internal/history"
)

func openHistory(g *globalFlags, cmd *cobra.Command) (*history.Store, error) {
	cfg, _, err := g.load(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.History.Path == "" {
		return nil, fmt.Errorf("history.path is not configured")
	}
	return history.Open(cfg.History.Path)
}

func newHistoryCmd(g *globalFlags) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored assessments",
	}

	var (
		source string
		limit  int
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent assessments, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(g, cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.List(cmd.Context(), source, limit)
			if err != nil {
				return err
			}
			printSummaries(cmd.OutOrStdout(), items)
			return nil
		},
	}
	listCmd.Flags().StringVar(&source, "source", "", "Only show assessments of this source")
	listCmd.Flags().IntVar(&limit, "limit", history.DefaultListLimit, "Maximum number of assessments")

	var asYAML bool
	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored assessment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(g, cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			a, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asYAML {
				return yaml.NewEncoder(out).Encode(a)
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(a)
		},
	}
	showCmd.Flags().BoolVar(&asYAML, "yaml", false, "Print YAML instead of JSON")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored assessment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(g, cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}

	var compareJSON bool
	compareCmd := &cobra.Command{
		Use:   "compare <old-id> <new-id>",
		Short: "Show how structural metrics changed between two assessments",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(g, cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			old, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			next, err := store.Get(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			c := history.Compare(old, next)
			out := cmd.OutOrStdout()
			if compareJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(c)
			}
			fmt.Fprint(out, c.String())
			return nil
		},
	}
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "Print JSON")

	historyCmd.AddCommand(listCmd, showCmd, deleteCmd, compareCmd)
	return historyCmd
}

func printSummaries(w io.Writer, items []history.Summary) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No assessments recorded.")
		return
	}
	fmt.Fprintf(w, "%-36s  %-20s  %-11s  %-7s  %s\n", "ID", "CREATED", "CONSISTENT", "GATES", "SOURCE")
	for _, s := range items {
		gates := s.GateStatus
		if gates == "" {
			gates = "-"
		}
		consistent := "no"
		if s.Consistency == 1 {
			consistent = "yes"
		}
		fmt.Fprintf(w, "%-36s  %-20s  %-11s  %-7s  %s\n",
			s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), consistent, gates, s.Source)
	}
}
