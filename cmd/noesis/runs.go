package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/noesis/internal/archive"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List, search, and export archived runs",
	Long: `Runs reads the SQLite archive written by hypothesize --archive and
explore --archive.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent archived runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := archive.Open(cfg.Archive, log)
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.ListRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stdout, "No archived runs.")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(os.Stdout, "%s  %-11s  %s  hypotheses=%d", r.ID, r.Kind, r.CreatedAt.Format("2006-01-02 15:04:05"), r.NumHypotheses)
			if r.Kind == archive.KindExploration {
				fmt.Fprintf(os.Stdout, " layers=%d", r.NumLayers)
			} else {
				fmt.Fprintf(os.Stdout, " method=%s policy=%s", r.SimilarityMethod, r.Policy)
			}
			fmt.Fprintln(os.Stdout)
		}
		return nil
	},
}

var runsSearchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search archived hypotheses by text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")
		text := strings.Join(args, " ")

		a, err := archive.Open(cfg.Archive, log)
		if err != nil {
			return err
		}
		defer a.Close()

		hits, err := a.SearchHypotheses(cmd.Context(), text, limit)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(hits)
		}
		fmt.Fprintf(os.Stdout, "%d hypotheses matching %q\n\n", len(hits), text)
		for i, h := range hits {
			fmt.Fprintf(os.Stdout, "%d. %s\n", i+1, h.Title)
			fmt.Fprintf(os.Stdout, "   Run: %s", h.RunID)
			if h.LayerID != nil {
				fmt.Fprintf(os.Stdout, "  Layer: %d", *h.LayerID)
			}
			fmt.Fprintf(os.Stdout, "  Combined: %.3f\n", h.Combined)
			fmt.Fprintf(os.Stdout, "   Link: %s <-> %s\n", h.Source, h.Target)
		}
		return nil
	},
}

var runsExportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export an archived run as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = args[0] + ".yaml"
		}

		a, err := archive.Open(cfg.Archive, log)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ExportYAML(cmd.Context(), args[0], output); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Run %s exported to %s\n", args[0], output)
		return nil
	},
}

func init() {
	runsListCmd.Flags().Int("limit", 20, "maximum runs to list")
	runsListCmd.Flags().Bool("json", false, "output JSON instead of text")

	runsSearchCmd.Flags().Int("limit", 20, "maximum hypotheses to return")
	runsSearchCmd.Flags().Bool("json", false, "output JSON instead of text")

	runsExportCmd.Flags().String("output", "", "YAML file to write (default: <run-id>.yaml)")

	runsCmd.AddCommand(runsListCmd, runsSearchCmd, runsExportCmd)
	rootCmd.AddCommand(runsCmd)
}
