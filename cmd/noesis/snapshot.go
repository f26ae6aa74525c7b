package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/noesis/internal/graphstore"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Export the concept graph to a JSON or YAML snapshot",
	Long: `Snapshot reads the configured graph store and writes it to a file that
--graph-file can read later, for sharing, backups, or offline runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		pattern, _ := cmd.Flags().GetString("concept-pattern")
		if output == "" {
			output = filepath.Join(cfg.Engine.OutputDir, "graph_"+time.Now().Format("20060102_150405")+".json")
		}

		ctx := cmd.Context()
		store, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		g, err := graphstore.Export(ctx, store, graphstore.NewFile(output), pattern)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d concepts and %d relationships to %s\n", len(g.Concepts), len(g.Relationships), output)
		return nil
	},
}

func init() {
	snapshotCmd.Flags().String("output", "", "snapshot file, .json or .yaml (default: <output_dir>/graph_<timestamp>.json)")
	snapshotCmd.Flags().String("concept-pattern", "", "keep only concepts whose name contains this text")

	rootCmd.AddCommand(snapshotCmd)
}
