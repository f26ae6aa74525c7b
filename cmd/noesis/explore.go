package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/noesis/internal/alchemist"
	"github.com/pdiddy/noesis/internal/archive"
	"github.com/pdiddy/noesis/internal/engine"
	"github.com/pdiddy/noesis/pkg/types"
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Grow a tree of hypothesis layers by recursive branching",
	Long: `Explore generates a root layer of hypotheses with the engine, then splits
every layer into branches by type diversity or by score tiers and turns each
non-empty branch into a child layer, down to --max-depth.

The tree is written as JSON and a summary is printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := exploreOptions(cmd)
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		toArchive, _ := cmd.Flags().GetBool("archive")

		ctx := cmd.Context()
		store, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		generator, err := newGenerator()
		if err != nil {
			return err
		}

		a := alchemist.New(engine.New(store, generator, reg, log), reg, log)
		if _, err := a.Explore(ctx, opts); err != nil {
			return err
		}

		if output == "" {
			output = filepath.Join(cfg.Engine.OutputDir, "exploration_tree_"+time.Now().Format("20060102_150405")+".json")
		}
		if err := a.ExportTree(output); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exploration tree saved to %s\n", output)

		if toArchive {
			tree := a.Tree()
			if err := archiveRun(ctx, func(ar *archive.Archive) error {
				return ar.SaveExploration(ctx, tree)
			}); err != nil {
				return err
			}
		}

		a.PrintTreeSummary(os.Stdout)
		return nil
	},
}

func init() {
	exploreCmd.Flags().Int("max-depth", 0, "deepest layer to create (0 uses the config value)")
	exploreCmd.Flags().Int("hypotheses-per-layer", 0, "hypotheses kept per layer")
	exploreCmd.Flags().Int("branches", 0, "branches per layer")
	exploreCmd.Flags().String("criterion", "", "branching criterion: diversity, impact, novelty, or feasibility")
	exploreCmd.Flags().Int("layer0-top-n", 0, "predictions requested for the root layer")
	exploreCmd.Flags().String("method", "", "similarity method for the root layer")
	exploreCmd.Flags().String("output", "", "tree file (default: <output_dir>/exploration_tree_<timestamp>.json)")
	exploreCmd.Flags().Bool("archive", false, "also store the tree in the archive database")

	rootCmd.AddCommand(exploreCmd)
}

func exploreOptions(cmd *cobra.Command) (alchemist.Options, error) {
	opts := alchemist.OptionsFromConfig(cfg)
	f := cmd.Flags()

	if f.Changed("max-depth") {
		opts.MaxDepth, _ = f.GetInt("max-depth")
	}
	if f.Changed("hypotheses-per-layer") {
		opts.HypothesesPerLayer, _ = f.GetInt("hypotheses-per-layer")
	}
	if f.Changed("branches") {
		opts.BranchesPerLayer, _ = f.GetInt("branches")
	}
	if f.Changed("criterion") {
		v, _ := f.GetString("criterion")
		c, err := types.ParseBranchCriterion(v)
		if err != nil {
			return opts, err
		}
		opts.BranchCriterion = c
	}
	if f.Changed("layer0-top-n") {
		opts.Layer0TopN, _ = f.GetInt("layer0-top-n")
	}
	if f.Changed("method") {
		v, _ := f.GetString("method")
		m, err := types.ParseSimilarityMethod(v)
		if err != nil {
			return opts, err
		}
		opts.Engine.SimilarityMethod = m
	}

	if opts.HypothesesPerLayer < 1 || opts.Layer0TopN < 1 {
		return opts, fmt.Errorf("hypotheses-per-layer and layer0-top-n must be at least 1: %w", types.ErrInvalidArgument)
	}
	return opts, nil
}
