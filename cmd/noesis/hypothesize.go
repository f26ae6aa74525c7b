package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/noesis/internal/archive"
	"github.com/pdiddy/noesis/internal/engine"
	"github.com/pdiddy/noesis/internal/hypothesis"
)

var hypothesizeCmd = &cobra.Command{
	Use:   "hypothesize",
	Short: "Generate ranked research hypotheses from predicted links",
	Long: `Hypothesize runs the full engine: graph analysis, link prediction, one
language model call per selected prediction, score filtering, and ranking by
combined score. Results are written as JSON and optionally archived.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := hypothesizeOptions(cmd)
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		toArchive, _ := cmd.Flags().GetBool("archive")
		summaryTop, _ := cmd.Flags().GetInt("summary-top")

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

		result, err := engine.New(store, generator, reg, log).Run(ctx, opts)
		if err != nil {
			return err
		}

		if output == "" {
			output = filepath.Join(cfg.Engine.OutputDir, "hypotheses_"+result.Metadata.Timestamp.Format("20060102_150405")+".json")
		}
		if err := engine.SaveResults(output, result); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Results saved to %s\n", output)

		if toArchive {
			if err := archiveRun(ctx, func(a *archive.Archive) error {
				return a.SaveEngineResult(ctx, result)
			}); err != nil {
				return err
			}
		}

		engine.PrintSummary(os.Stdout, result, summaryTop)
		return nil
	},
}

func init() {
	addEngineFlags(hypothesizeCmd)
	hypothesizeCmd.Flags().Int("max-hypotheses", 0, "cap on language model calls (0 uses the config value)")
	hypothesizeCmd.Flags().Float64("temperature", 0, "sampling temperature")
	hypothesizeCmd.Flags().Float64("min-novelty", 0, "drop hypotheses with lower novelty")
	hypothesizeCmd.Flags().Float64("min-feasibility", 0, "drop hypotheses with lower feasibility")
	hypothesizeCmd.Flags().Float64("min-impact", 0, "drop hypotheses with lower impact")
	hypothesizeCmd.Flags().String("output", "", "results file (default: <output_dir>/hypotheses_<timestamp>.json)")
	hypothesizeCmd.Flags().Bool("archive", false, "also store the run in the archive database")
	hypothesizeCmd.Flags().Int("summary-top", 5, "hypotheses shown in the printed summary")

	rootCmd.AddCommand(hypothesizeCmd)
}

func hypothesizeOptions(cmd *cobra.Command) (engine.Options, error) {
	opts, err := engineOptions(cmd)
	if err != nil {
		return opts, err
	}
	f := cmd.Flags()
	if f.Changed("max-hypotheses") {
		opts.MaxHypotheses, _ = f.GetInt("max-hypotheses")
	}
	if f.Changed("temperature") {
		opts.Temperature, _ = f.GetFloat64("temperature")
	}
	if f.Changed("min-novelty") {
		opts.MinNovelty, _ = f.GetFloat64("min-novelty")
	}
	if f.Changed("min-feasibility") {
		opts.MinFeasibility, _ = f.GetFloat64("min-feasibility")
	}
	if f.Changed("min-impact") {
		opts.MinImpact, _ = f.GetFloat64("min-impact")
	}
	return opts, nil
}

// newGenerator builds the hypothesis generator for the configured provider.
func newGenerator() (*hypothesis.Generator, error) {
	backend, err := hypothesis.NewBackend(cfg.LLM)
	if err != nil {
		return nil, err
	}
	log.Info("generative backend ready", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	return hypothesis.NewGenerator(backend, cfg.LLM.MaxTokens, reg, log), nil
}

// archiveRun opens the archive, lets save write to it, and closes it.
func archiveRun(ctx context.Context, save func(a *archive.Archive) error) error {
	a, err := archive.Open(cfg.Archive, log)
	if err != nil {
		return err
	}
	defer a.Close()

	start := time.Now()
	defer reg.ObserveStage("archive", start)

	if err := save(a); err != nil {
		return fmt.Errorf("archiving run: %w", err)
	}
	return ctx.Err()
}
