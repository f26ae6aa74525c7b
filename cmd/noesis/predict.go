package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/noesis/internal/engine"
	"github.com/pdiddy/noesis/pkg/types"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Score unlinked concept pairs without generating hypotheses",
	Long: `Predict analyzes the concept graph and lists the candidate links the
hypothesize command would send to the language model. No model is called.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := engineOptions(cmd)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx := cmd.Context()
		store, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		eng := engine.New(store, nil, reg, log)
		snap, analysis, err := eng.AnalyzeGraph(ctx)
		if err != nil {
			return err
		}
		preds, err := eng.Predict(snap, analysis, opts)
		if err != nil {
			return err
		}

		if asJSON {
			return writeJSON(preds)
		}
		fmt.Fprintf(os.Stdout, "%d predictions (%s, policy %s)\n\n", len(preds), opts.SimilarityMethod, opts.Policy)
		for i, p := range preds {
			fmt.Fprintf(os.Stdout, "%3d. %s (%s) <-> %s (%s)  %.4f  shared: %d\n",
				i+1, p.Source, orUnknown(p.SourceType), p.Target, orUnknown(p.TargetType),
				p.Score, p.NumCommonNeighbors)
		}
		return nil
	},
}

func init() {
	addEngineFlags(predictCmd)
	predictCmd.Flags().Bool("json", false, "output JSON instead of text")

	rootCmd.AddCommand(predictCmd)
}

// addEngineFlags registers the link prediction flags shared by predict and
// hypothesize. Unset flags fall back to the engine config section.
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().String("method", "", "similarity method: jaccard, adamic_adar, resource_allocation, common_neighbors, preferential_attachment")
	cmd.Flags().String("policy", "", "prediction policy: central, top_n, or cross_domain")
	cmd.Flags().Int("top-n", 0, "number of predictions to keep")
	cmd.Flags().Float64("min-similarity", 0, "drop predictions scoring below this")
}

func engineOptions(cmd *cobra.Command) (engine.Options, error) {
	opts := engine.OptionsFromConfig(cfg.Engine)
	f := cmd.Flags()

	if f.Changed("method") {
		v, _ := f.GetString("method")
		m, err := types.ParseSimilarityMethod(v)
		if err != nil {
			return opts, err
		}
		opts.SimilarityMethod = m
	}
	if f.Changed("policy") {
		v, _ := f.GetString("policy")
		p, err := types.ParsePredictionPolicy(v)
		if err != nil {
			return opts, err
		}
		opts.Policy = p
	}
	if f.Changed("top-n") {
		opts.TopN, _ = f.GetInt("top-n")
	}
	if f.Changed("min-similarity") {
		opts.MinSimilarity, _ = f.GetFloat64("min-similarity")
	}
	if opts.TopN < 1 {
		return opts, fmt.Errorf("top-n must be at least 1: %w", types.ErrInvalidArgument)
	}
	return opts, nil
}

func orUnknown(t types.ConceptType) types.ConceptType {
	if t == "" {
		return "unknown"
	}
	return t
}
