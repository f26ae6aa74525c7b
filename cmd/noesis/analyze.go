package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/noesis/internal/analytics"
	"github.com/pdiddy/noesis/internal/engine"
	"github.com/pdiddy/noesis/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Report statistics and central concepts of the concept graph",
	Long: `Analyze loads the concept graph and prints its statistics, the most central
concepts under the chosen metric, and the number of communities.

With --concept, it instead lists the concepts within --distance hops of the
named concept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		metricFlag, _ := cmd.Flags().GetString("metric")
		metric, err := types.ParseCentralityMetric(metricFlag)
		if err != nil {
			return err
		}
		top, _ := cmd.Flags().GetInt("top")
		asJSON, _ := cmd.Flags().GetBool("json")
		concept, _ := cmd.Flags().GetString("concept")
		distance, _ := cmd.Flags().GetInt("distance")

		ctx := cmd.Context()
		store, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		if concept != "" {
			snap, err := analytics.Load(ctx, store, log)
			if err != nil {
				return err
			}
			neighbors := snap.Neighbors(concept, distance)
			if asJSON {
				return writeJSON(neighbors)
			}
			fmt.Fprintf(os.Stdout, "Concepts within %d hop(s) of %s: %d\n", distance, concept, len(neighbors))
			for _, n := range neighbors {
				fmt.Fprintf(os.Stdout, "  %s\n", n)
			}
			return nil
		}

		snap, analysis, err := engine.New(store, nil, reg, log).AnalyzeGraph(ctx)
		if err != nil {
			return err
		}
		ranked, err := snap.TopConcepts(metric, top)
		if err != nil {
			return err
		}

		if asJSON {
			return writeJSON(struct {
				types.GraphAnalysis
				Metric      types.CentralityMetric `json:"metric"`
				TopConcepts []types.ScoredConcept  `json:"top_concepts"`
			}{analysis, metric, ranked})
		}

		stats := analysis.Statistics
		printStatistics(stats)
		fmt.Fprintf(os.Stdout, "Communities:   %d\n\n", analysis.NumCommunities)
		fmt.Fprintf(os.Stdout, "Top %d concepts by %s:\n", len(ranked), metric)
		for i, c := range ranked {
			fmt.Fprintf(os.Stdout, "  %2d. %-40s %.4f\n", i+1, c.Name, c.Score)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("metric", string(types.CentralityPageRank), "centrality metric: pagerank, betweenness, degree, or eigenvector")
	analyzeCmd.Flags().Int("top", 10, "number of central concepts to list")
	analyzeCmd.Flags().Bool("json", false, "output JSON instead of text")
	analyzeCmd.Flags().String("concept", "", "list the neighborhood of this concept")
	analyzeCmd.Flags().Int("distance", 1, "hop count for --concept")

	rootCmd.AddCommand(analyzeCmd)
}

func printStatistics(stats types.GraphStatistics) {
	fmt.Fprintf(os.Stdout, "Concepts:      %d\n", stats.NumNodes)
	fmt.Fprintf(os.Stdout, "Relationships: %d\n", stats.NumEdges)
	fmt.Fprintf(os.Stdout, "Density:       %.4f\n", stats.Density)
	fmt.Fprintf(os.Stdout, "Clustering:    %.4f\n", stats.AverageClustering)
	fmt.Fprintf(os.Stdout, "Connected:     %v (%d components)\n", stats.IsConnected, stats.NumConnectedComponents)
	if stats.AverageShortestPath != nil {
		fmt.Fprintf(os.Stdout, "Avg path:      %.4f\n", *stats.AverageShortestPath)
	}

	fmt.Fprintln(os.Stdout, "Concept types:")
	for _, k := range sortedKeys(stats.NodeTypeDistribution) {
		fmt.Fprintf(os.Stdout, "  %-20s %d\n", k, stats.NodeTypeDistribution[k])
	}
	fmt.Fprintln(os.Stdout, "Relationship types:")
	for _, k := range sortedKeys(stats.RelationshipTypeDistribution) {
		fmt.Fprintf(os.Stdout, "  %-20s %d\n", k, stats.RelationshipTypeDistribution[k])
	}
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
