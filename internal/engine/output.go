// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/noesis/pkg/types"
)

// SaveResults writes result to path as indented JSON, creating parent
// directories as needed.
func SaveResults(path string, result *types.EngineResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// LoadResults reads a file written by SaveResults.
func LoadResults(path string) (*types.EngineResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var result types.EngineResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &result, nil
}

// PrintSummary writes a human-readable report of result with its topN best
// hypotheses.
func PrintSummary(w io.Writer, result *types.EngineResult, topN int) {
	rule := strings.Repeat("=", 80)
	thin := strings.Repeat("-", 80)
	meta := result.Metadata
	stats := result.GraphAnalysis.Statistics

	fmt.Fprintf(w, "\n%s\nHYPOTHESIS GENERATION SUMMARY\n%s\n", rule, rule)
	fmt.Fprintf(w, "\nRun: %s\n", meta.RunID)
	fmt.Fprintf(w, "Timestamp: %s\n", meta.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(w, "Similarity Method: %s\n", meta.SimilarityMethod)
	fmt.Fprintf(w, "Policy: %s\n", meta.Policy)
	fmt.Fprintf(w, "Total Link Predictions: %d\n", meta.NumPredictions)
	fmt.Fprintf(w, "Total Hypotheses Generated: %d\n", meta.NumHypotheses)

	fmt.Fprintf(w, "\n%s\nGRAPH STATISTICS\n%s\n", thin, thin)
	fmt.Fprintf(w, "Nodes: %d\n", stats.NumNodes)
	fmt.Fprintf(w, "Edges: %d\n", stats.NumEdges)
	fmt.Fprintf(w, "Density: %.4f\n", stats.Density)
	fmt.Fprintf(w, "Communities: %d\n", result.GraphAnalysis.NumCommunities)

	shown := result.Hypotheses
	if topN >= 0 && len(shown) > topN {
		shown = shown[:topN]
	}
	fmt.Fprintf(w, "\n%s\nTOP %d HYPOTHESES (by combined score)\n%s\n", thin, len(shown), thin)

	for i, h := range shown {
		c, p := h.Content, h.Prediction
		combined := c.Combined()
		if h.CombinedScore != nil {
			combined = *h.CombinedScore
		}
		fmt.Fprintf(w, "\n%d. %s\n", i+1, c.Title)
		fmt.Fprintf(w, "   Link: %s (%s) <-> %s (%s)\n", p.Source, p.SourceType, p.Target, p.TargetType)
		fmt.Fprintf(w, "   Similarity: %.4f\n", p.Score)
		fmt.Fprintf(w, "   Scores - Novelty: %.2f, Feasibility: %.2f, Impact: %.2f\n",
			c.NoveltyScore, c.FeasibilityScore, c.ImpactScore)
		fmt.Fprintf(w, "   Combined: %.2f\n", combined)
		fmt.Fprintf(w, "\n   Rationale: %s\n", c.Rationale)
		fmt.Fprintf(w, "\n   Research Direction: %s\n", c.ResearchDirection)
	}
	fmt.Fprintf(w, "\n%s\n", rule)
}
