// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package alchemist

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/noesis/pkg/types"
)

// Tree returns the serializable form of the current layers.
func (a *Alchemist) Tree() *types.ExplorationTree {
	maxDepth := 0
	for _, l := range a.layers {
		if l.Depth > maxDepth {
			maxDepth = l.Depth
		}
	}
	return &types.ExplorationTree{
		Metadata: types.ExplorationTreeMetadata{
			RunID:     a.runID,
			Timestamp: a.now(),
			NumLayers: len(a.layers),
			MaxDepth:  maxDepth,
		},
		Layers: a.layers,
	}
}

// ExportTree writes Tree() to path as indented JSON.
func (a *Alchemist) ExportTree(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	data, err := json.MarshalIndent(a.Tree(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling exploration tree: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	a.log.Info("exploration tree saved", "path", path)
	return nil
}

// PrintTreeSummary writes one block per layer, ordered by layer id and
// indented by depth.
func (a *Alchemist) PrintTreeSummary(w io.Writer) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintf(w, "\n%s\nRECURSIVE HYPOTHESIS EXPLORATION TREE\n%s\n", rule, rule)
	fmt.Fprintf(w, "\nTotal Layers: %d\n", len(a.layers))

	sorted := append([]*types.HypothesisLayer(nil), a.layers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].LayerID < sorted[j].LayerID })

	for _, l := range sorted {
		indent := strings.Repeat("  ", l.Depth)
		fmt.Fprintf(w, "\n%sLayer %d - %s\n", indent, l.LayerID, l.BranchName)
		fmt.Fprintf(w, "%s  Hypotheses: %d\n", indent, len(l.Hypotheses))
		fmt.Fprintf(w, "%s  Expanded Concepts: %d\n", indent, len(l.ExpandedConcepts))
		fmt.Fprintf(w, "%s  Expanded Relationships: %d\n", indent, len(l.ExpandedRelationships))
		if len(l.Hypotheses) > 0 {
			fmt.Fprintf(w, "%s  Top: %s\n", indent, l.Hypotheses[0].Content.Title)
		}
	}
	fmt.Fprintf(w, "\n%s\n", rule)
}
