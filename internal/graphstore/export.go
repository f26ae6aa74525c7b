// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graphstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/noesis/pkg/types"
)

// Export copies the graph held by src into dst. A non-empty conceptPattern
// keeps only concepts whose name contains it (case-insensitive) and the
// relationships between kept concepts.
func Export(ctx context.Context, src Store, dst *File, conceptPattern string) (*types.GraphData, error) {
	g, err := src.LoadGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading source graph: %w", err)
	}
	if conceptPattern != "" {
		g = filterConcepts(g, strings.ToLower(conceptPattern))
	}
	if err := dst.StoreGraph(ctx, g); err != nil {
		return nil, fmt.Errorf("writing snapshot %s: %w", dst.path, err)
	}
	return g, nil
}

func filterConcepts(g *types.GraphData, pattern string) *types.GraphData {
	kept := make(map[string]bool)
	out := &types.GraphData{}
	for _, c := range g.Concepts {
		if strings.Contains(strings.ToLower(c.Name), pattern) {
			kept[c.Name] = true
			out.Concepts = append(out.Concepts, c)
		}
	}
	for _, r := range g.Relationships {
		if kept[r.Source] && kept[r.Target] {
			out.Relationships = append(out.Relationships, r)
		}
	}
	return out
}
