// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package alchemist

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/noesis/pkg/types"
)

// CreateBranches partitions layer's hypotheses into at most n branches.
//
// Diversity groups hypotheses by the unordered pair of endpoint concept
// types and keeps the first n groups in first-seen order. The score
// criteria sort by that score, highest first, and cut n contiguous chunks
// of len/n hypotheses with the last chunk taking the remainder, so a chunk
// may be empty when the layer holds fewer than n hypotheses.
func CreateBranches(layer *types.HypothesisLayer, n int, criterion types.BranchCriterion) ([]types.Branch, error) {
	if n < 1 {
		return nil, fmt.Errorf("branch count %d: %w", n, types.ErrInvalidArgument)
	}

	var score func(types.HypothesisContent) float64
	switch criterion {
	case types.BranchDiversity:
		return diversityBranches(layer.Hypotheses, n), nil
	case types.BranchImpact:
		score = func(c types.HypothesisContent) float64 { return c.ImpactScore }
	case types.BranchNovelty:
		score = func(c types.HypothesisContent) float64 { return c.NoveltyScore }
	case types.BranchFeasibility:
		score = func(c types.HypothesisContent) float64 { return c.FeasibilityScore }
	default:
		return nil, fmt.Errorf("branching criterion %q: %w", criterion, types.ErrInvalidArgument)
	}
	return tierBranches(layer.Hypotheses, n, criterion, score), nil
}

// typePairKey names the unordered pair of endpoint types, e.g. "materialxmethod".
func typePairKey(p types.LinkPrediction) string {
	a, b := string(p.SourceType), string(p.TargetType)
	if a == "" {
		a = string(types.ConceptUnknown)
	}
	if b == "" {
		b = string(types.ConceptUnknown)
	}
	if b < a {
		a, b = b, a
	}
	return a + "x" + b
}

func diversityBranches(hyps []types.Hypothesis, n int) []types.Branch {
	var order []string
	groups := make(map[string][]types.Hypothesis)
	for _, h := range hyps {
		key := typePairKey(h.Prediction)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], h)
	}
	if len(order) > n {
		order = order[:n]
	}

	branches := make([]types.Branch, 0, len(order))
	for _, key := range order {
		branches = append(branches, types.Branch{
			Name:        "Branch-" + key,
			Description: fmt.Sprintf("Exploration of %s connections", key),
			Hypotheses:  groups[key],
		})
	}
	return branches
}

func tierBranches(hyps []types.Hypothesis, n int, criterion types.BranchCriterion, score func(types.HypothesisContent) float64) []types.Branch {
	if len(hyps) == 0 {
		return nil
	}
	sorted := make([]types.Hypothesis, len(hyps))
	copy(sorted, hyps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return score(sorted[i].Content) > score(sorted[j].Content)
	})

	name := string(criterion)
	title := strings.ToUpper(name[:1]) + name[1:]
	chunk := len(sorted) / n

	branches := make([]types.Branch, 0, n)
	for i := 0; i < n; i++ {
		start := i * chunk
		end := start + chunk
		if i == n-1 {
			end = len(sorted)
		}
		branches = append(branches, types.Branch{
			Name:        fmt.Sprintf("Branch-%s-%d", name, i+1),
			Description: fmt.Sprintf("%s tier %d", title, i+1),
			Hypotheses:  sorted[start:end],
		})
	}
	return branches
}
