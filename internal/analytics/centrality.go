// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analytics

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/graph/network"

	"github.com/pdiddy/noesis/pkg/types"
)

const (
	pageRankDamping   = 0.85
	pageRankTolerance = 1e-6

	eigenvectorTolerance = 1e-6
)

// eigenvectorMaxIter bounds power iteration. Package-level var for test substitution.
var eigenvectorMaxIter = 1000

// errNoConvergence reports that power iteration ran out of iterations.
var errNoConvergence = errors.New("power iteration did not converge")

// Centrality scores every concept by metric. Unknown metrics fail with
// types.ErrInvalidArgument. Eigenvector centrality falls back to PageRank
// when power iteration does not converge.
func (s *Snapshot) Centrality(metric types.CentralityMetric) (map[string]float64, error) {
	var scores []float64
	switch metric {
	case types.CentralityPageRank:
		scores = s.pageRank()
	case types.CentralityBetweenness:
		scores = s.betweenness()
	case types.CentralityDegree:
		scores = s.degree()
	case types.CentralityEigenvector:
		var err error
		scores, err = s.eigenvector()
		if err != nil {
			s.log.Warn("eigenvector centrality failed, using pagerank", "error", err)
			scores = s.pageRank()
		}
	default:
		return nil, fmt.Errorf("centrality %q: %w", metric, types.ErrInvalidArgument)
	}

	out := make(map[string]float64, len(scores))
	for id, v := range scores {
		out[s.concepts[id].Name] = v
	}
	return out, nil
}

// TopConcepts returns the n highest-scoring concepts for metric. Ties keep
// snapshot load order. n <= 0 returns every concept.
func (s *Snapshot) TopConcepts(metric types.CentralityMetric, n int) ([]types.ScoredConcept, error) {
	scores, err := s.Centrality(metric)
	if err != nil {
		return nil, err
	}
	ranked := make([]types.ScoredConcept, len(s.concepts))
	for i, c := range s.concepts {
		ranked[i] = types.ScoredConcept{Name: c.Name, Score: scores[c.Name]}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// pageRank runs gonum's sparse PageRank and renormalizes so the scores sum
// to one across every node, including any the result omitted.
func (s *Snapshot) pageRank() []float64 {
	n := len(s.concepts)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if s.EdgeCount() == len(s.selfLoopIDs()) {
		// No edges between distinct nodes: the stationary distribution is uniform.
		for i := range out {
			out[i] = 1 / float64(n)
		}
		return out
	}

	ranks := network.PageRankSparse(s.directed, pageRankDamping, pageRankTolerance)
	for id, v := range ranks {
		out[id] = v
	}
	if sum := floats.Sum(out); sum > 0 {
		floats.Scale(1/sum, out)
	}
	return out
}

// betweenness returns shortest-path betweenness on the directed graph,
// normalized by (n-1)(n-2).
func (s *Snapshot) betweenness() []float64 {
	n := len(s.concepts)
	out := make([]float64, n)
	if n < 3 {
		return out
	}
	raw := network.Betweenness(s.directed)
	scale := 1 / float64((n-1)*(n-2))
	for id, v := range raw {
		out[id] = v * scale
	}
	return out
}

// degree returns in+out degree divided by the maximum observed degree.
// Self-loops count twice. A graph without edges scores zero everywhere.
func (s *Snapshot) degree() []float64 {
	out := make([]float64, len(s.concepts))
	for pair := range s.pairs {
		out[pair[0]]++
		out[pair[1]]++
	}
	top := 0.0
	for _, d := range out {
		if d > top {
			top = d
		}
	}
	if top > 0 {
		floats.Scale(1/top, out)
	}
	return out
}

// eigenvector computes in-edge eigenvector centrality by power iteration on
// (A + I), normalizing by the Euclidean norm each round. It converges when
// the L1 change falls below n*tolerance.
func (s *Snapshot) eigenvector() ([]float64, error) {
	n := len(s.concepts)
	if n == 0 {
		return nil, nil
	}
	last := make([]float64, n)
	for i := range last {
		last[i] = 1 / float64(n)
	}
	x := make([]float64, n)

	for iter := 0; iter < eigenvectorMaxIter; iter++ {
		copy(x, last)
		for u := 0; u < n; u++ {
			for _, v := range s.succ[u] {
				x[v] += last[u]
			}
		}
		norm := floats.Norm(x, 2)
		if norm == 0 {
			return nil, fmt.Errorf("eigenvector: zero vector")
		}
		floats.Scale(1/norm, x)
		if floats.Distance(x, last, 1) < float64(n)*eigenvectorTolerance {
			return x, nil
		}
		copy(last, x)
	}
	return nil, fmt.Errorf("eigenvector after %d iterations: %w", eigenvectorMaxIter, errNoConvergence)
}

func (s *Snapshot) selfLoopIDs() []int {
	var ids []int
	for pair := range s.pairs {
		if pair[0] == pair[1] {
			ids = append(ids, pair[0])
		}
	}
	return ids
}
