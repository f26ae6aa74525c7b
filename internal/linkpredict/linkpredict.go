// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package linkpredict scores concept pairs that share no edge by the
// structure of their neighborhoods in the undirected projection of a
// snapshot. Self-loops are not part of the projection.
package linkpredict

import (
	"fmt"
	"math"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/pdiddy/noesis/internal/analytics"
	"github.com/pdiddy/noesis/internal/logger"
	"github.com/pdiddy/noesis/pkg/types"
)

// Predictor borrows a snapshot and never modifies it.
type Predictor struct {
	snap      *analytics.Snapshot
	neighbors []mapset.Set[int]
	log       *logger.Logger
}

// New builds the neighbor sets for every concept in snap.
func New(snap *analytics.Snapshot, log *logger.Logger) *Predictor {
	if log == nil {
		log = logger.Nop()
	}
	p := &Predictor{
		snap:      snap,
		neighbors: make([]mapset.Set[int], snap.Len()),
		log:       log.With("component", "linkpredict"),
	}
	for id := 0; id < snap.Len(); id++ {
		p.neighbors[id] = mapset.NewThreadUnsafeSet(snap.Adjacent(id)...)
	}
	return p
}

// scoredPair is an unenriched candidate.
type scoredPair struct {
	u, v  int
	score float64
}

// scoreFunc returns the scorer for method or an ErrInvalidArgument error.
func (p *Predictor) scoreFunc(method types.SimilarityMethod) (func(u, v int) float64, error) {
	switch method {
	case types.SimilarityJaccard:
		return p.jaccard, nil
	case types.SimilarityAdamicAdar:
		return p.adamicAdar, nil
	case types.SimilarityResourceAllocation:
		return p.resourceAllocation, nil
	case types.SimilarityCommonNeighbors:
		return p.commonNeighbors, nil
	case types.SimilarityPreferentialAttachment:
		return p.preferentialAttachment, nil
	}
	return nil, fmt.Errorf("similarity method %q: %w", method, types.ErrInvalidArgument)
}

func (p *Predictor) jaccard(u, v int) float64 {
	union := p.neighbors[u].Union(p.neighbors[v]).Cardinality()
	if union == 0 {
		return 0
	}
	return float64(p.neighbors[u].Intersect(p.neighbors[v]).Cardinality()) / float64(union)
}

func (p *Predictor) adamicAdar(u, v int) float64 {
	score := 0.0
	for _, w := range p.common(u, v) {
		// A common neighbor has degree at least two, so the log is positive.
		score += 1 / math.Log(float64(p.neighbors[w].Cardinality()))
	}
	return score
}

func (p *Predictor) resourceAllocation(u, v int) float64 {
	score := 0.0
	for _, w := range p.common(u, v) {
		score += 1 / float64(p.neighbors[w].Cardinality())
	}
	return score
}

func (p *Predictor) commonNeighbors(u, v int) float64 {
	return float64(p.neighbors[u].Intersect(p.neighbors[v]).Cardinality())
}

func (p *Predictor) preferentialAttachment(u, v int) float64 {
	return float64(p.neighbors[u].Cardinality() * p.neighbors[v].Cardinality())
}

// common returns the shared neighbors of u and v in load order.
func (p *Predictor) common(u, v int) []int {
	ids := p.neighbors[u].Intersect(p.neighbors[v]).ToSlice()
	sort.Ints(ids)
	return ids
}

// Scores rates every non-adjacent pair with method, sorted by descending
// score. Pairs are enumerated in snapshot load order (u before v) and ties
// keep that order.
func (p *Predictor) Scores(method types.SimilarityMethod) ([]types.LinkPrediction, error) {
	pairs, err := p.scoreAll(method)
	if err != nil {
		return nil, err
	}
	return p.enrich(pairs), nil
}

func (p *Predictor) scoreAll(method types.SimilarityMethod) ([]scoredPair, error) {
	score, err := p.scoreFunc(method)
	if err != nil {
		return nil, err
	}
	n := p.snap.Len()
	var pairs []scoredPair
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			if p.neighbors[u].Contains(v) {
				continue
			}
			pairs = append(pairs, scoredPair{u: u, v: v, score: score(u, v)})
		}
	}
	sortPairs(pairs)
	p.log.Debug("scored non-edges", "method", method, "pairs", len(pairs))
	return pairs, nil
}

func sortPairs(pairs []scoredPair) {
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })
}

// TopPredictions returns at most topN predictions scoring at least minScore.
// When filterTypes is non-empty, a pair survives only if one of its
// endpoints has a listed type. topN <= 0 means no limit.
func (p *Predictor) TopPredictions(method types.SimilarityMethod, topN int, minScore float64, filterTypes []types.ConceptType) ([]types.LinkPrediction, error) {
	pairs, err := p.scoreAll(method)
	if err != nil {
		return nil, err
	}
	allowed := mapset.NewThreadUnsafeSet(filterTypes...)

	var kept []scoredPair
	for _, sp := range pairs {
		if sp.score < minScore {
			continue
		}
		if allowed.Cardinality() > 0 &&
			!allowed.Contains(p.snap.ConceptAt(sp.u).Type) &&
			!allowed.Contains(p.snap.ConceptAt(sp.v).Type) {
			continue
		}
		kept = append(kept, sp)
	}
	return p.enrich(truncate(kept, topN)), nil
}

// CrossDomainLinks returns at most topN predictions whose endpoints have
// different concept types. The type filter runs before truncation, so a
// graph with enough cross-type candidates always fills topN.
func (p *Predictor) CrossDomainLinks(method types.SimilarityMethod, topN int, minScore float64) ([]types.LinkPrediction, error) {
	pairs, err := p.scoreAll(method)
	if err != nil {
		return nil, err
	}
	var kept []scoredPair
	for _, sp := range pairs {
		if sp.score < minScore {
			continue
		}
		if p.snap.ConceptAt(sp.u).Type == p.snap.ConceptAt(sp.v).Type {
			continue
		}
		kept = append(kept, sp)
	}
	return p.enrich(truncate(kept, topN)), nil
}

// ConceptPredictions holds the candidates found for one concept.
type ConceptPredictions struct {
	Concept     string                 `json:"concept"`
	Predictions []types.LinkPrediction `json:"predictions"`
}

// UnexploredConnections scores, for each listed concept, only the pairs
// between that concept and its non-neighbors. Concepts missing from the
// snapshot are skipped and produce no entry. Results follow the order of
// concepts; each entry is sorted by descending score and holds at most
// topNPerConcept predictions with the concept as Source.
func (p *Predictor) UnexploredConnections(concepts []string, method types.SimilarityMethod, topNPerConcept int, minScore float64) ([]ConceptPredictions, error) {
	score, err := p.scoreFunc(method)
	if err != nil {
		return nil, err
	}

	var out []ConceptPredictions
	for _, name := range concepts {
		u, ok := p.snap.ID(name)
		if !ok {
			p.log.Warn("concept not found in graph", "concept", name)
			continue
		}
		var pairs []scoredPair
		for v := 0; v < p.snap.Len(); v++ {
			if v == u || p.neighbors[u].Contains(v) {
				continue
			}
			s := score(u, v)
			if s < minScore {
				continue
			}
			pairs = append(pairs, scoredPair{u: u, v: v, score: s})
		}
		sortPairs(pairs)
		out = append(out, ConceptPredictions{
			Concept:     name,
			Predictions: p.enrich(truncate(pairs, topNPerConcept)),
		})
	}
	return out, nil
}

func truncate(pairs []scoredPair, n int) []scoredPair {
	if n > 0 && n < len(pairs) {
		return pairs[:n]
	}
	return pairs
}

// enrich attaches endpoint metadata and the shared neighbors to each pair.
func (p *Predictor) enrich(pairs []scoredPair) []types.LinkPrediction {
	out := make([]types.LinkPrediction, 0, len(pairs))
	for _, sp := range pairs {
		src, tgt := p.snap.ConceptAt(sp.u), p.snap.ConceptAt(sp.v)
		shared := p.common(sp.u, sp.v)
		names := make([]string, len(shared))
		for i, w := range shared {
			names[i] = p.snap.ConceptAt(w).Name
		}
		out = append(out, types.LinkPrediction{
			Source:             src.Name,
			Target:             tgt.Name,
			Score:              sp.score,
			SourceType:         src.Type,
			TargetType:         tgt.Type,
			SourceDescription:  src.Description,
			TargetDescription:  tgt.Description,
			CommonNeighbors:    names,
			NumCommonNeighbors: len(names),
		})
	}
	return out
}
