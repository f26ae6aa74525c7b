// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package alchemist

import "github.com/pdiddy/noesis/pkg/types"

const (
	// expansionLayer tags every synthetic concept and relationship.
	expansionLayer = "expansion"

	// contributionConfidence is the fixed confidence of the edges linking a
	// prediction's endpoints to the synthetic hypothesis concept.
	contributionConfidence = 0.9
)

// Expand derives the synthetic concept for h and, when both endpoints of its
// prediction are known, the three synthetic relationships around it.
func Expand(h types.Hypothesis) (types.ExpandedConcept, []types.ExpandedRelationship) {
	c, p := h.Content, h.Prediction

	concept := types.ExpandedConcept{
		Name:        c.Title,
		Type:        types.ConceptHypothesis,
		Description: c.Rationale,
		Confidence:  c.ExpansionConfidence(),
		SourceHypothesis: types.SourceHypothesis{
			SourceConcept:   p.Source,
			TargetConcept:   p.Target,
			SimilarityScore: p.Score,
		},
		Keywords: append([]string(nil), c.Keywords...),
		Layer:    expansionLayer,
	}

	if p.Source == "" || p.Target == "" {
		return concept, nil
	}
	return concept, []types.ExpandedRelationship{
		{
			From:       p.Source,
			To:         p.Target,
			Type:       types.RelHypothesizedConnection,
			Confidence: p.Score,
			Rationale:  c.Rationale,
			Mechanism:  c.Mechanism,
			Layer:      expansionLayer,
		},
		{
			From:       p.Source,
			To:         c.Title,
			Type:       types.RelContributesToHypothesis,
			Confidence: contributionConfidence,
			Layer:      expansionLayer,
		},
		{
			From:       p.Target,
			To:         c.Title,
			Type:       types.RelContributesToHypothesis,
			Confidence: contributionConfidence,
			Layer:      expansionLayer,
		},
	}
}

// ExpandLayer appends the expansion of every hypothesis in layer to its
// expanded concepts and relationships. Nothing is written to the graph store.
func ExpandLayer(layer *types.HypothesisLayer) {
	for _, h := range layer.Hypotheses {
		concept, rels := Expand(h)
		layer.ExpandedConcepts = append(layer.ExpandedConcepts, concept)
		layer.ExpandedRelationships = append(layer.ExpandedRelationships, rels...)
	}
}
