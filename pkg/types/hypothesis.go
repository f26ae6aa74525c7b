// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// LinkPrediction is a scored pair of concepts with no direct edge between
// them. Predictions are regenerated on every run and never persisted alone.
type LinkPrediction struct {
	Source            string      `json:"source" yaml:"source"`
	Target            string      `json:"target" yaml:"target"`
	Score             float64     `json:"score" yaml:"score"`
	SourceType        ConceptType `json:"source_type" yaml:"source_type"`
	TargetType        ConceptType `json:"target_type" yaml:"target_type"`
	SourceDescription string      `json:"source_description" yaml:"source_description"`
	TargetDescription string      `json:"target_description" yaml:"target_description"`

	// CommonNeighbors is sorted by snapshot load order so that prompts and
	// exports are reproducible.
	CommonNeighbors    []string `json:"common_neighbors" yaml:"common_neighbors"`
	NumCommonNeighbors int      `json:"num_common_neighbors" yaml:"num_common_neighbors"`
}

// HypothesisContent holds the fields authored by the generative backend.
type HypothesisContent struct {
	Title             string   `json:"title" yaml:"title"`
	Rationale         string   `json:"rationale" yaml:"rationale"`
	ResearchDirection string   `json:"research_direction" yaml:"research_direction"`
	Mechanism         string   `json:"mechanism" yaml:"mechanism"`
	NextSteps         []string `json:"next_steps" yaml:"next_steps"`
	NoveltyScore      float64  `json:"novelty_score" yaml:"novelty_score"`
	FeasibilityScore  float64  `json:"feasibility_score" yaml:"feasibility_score"`
	ImpactScore       float64  `json:"impact_score" yaml:"impact_score"`
	Keywords          []string `json:"keywords" yaml:"keywords"`
}

// Hypothesis wraps one LinkPrediction with its generated content. It is not
// modified after generation; ranking returns copies carrying CombinedScore.
type Hypothesis struct {
	Content       HypothesisContent `json:"hypothesis" yaml:"hypothesis"`
	Prediction    LinkPrediction    `json:"link_prediction" yaml:"link_prediction"`
	CombinedScore *float64          `json:"combined_score,omitempty" yaml:"combined_score,omitempty"`
}

// Weights for the ranking score (novelty/impact/feasibility) and for the
// confidence of expansion-derived concepts (novelty/feasibility/impact).
// The two blends differ on purpose and are kept as separate constants.
const (
	CombinedNoveltyWeight     = 0.4
	CombinedImpactWeight      = 0.4
	CombinedFeasibilityWeight = 0.2

	ExpansionNoveltyWeight     = 0.4
	ExpansionFeasibilityWeight = 0.3
	ExpansionImpactWeight      = 0.3
)

// Combined returns the weighted ranking score for c.
func (c HypothesisContent) Combined() float64 {
	return c.NoveltyScore*CombinedNoveltyWeight +
		c.ImpactScore*CombinedImpactWeight +
		c.FeasibilityScore*CombinedFeasibilityWeight
}

// ExpansionConfidence returns the confidence assigned to the synthetic
// concept derived from c.
func (c HypothesisContent) ExpansionConfidence() float64 {
	return c.NoveltyScore*ExpansionNoveltyWeight +
		c.FeasibilityScore*ExpansionFeasibilityWeight +
		c.ImpactScore*ExpansionImpactWeight
}

// SourceHypothesis links a synthetic concept back to the prediction it came from.
type SourceHypothesis struct {
	SourceConcept   string  `json:"source_concept" yaml:"source_concept"`
	TargetConcept   string  `json:"target_concept" yaml:"target_concept"`
	SimilarityScore float64 `json:"similarity_score" yaml:"similarity_score"`
}

// ExpandedConcept is a synthetic concept of type hypothesis. It lives only
// inside a HypothesisLayer and is never written to the graph store.
type ExpandedConcept struct {
	Name             string           `json:"name" yaml:"name"`
	Type             ConceptType      `json:"type" yaml:"type"`
	Description      string           `json:"description" yaml:"description"`
	Confidence       float64          `json:"confidence" yaml:"confidence"`
	SourceHypothesis SourceHypothesis `json:"source_hypothesis" yaml:"source_hypothesis"`
	Keywords         []string         `json:"keywords" yaml:"keywords"`
	Layer            string           `json:"layer" yaml:"layer"`
}

// ExpandedRelationship is a synthetic edge produced by expansion.
type ExpandedRelationship struct {
	From       string           `json:"from" yaml:"from"`
	To         string           `json:"to" yaml:"to"`
	Type       RelationshipType `json:"type" yaml:"type"`
	Confidence float64          `json:"confidence" yaml:"confidence"`
	Rationale  string           `json:"rationale,omitempty" yaml:"rationale,omitempty"`
	Mechanism  string           `json:"mechanism,omitempty" yaml:"mechanism,omitempty"`
	Layer      string           `json:"layer" yaml:"layer"`
}

// HypothesisLayer is one round of hypotheses in the exploration tree plus
// the synthetic concepts and relationships derived from them.
type HypothesisLayer struct {
	LayerID       int    `json:"layer_id" yaml:"layer_id"`
	ParentLayerID *int   `json:"parent_layer_id" yaml:"parent_layer_id"`
	Depth         int    `json:"depth" yaml:"depth"`
	BranchName    string `json:"branch_name" yaml:"branch_name"`

	Hypotheses            []Hypothesis           `json:"hypotheses" yaml:"hypotheses"`
	ExpandedConcepts      []ExpandedConcept      `json:"expanded_concepts" yaml:"expanded_concepts"`
	ExpandedRelationships []ExpandedRelationship `json:"expanded_relationships" yaml:"expanded_relationships"`

	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Metadata  map[string]any `json:"metadata" yaml:"metadata"`

	// Parent is the layer this one was branched from; nil for the root.
	Parent *HypothesisLayer `json:"-" yaml:"-"`
}

// Branch is a subset of a layer's hypotheses chosen by a partitioning criterion.
type Branch struct {
	Name        string       `json:"branch_name" yaml:"branch_name"`
	Description string       `json:"description" yaml:"description"`
	Hypotheses  []Hypothesis `json:"hypotheses" yaml:"hypotheses"`
}

// ExplorationTreeMetadata describes an exported exploration tree.
type ExplorationTreeMetadata struct {
	RunID     string    `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	NumLayers int       `json:"num_layers" yaml:"num_layers"`
	MaxDepth  int       `json:"max_depth" yaml:"max_depth"`
}

// ExplorationTree is the serialized form of all layers of an exploration.
type ExplorationTree struct {
	Metadata ExplorationTreeMetadata `json:"metadata" yaml:"metadata"`
	Layers   []*HypothesisLayer      `json:"layers" yaml:"layers"`
}
