// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// ConceptType categorizes a concept node in the knowledge graph.
type ConceptType string

const (
	ConceptMethod      ConceptType = "method"
	ConceptMaterial    ConceptType = "material"
	ConceptPhenomenon  ConceptType = "phenomenon"
	ConceptTheory      ConceptType = "theory"
	ConceptMeasurement ConceptType = "measurement"
	ConceptApplication ConceptType = "application"

	// ConceptHypothesis is reserved for synthetic nodes created by expansion.
	ConceptHypothesis ConceptType = "hypothesis"

	// ConceptUnknown preserves tolerance of types the graph store may hold
	// but this package does not name.
	ConceptUnknown ConceptType = "unknown"
)

var conceptTypes = map[ConceptType]bool{
	ConceptMethod:      true,
	ConceptMaterial:    true,
	ConceptPhenomenon:  true,
	ConceptTheory:      true,
	ConceptMeasurement: true,
	ConceptApplication: true,
	ConceptHypothesis:  true,
}

// ParseConceptType normalizes s into a ConceptType. Unrecognized values map
// to ConceptUnknown rather than failing.
func ParseConceptType(s string) ConceptType {
	t := ConceptType(strings.ToLower(strings.TrimSpace(s)))
	if conceptTypes[t] {
		return t
	}
	return ConceptUnknown
}

// RelationshipType is the normalized edge label between two concepts.
type RelationshipType string

const (
	RelIsA       RelationshipType = "IS_A"
	RelPartOf    RelationshipType = "PART_OF"
	RelUses      RelationshipType = "USES"
	RelEnables   RelationshipType = "ENABLES"
	RelMeasures  RelationshipType = "MEASURES"
	RelAppliesTo RelationshipType = "APPLIES_TO"
	RelBasedOn   RelationshipType = "BASED_ON"
	RelRelatedTo RelationshipType = "RELATED_TO"
	RelMentions  RelationshipType = "MENTIONS"

	// Synthetic types produced by hypothesis expansion.
	RelHypothesizedConnection  RelationshipType = "hypothesized_connection"
	RelContributesToHypothesis RelationshipType = "contributes_to_hypothesis"

	RelUnknown RelationshipType = "UNKNOWN"
)

var storedRelationshipTypes = map[RelationshipType]bool{
	RelIsA:       true,
	RelPartOf:    true,
	RelUses:      true,
	RelEnables:   true,
	RelMeasures:  true,
	RelAppliesTo: true,
	RelBasedOn:   true,
	RelRelatedTo: true,
	RelMentions:  true,
}

// ParseRelationshipType normalizes s ("is a", "is-a", "IS_A") into a
// RelationshipType. The two synthetic types are matched case-insensitively.
// Anything else maps to RelUnknown.
func ParseRelationshipType(s string) RelationshipType {
	norm := strings.TrimSpace(s)
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	switch RelationshipType(strings.ToLower(norm)) {
	case RelHypothesizedConnection:
		return RelHypothesizedConnection
	case RelContributesToHypothesis:
		return RelContributesToHypothesis
	}
	t := RelationshipType(strings.ToUpper(norm))
	if storedRelationshipTypes[t] {
		return t
	}
	return RelUnknown
}

// Concept is a named entity in the knowledge graph. Name is the unique,
// case-sensitive key.
type Concept struct {
	Name        string      `json:"name" yaml:"name"`
	Type        ConceptType `json:"type" yaml:"type"`
	Description string      `json:"description" yaml:"description"`
	Confidence  float64     `json:"confidence" yaml:"confidence"`
}

// Relationship is a directed, typed edge between two concepts. Several
// relationships may connect the same ordered pair.
type Relationship struct {
	Source     string           `json:"source" yaml:"source"`
	Target     string           `json:"target" yaml:"target"`
	Type       RelationshipType `json:"type" yaml:"type"`
	Confidence float64          `json:"confidence" yaml:"confidence"`
	Context    string           `json:"context,omitempty" yaml:"context,omitempty"`
}

// GraphData is the bulk payload read from a graph store.
type GraphData struct {
	Concepts      []Concept      `json:"concepts" yaml:"concepts"`
	Relationships []Relationship `json:"relationships" yaml:"relationships"`
}
