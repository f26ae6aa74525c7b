// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// GraphStatistics summarizes the shape of a graph snapshot.
type GraphStatistics struct {
	NumNodes               int     `json:"num_nodes" yaml:"num_nodes"`
	NumEdges               int     `json:"num_edges" yaml:"num_edges"`
	Density                float64 `json:"density" yaml:"density"`
	IsConnected            bool    `json:"is_connected" yaml:"is_connected"`
	NumConnectedComponents int     `json:"num_connected_components" yaml:"num_connected_components"`
	AverageClustering      float64 `json:"average_clustering" yaml:"average_clustering"`

	// AverageShortestPath is nil when the graph is not connected.
	AverageShortestPath *float64 `json:"average_shortest_path" yaml:"average_shortest_path"`

	NodeTypeDistribution         map[ConceptType]int      `json:"node_type_distribution" yaml:"node_type_distribution"`
	RelationshipTypeDistribution map[RelationshipType]int `json:"relationship_type_distribution" yaml:"relationship_type_distribution"`
}

// ScoredConcept pairs a concept name with a centrality score.
type ScoredConcept struct {
	Name  string  `json:"name" yaml:"name"`
	Score float64 `json:"score" yaml:"score"`
}

// GraphAnalysis is the record produced by analyzing a snapshot before
// hypothesis generation.
type GraphAnalysis struct {
	Statistics             GraphStatistics `json:"statistics" yaml:"statistics"`
	TopConceptsPageRank    []ScoredConcept `json:"top_concepts_pagerank" yaml:"top_concepts_pagerank"`
	TopConceptsBetweenness []ScoredConcept `json:"top_concepts_betweenness" yaml:"top_concepts_betweenness"`
	NumCommunities         int             `json:"num_communities" yaml:"num_communities"`
	Timestamp              time.Time       `json:"timestamp" yaml:"timestamp"`
}

// EngineMetadata records the parameters and counts of one engine run.
type EngineMetadata struct {
	RunID                  string           `json:"run_id" yaml:"run_id"`
	Timestamp              time.Time        `json:"timestamp" yaml:"timestamp"`
	SimilarityMethod       SimilarityMethod `json:"similarity_method" yaml:"similarity_method"`
	Policy                 PredictionPolicy `json:"policy" yaml:"policy"`
	CrossDomainOnly        bool             `json:"cross_domain_only" yaml:"cross_domain_only"`
	FocusOnCentralConcepts bool             `json:"focus_on_central_concepts" yaml:"focus_on_central_concepts"`
	Temperature            float64          `json:"temperature" yaml:"temperature"`
	NumPredictions         int              `json:"num_predictions" yaml:"num_predictions"`
	NumHypotheses          int              `json:"num_hypotheses" yaml:"num_hypotheses"`
}

// EngineResult is the output of one hypothesis engine run.
type EngineResult struct {
	Metadata      EngineMetadata `json:"metadata" yaml:"metadata"`
	GraphAnalysis GraphAnalysis  `json:"graph_analysis" yaml:"graph_analysis"`
	Hypotheses    []Hypothesis   `json:"hypotheses" yaml:"hypotheses"`
}
