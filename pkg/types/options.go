// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// CentralityMetric selects a node importance measure.
type CentralityMetric string

const (
	CentralityPageRank    CentralityMetric = "pagerank"
	CentralityBetweenness CentralityMetric = "betweenness"
	CentralityDegree      CentralityMetric = "degree"
	CentralityEigenvector CentralityMetric = "eigenvector"
)

// ParseCentralityMetric validates s as a CentralityMetric.
func ParseCentralityMetric(s string) (CentralityMetric, error) {
	m := CentralityMetric(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case CentralityPageRank, CentralityBetweenness, CentralityDegree, CentralityEigenvector:
		return m, nil
	}
	return "", fmt.Errorf("unknown centrality metric %q (want pagerank, betweenness, degree, or eigenvector): %w", s, ErrInvalidArgument)
}

// SimilarityMethod selects a link prediction scoring function.
type SimilarityMethod string

const (
	SimilarityJaccard                SimilarityMethod = "jaccard"
	SimilarityAdamicAdar             SimilarityMethod = "adamic_adar"
	SimilarityResourceAllocation     SimilarityMethod = "resource_allocation"
	SimilarityCommonNeighbors        SimilarityMethod = "common_neighbors"
	SimilarityPreferentialAttachment SimilarityMethod = "preferential_attachment"
)

// SimilarityMethods lists every supported method in documentation order.
var SimilarityMethods = []SimilarityMethod{
	SimilarityJaccard,
	SimilarityAdamicAdar,
	SimilarityResourceAllocation,
	SimilarityCommonNeighbors,
	SimilarityPreferentialAttachment,
}

// ParseSimilarityMethod validates s as a SimilarityMethod.
func ParseSimilarityMethod(s string) (SimilarityMethod, error) {
	m := SimilarityMethod(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SimilarityMethods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown similarity method %q: %w", s, ErrInvalidArgument)
}

// RankCriterion selects how hypotheses are ordered.
type RankCriterion string

const (
	RankCombined    RankCriterion = "combined"
	RankNovelty     RankCriterion = "novelty"
	RankFeasibility RankCriterion = "feasibility"
	RankImpact      RankCriterion = "impact"
)

// ParseRankCriterion validates s as a RankCriterion.
func ParseRankCriterion(s string) (RankCriterion, error) {
	c := RankCriterion(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case RankCombined, RankNovelty, RankFeasibility, RankImpact:
		return c, nil
	}
	return "", fmt.Errorf("unknown rank criterion %q (want combined, novelty, feasibility, or impact): %w", s, ErrInvalidArgument)
}

// BranchCriterion selects how a layer is partitioned into branches.
type BranchCriterion string

const (
	BranchDiversity   BranchCriterion = "diversity"
	BranchImpact      BranchCriterion = "impact"
	BranchNovelty     BranchCriterion = "novelty"
	BranchFeasibility BranchCriterion = "feasibility"
)

// ParseBranchCriterion validates s as a BranchCriterion.
func ParseBranchCriterion(s string) (BranchCriterion, error) {
	c := BranchCriterion(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case BranchDiversity, BranchImpact, BranchNovelty, BranchFeasibility:
		return c, nil
	}
	return "", fmt.Errorf("unknown branching criterion %q (want diversity, impact, novelty, or feasibility): %w", s, ErrInvalidArgument)
}

// PredictionPolicy selects how the engine chooses link predictions.
type PredictionPolicy string

const (
	PolicyTopN        PredictionPolicy = "top_n"
	PolicyCrossDomain PredictionPolicy = "cross_domain"
	PolicyCentral     PredictionPolicy = "central"
)

// ParsePredictionPolicy validates s as a PredictionPolicy. An empty string
// selects the central-concept policy.
func ParsePredictionPolicy(s string) (PredictionPolicy, error) {
	p := PredictionPolicy(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case "":
		return PolicyCentral, nil
	case PolicyTopN, PolicyCrossDomain, PolicyCentral:
		return p, nil
	}
	return "", fmt.Errorf("unknown prediction policy %q (want top_n, cross_domain, or central): %w", s, ErrInvalidArgument)
}
