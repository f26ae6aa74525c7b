// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine runs the hypothesis pipeline: analyze the concept graph,
// choose link predictions by policy, generate hypotheses for them, then
// filter and rank the results.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/noesis/internal/analytics"
	"github.com/pdiddy/noesis/internal/graphstore"
	"github.com/pdiddy/noesis/internal/hypothesis"
	"github.com/pdiddy/noesis/internal/linkpredict"
	"github.com/pdiddy/noesis/internal/logger"
	"github.com/pdiddy/noesis/internal/metrics"
	"github.com/pdiddy/noesis/pkg/types"
)

const (
	// analysisTopConcepts is how many concepts each centrality ranking keeps.
	analysisTopConcepts = 20

	// centralCandidatesPerConcept is how many unexplored connections the
	// central policy takes from each top concept.
	centralCandidatesPerConcept = 5
)

// Options controls one engine run.
type Options struct {
	SimilarityMethod types.SimilarityMethod
	Policy           types.PredictionPolicy
	TopN             int
	MinSimilarity    float64

	// MaxHypotheses caps generation; zero attempts every prediction.
	MaxHypotheses int
	Temperature   float64

	MinNovelty     float64
	MinFeasibility float64
	MinImpact      float64
}

// OptionsFromConfig maps the engine config section onto run options.
func OptionsFromConfig(cfg types.EngineConfig) Options {
	return Options{
		SimilarityMethod: cfg.SimilarityMethod,
		Policy:           cfg.Policy,
		TopN:             cfg.TopN,
		MinSimilarity:    cfg.MinSimilarity,
		MaxHypotheses:    cfg.MaxHypotheses,
		Temperature:      cfg.Temperature,
		MinNovelty:       cfg.MinNovelty,
		MinFeasibility:   cfg.MinFeasibility,
		MinImpact:        cfg.MinImpact,
	}
}

// DefaultOptions returns the options of types.DefaultConfig.
func DefaultOptions() Options {
	return OptionsFromConfig(types.DefaultConfig().Engine)
}

// Engine wires the graph store, analytics, link prediction and hypothesis
// generation into a single pipeline.
type Engine struct {
	store     graphstore.Store
	generator *hypothesis.Generator
	metrics   *metrics.Metrics
	log       *logger.Logger

	// now is overridden in tests.
	now func() time.Time
}

// New returns an Engine. m may be nil.
func New(store graphstore.Store, generator *hypothesis.Generator, m *metrics.Metrics, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{store: store, generator: generator, metrics: m, log: log, now: time.Now}
}

// AnalyzeGraph loads a fresh snapshot and summarizes it. The snapshot is
// returned so callers can run link prediction against the same data.
func (e *Engine) AnalyzeGraph(ctx context.Context) (*analytics.Snapshot, types.GraphAnalysis, error) {
	start := time.Now()
	defer e.metrics.ObserveStage("analyze", start)

	e.log.Info("analyzing concept graph")
	snap, err := analytics.Load(ctx, e.store, e.log)
	if err != nil {
		return nil, types.GraphAnalysis{}, fmt.Errorf("loading graph: %w", err)
	}

	stats := snap.Statistics()
	communities := snap.DetectCommunities()

	byPageRank, err := snap.TopConcepts(types.CentralityPageRank, analysisTopConcepts)
	if err != nil {
		return nil, types.GraphAnalysis{}, err
	}
	byBetweenness, err := snap.TopConcepts(types.CentralityBetweenness, analysisTopConcepts)
	if err != nil {
		return nil, types.GraphAnalysis{}, err
	}

	distinct := make(map[int]struct{}, len(communities))
	for _, c := range communities {
		distinct[c] = struct{}{}
	}

	e.recordGraph(stats)
	e.log.Info("graph analysis complete", "nodes", stats.NumNodes, "edges", stats.NumEdges, "communities", len(distinct))

	return snap, types.GraphAnalysis{
		Statistics:             stats,
		TopConceptsPageRank:    byPageRank,
		TopConceptsBetweenness: byBetweenness,
		NumCommunities:         len(distinct),
		Timestamp:              e.now(),
	}, nil
}

func (e *Engine) recordGraph(stats types.GraphStatistics) {
	if e.metrics == nil {
		return
	}
	e.metrics.GraphNodes.Reset()
	for t, n := range stats.NodeTypeDistribution {
		e.metrics.GraphNodes.WithLabelValues(string(t)).Set(float64(n))
	}
	e.metrics.GraphEdges.Reset()
	for t, n := range stats.RelationshipTypeDistribution {
		e.metrics.GraphEdges.WithLabelValues(string(t)).Set(float64(n))
	}
}

// Predict selects link predictions from snap according to opts.Policy.
func (e *Engine) Predict(snap *analytics.Snapshot, analysis types.GraphAnalysis, opts Options) ([]types.LinkPrediction, error) {
	start := time.Now()
	defer e.metrics.ObserveStage("predict", start)

	policy := opts.Policy
	if policy == "" {
		policy = types.PolicyCentral
	}

	predictor := linkpredict.New(snap, e.log)
	switch policy {
	case types.PolicyTopN:
		return predictor.TopPredictions(opts.SimilarityMethod, opts.TopN, opts.MinSimilarity, nil)

	case types.PolicyCrossDomain:
		return predictor.CrossDomainLinks(opts.SimilarityMethod, opts.TopN, opts.MinSimilarity)

	case types.PolicyCentral:
		central := make([]string, 0, len(analysis.TopConceptsPageRank))
		for _, c := range analysis.TopConceptsPageRank {
			central = append(central, c.Name)
		}
		perConcept, err := predictor.UnexploredConnections(central, opts.SimilarityMethod, centralCandidatesPerConcept, opts.MinSimilarity)
		if err != nil {
			return nil, err
		}
		var preds []types.LinkPrediction
		for _, cp := range perConcept {
			preds = append(preds, cp.Predictions...)
		}
		sort.SliceStable(preds, func(i, j int) bool { return preds[i].Score > preds[j].Score })
		if opts.TopN > 0 && len(preds) > opts.TopN {
			preds = preds[:opts.TopN]
		}
		return preds, nil
	}
	return nil, fmt.Errorf("prediction policy %q: %w", policy, types.ErrInvalidArgument)
}

// Run executes the full pipeline. A failure in analysis or prediction
// aborts the run; individual generation failures only shrink the result.
func (e *Engine) Run(ctx context.Context, opts Options) (*types.EngineResult, error) {
	if opts.Policy == "" {
		opts.Policy = types.PolicyCentral
	}
	if opts.SimilarityMethod == "" {
		opts.SimilarityMethod = types.SimilarityJaccard
	}

	e.log.Info("starting hypothesis pipeline", "method", opts.SimilarityMethod, "policy", opts.Policy, "top_n", opts.TopN)

	snap, analysis, err := e.AnalyzeGraph(ctx)
	if err != nil {
		return nil, err
	}

	preds, err := e.Predict(snap, analysis, opts)
	if err != nil {
		return nil, fmt.Errorf("predicting links: %w", err)
	}
	e.log.Info("link predictions ready", "count", len(preds))

	genStart := time.Now()
	hyps := e.generator.GenerateBatch(ctx, preds, opts.Temperature, opts.MaxHypotheses)
	e.metrics.ObserveStage("generate", genStart)

	if opts.MinNovelty > 0 || opts.MinFeasibility > 0 || opts.MinImpact > 0 {
		before := len(hyps)
		hyps = hypothesis.Filter(hyps, opts.MinNovelty, opts.MinFeasibility, opts.MinImpact)
		e.log.Info("filtered hypotheses", "kept", len(hyps), "dropped", before-len(hyps))
	}

	ranked, err := hypothesis.Rank(hyps, types.RankCombined)
	if err != nil {
		return nil, err
	}

	result := &types.EngineResult{
		Metadata: types.EngineMetadata{
			RunID:                  uuid.NewString(),
			Timestamp:              e.now(),
			SimilarityMethod:       opts.SimilarityMethod,
			Policy:                 opts.Policy,
			CrossDomainOnly:        opts.Policy == types.PolicyCrossDomain,
			FocusOnCentralConcepts: opts.Policy == types.PolicyCentral,
			Temperature:            opts.Temperature,
			NumPredictions:         len(preds),
			NumHypotheses:          len(ranked),
		},
		GraphAnalysis: analysis,
		Hypotheses:    ranked,
	}

	e.log.Info("hypothesis pipeline complete", "run_id", result.Metadata.RunID, "hypotheses", len(ranked))
	return result, nil
}
