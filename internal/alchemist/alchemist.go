// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package alchemist explores hypotheses in layers. Layer 0 comes from one
// engine run; every deeper layer is cut from a branch of its parent and
// expanded into synthetic concepts and relationships that stay in memory.
package alchemist

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/noesis/internal/engine"
	"github.com/pdiddy/noesis/internal/logger"
	"github.com/pdiddy/noesis/internal/metrics"
	"github.com/pdiddy/noesis/pkg/types"
)

const (
	rootBranchName = "root"

	// baseLayerStride separates the layer ids of consecutive depths.
	baseLayerStride = 100
)

// Runner produces the hypotheses of layer 0. *engine.Engine satisfies it.
type Runner interface {
	Run(ctx context.Context, opts engine.Options) (*types.EngineResult, error)
}

// ChildStrategy fills a child layer from one branch of its parent.
//
// ResliceStrategy is the only implementation: children reuse the parent's
// hypotheses and no generative calls happen below layer 0. A regenerating
// strategy would instead run the engine against the snapshot augmented with
// the parent's expanded concepts and relationships.
type ChildStrategy interface {
	ChildHypotheses(ctx context.Context, parent *types.HypothesisLayer, branch types.Branch, limit int) ([]types.Hypothesis, error)
}

// ResliceStrategy copies the branch's hypotheses, truncated to limit.
type ResliceStrategy struct{}

// ChildHypotheses implements ChildStrategy.
func (ResliceStrategy) ChildHypotheses(_ context.Context, _ *types.HypothesisLayer, branch types.Branch, limit int) ([]types.Hypothesis, error) {
	hyps := branch.Hypotheses
	if limit > 0 && len(hyps) > limit {
		hyps = hyps[:limit]
	}
	return append([]types.Hypothesis(nil), hyps...), nil
}

// Options controls an exploration.
type Options struct {
	MaxDepth           int
	HypothesesPerLayer int
	BranchesPerLayer   int
	BranchCriterion    types.BranchCriterion

	// Layer0TopN is the prediction count requested for layer 0.
	Layer0TopN int

	// Engine carries the remaining engine settings for layer 0. TopN and
	// MaxHypotheses are replaced by Layer0TopN and HypothesesPerLayer.
	Engine engine.Options
}

// OptionsFromConfig builds exploration options from the config sections.
func OptionsFromConfig(cfg types.Config) Options {
	return Options{
		MaxDepth:           cfg.Exploration.MaxDepth,
		HypothesesPerLayer: cfg.Exploration.HypothesesPerLayer,
		BranchesPerLayer:   cfg.Exploration.BranchesPerLayer,
		BranchCriterion:    cfg.Exploration.BranchCriterion,
		Layer0TopN:         cfg.Exploration.Layer0TopN,
		Engine:             engine.OptionsFromConfig(cfg.Engine),
	}
}

// Alchemist owns the layers of one exploration.
type Alchemist struct {
	runner   Runner
	strategy ChildStrategy
	metrics  *metrics.Metrics
	log      *logger.Logger
	now      func() time.Time

	runID  string
	layers []*types.HypothesisLayer
}

// New returns an Alchemist using ResliceStrategy. m may be nil.
func New(runner Runner, m *metrics.Metrics, log *logger.Logger) *Alchemist {
	if log == nil {
		log = logger.Nop()
	}
	return &Alchemist{
		runner:   runner,
		strategy: ResliceStrategy{},
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// Layers returns the layers built so far in creation order.
func (a *Alchemist) Layers() []*types.HypothesisLayer { return a.layers }

// RunID identifies the exploration. It is the run id of the engine run that
// produced layer 0.
func (a *Alchemist) RunID() string { return a.runID }

// GenerateLayer0 runs the engine once and records its hypotheses as the
// root layer, replacing any previous layers.
func (a *Alchemist) GenerateLayer0(ctx context.Context, opts Options) (*types.HypothesisLayer, error) {
	engOpts := opts.Engine
	engOpts.TopN = opts.Layer0TopN
	engOpts.MaxHypotheses = opts.HypothesesPerLayer

	a.log.Info("generating layer 0", "method", engOpts.SimilarityMethod, "top_n", engOpts.TopN, "max_hypotheses", engOpts.MaxHypotheses)
	result, err := a.runner.Run(ctx, engOpts)
	if err != nil {
		return nil, fmt.Errorf("generating layer 0: %w", err)
	}

	a.runID = result.Metadata.RunID
	if a.runID == "" {
		a.runID = uuid.NewString()
	}

	root := &types.HypothesisLayer{
		LayerID:    0,
		Depth:      0,
		BranchName: rootBranchName,
		Hypotheses: result.Hypotheses,
		Timestamp:  a.now(),
		Metadata: map[string]any{
			"graph_analysis": result.GraphAnalysis,
			"generation_params": map[string]any{
				"similarity_method": engOpts.SimilarityMethod,
				"top_n":             engOpts.TopN,
				"max_hypotheses":    engOpts.MaxHypotheses,
			},
		},
	}
	a.layers = []*types.HypothesisLayer{root}
	a.countLayer(0)

	a.log.Info("layer 0 generated", "hypotheses", len(root.Hypotheses))
	return root, nil
}

// Explore builds the exploration tree. Layer 0 is generated if absent, then
// for each depth 1..MaxDepth every layer of the previous depth is branched
// and each non-empty branch seeds one child layer. Exploration stops after
// MaxDepth rounds or when a depth produces no layers.
func (a *Alchemist) Explore(ctx context.Context, opts Options) ([]*types.HypothesisLayer, error) {
	criterion := opts.BranchCriterion
	if criterion == "" {
		criterion = types.BranchDiversity
	}
	if _, err := types.ParseBranchCriterion(string(criterion)); err != nil {
		return nil, err
	}
	if opts.BranchesPerLayer < 1 {
		return nil, fmt.Errorf("branches per layer %d: %w", opts.BranchesPerLayer, types.ErrInvalidArgument)
	}
	if opts.MaxDepth < 0 {
		return nil, fmt.Errorf("max depth %d: %w", opts.MaxDepth, types.ErrInvalidArgument)
	}

	start := time.Now()
	defer a.metrics.ObserveStage("explore", start)

	if len(a.layers) == 0 {
		if _, err := a.GenerateLayer0(ctx, opts); err != nil {
			return nil, err
		}
	}
	root := a.layers[0]
	a.layers = a.layers[:1]
	if len(root.ExpandedConcepts) == 0 {
		ExpandLayer(root)
	}

	a.log.Info("starting exploration", "max_depth", opts.MaxDepth, "branches", opts.BranchesPerLayer, "criterion", criterion)

	stride := layerStride(opts.BranchesPerLayer, opts.MaxDepth)
	frontier := []*types.HypothesisLayer{root}
	for depth := 1; depth <= opts.MaxDepth && len(frontier) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var next []*types.HypothesisLayer
		for _, parent := range frontier {
			branches, err := CreateBranches(parent, opts.BranchesPerLayer, criterion)
			if err != nil {
				return nil, err
			}
			for bi, branch := range branches {
				if len(branch.Hypotheses) == 0 {
					a.log.Debug("skipping empty branch", "parent", parent.LayerID, "branch", branch.Name)
					continue
				}
				hyps, err := a.strategy.ChildHypotheses(ctx, parent, branch, opts.HypothesesPerLayer)
				if err != nil {
					return nil, fmt.Errorf("filling branch %s: %w", branch.Name, err)
				}

				parentID := parent.LayerID
				layer := &types.HypothesisLayer{
					LayerID:       depth*stride + len(next),
					ParentLayerID: &parentID,
					Depth:         depth,
					BranchName:    branch.Name,
					Hypotheses:    hyps,
					Timestamp:     a.now(),
					Metadata: map[string]any{
						"depth":              depth,
						"branch_index":       bi,
						"branching_criteria": criterion,
					},
					Parent: parent,
				}
				ExpandLayer(layer)
				next = append(next, layer)
				a.countLayer(depth)

				a.log.Debug("layer created", "layer", layer.LayerID, "parent", parentID, "branch", branch.Name, "hypotheses", len(hyps))
			}
		}
		a.layers = append(a.layers, next...)
		a.log.Info("depth explored", "depth", depth, "layers", len(next))
		frontier = next
	}

	a.log.Info("exploration complete", "layers", len(a.layers))
	return a.layers, nil
}

func (a *Alchemist) countLayer(depth int) {
	if a.metrics != nil {
		a.metrics.LayersCreated.WithLabelValues(strconv.Itoa(depth)).Inc()
	}
}

// layerStride returns the smallest power of ten, at least baseLayerStride,
// that exceeds the most layers a single depth can hold.
func layerStride(branches, maxDepth int) int {
	const limit = 1 << 40
	most := 1
	for d := 0; d < maxDepth && most < limit; d++ {
		most *= branches
	}
	stride := baseLayerStride
	for most > stride {
		stride *= 10
	}
	return stride
}
