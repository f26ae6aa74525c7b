// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package hypothesis turns link predictions into research hypotheses using a
// generative backend, then ranks and filters them.
package hypothesis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pdiddy/noesis/internal/logger"
	"github.com/pdiddy/noesis/internal/metrics"
	"github.com/pdiddy/noesis/pkg/types"
)

// DefaultMaxTokens caps a hypothesis response when the config leaves it unset.
const DefaultMaxTokens = 1500

// Generator writes one hypothesis per link prediction.
type Generator struct {
	backend   Backend
	maxTokens int
	metrics   *metrics.Metrics
	log       *logger.Logger
}

// NewGenerator returns a Generator. m may be nil.
func NewGenerator(backend Backend, maxTokens int, m *metrics.Metrics, log *logger.Logger) *Generator {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{backend: backend, maxTokens: maxTokens, metrics: m, log: log}
}

// Generate asks the backend for a hypothesis about pred. Backend errors and
// malformed replies are logged and reported as ok=false; there is no retry.
func (g *Generator) Generate(ctx context.Context, pred types.LinkPrediction, temperature float64) (types.Hypothesis, bool) {
	prompt, err := renderPrompt(pred)
	if err != nil {
		g.log.Error("rendering hypothesis prompt", "source", pred.Source, "target", pred.Target, "error", err)
		g.drop("prompt")
		return types.Hypothesis{}, false
	}

	start := time.Now()
	text, err := g.backend.Generate(ctx, Request{
		Prompt:      prompt,
		Temperature: temperature,
		MaxTokens:   g.maxTokens,
		JSONMode:    true,
	})
	if g.metrics != nil {
		g.metrics.BackendLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		g.log.Warn("hypothesis generation failed", "source", pred.Source, "target", pred.Target, "error", err)
		g.countCall("error")
		g.drop("backend")
		return types.Hypothesis{}, false
	}
	g.countCall("ok")

	content, err := ParseStructured(text)
	if err != nil {
		g.log.Warn("discarding malformed hypothesis", "source", pred.Source, "target", pred.Target, "error", err)
		g.drop("malformed")
		return types.Hypothesis{}, false
	}

	if g.metrics != nil {
		g.metrics.HypothesesGenerated.Inc()
	}
	return types.Hypothesis{Content: content, Prediction: pred}, true
}

// GenerateBatch generates hypotheses sequentially, skipping failures. When
// maxHypotheses > 0 only the first maxHypotheses predictions are attempted.
// A cancelled context stops the batch and returns what was produced so far.
func (g *Generator) GenerateBatch(ctx context.Context, preds []types.LinkPrediction, temperature float64, maxHypotheses int) []types.Hypothesis {
	if maxHypotheses > 0 && len(preds) > maxHypotheses {
		preds = preds[:maxHypotheses]
	}

	out := make([]types.Hypothesis, 0, len(preds))
	for i, pred := range preds {
		if ctx.Err() != nil {
			g.log.Warn("hypothesis batch cancelled", "completed", i, "total", len(preds))
			break
		}
		g.log.Debug("generating hypothesis", "index", i+1, "total", len(preds), "source", pred.Source, "target", pred.Target)
		if h, ok := g.Generate(ctx, pred, temperature); ok {
			out = append(out, h)
		}
	}
	g.log.Info("hypothesis batch complete", "generated", len(out), "attempted", len(preds))
	return out
}

func (g *Generator) countCall(status string) {
	if g.metrics != nil {
		g.metrics.BackendCalls.WithLabelValues(status).Inc()
	}
}

func (g *Generator) drop(reason string) {
	if g.metrics != nil {
		g.metrics.HypothesesDropped.WithLabelValues(reason).Inc()
	}
}

// Rank returns a sorted copy of hyps, highest first. Ties keep input order.
// Ranking by combined stores the combined score on every copy.
func Rank(hyps []types.Hypothesis, criterion types.RankCriterion) ([]types.Hypothesis, error) {
	var key func(types.Hypothesis) float64
	switch criterion {
	case types.RankCombined:
		key = func(h types.Hypothesis) float64 { return *h.CombinedScore }
	case types.RankNovelty:
		key = func(h types.Hypothesis) float64 { return h.Content.NoveltyScore }
	case types.RankFeasibility:
		key = func(h types.Hypothesis) float64 { return h.Content.FeasibilityScore }
	case types.RankImpact:
		key = func(h types.Hypothesis) float64 { return h.Content.ImpactScore }
	default:
		return nil, fmt.Errorf("rank criterion %q: %w", criterion, types.ErrInvalidArgument)
	}

	out := make([]types.Hypothesis, len(hyps))
	copy(out, hyps)
	if criterion == types.RankCombined {
		for i := range out {
			score := out[i].Content.Combined()
			out[i].CombinedScore = &score
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return key(out[i]) > key(out[j]) })
	return out, nil
}

// Filter keeps hypotheses meeting every threshold (inclusive).
func Filter(hyps []types.Hypothesis, minNovelty, minFeasibility, minImpact float64) []types.Hypothesis {
	out := make([]types.Hypothesis, 0, len(hyps))
	for _, h := range hyps {
		c := h.Content
		if c.NoveltyScore >= minNovelty && c.FeasibilityScore >= minFeasibility && c.ImpactScore >= minImpact {
			out = append(out, h)
		}
	}
	return out
}
