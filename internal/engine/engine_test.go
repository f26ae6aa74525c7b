// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/noesis/internal/graphstore"
	"github.com/pdiddy/noesis/internal/hypothesis"
	"github.com/pdiddy/noesis/internal/metrics"
	"github.com/pdiddy/noesis/pkg/types"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// scriptedBackend answers call i with scores[i % len(scores)] for all three
// score fields and records every prompt.
type scriptedBackend struct {
	scores  []float64
	prompts []string
	fail    map[int]bool
}

func (b *scriptedBackend) Generate(_ context.Context, req hypothesis.Request) (string, error) {
	i := len(b.prompts)
	b.prompts = append(b.prompts, req.Prompt)
	if b.fail[i] {
		return "", errors.New("backend unavailable")
	}
	s := 0.5
	if len(b.scores) > 0 {
		s = b.scores[i%len(b.scores)]
	}
	return fmt.Sprintf(`{"hypothesis":{"title":"H%d","rationale":"r","research_direction":"d","mechanism":"m","next_steps":["s"],"novelty_score":%g,"feasibility_score":%g,"impact_score":%g,"keywords":["k"]}}`,
		i, s, s, s), nil
}

type failingStore struct{}

func (failingStore) LoadGraph(context.Context) (*types.GraphData, error) {
	return nil, errors.New("connection refused")
}

// scenarioGraph is A→C, B→C, A→D, E→D. Under jaccard the non-edges score
// A-B 0.5, A-E 0.5, C-D 1/3 and zero elsewhere.
func scenarioGraph() types.GraphData {
	c := func(name string, t types.ConceptType) types.Concept {
		return types.Concept{Name: name, Type: t, Description: name + " description", Confidence: 1}
	}
	r := func(src, tgt string) types.Relationship {
		return types.Relationship{Source: src, Target: tgt, Type: types.RelUses, Confidence: 1}
	}
	return types.GraphData{
		Concepts: []types.Concept{
			c("A", types.ConceptMethod),
			c("B", types.ConceptMaterial),
			c("C", types.ConceptPhenomenon),
			c("D", types.ConceptTheory),
			c("E", types.ConceptMethod),
		},
		Relationships: []types.Relationship{r("A", "C"), r("B", "C"), r("A", "D"), r("E", "D")},
	}
}

func newTestEngine(store graphstore.Store, backend hypothesis.Backend, m *metrics.Metrics) *Engine {
	e := New(store, hypothesis.NewGenerator(backend, 0, m, nil), m, nil)
	e.now = func() time.Time { return fixedNow }
	return e
}

func TestAnalyzeGraph(t *testing.T) {
	m := metrics.New()
	e := newTestEngine(&graphstore.Memory{Data: scenarioGraph()}, &scriptedBackend{}, m)

	snap, analysis, err := e.AnalyzeGraph(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, 5, analysis.Statistics.NumNodes)
	assert.Equal(t, 4, analysis.Statistics.NumEdges)
	assert.Len(t, analysis.TopConceptsPageRank, 5)
	assert.Len(t, analysis.TopConceptsBetweenness, 5)
	assert.GreaterOrEqual(t, analysis.NumCommunities, 1)
	assert.Equal(t, fixedNow, analysis.Timestamp)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GraphNodes.WithLabelValues("method")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.GraphEdges.WithLabelValues("USES")))
}

func TestAnalyzeGraphStoreError(t *testing.T) {
	e := newTestEngine(failingStore{}, &scriptedBackend{}, nil)
	_, _, err := e.AnalyzeGraph(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPredictPolicies(t *testing.T) {
	e := newTestEngine(&graphstore.Memory{Data: scenarioGraph()}, &scriptedBackend{}, nil)
	snap, analysis, err := e.AnalyzeGraph(context.Background())
	require.NoError(t, err)

	tests := []struct {
		name      string
		policy    types.PredictionPolicy
		topN      int
		wantLen   int
		wantFirst float64
	}{
		{name: "top n", policy: types.PolicyTopN, topN: 50, wantLen: 3, wantFirst: 0.5},
		{name: "top n truncated", policy: types.PolicyTopN, topN: 1, wantLen: 1, wantFirst: 0.5},
		// A-E joins two methods and is excluded.
		{name: "cross domain", policy: types.PolicyCrossDomain, topN: 50, wantLen: 2, wantFirst: 0.5},
		// A, B and E contribute 0.5 pairs; C and D each contribute C-D.
		{name: "central", policy: types.PolicyCentral, topN: 50, wantLen: 6, wantFirst: 0.5},
		{name: "central truncated", policy: types.PolicyCentral, topN: 4, wantLen: 4, wantFirst: 0.5},
		{name: "empty policy is central", policy: "", topN: 50, wantLen: 6, wantFirst: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{SimilarityMethod: types.SimilarityJaccard, Policy: tt.policy, TopN: tt.topN, MinSimilarity: 0.1}
			preds, err := e.Predict(snap, analysis, opts)
			require.NoError(t, err)
			require.Len(t, preds, tt.wantLen)
			assert.InDelta(t, tt.wantFirst, preds[0].Score, 1e-9)
			for i := 1; i < len(preds); i++ {
				assert.GreaterOrEqual(t, preds[i-1].Score, preds[i].Score)
			}
		})
	}

	t.Run("unknown policy", func(t *testing.T) {
		_, err := e.Predict(snap, analysis, Options{SimilarityMethod: types.SimilarityJaccard, Policy: "random"})
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
	})
}

func TestRun(t *testing.T) {
	t.Run("ranks by combined score and fills metadata", func(t *testing.T) {
		backend := &scriptedBackend{scores: []float64{0.2, 0.9, 0.5}}
		m := metrics.New()
		e := newTestEngine(&graphstore.Memory{Data: scenarioGraph()}, backend, m)

		opts := DefaultOptions()
		result, err := e.Run(context.Background(), opts)
		require.NoError(t, err)

		meta := result.Metadata
		assert.NotEmpty(t, meta.RunID)
		assert.Equal(t, fixedNow, meta.Timestamp)
		assert.Equal(t, types.SimilarityJaccard, meta.SimilarityMethod)
		assert.Equal(t, types.PolicyCentral, meta.Policy)
		assert.True(t, meta.FocusOnCentralConcepts)
		assert.False(t, meta.CrossDomainOnly)
		assert.Equal(t, 6, meta.NumPredictions)
		assert.Equal(t, 6, meta.NumHypotheses)
		assert.Len(t, backend.prompts, 6)

		require.Len(t, result.Hypotheses, 6)
		for i, h := range result.Hypotheses {
			require.NotNil(t, h.CombinedScore)
			if i > 0 {
				assert.GreaterOrEqual(t, *result.Hypotheses[i-1].CombinedScore, *h.CombinedScore)
			}
		}
		assert.InDelta(t, 0.9, *result.Hypotheses[0].CombinedScore, 1e-9)
		assert.Equal(t, 6.0, testutil.ToFloat64(m.HypothesesGenerated))
	})

	t.Run("filters when a minimum is set", func(t *testing.T) {
		backend := &scriptedBackend{scores: []float64{0.2, 0.9}}
		e := newTestEngine(&graphstore.Memory{Data: scenarioGraph()}, backend, nil)

		opts := DefaultOptions()
		opts.MinNovelty = 0.5
		result, err := e.Run(context.Background(), opts)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Metadata.NumHypotheses)
		for _, h := range result.Hypotheses {
			assert.GreaterOrEqual(t, h.Content.NoveltyScore, 0.5)
		}
	})

	t.Run("max hypotheses caps backend calls", func(t *testing.T) {
		backend := &scriptedBackend{}
		e := newTestEngine(&graphstore.Memory{Data: scenarioGraph()}, backend, nil)

		opts := DefaultOptions()
		opts.MaxHypotheses = 2
		result, err := e.Run(context.Background(), opts)
		require.NoError(t, err)
		assert.Len(t, backend.prompts, 2)
		assert.Equal(t, 6, result.Metadata.NumPredictions)
		assert.Equal(t, 2, result.Metadata.NumHypotheses)
	})

	t.Run("backend failures shrink the result", func(t *testing.T) {
		backend := &scriptedBackend{fail: map[int]bool{0: true, 3: true}}
		e := newTestEngine(&graphstore.Memory{Data: scenarioGraph()}, backend, nil)

		result, err := e.Run(context.Background(), DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, 4, result.Metadata.NumHypotheses)
	})

	t.Run("cross domain policy metadata", func(t *testing.T) {
		e := newTestEngine(&graphstore.Memory{Data: scenarioGraph()}, &scriptedBackend{}, nil)

		opts := DefaultOptions()
		opts.Policy = types.PolicyCrossDomain
		result, err := e.Run(context.Background(), opts)
		require.NoError(t, err)
		assert.True(t, result.Metadata.CrossDomainOnly)
		assert.False(t, result.Metadata.FocusOnCentralConcepts)
		assert.Equal(t, 2, result.Metadata.NumPredictions)
	})

	t.Run("unknown method aborts", func(t *testing.T) {
		backend := &scriptedBackend{}
		e := newTestEngine(&graphstore.Memory{Data: scenarioGraph()}, backend, nil)

		opts := DefaultOptions()
		opts.SimilarityMethod = "cosine"
		_, err := e.Run(context.Background(), opts)
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
		assert.Empty(t, backend.prompts)
	})

	t.Run("store failure aborts", func(t *testing.T) {
		e := newTestEngine(failingStore{}, &scriptedBackend{}, nil)
		_, err := e.Run(context.Background(), DefaultOptions())
		assert.Error(t, err)
	})
}

func TestSaveAndPrintResults(t *testing.T) {
	e := newTestEngine(&graphstore.Memory{Data: scenarioGraph()}, &scriptedBackend{scores: []float64{0.8}}, nil)
	result, err := e.Run(context.Background(), DefaultOptions())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "results.json")
	require.NoError(t, SaveResults(path, result))

	loaded, err := LoadResults(path)
	require.NoError(t, err)
	assert.Equal(t, result.Metadata.RunID, loaded.Metadata.RunID)
	assert.Len(t, loaded.Hypotheses, len(result.Hypotheses))

	var buf bytes.Buffer
	PrintSummary(&buf, result, 2)
	out := buf.String()
	assert.Contains(t, out, "HYPOTHESIS GENERATION SUMMARY")
	assert.Contains(t, out, "Nodes: 5")
	assert.Contains(t, out, "TOP 2 HYPOTHESES")
	assert.Contains(t, out, "Combined: 0.80")
	assert.NotContains(t, out, "\n3. ")
}
