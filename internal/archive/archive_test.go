// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/noesis/pkg/types"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(types.ArchiveConfig{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func testHyp(title, src, tgt string, n, f, i float64, keywords ...string) types.Hypothesis {
	h := types.Hypothesis{
		Content: types.HypothesisContent{
			Title:             title,
			Rationale:         title + " is plausible",
			ResearchDirection: "study " + title,
			Mechanism:         "unknown mechanism",
			NextSteps:         []string{"step"},
			NoveltyScore:      n,
			FeasibilityScore:  f,
			ImpactScore:       i,
			Keywords:          keywords,
		},
		Prediction: types.LinkPrediction{
			Source: src, Target: tgt, Score: 0.4,
			SourceType: types.ConceptMaterial, TargetType: types.ConceptApplication,
		},
	}
	combined := h.Content.Combined()
	h.CombinedScore = &combined
	return h
}

func engineResult(id string, at time.Time) *types.EngineResult {
	return &types.EngineResult{
		Metadata: types.EngineMetadata{
			RunID:            id,
			Timestamp:        at,
			SimilarityMethod: types.SimilarityJaccard,
			Policy:           types.PolicyCentral,
			NumPredictions:   10,
			NumHypotheses:    2,
		},
		GraphAnalysis: types.GraphAnalysis{
			Statistics: types.GraphStatistics{NumNodes: 5, NumEdges: 4},
		},
		Hypotheses: []types.Hypothesis{
			testHyp("Graphene desalination", "graphene", "desalination", 0.9, 0.6, 0.8, "membrane"),
			testHyp("Perovskite catalysis", "perovskite", "catalysis", 0.3, 0.4, 0.2, "solar"),
		},
	}
}

func explorationTree(id string, at time.Time) *types.ExplorationTree {
	root := &types.HypothesisLayer{
		LayerID:    0,
		BranchName: "root",
		Hypotheses: []types.Hypothesis{testHyp("Quantum sensing of proteins", "nv centers", "proteins", 0.7, 0.5, 0.9)},
	}
	parent := 0
	child := &types.HypothesisLayer{
		LayerID:       100,
		ParentLayerID: &parent,
		Depth:         1,
		BranchName:    "Branch-impact-1",
		Hypotheses:    root.Hypotheses,
		Parent:        root,
	}
	return &types.ExplorationTree{
		Metadata: types.ExplorationTreeMetadata{RunID: id, Timestamp: at, NumLayers: 2, MaxDepth: 1},
		Layers:   []*types.HypothesisLayer{root, child},
	}
}

func TestOpenCreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	a, err := Open(types.ArchiveConfig{Dir: dir}, nil)
	require.NoError(t, err)
	defer a.Close()

	_, err = os.Stat(filepath.Join(dir, "noesis.db"))
	assert.NoError(t, err)

	// Reopening an existing archive keeps the schema.
	b, err := Open(types.ArchiveConfig{Dir: dir}, nil)
	require.NoError(t, err)
	b.Close()
}

func TestSaveAndListRuns(t *testing.T) {
	ctx := context.Background()
	a := openTestArchive(t)
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, a.SaveEngineResult(ctx, engineResult("run-a", t0)))
	require.NoError(t, a.SaveExploration(ctx, explorationTree("run-b", t0.Add(time.Hour))))

	runs, err := a.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-b", runs[0].ID)
	assert.Equal(t, KindExploration, runs[0].Kind)
	assert.Equal(t, 2, runs[0].NumLayers)
	assert.Equal(t, 2, runs[0].NumHypotheses)

	assert.Equal(t, "run-a", runs[1].ID)
	assert.Equal(t, KindEngine, runs[1].Kind)
	assert.Equal(t, "jaccard", runs[1].SimilarityMethod)
	assert.Equal(t, "central", runs[1].Policy)
	assert.Equal(t, 10, runs[1].NumPredictions)
	assert.True(t, t0.Equal(runs[1].CreatedAt))

	limited, err := a.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSaveReplacesRun(t *testing.T) {
	ctx := context.Background()
	a := openTestArchive(t)
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, a.SaveEngineResult(ctx, engineResult("run-a", t0)))
	require.NoError(t, a.SaveEngineResult(ctx, engineResult("run-a", t0)))

	runs, err := a.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	hits, err := a.SearchHypotheses(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestSaveRequiresRunID(t *testing.T) {
	ctx := context.Background()
	a := openTestArchive(t)

	err := a.SaveEngineResult(ctx, engineResult("", time.Now()))
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	err = a.SaveExploration(ctx, explorationTree("", time.Now()))
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestSearchHypotheses(t *testing.T) {
	ctx := context.Background()
	a := openTestArchive(t)
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, a.SaveEngineResult(ctx, engineResult("run-a", t0)))
	require.NoError(t, a.SaveExploration(ctx, explorationTree("run-b", t0)))

	tests := []struct {
		name       string
		text       string
		wantTitles []string
	}{
		{name: "title case-insensitive", text: "GRAPHENE", wantTitles: []string{"Graphene desalination"}},
		{name: "keyword", text: "solar", wantTitles: []string{"Perovskite catalysis"}},
		{name: "endpoint", text: "nv centers", wantTitles: []string{"Quantum sensing of proteins", "Quantum sensing of proteins"}},
		{name: "like wildcards are literal", text: "%", wantTitles: nil},
		{name: "no match", text: "fusion", wantTitles: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := a.SearchHypotheses(ctx, tt.text, 0)
			require.NoError(t, err)
			var got []string
			for _, h := range hits {
				got = append(got, h.Title)
			}
			assert.Equal(t, tt.wantTitles, got)
		})
	}

	t.Run("ordered by combined score with layer ids", func(t *testing.T) {
		hits, err := a.SearchHypotheses(ctx, "", 10)
		require.NoError(t, err)
		require.Len(t, hits, 4)
		for i := 1; i < len(hits); i++ {
			assert.GreaterOrEqual(t, hits[i-1].Combined, hits[i].Combined)
		}
		assert.Equal(t, "Graphene desalination", hits[0].Title)
		assert.Nil(t, hits[0].LayerID)
		assert.Equal(t, []string{"membrane"}, hits[0].Keywords)

		var layered int
		for _, h := range hits {
			if h.RunID == "run-b" {
				require.NotNil(t, h.LayerID)
				layered++
			}
		}
		assert.Equal(t, 2, layered)
	})
}

func TestSearchReportsCorruptKeywords(t *testing.T) {
	ctx := context.Background()
	a := openTestArchive(t)
	require.NoError(t, a.SaveEngineResult(ctx, engineResult("run-a", time.Now())))

	_, err := a.db.ExecContext(ctx, `UPDATE hypotheses SET keywords = '{not json' WHERE title = 'Graphene desalination'`)
	require.NoError(t, err)

	_, err = a.SearchHypotheses(ctx, "graphene", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding keywords")
}

func TestExportYAML(t *testing.T) {
	ctx := context.Background()
	a := openTestArchive(t)
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, a.SaveEngineResult(ctx, engineResult("run-a", t0)))
	require.NoError(t, a.SaveExploration(ctx, explorationTree("run-b", t0)))

	t.Run("engine run", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "exports", "run-a.yaml")
		require.NoError(t, a.ExportYAML(ctx, "run-a", path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, yaml.Unmarshal(data, &doc))
		assert.Contains(t, doc, "metadata")
		assert.Contains(t, doc, "graph_analysis")
		hyps, ok := doc["hypotheses"].([]any)
		require.True(t, ok)
		assert.Len(t, hyps, 2)
	})

	t.Run("exploration run", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run-b.yaml")
		require.NoError(t, a.ExportYAML(ctx, "run-b", path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var tree types.ExplorationTree
		require.NoError(t, yaml.Unmarshal(data, &tree))
		require.Len(t, tree.Layers, 2)
		require.NotNil(t, tree.Layers[1].ParentLayerID)
		assert.Equal(t, 0, *tree.Layers[1].ParentLayerID)
		assert.Equal(t, "Branch-impact-1", tree.Layers[1].BranchName)
	})

	t.Run("unknown run", func(t *testing.T) {
		err := a.ExportYAML(ctx, "missing", filepath.Join(t.TempDir(), "x.yaml"))
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}
