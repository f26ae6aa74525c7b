// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hypothesis

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/noesis/internal/metrics"
	"github.com/pdiddy/noesis/pkg/types"
)

const validReply = `{"hypothesis": {
  "title": "Graphene membranes for water desalination",
  "rationale": "Both concepts share adsorption mechanisms.",
  "research_direction": "Test selective ion transport.",
  "mechanism": "Nanopore size exclusion.",
  "next_steps": ["Fabricate membranes", "Measure salt rejection"],
  "novelty_score": 0.8,
  "feasibility_score": 0.5,
  "impact_score": 0.9,
  "keywords": ["graphene", "desalination"]
}}`

// mockBackend returns canned replies in order and records each request.
type mockBackend struct {
	replies  []string
	errs     []error
	requests []Request
}

func (m *mockBackend) Generate(_ context.Context, req Request) (string, error) {
	i := len(m.requests)
	m.requests = append(m.requests, req)
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(m.replies) {
		return m.replies[i], nil
	}
	return validReply, nil
}

func samplePrediction() types.LinkPrediction {
	return types.LinkPrediction{
		Source:             "graphene",
		Target:             "desalination",
		Score:              0.123456,
		SourceType:         types.ConceptMaterial,
		TargetType:         types.ConceptApplication,
		SourceDescription:  "A two-dimensional carbon allotrope",
		CommonNeighbors:    []string{"adsorption", "nanopores"},
		NumCommonNeighbors: 2,
	}
}

func TestParseStructured(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{name: "wrapped object", text: validReply},
		{name: "json fence", text: "```json\n" + validReply + "\n```"},
		{name: "bare fence", text: "```\n" + validReply + "\n```"},
		{
			name: "unwrapped object",
			text: `{"title":"t","rationale":"r","research_direction":"d","mechanism":"m","next_steps":[],"novelty_score":0,"feasibility_score":1,"impact_score":0.5,"keywords":[]}`,
		},
		{name: "not json", text: "I think these are related.", wantErr: true},
		{name: "json array", text: `[1, 2]`, wantErr: true},
		{
			name:    "missing mechanism",
			text:    `{"hypothesis":{"title":"t","rationale":"r","research_direction":"d","next_steps":[],"novelty_score":0.1,"feasibility_score":0.1,"impact_score":0.1,"keywords":[]}}`,
			wantErr: true,
		},
		{
			name:    "score as string",
			text:    `{"title":"t","rationale":"r","research_direction":"d","mechanism":"m","next_steps":[],"novelty_score":"high","feasibility_score":0.1,"impact_score":0.1,"keywords":[]}`,
			wantErr: true,
		},
		{
			name:    "score out of range",
			text:    `{"title":"t","rationale":"r","research_direction":"d","mechanism":"m","next_steps":[],"novelty_score":1.5,"feasibility_score":0.1,"impact_score":0.1,"keywords":[]}`,
			wantErr: true,
		},
		{
			name:    "keywords not a list",
			text:    `{"title":"t","rationale":"r","research_direction":"d","mechanism":"m","next_steps":[],"novelty_score":0.1,"feasibility_score":0.1,"impact_score":0.1,"keywords":"graphene"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStructured(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, types.ErrMalformedResponse))
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, got.Title)
			assert.GreaterOrEqual(t, got.FeasibilityScore, 0.0)
		})
	}
}

func TestParseStructuredFields(t *testing.T) {
	got, err := ParseStructured(validReply)
	require.NoError(t, err)
	assert.Equal(t, "Graphene membranes for water desalination", got.Title)
	assert.Equal(t, []string{"Fabricate membranes", "Measure salt rejection"}, got.NextSteps)
	assert.Equal(t, []string{"graphene", "desalination"}, got.Keywords)
	assert.InDelta(t, 0.8, got.NoveltyScore, 1e-9)
	assert.InDelta(t, 0.5, got.FeasibilityScore, 1e-9)
	assert.InDelta(t, 0.9, got.ImpactScore, 1e-9)
}

func TestRenderPrompt(t *testing.T) {
	prompt, err := renderPrompt(samplePrediction())
	require.NoError(t, err)

	assert.Contains(t, prompt, "Concept 1: graphene (material)")
	assert.Contains(t, prompt, "Concept 2: desalination (application)")
	assert.Contains(t, prompt, "Similarity score: 0.1235")
	assert.Contains(t, prompt, "A two-dimensional carbon allotrope")
	assert.Contains(t, prompt, "No description available")
	assert.Contains(t, prompt, "(2): adsorption, nanopores")
}

func TestFormatNeighbors(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{name: "none", names: nil, want: "none"},
		{name: "exactly five", names: []string{"a", "b", "c", "d", "e"}, want: "a, b, c, d, e"},
		{name: "more than five", names: []string{"a", "b", "c", "d", "e", "f"}, want: "a, b, c, d, e, ..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatNeighbors(tt.names))
		})
	}
}

func TestGenerate(t *testing.T) {
	t.Run("success records prediction and request", func(t *testing.T) {
		backend := &mockBackend{}
		m := metrics.New()
		g := NewGenerator(backend, 0, m, nil)

		h, ok := g.Generate(context.Background(), samplePrediction(), 0.7)
		require.True(t, ok)
		assert.Equal(t, "graphene", h.Prediction.Source)
		assert.Equal(t, "Graphene membranes for water desalination", h.Content.Title)
		assert.Nil(t, h.CombinedScore)

		require.Len(t, backend.requests, 1)
		assert.Equal(t, DefaultMaxTokens, backend.requests[0].MaxTokens)
		assert.InDelta(t, 0.7, backend.requests[0].Temperature, 1e-9)
		assert.True(t, backend.requests[0].JSONMode)

		assert.Equal(t, 1.0, testutil.ToFloat64(m.HypothesesGenerated))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCalls.WithLabelValues("ok")))
	})

	t.Run("backend error yields nothing and does not retry", func(t *testing.T) {
		backend := &mockBackend{errs: []error{errors.New("connection refused")}}
		m := metrics.New()
		g := NewGenerator(backend, 0, m, nil)

		_, ok := g.Generate(context.Background(), samplePrediction(), 0.7)
		assert.False(t, ok)
		assert.Len(t, backend.requests, 1)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.HypothesesDropped.WithLabelValues("backend")))
	})

	t.Run("malformed reply yields nothing", func(t *testing.T) {
		backend := &mockBackend{replies: []string{"not json at all"}}
		m := metrics.New()
		g := NewGenerator(backend, 0, m, nil)

		_, ok := g.Generate(context.Background(), samplePrediction(), 0.7)
		assert.False(t, ok)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.HypothesesDropped.WithLabelValues("malformed")))
	})
}

func TestGenerateBatch(t *testing.T) {
	preds := []types.LinkPrediction{samplePrediction(), samplePrediction(), samplePrediction(), samplePrediction()}

	t.Run("skips failures", func(t *testing.T) {
		backend := &mockBackend{replies: []string{validReply, "garbage", validReply, validReply}}
		g := NewGenerator(backend, 0, nil, nil)

		got := g.GenerateBatch(context.Background(), preds, 0.7, 0)
		assert.Len(t, got, 3)
		assert.Len(t, backend.requests, 4)
	})

	t.Run("truncates to max hypotheses", func(t *testing.T) {
		backend := &mockBackend{}
		g := NewGenerator(backend, 0, nil, nil)

		got := g.GenerateBatch(context.Background(), preds, 0.7, 2)
		assert.Len(t, got, 2)
		assert.Len(t, backend.requests, 2)
	})

	t.Run("cancelled context stops early", func(t *testing.T) {
		backend := &mockBackend{}
		g := NewGenerator(backend, 0, nil, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		got := g.GenerateBatch(ctx, preds, 0.7, 0)
		assert.Empty(t, got)
		assert.Empty(t, backend.requests)
	})
}

func hyp(title string, n, f, i float64) types.Hypothesis {
	return types.Hypothesis{Content: types.HypothesisContent{
		Title: title, NoveltyScore: n, FeasibilityScore: f, ImpactScore: i,
	}}
}

func TestRank(t *testing.T) {
	in := []types.Hypothesis{
		hyp("A", 0.9, 0.1, 0.5),
		hyp("B", 0.5, 0.9, 0.4),
		hyp("C", 0.6, 0.5, 0.9),
	}

	tests := []struct {
		criterion types.RankCriterion
		want      []string
	}{
		// combined: A=0.58, B=0.54, C=0.70
		{types.RankCombined, []string{"C", "A", "B"}},
		{types.RankNovelty, []string{"A", "C", "B"}},
		{types.RankFeasibility, []string{"B", "C", "A"}},
		{types.RankImpact, []string{"C", "A", "B"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.criterion), func(t *testing.T) {
			got, err := Rank(in, tt.criterion)
			require.NoError(t, err)
			titles := make([]string, len(got))
			for i, h := range got {
				titles[i] = h.Content.Title
			}
			assert.Equal(t, tt.want, titles)
		})
	}

	t.Run("combined score is stored on copies only", func(t *testing.T) {
		got, err := Rank(in, types.RankCombined)
		require.NoError(t, err)
		require.NotNil(t, got[0].CombinedScore)
		assert.InDelta(t, 0.70, *got[0].CombinedScore, 1e-9)
		for _, h := range in {
			assert.Nil(t, h.CombinedScore)
		}
	})

	t.Run("re-ranking ranked output is stable with ties", func(t *testing.T) {
		tied := []types.Hypothesis{
			hyp("T1", 0.5, 0.5, 0.5),
			hyp("X", 0.9, 0.9, 0.9),
			hyp("T2", 0.5, 0.5, 0.5),
			hyp("T3", 0.5, 0.5, 0.5),
		}
		first, err := Rank(tied, types.RankCombined)
		require.NoError(t, err)
		second, err := Rank(first, types.RankCombined)
		require.NoError(t, err)

		require.Len(t, second, len(first))
		var titles []string
		for i := range first {
			titles = append(titles, second[i].Content.Title)
			assert.Equal(t, first[i].Content.Title, second[i].Content.Title)
			require.NotNil(t, second[i].CombinedScore)
			assert.Equal(t, *first[i].CombinedScore, *second[i].CombinedScore)
		}
		assert.Equal(t, []string{"X", "T1", "T2", "T3"}, titles)
	})

	t.Run("unknown criterion", func(t *testing.T) {
		_, err := Rank(in, "popularity")
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
	})
}

func TestFilter(t *testing.T) {
	in := []types.Hypothesis{
		hyp("A", 0.9, 0.1, 0.5),
		hyp("B", 0.5, 0.5, 0.5),
		hyp("C", 0.6, 0.5, 0.9),
	}

	got := Filter(in, 0.5, 0.5, 0.5)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Content.Title)
	assert.Equal(t, "C", got[1].Content.Title)

	assert.Len(t, Filter(in, 0, 0, 0), 3)
	assert.Empty(t, Filter(in, 1, 1, 1))

	thresholds := [][3]float64{{0.5, 0.5, 0.5}, {0, 0, 0}, {0.6, 0, 0.9}, {1, 1, 1}}
	for _, th := range thresholds {
		once := Filter(in, th[0], th[1], th[2])
		twice := Filter(once, th[0], th[1], th[2])
		assert.Equal(t, once, twice, "filter is idempotent for %v", th)
	}
}

func TestClaudeBackend(t *testing.T) {
	var got claudeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"ok\":"},{"type":"text","text":"true}"}]}`))
	}))
	defer srv.Close()

	b := &ClaudeBackend{APIKey: "test-key", Model: "claude-test", BaseURL: srv.URL}
	text, err := b.Generate(context.Background(), Request{Prompt: "hello", Temperature: 0.3, MaxTokens: 100, JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, text)
	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, 100, got.MaxTokens)
	assert.Equal(t, jsonSystemPrompt, got.System)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hello", got.Messages[0].Content)
}

func TestClaudeBackendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	b := &ClaudeBackend{APIKey: "k", Model: "m", BaseURL: srv.URL}
	_, err := b.Generate(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestOpenAIBackend(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"title\":\"x\"}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	b := NewOpenAIBackend("key", srv.URL, "llama3.1:8b", srv.Client())
	text, err := b.Generate(context.Background(), Request{Prompt: "hi", Temperature: 0.7, MaxTokens: 1500, JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"x"}`, text)
	assert.Equal(t, "llama3.1:8b", body["model"])
	assert.EqualValues(t, 1500, body["max_tokens"])
	format, ok := body["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
}

func TestOpenAIBackendZeroTemperature(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	b := NewOpenAIBackend("key", srv.URL, "m", srv.Client())
	_, err := b.Generate(context.Background(), Request{Prompt: "hi", Temperature: 0})
	require.NoError(t, err)

	temp, ok := body["temperature"]
	require.True(t, ok, "zero temperature must still be sent")
	assert.InDelta(t, 0, temp, 1e-9)
}

func TestWireTemperature(t *testing.T) {
	assert.Equal(t, float32(math.SmallestNonzeroFloat32), wireTemperature(0))
	assert.Equal(t, float32(0.7), wireTemperature(0.7))
}

func TestNewBackend(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.LLMConfig
		want    any
		wantErr bool
	}{
		{name: "ollama default", cfg: types.LLMConfig{Provider: types.ProviderOllama}, want: &OpenAIBackend{}},
		{name: "openai", cfg: types.LLMConfig{Provider: types.ProviderOpenAI, APIKey: "k"}, want: &OpenAIBackend{}},
		{name: "openrouter", cfg: types.LLMConfig{Provider: types.ProviderOpenRouter, APIKey: "k"}, want: &OpenAIBackend{}},
		{name: "anthropic", cfg: types.LLMConfig{Provider: types.ProviderAnthropic, APIKey: "k"}, want: &ClaudeBackend{}},
		{name: "openai without key", cfg: types.LLMConfig{Provider: types.ProviderOpenAI}, wantErr: true},
		{name: "anthropic without key", cfg: types.LLMConfig{Provider: types.ProviderAnthropic}, wantErr: true},
		{name: "unknown provider", cfg: types.LLMConfig{Provider: "bard"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewBackend(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}
}
