// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hypothesis

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pdiddy/noesis/pkg/types"
)

// Request is one call to a generative backend.
type Request struct {
	Prompt      string
	Temperature float64
	MaxTokens   int

	// JSONMode asks the backend to constrain output to a JSON object where
	// the provider supports it.
	JSONMode bool
}

// Backend abstracts the generative text API so tests can supply a fake.
// Implementations make exactly one attempt per call; hypothesis generation
// never retries.
type Backend interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// NewBackend builds the backend selected by cfg.Provider. OpenAI, OpenRouter,
// and Ollama share the OpenAI-compatible client; Anthropic uses the Claude
// Messages API.
func NewBackend(cfg types.LLMConfig) (Backend, error) {
	client := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Provider {
	case types.ProviderOllama, "":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = types.DefaultOllamaBaseURL
		}
		model := cfg.Model
		if model == "" {
			model = types.DefaultOllamaModel
		}
		// Ollama ignores the key but the client requires one.
		return NewOpenAIBackend("ollama", baseURL, model, client), nil

	case types.ProviderOpenAI, types.ProviderOpenRouter:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s provider: api key required", cfg.Provider)
		}
		baseURL := cfg.BaseURL
		if baseURL == "" && cfg.Provider == types.ProviderOpenRouter {
			baseURL = openRouterBaseURL
		}
		model := cfg.Model
		if model == "" {
			model = types.DefaultOpenAIModel
		}
		return NewOpenAIBackend(cfg.APIKey, baseURL, model, client), nil

	case types.ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider: api key required")
		}
		model := cfg.Model
		if model == "" {
			model = types.DefaultAnthropicModel
		}
		return &ClaudeBackend{APIKey: cfg.APIKey, Model: model, BaseURL: cfg.BaseURL, Client: client}, nil
	}
	return nil, fmt.Errorf("llm provider %q: %w", cfg.Provider, types.ErrInvalidArgument)
}
