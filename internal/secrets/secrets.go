// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Recognized keys: neo4j-password, openai-api-key, openrouter-api-key, anthropic-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/noesis/pkg/types"
)

// Secret file names.
const (
	Neo4jPassword    = "neo4j-password"
	OpenAIAPIKey     = "openai-api-key"
	OpenRouterAPIKey = "openrouter-api-key"
	AnthropicAPIKey  = "anthropic-api-key"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply fills credentials in cfg that are still empty after config files
// and environment variables have been read. The API key is chosen by the
// configured LLM provider.
func Apply(cfg *types.Config, secrets map[string]string) {
	if cfg.Neo4j.Password == "" {
		cfg.Neo4j.Password = secrets[Neo4jPassword]
	}
	if cfg.LLM.APIKey != "" {
		return
	}
	switch cfg.LLM.Provider {
	case types.ProviderOpenAI:
		cfg.LLM.APIKey = secrets[OpenAIAPIKey]
	case types.ProviderOpenRouter:
		cfg.LLM.APIKey = secrets[OpenRouterAPIKey]
	case types.ProviderAnthropic:
		cfg.LLM.APIKey = secrets[AnthropicAPIKey]
	}
}
