// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Neo4jConfig holds connection settings for the concept graph store.
type Neo4jConfig struct {
	// URI is the Bolt endpoint (e.g. "bolt://localhost:7687").
	URI string `json:"uri" yaml:"uri" mapstructure:"uri"`

	User     string `json:"user" yaml:"user" mapstructure:"user"`
	Password string `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`

	// Database selects the Neo4j database; empty uses the server default.
	Database string `json:"database" yaml:"database" mapstructure:"database"`

	// Timeout bounds connection setup and connectivity verification.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	MaxPoolSize int `json:"max_pool_size" yaml:"max_pool_size" mapstructure:"max_pool_size"`
}

// GraphFileConfig points at an offline graph snapshot (.json or .yaml).
// When Path is set it replaces the Neo4j store.
type GraphFileConfig struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LLMProvider identifies a generative backend.
type LLMProvider string

const (
	ProviderOllama     LLMProvider = "ollama"
	ProviderOpenAI     LLMProvider = "openai"
	ProviderOpenRouter LLMProvider = "openrouter"
	ProviderAnthropic  LLMProvider = "anthropic"
)

// LLMConfig holds settings for the generative backend used to write hypotheses.
type LLMConfig struct {
	// Provider selects ollama, openai, openrouter, or anthropic.
	Provider LLMProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier passed to the provider.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// BaseURL overrides the provider endpoint (Ollama defaults to
	// http://localhost:11434/v1).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxTokens caps each hypothesis response (default 1500).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// Timeout is the HTTP client timeout for a single call. Zero means none.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// EngineConfig holds the defaults for a hypothesis engine run.
type EngineConfig struct {
	SimilarityMethod SimilarityMethod `json:"similarity_method" yaml:"similarity_method" mapstructure:"similarity_method"`
	Policy           PredictionPolicy `json:"policy" yaml:"policy" mapstructure:"policy"`

	// TopN is the number of link predictions fed to the generator (default 50).
	TopN int `json:"top_n" yaml:"top_n" mapstructure:"top_n"`

	// MinSimilarity drops predictions scoring below it (default 0.1).
	MinSimilarity float64 `json:"min_similarity" yaml:"min_similarity" mapstructure:"min_similarity"`

	// MaxHypotheses caps generator calls; zero means one per prediction.
	MaxHypotheses int `json:"max_hypotheses" yaml:"max_hypotheses" mapstructure:"max_hypotheses"`

	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	MinNovelty     float64 `json:"min_novelty" yaml:"min_novelty" mapstructure:"min_novelty"`
	MinFeasibility float64 `json:"min_feasibility" yaml:"min_feasibility" mapstructure:"min_feasibility"`
	MinImpact      float64 `json:"min_impact" yaml:"min_impact" mapstructure:"min_impact"`

	// OutputDir receives hypotheses_<timestamp>.json when no path is given.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`
}

// ExplorationConfig holds the defaults for a recursive exploration.
type ExplorationConfig struct {
	MaxDepth           int             `json:"max_depth" yaml:"max_depth" mapstructure:"max_depth"`
	HypothesesPerLayer int             `json:"hypotheses_per_layer" yaml:"hypotheses_per_layer" mapstructure:"hypotheses_per_layer"`
	BranchesPerLayer   int             `json:"branches_per_layer" yaml:"branches_per_layer" mapstructure:"branches_per_layer"`
	BranchCriterion    BranchCriterion `json:"branching_criteria" yaml:"branching_criteria" mapstructure:"branching_criteria"`

	// Layer0TopN is the prediction count used when generating the root layer.
	Layer0TopN int `json:"layer0_top_n" yaml:"layer0_top_n" mapstructure:"layer0_top_n"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is json or console.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// ArchiveConfig locates the SQLite archive of past runs.
type ArchiveConfig struct {
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// MetricsConfig controls the Prometheus textfile dump written after a command.
type MetricsConfig struct {
	// TextfilePath is empty to disable the dump.
	TextfilePath string `json:"textfile_path" yaml:"textfile_path" mapstructure:"textfile_path"`
}

// Config groups every section of noesis configuration.
type Config struct {
	Neo4j       Neo4jConfig       `json:"neo4j" yaml:"neo4j" mapstructure:"neo4j"`
	GraphFile   GraphFileConfig   `json:"graph_file" yaml:"graph_file" mapstructure:"graph_file"`
	LLM         LLMConfig         `json:"llm" yaml:"llm" mapstructure:"llm"`
	Engine      EngineConfig      `json:"engine" yaml:"engine" mapstructure:"engine"`
	Exploration ExplorationConfig `json:"exploration" yaml:"exploration" mapstructure:"exploration"`
	Log         LogConfig         `json:"log" yaml:"log" mapstructure:"log"`
	Archive     ArchiveConfig     `json:"archive" yaml:"archive" mapstructure:"archive"`
	Metrics     MetricsConfig     `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

// Default model identifiers per provider.
const (
	DefaultOllamaModel    = "llama3.1:8b"
	DefaultOpenAIModel    = "gpt-4-turbo"
	DefaultAnthropicModel = "claude-3-5-sonnet-20241022"
	DefaultOllamaBaseURL  = "http://localhost:11434/v1"
)

// DefaultConfig returns the configuration used when no file, flag, or
// environment variable overrides a value.
func DefaultConfig() Config {
	return Config{
		Neo4j: Neo4jConfig{
			URI:         "bolt://localhost:7687",
			User:        "neo4j",
			Database:    "neo4j",
			Timeout:     10 * time.Second,
			MaxPoolSize: 50,
		},
		LLM: LLMConfig{
			Provider:  ProviderOllama,
			Model:     DefaultOllamaModel,
			MaxTokens: 1500,
			Timeout:   300 * time.Second,
		},
		Engine: EngineConfig{
			SimilarityMethod: SimilarityJaccard,
			Policy:           PolicyCentral,
			TopN:             50,
			MinSimilarity:    0.1,
			Temperature:      0.7,
			OutputDir:        "output",
		},
		Exploration: ExplorationConfig{
			MaxDepth:           2,
			HypothesesPerLayer: 10,
			BranchesPerLayer:   2,
			BranchCriterion:    BranchDiversity,
			Layer0TopN:         30,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Archive: ArchiveConfig{
			Dir: "archive",
		},
	}
}
