package deckagent

import (
	"os"
	"path/filepath"

	"github.com/qixuan-zhu/deckagent/expand"
	"github.com/qixuan-zhu/deckagent/llm"
	"github.com/qixuan-zhu/deckagent/outline"
	"github.com/qixuan-zhu/deckagent/search"
)

// Config holds all configuration for the deckagent engine.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to ~/.deckagent/deckagent.db.
	DBPath string `json:"db_path" yaml:"db_path"`

	// EmbeddingDim must match the embedding model's output dimension.
	EmbeddingDim int `json:"embedding_dim" yaml:"embedding_dim"`

	// LLM is the chat model used by the expansion agent.
	LLM llm.Config `json:"llm" yaml:"llm"`

	// Embedder is the embedding model used for vector indexing and search.
	Embedder llm.Config `json:"embedder" yaml:"embedder"`

	// Analyzer carries the structure classifier thresholds.
	Analyzer outline.Config `json:"analyzer" yaml:"analyzer"`

	// Search carries the retrieval fusion weights.
	Search search.Config `json:"search" yaml:"search"`

	// Expand carries the expansion agent settings.
	Expand expand.Config `json:"expand" yaml:"expand"`
}

// DefaultConfig returns a Config wired for SiliconFlow-hosted models.
// API keys are never part of the defaults; they are read from the
// provider's conventional environment variable during New, or set
// explicitly on the config.
func DefaultConfig() Config {
	return Config{
		EmbeddingDim: 1024,
		LLM: llm.Config{
			Provider: "siliconflow",
			Model:    "deepseek-ai/DeepSeek-V3.2-Exp",
		},
		Embedder: llm.Config{
			Provider: "siliconflow",
			Model:    "BAAI/bge-m3",
		},
		Analyzer: outline.DefaultConfig(),
		Search:   search.DefaultConfig(),
		Expand:   expand.DefaultConfig(),
	}
}

// resolveDBPath computes the database path, defaulting to a per-user
// directory when unset.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "deckagent.db" // fallback to cwd
	}
	return filepath.Join(home, ".deckagent", "deckagent.db")
}

// envAPIKey returns the value of the conventional environment variable
// holding a provider's API key.
func envAPIKey(provider string) string {
	switch provider {
	case "siliconflow":
		return os.Getenv("SILICONFLOW_API_KEY")
	case "deepseek":
		return os.Getenv("DEEPSEEK_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}
