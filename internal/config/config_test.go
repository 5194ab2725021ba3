package config

import (
	"testing"

	"rag-assistant-be/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Ai: AIConfig{
			EmbeddingProvider: "ollama",
			LLMProvider:       "ollama",
		},
		Rag: RagConfig{
			Corpora:      []CorpusConfig{{Label: "docs", Dir: "documents/docs"}},
			ChunkSize:    500,
			ChunkOverlap: 50,
			MinScore:     0.6,
		},
		Session: SessionConfig{Window: 10},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"gemini llm without key", func(c *Config) { c.Ai.LLMProvider = "gemini" }},
		{"gemini embedding without key", func(c *Config) { c.Ai.EmbeddingProvider = "gemini" }},
		{"zero chunk size", func(c *Config) { c.Rag.ChunkSize = 0 }},
		{"overlap >= chunk size", func(c *Config) { c.Rag.ChunkOverlap = 500 }},
		{"negative overlap", func(c *Config) { c.Rag.ChunkOverlap = -1 }},
		{"min score above one", func(c *Config) { c.Rag.MinScore = 1.5 }},
		{"zero window", func(c *Config) { c.Session.Window = 0 }},
		{"no corpora", func(c *Config) { c.Rag.Corpora = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			var confErr *apperror.ConfigurationError
			require.ErrorAs(t, err, &confErr)
		})
	}
}

func TestValidateGeminiWithKey(t *testing.T) {
	cfg := validConfig()
	cfg.Ai.LLMProvider = "gemini"
	cfg.Ai.GeminiAPIKey = "key"

	assert.NoError(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 500, cfg.Rag.ChunkSize)
	assert.Equal(t, 50, cfg.Rag.ChunkOverlap)
	assert.Equal(t, 3, cfg.Rag.TopK)
	assert.InDelta(t, 0.6, cfg.Rag.MinScore, 1e-9)
	assert.Equal(t, 10, cfg.Session.Window)
	require.NotEmpty(t, cfg.Rag.Corpora)
}
