package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/ticketsense/ai/sentiment"
	"github.com/hrygo/ticketsense/ai/summary"
	"github.com/hrygo/ticketsense/internal/profile"
)

func testProfile() *profile.Profile {
	return &profile.Profile{
		LLMProvider:       "deepseek",
		LLMAPIKey:         "deepseek-key",
		LLMBaseURL:        "https://api.deepseek.com",
		LLMModel:          "deepseek-chat",
		LLMTimeout:        60,
		LLMRateLimit:      5,
		EmbeddingProvider: "openai",
		EmbeddingModel:    "text-embedding-ada-002",
		EmbeddingAPIKey:   "openai-key",
		EmbeddingTimeout:  30,
		EmbeddingRetries:  2,
		Pipeline: profile.Pipeline{
			ChunkSize:            800,
			SummaryConcurrency:   2,
			SummaryFailurePolicy: "fallback",
			FallbackMaxLen:       150,
			SentimentPolicy:      "strict",
			SentimentCacheSize:   128,
			SentimentCacheTTL:    time.Minute,
			CandidateLimit:       20,
			ResultLimit:          3,
			SearchConcurrency:    6,
		},
	}
}

func TestNewConfigFromProfile(t *testing.T) {
	cfg, err := NewConfigFromProfile(testProfile())
	require.NoError(t, err)

	assert.True(t, cfg.Enabled)

	assert.Equal(t, "deepseek", cfg.LLM.Provider)
	assert.Equal(t, "deepseek-chat", cfg.LLM.Model)
	assert.Equal(t, "deepseek-key", cfg.LLM.APIKey)
	assert.Equal(t, "https://api.deepseek.com", cfg.LLM.BaseURL)
	assert.Equal(t, 2048, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, 60, cfg.LLM.Timeout)
	assert.Equal(t, 5.0, cfg.LLM.RateLimit)

	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "openai-key", cfg.Embedding.APIKey)
	assert.Empty(t, cfg.Embedding.BaseURL, "a different provider keeps its own default endpoint")
	assert.Equal(t, 30*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, 2, cfg.Embedding.MaxRetries)

	assert.Equal(t, summary.Options{
		ChunkSize:      800,
		MaxConcurrency: 2,
		FailurePolicy:  summary.FailurePolicyFallback,
		FallbackMaxLen: 150,
	}, cfg.Summary)
	assert.Equal(t, sentiment.Options{
		Policy:    sentiment.PolicyStrict,
		CacheSize: 128,
		CacheTTL:  time.Minute,
	}, cfg.Sentiment)
	assert.Equal(t, 20, cfg.Retrieval.CandidateLimit)
	assert.Equal(t, 3, cfg.Retrieval.ResultLimit)
	assert.Equal(t, 6, cfg.Retrieval.MaxConcurrency)

	assert.NoError(t, cfg.Validate())
}

func TestNewConfigFromProfile_SharedEmbeddingEndpoint(t *testing.T) {
	p := testProfile()
	p.EmbeddingProvider = "deepseek"

	cfg, err := NewConfigFromProfile(p)
	require.NoError(t, err)
	assert.Equal(t, "https://api.deepseek.com", cfg.Embedding.BaseURL)
}

func TestNewConfigFromProfile_BadPolicy(t *testing.T) {
	p := testProfile()
	p.Pipeline.SentimentPolicy = "sometimes"

	_, err := NewConfigFromProfile(p)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"disabled", func(c *Config) { c.Enabled = false }, true},
		{"no provider", func(c *Config) { c.LLM.Provider = "" }, true},
		{"no model", func(c *Config) { c.LLM.Model = "" }, true},
		{"no embedding provider", func(c *Config) { c.Embedding.Provider = "" }, true},
		{"no embedding key", func(c *Config) { c.Embedding.APIKey = "" }, true},
		{"ollama embeddings need no key", func(c *Config) {
			c.Embedding.Provider = "ollama"
			c.Embedding.APIKey = ""
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewConfigFromProfile(testProfile())
			require.NoError(t, err)
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
