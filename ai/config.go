package ai

import (
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/ticketsense/ai/core/embedding"
	"github.com/hrygo/ticketsense/ai/core/llm"
	"github.com/hrygo/ticketsense/ai/core/retrieval"
	"github.com/hrygo/ticketsense/ai/sentiment"
	"github.com/hrygo/ticketsense/ai/summary"
	"github.com/hrygo/ticketsense/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	LLM       llm.Config
	Embedding embedding.Config
	Summary   summary.Options
	Sentiment sentiment.Options
	Retrieval retrieval.Options
	Enabled   bool
}

// NewConfigFromProfile creates AI config from profile.
// Policy names are expected to have passed profile.Validate.
func NewConfigFromProfile(p *profile.Profile) (*Config, error) {
	pl := p.Pipeline

	failurePolicy, err := summary.ParseFailurePolicy(pl.SummaryFailurePolicy)
	if err != nil {
		return nil, errors.Wrap(err, "summary options")
	}
	sentimentPolicy, err := sentiment.ParsePolicy(pl.SentimentPolicy)
	if err != nil {
		return nil, errors.Wrap(err, "sentiment options")
	}

	cfg := &Config{
		Enabled: p.IsAIEnabled(),
		LLM: llm.Config{
			Provider:    p.LLMProvider,
			Model:       p.LLMModel,
			APIKey:      p.LLMAPIKey,
			BaseURL:     p.LLMBaseURL,
			MaxTokens:   2048,
			Temperature: 0.7,
			Timeout:     p.LLMTimeout,
			RateLimit:   p.LLMRateLimit,
		},
		Embedding: embedding.Config{
			Provider:   p.EmbeddingProvider,
			BaseURL:    p.EmbeddingBaseURL,
			APIKey:     p.EmbeddingAPIKey,
			Model:      p.EmbeddingModel,
			Dimensions: p.EmbeddingDimensions,
			MaxRetries: p.EmbeddingRetries,
			Timeout:    time.Duration(p.EmbeddingTimeout) * time.Second,
		},
		Summary: summary.Options{
			ChunkSize:      pl.ChunkSize,
			MaxConcurrency: pl.SummaryConcurrency,
			FailurePolicy:  failurePolicy,
			FallbackMaxLen: pl.FallbackMaxLen,
		},
		Sentiment: sentiment.Options{
			Policy:    sentimentPolicy,
			CacheSize: pl.SentimentCacheSize,
			CacheTTL:  pl.SentimentCacheTTL,
		},
		Retrieval: retrieval.Options{
			CandidateLimit: pl.CandidateLimit,
			ResultLimit:    pl.ResultLimit,
			MaxConcurrency: pl.SearchConcurrency,
		},
	}

	// Embeddings served by the chat provider share its endpoint.
	if cfg.Embedding.BaseURL == "" && cfg.Embedding.Provider == cfg.LLM.Provider {
		cfg.Embedding.BaseURL = cfg.LLM.BaseURL
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return errors.New("AI is disabled: set TICKETSENSE_AI_LLM_API_KEY")
	}

	if c.LLM.Provider == "" {
		return errors.New("LLM provider is required")
	}

	if c.LLM.Model == "" {
		return errors.New("LLM model is required")
	}

	if c.Embedding.Provider == "" {
		return errors.New("embedding provider is required")
	}

	if c.Embedding.Provider != "ollama" && c.Embedding.APIKey == "" {
		return errors.New("embedding API key is required")
	}

	return nil
}
