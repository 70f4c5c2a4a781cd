// Package embedding provides an OpenAI-compatible text embedding provider.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ErrEmptyEmbedding is returned when the provider answers without vectors.
var ErrEmptyEmbedding = errors.New("empty embedding response")

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config configures the embedding provider.
type Config struct {
	Provider     string
	BaseURL      string
	APIKey       string
	Model        string
	Dimensions   int // 0 lets the model decide
	MaxRetries   int
	Timeout      time.Duration
	RetryBackoff time.Duration
}

// DefaultConfig returns the configuration used for zero-valued fields.
func DefaultConfig() *Config {
	return &Config{
		Provider:     "openai",
		BaseURL:      "https://api.openai.com/v1",
		Model:        "text-embedding-ada-002",
		MaxRetries:   3,
		Timeout:      30 * time.Second,
		RetryBackoff: 500 * time.Millisecond,
	}
}

// providerBaseURLs holds the OpenAI-compatible embeddings endpoint of each known provider.
var providerBaseURLs = map[string]string{
	"openai":      "https://api.openai.com/v1",
	"siliconflow": "https://api.siliconflow.cn/v1",
	"zai":         "https://open.bigmodel.cn/api/paas/v4",
	"dashscope":   "https://dashscope.aliyuncs.com/compatible-mode/v1",
	"openrouter":  "https://openrouter.ai/api/v1",
	"ollama":      "http://localhost:11434/v1",
}

// Provider calls the /embeddings endpoint of an OpenAI-compatible API.
type Provider struct {
	client *openai.Client
	config *Config
}

// NewProvider creates a provider. A nil config uses DefaultConfig.
func NewProvider(cfg *Config) (*Provider, error) {
	defaults := DefaultConfig()
	if cfg == nil {
		cfg = defaults
	}
	c := *cfg
	if c.Provider == "" {
		c.Provider = defaults.Provider
	}
	if c.BaseURL == "" {
		baseURL, ok := providerBaseURLs[c.Provider]
		if !ok {
			return nil, fmt.Errorf("unsupported embedding provider %q without base URL", c.Provider)
		}
		c.BaseURL = baseURL
	}
	if c.Model == "" {
		c.Model = defaults.Model
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaults.MaxRetries
	}
	if c.Timeout <= 0 {
		c.Timeout = defaults.Timeout
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = defaults.RetryBackoff
	}
	if c.Dimensions < 0 {
		return nil, fmt.Errorf("invalid embedding dimensions %d", c.Dimensions)
	}

	clientConfig := openai.DefaultConfig(c.APIKey)
	clientConfig.BaseURL = c.BaseURL

	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		config: &c,
	}, nil
}

// Validate checks that the provider can authenticate.
func (p *Provider) Validate(_ context.Context) error {
	if p.config.APIKey == "" && p.config.Provider != "ollama" {
		return errors.New("embedding API key is required")
	}
	return nil
}

// Model returns the configured embedding model.
func (p *Provider) Model() string {
	return p.config.Model
}

// Dimensions returns the requested vector dimension, 0 when the model default is used.
func (p *Provider) Dimensions() int {
	return p.config.Dimensions
}

// Embed generates the vector for a single text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates vectors for texts, in input order.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("no texts provided for embedding")
	}

	req := openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(p.config.Model),
		Dimensions: p.config.Dimensions,
	}

	var lastErr error
	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		vectors, err := p.createEmbeddings(ctx, req, len(texts))
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		if !retryable(err) || attempt == p.config.MaxRetries {
			break
		}

		slog.Warn("Embedding: request failed, retrying",
			"model", p.config.Model,
			"attempt", attempt,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * p.config.RetryBackoff):
		}
	}
	return nil, lastErr
}

func (p *Provider) createEmbeddings(ctx context.Context, req openai.EmbeddingRequest, want int) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create embeddings failed: %w", err)
	}
	if len(resp.Data) != want {
		return nil, fmt.Errorf("%w: got %d vectors for %d inputs", ErrEmptyEmbedding, len(resp.Data), want)
	}

	// Providers may reorder results; Index is authoritative.
	vectors := make([][]float32, want)
	for i, data := range resp.Data {
		idx := data.Index
		if idx < 0 || idx >= want || vectors[idx] != nil {
			idx = i
		}
		if len(data.Embedding) == 0 {
			return nil, ErrEmptyEmbedding
		}
		vectors[idx] = data.Embedding
	}
	return vectors, nil
}

// retryable reports whether err is worth another attempt.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrEmptyEmbedding) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return true
}
