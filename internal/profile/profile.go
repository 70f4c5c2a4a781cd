package profile

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/pkg/errors"

	"github.com/hrygo/ticketsense/ai/sentiment"
	"github.com/hrygo/ticketsense/ai/summary"
)

const envPrefix = "TICKETSENSE_"

// Profile is configuration to start main server.
type Profile struct {
	// LLM configuration (OpenAI-compatible protocol)
	LLMProvider  string  // openai, deepseek, siliconflow, zai, dashscope, openrouter, ollama
	LLMAPIKey    string
	LLMBaseURL   string  // optional, has default per provider
	LLMModel     string
	LLMTimeout   int     // request timeout in seconds (default: 120)
	LLMRateLimit float64 // requests per second, 0 disables

	// Embedding configuration
	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingAPIKey     string
	EmbeddingBaseURL    string
	EmbeddingDimensions int
	EmbeddingTimeout    int // seconds (default: 30)
	EmbeddingRetries    int

	Pipeline Pipeline

	Mode    string
	Addr    string
	Version string
	Port    int
}

// Pipeline holds the summarization and retrieval tuning knobs.
type Pipeline struct {
	ChunkSize            int           `env:"CHUNK_SIZE" envDefault:"1000"`
	SummaryConcurrency   int           `env:"SUMMARY_CONCURRENCY" envDefault:"4"`
	SummaryFailurePolicy string        `env:"SUMMARY_FAILURE_POLICY" envDefault:"fail"`
	FallbackMaxLen       int           `env:"SUMMARY_FALLBACK_MAX_LEN" envDefault:"200"`
	SentimentPolicy      string        `env:"SENTIMENT_POLICY" envDefault:"soft"`
	SentimentCacheSize   int           `env:"SENTIMENT_CACHE_SIZE" envDefault:"0"`
	SentimentCacheTTL    time.Duration `env:"SENTIMENT_CACHE_TTL" envDefault:"10m"`
	CandidateLimit       int           `env:"SEARCH_CANDIDATE_LIMIT" envDefault:"20"`
	ResultLimit          int           `env:"SEARCH_RESULT_LIMIT" envDefault:"3"`
	SearchConcurrency    int           `env:"SEARCH_CONCURRENCY" envDefault:"4"`
	MaxBody              string        `env:"MAX_BODY" envDefault:"2M"`
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Provider default configurations for LLM.
// Used when TICKETSENSE_AI_LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"zai": {
		BaseURL: "https://open.bigmodel.cn/api/paas/v4",
		Model:   "glm-4.7",
	},
	"dashscope": {
		BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
		Model:   "qwen-max-latest",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "openai/gpt-4",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an LLM API key is configured or the provider needs none.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != "" || p.LLMProvider == "ollama"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() error {
	p.LLMProvider = strings.ToLower(getEnvOrDefault("TICKETSENSE_AI_LLM_PROVIDER", "openai"))
	p.LLMAPIKey = getEnvOrDefault("TICKETSENSE_AI_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("TICKETSENSE_AI_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("TICKETSENSE_AI_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("TICKETSENSE_AI_LLM_TIMEOUT_SECONDS", 120)
	p.LLMRateLimit = getEnvOrDefaultFloat("TICKETSENSE_AI_LLM_RATE_LIMIT", 0)

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok && p.LLMBaseURL == "" {
		slog.Warn("Unknown LLM provider without base URL, using default: openai", "provider", p.LLMProvider)
		p.LLMProvider = "openai"
	}
	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}

	// Embeddings default to the LLM provider's account.
	p.EmbeddingProvider = getEnvOrDefault("TICKETSENSE_AI_EMBEDDING_PROVIDER", "openai")
	p.EmbeddingModel = getEnvOrDefault("TICKETSENSE_AI_EMBEDDING_MODEL", "text-embedding-ada-002")
	p.EmbeddingAPIKey = getEnvOrDefault("TICKETSENSE_AI_EMBEDDING_API_KEY", p.LLMAPIKey)
	p.EmbeddingBaseURL = getEnvOrDefault("TICKETSENSE_AI_EMBEDDING_BASE_URL", "")
	p.EmbeddingDimensions = getEnvOrDefaultInt("TICKETSENSE_AI_EMBEDDING_DIMENSIONS", 0)
	p.EmbeddingTimeout = getEnvOrDefaultInt("TICKETSENSE_AI_EMBEDDING_TIMEOUT_SECONDS", 30)
	p.EmbeddingRetries = getEnvOrDefaultInt("TICKETSENSE_AI_EMBEDDING_MAX_RETRIES", 3)

	if err := env.ParseWithOptions(&p.Pipeline, env.Options{Prefix: envPrefix}); err != nil {
		return errors.Wrap(err, "failed to parse pipeline settings")
	}
	return nil
}

// Validate normalizes the mode and checks every numeric bound and policy name.
func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}
	if p.LLMProvider == "" {
		return errors.New("LLM provider is required")
	}
	if p.LLMTimeout <= 0 {
		return errors.Errorf("LLM timeout must be positive, got %d", p.LLMTimeout)
	}
	if p.LLMRateLimit < 0 {
		return errors.Errorf("LLM rate limit must not be negative, got %v", p.LLMRateLimit)
	}
	if p.EmbeddingTimeout <= 0 {
		return errors.Errorf("embedding timeout must be positive, got %d", p.EmbeddingTimeout)
	}
	if p.EmbeddingRetries < 0 {
		return errors.Errorf("embedding retries must not be negative, got %d", p.EmbeddingRetries)
	}

	pl := p.Pipeline
	for name, v := range map[string]int{
		"chunk size":          pl.ChunkSize,
		"summary concurrency": pl.SummaryConcurrency,
		"candidate limit":     pl.CandidateLimit,
		"result limit":        pl.ResultLimit,
		"search concurrency":  pl.SearchConcurrency,
	} {
		if v <= 0 {
			return errors.Errorf("%s must be positive, got %d", name, v)
		}
	}
	if pl.SentimentCacheSize < 0 {
		return errors.Errorf("sentiment cache size must not be negative, got %d", pl.SentimentCacheSize)
	}
	if pl.ResultLimit > pl.CandidateLimit {
		return errors.Errorf("result limit %d exceeds candidate limit %d", pl.ResultLimit, pl.CandidateLimit)
	}
	if _, err := summary.ParseFailurePolicy(pl.SummaryFailurePolicy); err != nil {
		return errors.Wrap(err, "invalid summary failure policy")
	}
	if _, err := sentiment.ParsePolicy(pl.SentimentPolicy); err != nil {
		return errors.Wrap(err, "invalid sentiment policy")
	}
	return nil
}
