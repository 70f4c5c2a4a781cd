// Package sentiment labels customer messages as positive, negative or neutral.
package sentiment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/ticketsense/ai/cache"
	"github.com/hrygo/ticketsense/ai/core/llm"
)

// Label is a sentiment class.
type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

// matchOrder is the keyword priority applied to model output.
var matchOrder = []Label{Positive, Negative, Neutral}

const promptPrefix = "Determine the sentiment (positive, negative, or neutral) of the following customer message:\n\n"

// Policy decides what happens when the model call fails.
type Policy string

const (
	// PolicySoft resolves every failure to Neutral.
	PolicySoft Policy = "soft"
	// PolicyStrict returns provider failures to the caller.
	PolicyStrict Policy = "strict"
)

// ParsePolicy validates a policy name. Empty selects PolicySoft.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicySoft:
		return PolicySoft, nil
	case PolicyStrict:
		return PolicyStrict, nil
	}
	return "", fmt.Errorf("unknown sentiment policy %q", s)
}

// Options configures a Classifier.
type Options struct {
	Policy Policy
	// CacheSize > 0 memoizes labels by text hash. Zero keeps one model call per Classify.
	CacheSize int
	CacheTTL  time.Duration
	// OnCacheLookup, when set, is told whether each cached lookup hit.
	OnCacheLookup func(hit bool)
}

// Classifier asks a chat model for the sentiment of a text.
type Classifier struct {
	gen      llm.Generator
	policy   Policy
	cache    *cache.LRUCache[string, Label]
	onLookup func(hit bool)
}

// NewClassifier creates a classifier backed by gen.
func NewClassifier(gen llm.Generator, opts Options) *Classifier {
	c := &Classifier{
		gen:      gen,
		policy:   opts.Policy,
		onLookup: opts.OnCacheLookup,
	}
	if c.policy == "" {
		c.policy = PolicySoft
	}
	if opts.CacheSize > 0 {
		c.cache = cache.NewLRUCache[string, Label](opts.CacheSize, opts.CacheTTL)
	}
	return c
}

// Classify returns the sentiment of text.
// Under PolicySoft the error is always nil and failures yield Neutral.
func (c *Classifier) Classify(ctx context.Context, text string) (Label, error) {
	var key string
	if c.cache != nil {
		key = cacheKey(text)
		label, ok := c.cache.Get(key)
		if c.onLookup != nil {
			c.onLookup(ok)
		}
		if ok {
			return label, nil
		}
	}

	resp, err := c.gen.Generate(ctx, promptPrefix+text)
	if err != nil {
		if c.policy == PolicyStrict {
			return "", fmt.Errorf("classify sentiment: %w", err)
		}
		slog.Warn("Sentiment: classification failed, using neutral", "error", err)
		return Neutral, nil
	}

	label := Parse(resp)
	if c.cache != nil {
		c.cache.Set(key, label, 0)
	}
	return label, nil
}

// cacheStats reports cache usage. ok is false when caching is disabled.
func (c *Classifier) cacheStats() (stats cache.Stats, ok bool) {
	if c.cache == nil {
		return cache.Stats{}, false
	}
	return c.cache.Stats(), true
}

// Parse maps raw model output to a label, defaulting to Neutral.
func Parse(resp string) Label {
	normalized := strings.ToLower(strings.TrimSpace(resp))
	if normalized == "" {
		return Neutral
	}
	for _, label := range matchOrder {
		if strings.Contains(normalized, string(label)) {
			return label
		}
	}
	return Neutral
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
