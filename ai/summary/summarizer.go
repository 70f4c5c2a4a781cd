package summary

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Summarizer condenses a ticket and indexes its embedding.
type Summarizer interface {
	// Summarize returns a short summary of text and stores an embedding of text.
	Summarize(ctx context.Context, text string) (*Result, error)
}

// Summary sources.
const (
	SourceLLM                   = "llm"
	SourceFallbackFirstPara     = "fallback_first_para"
	SourceFallbackFirstSentence = "fallback_first_sentence"
	SourceFallbackTruncate      = "fallback_truncate"
)

// ChunkSummary is the map-stage output for one chunk.
type ChunkSummary struct {
	Text       string
	Source     string
	ChunkIndex int
}

// Result is the outcome of a successful Summarize call.
type Result struct {
	Summary         string
	RecordID        string
	ChunkSummaries  []ChunkSummary
	ChunkCount      int
	EstimatedTokens int
	Latency         time.Duration
}

// FailurePolicy decides what a failed chunk summary does to the request.
type FailurePolicy string

const (
	// FailurePolicyFail aborts the whole request.
	FailurePolicyFail FailurePolicy = "fail"
	// FailurePolicyFallback substitutes an extractive summary for the failed chunk.
	FailurePolicyFallback FailurePolicy = "fallback"
)

// ParseFailurePolicy validates a policy name. Empty selects FailurePolicyFail.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FailurePolicyFail:
		return FailurePolicyFail, nil
	case FailurePolicyFallback:
		return FailurePolicyFallback, nil
	}
	return "", fmt.Errorf("unknown summary failure policy %q", s)
}

// Options configures a MapReduceSummarizer.
type Options struct {
	ChunkSize      int
	MaxConcurrency int
	FailurePolicy  FailurePolicy
	// FallbackMaxLen bounds extractive chunk summaries, in runes.
	FallbackMaxLen int
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		ChunkSize:      DefaultChunkSize,
		MaxConcurrency: 4,
		FailurePolicy:  FailurePolicyFail,
		FallbackMaxLen: 200,
	}
}
