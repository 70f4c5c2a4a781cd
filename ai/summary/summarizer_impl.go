package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/ticketsense/ai/core/embedding"
	"github.com/hrygo/ticketsense/ai/core/llm"
	"github.com/hrygo/ticketsense/ai/vector"
)

const (
	chunkPromptPrefix  = "Summarize the following customer support ticket:\n\n"
	reducePromptPrefix = "Summarize the following into a concise summary of maximum two lines:\n\n"
)

// ErrNilIndex is returned when no embedding index is supplied.
var ErrNilIndex = errors.New("summary: nil embedding index")

// MapReduceSummarizer summarizes each chunk, then reduces the chunk summaries
// into one short summary. The original text is embedded and indexed last.
type MapReduceSummarizer struct {
	gen   llm.Generator
	emb   embedding.Embedder
	index vector.Store
	opts  Options
}

// NewSummarizer creates a MapReduceSummarizer. Zero option fields take DefaultOptions values.
func NewSummarizer(gen llm.Generator, emb embedding.Embedder, index vector.Store, opts Options) (*MapReduceSummarizer, error) {
	if gen == nil || emb == nil {
		return nil, errors.New("summary: generator and embedder are required")
	}
	if index == nil {
		return nil, ErrNilIndex
	}

	defaults := DefaultOptions()
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaults.ChunkSize
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = defaults.MaxConcurrency
	}
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = defaults.FailurePolicy
	}
	if opts.FallbackMaxLen <= 0 {
		opts.FallbackMaxLen = defaults.FallbackMaxLen
	}

	return &MapReduceSummarizer{
		gen:   gen,
		emb:   emb,
		index: index,
		opts:  opts,
	}, nil
}

// Summarize implements Summarizer.
// A chunk failure aborts the request unless FailurePolicyFallback is set.
// Reduce, embedding and indexing failures always abort, as does an IndexGate
// attached with WithIndexGate. Nothing is indexed on failure.
func (s *MapReduceSummarizer) Summarize(ctx context.Context, text string) (*Result, error) {
	start := time.Now()
	chunks := ChunkText(text, s.opts.ChunkSize)

	slog.Debug("Summary: chunked ticket",
		"chunks", len(chunks),
		"chars", len([]rune(text)),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxConcurrency)

	// The embedding does not depend on the summary, so it runs alongside the map stage.
	var vec []float32
	g.Go(func() error {
		v, err := s.emb.Embed(gctx, text)
		if err != nil {
			return fmt.Errorf("embed ticket: %w", err)
		}
		vec = v
		return nil
	})

	summaries := make([]ChunkSummary, len(chunks))
	for _, chunk := range chunks {
		g.Go(func() error {
			cs, err := s.summarizeChunk(gctx, chunk)
			if err != nil {
				return err
			}
			summaries[chunk.Index] = cs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	parts := make([]string, len(summaries))
	for i, cs := range summaries {
		parts[i] = cs.Text
	}
	combined := strings.Join(parts, "\n")

	final, err := s.gen.Generate(ctx, reducePromptPrefix+combined)
	if err != nil {
		return nil, fmt.Errorf("reduce chunk summaries: %w", err)
	}

	if gate := indexGateFrom(ctx); gate != nil {
		if err := gate(ctx); err != nil {
			return nil, fmt.Errorf("index gate: %w", err)
		}
	}

	id := uuid.NewString()
	if err := s.index.Add(ctx, id, vec, text); err != nil {
		return nil, fmt.Errorf("index ticket: %w", err)
	}

	result := &Result{
		Summary:         final,
		RecordID:        id,
		ChunkSummaries:  summaries,
		ChunkCount:      len(chunks),
		EstimatedTokens: EstimateTokens(text),
		Latency:         time.Since(start),
	}

	slog.Info("Summary: ticket summarized",
		"record_id", id,
		"chunks", result.ChunkCount,
		"estimated_tokens", result.EstimatedTokens,
		"duration_ms", result.Latency.Milliseconds(),
	)
	return result, nil
}

func (s *MapReduceSummarizer) summarizeChunk(ctx context.Context, chunk Chunk) (ChunkSummary, error) {
	slog.Debug("Summary: summarizing chunk",
		"index", chunk.Index,
		"estimated_tokens", EstimateTokens(chunk.Text),
	)

	out, err := s.gen.Generate(ctx, chunkPromptPrefix+chunk.Text)
	if err == nil {
		return ChunkSummary{ChunkIndex: chunk.Index, Text: out, Source: SourceLLM}, nil
	}
	if s.opts.FailurePolicy != FailurePolicyFallback || ctx.Err() != nil {
		return ChunkSummary{}, fmt.Errorf("summarize chunk %d: %w", chunk.Index, err)
	}

	fallback := FallbackSummarize(chunk.Text, s.opts.FallbackMaxLen)
	slog.Warn("Summary: chunk summary failed, using extractive fallback",
		"index", chunk.Index,
		"source", fallback.Source,
		"error", err,
	)
	return ChunkSummary{ChunkIndex: chunk.Index, Text: fallback.Text, Source: fallback.Source}, nil
}
