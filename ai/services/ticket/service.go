// Package ticket exposes the two ticket operations: summarize-and-store and
// sentiment and context filtered search.
package ticket

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hrygo/ticketsense/ai/core/retrieval"
	"github.com/hrygo/ticketsense/ai/observability/logging"
	"github.com/hrygo/ticketsense/ai/sentiment"
	"github.com/hrygo/ticketsense/ai/summary"
	"github.com/hrygo/ticketsense/ai/vector"
)

// Recorder receives pipeline measurements. *metrics.PrometheusExporter implements it.
type Recorder interface {
	RecordIngest(latency time.Duration, chunks int, err error)
	RecordSearch(latency time.Duration, fallback bool, err error)
	RecordSentiment(label string)
	SetIndexSize(n int)
}

// Searcher runs filtered similarity search.
type Searcher interface {
	Search(ctx context.Context, q retrieval.Query) (*retrieval.Result, error)
}

// IngestResult is returned by SummarizeAndStore.
type IngestResult struct {
	Summary    string
	Sentiment  sentiment.Label
	RecordID   string
	ChunkCount int
}

// Service wires the summarizer, classifier and retrieval engine together.
type Service struct {
	summarizer summary.Summarizer
	classifier retrieval.Classifier
	searcher   Searcher
	index      vector.Store
	recorder   Recorder
}

// NewService creates a ticket service. recorder may be nil.
func NewService(summarizer summary.Summarizer, classifier retrieval.Classifier, searcher Searcher, index vector.Store, recorder Recorder) (*Service, error) {
	if summarizer == nil || classifier == nil || searcher == nil || index == nil {
		return nil, errors.New("ticket: summarizer, classifier, searcher and index are required")
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{
		summarizer: summarizer,
		classifier: classifier,
		searcher:   searcher,
		index:      index,
		recorder:   recorder,
	}, nil
}

// SummarizeAndStore summarizes text, indexes it and classifies its sentiment.
// Summarization and classification run concurrently, but the ticket is indexed
// only once classification has succeeded; either failure fails the call.
func (s *Service) SummarizeAndStore(ctx context.Context, text string) (*IngestResult, error) {
	start := time.Now()
	logger := logging.FromContext(ctx)

	var (
		summ        *summary.Result
		label       sentiment.Label
		classifyErr error
	)
	classified := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(classified)
		label, classifyErr = s.classifier.Classify(gctx, text)
		return classifyErr
	})
	g.Go(func() error {
		var err error
		summ, err = s.summarizer.Summarize(summary.WithIndexGate(gctx, func(ctx context.Context) error {
			select {
			case <-classified:
				return classifyErr
			case <-ctx.Done():
				return ctx.Err()
			}
		}), text)
		return err
	})
	err := g.Wait()

	chunks := 0
	if summ != nil {
		chunks = summ.ChunkCount
	}
	s.recorder.RecordIngest(time.Since(start), chunks, err)
	s.recorder.SetIndexSize(s.index.Count())
	if err != nil {
		logger.Error("Ticket: summarize and store failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	s.recorder.RecordSentiment(string(label))

	logger.Info("Ticket: stored",
		"record_id", summ.RecordID,
		"sentiment", label,
		"chunks", summ.ChunkCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &IngestResult{
		Summary:    summ.Summary,
		Sentiment:  label,
		RecordID:   summ.RecordID,
		ChunkCount: summ.ChunkCount,
	}, nil
}

// SearchByContextAndSentiment returns stored tickets similar to query that share its
// sentiment and mention contextTag.
func (s *Service) SearchByContextAndSentiment(ctx context.Context, query, contextTag string) (*retrieval.Result, error) {
	start := time.Now()
	res, err := s.searcher.Search(ctx, retrieval.Query{Text: query, ContextTag: contextTag})
	fallback := err == nil && res.Fallback
	s.recorder.RecordSearch(time.Since(start), fallback, err)
	if err != nil {
		logging.FromContext(ctx).Error("Ticket: search failed", "context_tag", contextTag, "error", err)
		return nil, err
	}
	return res, nil
}

// Records returns the number of indexed tickets.
func (s *Service) Records() int {
	return s.index.Count()
}

type noopRecorder struct{}

func (noopRecorder) RecordIngest(time.Duration, int, error) {}
func (noopRecorder) RecordSearch(time.Duration, bool, error) {}
func (noopRecorder) RecordSentiment(string) {}
func (noopRecorder) SetIndexSize(int) {}
