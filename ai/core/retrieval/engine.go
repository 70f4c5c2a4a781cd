// Package retrieval finds stored tickets that match a query's sentiment and context.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/hrygo/ticketsense/ai/core/embedding"
	"github.com/hrygo/ticketsense/ai/observability/logging"
	"github.com/hrygo/ticketsense/ai/sentiment"
	"github.com/hrygo/ticketsense/ai/vector"
)

// fallbackFormat is returned as the only ticket when no candidate survives filtering.
const fallbackFormat = "No similar tickets found with matching sentiment and context: %s, %s"

// Classifier labels text with a sentiment.
type Classifier interface {
	Classify(ctx context.Context, text string) (sentiment.Label, error)
}

// Query is a validated search request.
type Query struct {
	Text       string
	ContextTag string
}

// Enriched returns the text that is classified and embedded for q.
func (q Query) Enriched() string {
	return q.Text + " related to " + q.ContextTag
}

// Result is the outcome of a search.
type Result struct {
	// Tickets holds matching payloads, or the single fallback message when Fallback is set.
	Tickets   []string
	Sentiment sentiment.Label
	Fallback  bool
	// Candidates is the number of nearest neighbors fetched from the index.
	Candidates int
	// Classified is the number of candidates whose sentiment was checked.
	Classified int
	Latency    time.Duration
}

// Options tunes the engine.
type Options struct {
	CandidateLimit int     // neighbors fetched from the index, default 20
	ResultLimit    int     // tickets returned, default 3
	MinScore       float32 // index score floor, default 0
	MaxConcurrency int     // parallel candidate classifications, default 4
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		CandidateLimit: 20,
		ResultLimit:    3,
		MinScore:       0,
		MaxConcurrency: 4,
	}
}

// Engine runs sentiment and context filtered similarity search.
type Engine struct {
	classifier Classifier
	emb        embedding.Embedder
	index      vector.Store
	opts       Options
}

// NewEngine creates an Engine. Non-positive option fields take DefaultOptions values.
func NewEngine(classifier Classifier, emb embedding.Embedder, index vector.Store, opts Options) (*Engine, error) {
	if classifier == nil || emb == nil || index == nil {
		return nil, errors.New("retrieval: classifier, embedder and index are required")
	}

	defaults := DefaultOptions()
	if opts.CandidateLimit <= 0 {
		opts.CandidateLimit = defaults.CandidateLimit
	}
	if opts.ResultLimit <= 0 {
		opts.ResultLimit = defaults.ResultLimit
	}
	if opts.MinScore < 0 {
		opts.MinScore = defaults.MinScore
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = defaults.MaxConcurrency
	}

	return &Engine{
		classifier: classifier,
		emb:        emb,
		index:      index,
		opts:       opts,
	}, nil
}

// Search returns up to ResultLimit stored tickets whose sentiment equals the
// enriched query's and whose text contains the context tag, closest first.
//
// The tag check is pure, so it runs before classification and only tag-matching
// candidates cost a model call.
func (e *Engine) Search(ctx context.Context, q Query) (*Result, error) {
	start := time.Now()
	logger := logging.FromContext(ctx)

	enriched := q.Enriched()
	querySentiment, err := e.classifier.Classify(ctx, enriched)
	if err != nil {
		return nil, fmt.Errorf("classify query: %w", err)
	}

	vec, err := e.emb.Embed(ctx, enriched)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := e.index.Search(ctx, vec, e.opts.CandidateLimit, e.opts.MinScore)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	tag := strings.ToLower(q.ContextTag)
	candidates := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.Contains(strings.ToLower(m.Payload), tag) {
			candidates = append(candidates, m.Payload)
		}
	}

	labels, err := e.classifyAll(ctx, candidates)
	if err != nil {
		return nil, err
	}

	tickets := make([]string, 0, e.opts.ResultLimit)
	for i, payload := range candidates {
		if labels[i] != querySentiment {
			continue
		}
		tickets = append(tickets, payload)
		if len(tickets) == e.opts.ResultLimit {
			break
		}
	}

	result := &Result{
		Tickets:    tickets,
		Sentiment:  querySentiment,
		Candidates: len(matches),
		Classified: len(candidates),
	}
	if len(tickets) == 0 {
		result.Tickets = []string{fmt.Sprintf(fallbackFormat, querySentiment, q.ContextTag)}
		result.Fallback = true
	}
	result.Latency = time.Since(start)

	logger.Info("Retrieval: search completed",
		"context_tag", q.ContextTag,
		"sentiment", querySentiment,
		"candidates", result.Candidates,
		"classified", result.Classified,
		"returned", len(tickets),
		"fallback", result.Fallback,
		"duration_ms", result.Latency.Milliseconds(),
	)
	return result, nil
}

// classifyAll labels texts with bounded parallelism. labels[i] belongs to texts[i].
func (e *Engine) classifyAll(ctx context.Context, texts []string) ([]sentiment.Label, error) {
	labels := make([]sentiment.Label, len(texts))
	if len(texts) == 0 {
		return labels, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := semaphore.NewWeighted(int64(e.opts.MaxConcurrency))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i, text := range texts {
		if err := sem.Acquire(ctx, 1); err != nil {
			fail(err)
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			label, err := e.classifier.Classify(ctx, text)
			if err != nil {
				fail(fmt.Errorf("classify candidate %d: %w", i, err))
				return
			}
			labels[i] = label
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return labels, nil
}
