package vector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/philippgille/chromem-go"
)

const defaultCollection = "tickets"

var errNoEmbedder = errors.New("vector: embeddings must be computed before indexing")

// MemoryStore is a process-scoped Store backed by an in-memory chromem-go collection.
type MemoryStore struct {
	coll *chromem.Collection

	// mu serializes Add so the duplicate check and the insert are one step.
	mu  sync.Mutex
	ids map[string]struct{}
}

// NewMemoryStore creates an empty in-memory index.
func NewMemoryStore() (*MemoryStore, error) {
	db := chromem.NewDB()
	coll, err := db.CreateCollection(defaultCollection, map[string]string{}, rejectEmbedding)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &MemoryStore{
		coll: coll,
		ids:  make(map[string]struct{}),
	}, nil
}

// rejectEmbedding stops chromem from embedding content on its own.
func rejectEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbedder
}

// Add indexes a record. The vector is copied; chromem normalizes it in place.
func (s *MemoryStore) Add(ctx context.Context, id string, vector []float32, payload string) error {
	if id == "" {
		return errors.New("vector: empty record id")
	}
	if len(vector) == 0 {
		return ErrEmptyVector
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	doc := chromem.Document{
		ID:        id,
		Embedding: append([]float32(nil), vector...),
		Content:   payload,
	}
	if err := s.coll.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add record %s: %w", id, err)
	}
	s.ids[id] = struct{}{}

	slog.Debug("Vector: record added", "id", id, "dimensions", len(vector), "count", len(s.ids))
	return nil
}

// Search returns the nearest records by cosine similarity.
// Scores are mapped from [-1, 1] to [0, 1], so a minScore of 0 keeps every record.
func (s *MemoryStore) Search(ctx context.Context, vector []float32, maxResults int, minScore float32) ([]Match, error) {
	if len(vector) == 0 {
		return nil, ErrEmptyVector
	}
	if maxResults <= 0 {
		return nil, nil
	}

	// chromem rejects nResults above the collection size. The collection only grows,
	// so a count taken here stays valid for the query below.
	n := min(maxResults, s.coll.Count())
	if n == 0 {
		return nil, nil
	}

	query := append([]float32(nil), vector...)
	results, err := s.coll.QueryEmbedding(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding index: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		score := relevance(r.Similarity)
		if score < minScore {
			continue
		}
		matches = append(matches, Match{
			ID:      r.ID,
			Payload: r.Content,
			Score:   score,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches, nil
}

// Count returns the number of indexed records.
func (s *MemoryStore) Count() int {
	return s.coll.Count()
}

func relevance(cosine float32) float32 {
	score := (cosine + 1) / 2
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}
