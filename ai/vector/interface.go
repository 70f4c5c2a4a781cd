// Package vector provides the embedding index used for ticket retrieval.
package vector

import (
	"context"
	"errors"
)

var (
	// ErrDuplicateID is returned when a record id is already indexed.
	ErrDuplicateID = errors.New("vector: duplicate record id")
	// ErrEmptyVector is returned when a record or query carries no vector.
	ErrEmptyVector = errors.New("vector: empty vector")
)

// Store is an append-only nearest-neighbor index.
// Implementations must be safe for concurrent Add and Search.
type Store interface {
	// Add indexes a record. Records are never updated or removed.
	Add(ctx context.Context, id string, vector []float32, payload string) error

	// Search returns up to maxResults records scoring at least minScore,
	// ordered by descending score.
	Search(ctx context.Context, vector []float32, maxResults int, minScore float32) ([]Match, error)

	// Count returns the number of indexed records.
	Count() int
}

// Match is a search hit. Score is a relevance in [0, 1], higher is closer.
type Match struct {
	ID      string  `json:"id"`
	Payload string  `json:"payload"`
	Score   float32 `json:"score"`
}
