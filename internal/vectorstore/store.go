// Package vectorstore defines the vector-store operations the pipeline
// consumes. Collection existence is assumed; no schema migration is owned
// here.
package vectorstore

import (
	"context"

	"customgpt/internal/models"
)

// Point is one (id, vector, payload) record.
type Point struct {
	ID      uint64
	Vector  []float32
	Payload models.Payload
}

// Hit is one similarity-search result, in store order (score-descending).
type Hit struct {
	Score   float64
	Payload models.Payload
}

// Store is the external vector index.
type Store interface {
	// Count returns the number of points currently in the collection.
	Count(ctx context.Context, collection string) (int, error)
	// Search returns at most limit hits with score >= threshold.
	Search(ctx context.Context, collection string, vector []float32, scoreThreshold float64, limit int) ([]Hit, error)
	Upsert(ctx context.Context, collection string, points []Point) error
	ListCollections(ctx context.Context) ([]string, error)
}
