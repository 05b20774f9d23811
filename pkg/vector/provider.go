// Package vector abstracts the vector store consumed by the retrieval
// pipeline.
//
// The pipeline is read-only: it calls Search and Scroll. Upsert and the
// collection operations exist for seeding embedded stores and tests; the
// ingestion pipeline that populates production collections is a separate
// system.
package vector

import (
	"context"
	"errors"
)

// Result is a single search hit returned by a provider.
type Result struct {
	// ID is the chunk identifier, stable across retrievals.
	ID string

	// Content is the chunk body (extracted from the "content" payload field).
	Content string

	// Score is the store-reported similarity, higher is better.
	Score float32

	// Vector is the stored embedding when the store returns it.
	Vector []float32

	// Metadata is the open payload map (string -> scalar or list).
	Metadata map[string]any
}

// FieldMatch matches a payload field against any of the listed values.
type FieldMatch struct {
	Field  string
	Values []string
}

// Clause is satisfied when at least one of its field matches holds.
// Multi-field logical filters (e.g. sections OR mentioned_sections) map to
// one clause with several field matches.
type Clause struct {
	Any []FieldMatch
}

// Filter is a conjunction of clauses.
type Filter struct {
	All []Clause
}

// Empty reports whether the filter restricts nothing.
func (f *Filter) Empty() bool {
	return f == nil || len(f.All) == 0
}

// ErrScrollUnsupported is returned by providers that cannot enumerate a
// collection (e.g. chromem). Callers degrade instead of failing.
var ErrScrollUnsupported = errors.New("scroll is not supported by this provider")

// Provider is the vector store contract. Implementations must be safe for
// concurrent use.
type Provider interface {
	// Name returns the provider name for logs and traces.
	Name() string

	// Search finds the topK most similar vectors in a collection.
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]Result, error)

	// SearchWithFilter combines similarity search with payload filtering and
	// an optional score threshold (0 disables the threshold).
	SearchWithFilter(ctx context.Context, collection string, vector []float32, topK int, filter *Filter, scoreThreshold float32) ([]Result, error)

	// Scroll enumerates a collection page by page. offset is the opaque
	// continuation token from the previous call ("" starts from the
	// beginning); the returned token is "" when the collection is exhausted.
	Scroll(ctx context.Context, collection string, limit int, offset string) ([]Result, string, error)

	// Upsert adds or updates a point. Used for seeding embedded stores.
	Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error

	// CreateCollection ensures a collection exists with the given dimension.
	CreateCollection(ctx context.Context, collection string, vectorDimension int) error

	// Close releases client resources.
	Close() error
}
