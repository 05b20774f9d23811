// Package embedder provides text embedding services for semantic search.
//
// The pipeline embeds each query exactly once; the resulting vector is
// shared by every vertical search.
package embedder

import (
	"context"
)

// Embedder produces vector embeddings from text.
type Embedder interface {
	// Embed converts text to a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts to vector embeddings.
	// More efficient than calling Embed multiple times.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// Model returns the model name being used.
	Model() string

	// Close releases any resources held by the embedder.
	Close() error
}

// ModelClass selects between the fast and deep embedding models.
type ModelClass string

const (
	// ModelFast is the low-latency model used for QA queries.
	ModelFast ModelClass = "fast"
	// ModelDeep is the higher-quality model used for analysis modes.
	ModelDeep ModelClass = "deep"
)

// Router dispatches to the fast or deep embedder by model class.
type Router struct {
	fast Embedder
	deep Embedder
}

// NewRouter creates a router. deep may equal fast.
func NewRouter(fast, deep Embedder) *Router {
	if deep == nil {
		deep = fast
	}
	return &Router{fast: fast, deep: deep}
}

// Select returns the embedder for a model class. Unknown classes fall back
// to fast.
func (r *Router) Select(class ModelClass) Embedder {
	if class == ModelDeep {
		return r.deep
	}
	return r.fast
}

// CacheStats sums the hit and miss counters of the cached embedders, when
// caching is in place.
func (r *Router) CacheStats() (hits, misses int64) {
	add := func(e Embedder) {
		if cached, ok := e.(*CachedEmbedder); ok {
			h, m := cached.Stats()
			hits += h
			misses += m
		}
	}
	add(r.fast)
	if r.deep != r.fast {
		add(r.deep)
	}
	return hits, misses
}

// Close closes both embedders.
func (r *Router) Close() error {
	err := r.fast.Close()
	if r.deep != r.fast {
		if derr := r.deep.Close(); err == nil {
			err = derr
		}
	}
	return err
}
