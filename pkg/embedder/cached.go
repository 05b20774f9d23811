package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/observability"
)

// CachedEmbedder wraps an Embedder with a process-wide LRU cache keyed by
// (model, content) hash. Read-mostly after warm-up; the LRU handles its own
// locking.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedEmbedder creates a cache of the given entry budget around inner.
func NewCachedEmbedder(inner Embedder, budget int) (*CachedEmbedder, error) {
	if budget <= 0 {
		budget = 4096
	}
	cache, err := lru.New[string, []float32](budget)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

func (e *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte("embed\x00" + e.inner.Model() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// Embed returns a cached vector or delegates to the inner embedder.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := e.key(text)
	if vec, ok := e.cache.Get(key); ok {
		e.hits.Add(1)
		observability.GetGlobalMetrics().RecordCacheLookup("embedding", true)
		return vec, nil
	}
	e.misses.Add(1)
	observability.GetGlobalMetrics().RecordCacheLookup("embedding", false)

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(key, vec)
	return vec, nil
}

// EmbedBatch embeds only the cache misses and reassembles the batch.
func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if vec, ok := e.cache.Get(e.key(text)); ok {
			e.hits.Add(1)
			observability.GetGlobalMetrics().RecordCacheLookup("embedding", true)
			out[i] = vec
			continue
		}
		e.misses.Add(1)
		observability.GetGlobalMetrics().RecordCacheLookup("embedding", false)
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		vectors, err := e.inner.EmbedBatch(ctx, missing)
		if err != nil {
			return nil, err
		}
		for j, vec := range vectors {
			idx := missingIdx[j]
			out[idx] = vec
			e.cache.Add(e.key(texts[idx]), vec)
		}
	}
	return out, nil
}

// Stats returns cache hit and miss counts.
func (e *CachedEmbedder) Stats() (hits, misses int64) {
	return e.hits.Load(), e.misses.Load()
}

// Dimension returns the inner dimension.
func (e *CachedEmbedder) Dimension() int {
	return e.inner.Dimension()
}

// Model returns the inner model name.
func (e *CachedEmbedder) Model() string {
	return e.inner.Model()
}

// Close closes the inner embedder.
func (e *CachedEmbedder) Close() error {
	return e.inner.Close()
}

// Ensure CachedEmbedder implements Embedder.
var _ Embedder = (*CachedEmbedder)(nil)
