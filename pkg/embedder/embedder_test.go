package embedder

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/observability"
)

func TestFallbackDeterministic(t *testing.T) {
	e := NewFallbackEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "section 12 of the rte act")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "section 12 of the rte act")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := e.Embed(ctx, "different text")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestFallbackUnitNorm(t *testing.T) {
	e := NewFallbackEmbedder(64)
	vec, err := e.Embed(context.Background(), "teacher transfer counselling")
	require.NoError(t, err)
	require.Len(t, vec, 64)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestFallbackDefaultDimension(t *testing.T) {
	e := NewFallbackEmbedder(0)
	assert.Equal(t, 768, e.Dimension())
	assert.Equal(t, "hash-fallback", e.Model())
}

func TestFallbackEmbedBatch(t *testing.T) {
	e := NewFallbackEmbedder(32)
	vectors, err := e.EmbedBatch(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	single, err := e.Embed(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, single, vectors[0])
}

// countingEmbedder tracks how often the inner embedder is actually called.
type countingEmbedder struct {
	*FallbackEmbedder
	calls int
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	return e.FallbackEmbedder.Embed(ctx, text)
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls += len(texts)
	return e.FallbackEmbedder.EmbedBatch(ctx, texts)
}

func TestCachedEmbedderHitsAndMisses(t *testing.T) {
	inner := &countingEmbedder{FallbackEmbedder: NewFallbackEmbedder(32)}
	cached, err := NewCachedEmbedder(inner, 16)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := cached.Embed(ctx, "query")
	require.NoError(t, err)
	second, err := cached.Embed(ctx, "query")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)

	hits, misses := cached.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestCachedEmbedderBatchPartialHit(t *testing.T) {
	inner := &countingEmbedder{FallbackEmbedder: NewFallbackEmbedder(32)}
	cached, err := NewCachedEmbedder(inner, 16)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = cached.Embed(ctx, "warm")
	require.NoError(t, err)
	inner.calls = 0

	vectors, err := cached.EmbedBatch(ctx, []string{"warm", "cold"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedEmbedderEviction(t *testing.T) {
	inner := &countingEmbedder{FallbackEmbedder: NewFallbackEmbedder(32)}
	cached, err := NewCachedEmbedder(inner, 1)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = cached.Embed(ctx, "a")
	require.NoError(t, err)
	_, err = cached.Embed(ctx, "b")
	require.NoError(t, err)
	_, err = cached.Embed(ctx, "a")
	require.NoError(t, err)

	assert.Equal(t, 3, inner.calls)
}

func TestRouterSelect(t *testing.T) {
	fast := NewFallbackEmbedder(32)
	deep := NewFallbackEmbedder(64)
	r := NewRouter(fast, deep)

	assert.Equal(t, 32, r.Select(ModelFast).Dimension())
	assert.Equal(t, 64, r.Select(ModelDeep).Dimension())
	assert.Equal(t, 32, r.Select("unknown").Dimension())
}

func TestRouterDeepDefaultsToFast(t *testing.T) {
	fast := NewFallbackEmbedder(32)
	r := NewRouter(fast, nil)
	assert.Equal(t, 32, r.Select(ModelDeep).Dimension())
}

func TestRouterCacheStats(t *testing.T) {
	fast, err := NewCachedEmbedder(NewFallbackEmbedder(32), 16)
	require.NoError(t, err)
	r := NewRouter(fast, fast)
	ctx := context.Background()

	_, err = r.Select(ModelFast).Embed(ctx, "q")
	require.NoError(t, err)
	_, err = r.Select(ModelDeep).Embed(ctx, "q")
	require.NoError(t, err)

	hits, misses := r.CacheStats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

// recordingMetrics captures cache lookup recordings from the global sink.
type recordingMetrics struct {
	observability.NoopMetrics
	mu      sync.Mutex
	lookups map[string]int
}

func (m *recordingMetrics) RecordCacheLookup(cache string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.lookups[cache+":"+outcome]++
}

func TestCachedEmbedderRecordsCacheLookups(t *testing.T) {
	rec := &recordingMetrics{lookups: make(map[string]int)}
	observability.SetGlobalMetrics(rec)
	t.Cleanup(func() { observability.SetGlobalMetrics(observability.NoopMetrics{}) })

	cached, err := NewCachedEmbedder(NewFallbackEmbedder(32), 16)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = cached.Embed(ctx, "q")
	require.NoError(t, err)
	_, err = cached.Embed(ctx, "q")
	require.NoError(t, err)

	assert.Equal(t, 1, rec.lookups["embedding:miss"])
	assert.Equal(t, 1, rec.lookups["embedding:hit"])

	_, err = cached.EmbedBatch(ctx, []string{"q", "fresh"})
	require.NoError(t, err)
	assert.Equal(t, 2, rec.lookups["embedding:miss"])
	assert.Equal(t, 2, rec.lookups["embedding:hit"])
}

type failingEmbedder struct {
	FallbackEmbedder
}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("provider down")
}

func TestCachedEmbedderPropagatesErrors(t *testing.T) {
	cached, err := NewCachedEmbedder(&failingEmbedder{}, 16)
	require.NoError(t, err)

	_, err = cached.Embed(context.Background(), "q")
	assert.Error(t, err)

	_, misses := cached.Stats()
	assert.Equal(t, int64(1), misses)
}
