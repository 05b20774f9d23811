package vector

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMemory(t *testing.T, p *MemoryProvider, collection string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, p.CreateCollection(ctx, collection, 2))

	points := []struct {
		id     string
		vector []float32
		meta   map[string]any
	}{
		{"a", []float32{1, 0}, map[string]any{"content": "exact match", "year": "2019"}},
		{"b", []float32{0.9, 0.1}, map[string]any{"content": "close match", "year": "2021"}},
		{"c", []float32{0, 1}, map[string]any{"content": "orthogonal", "year": "2019"}},
	}
	for _, pt := range points {
		require.NoError(t, p.Upsert(ctx, collection, pt.id, pt.vector, pt.meta))
	}
}

func TestMemorySearchOrdering(t *testing.T) {
	p := NewMemoryProvider()
	seedMemory(t, p, "docs")

	results, err := p.Search(context.Background(), "docs", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "b", results[1].ID)
	assert.Equal(t, "c", results[2].ID)
	assert.Equal(t, "exact match", results[0].Content)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-6)
}

func TestMemorySearchTopK(t *testing.T) {
	p := NewMemoryProvider()
	seedMemory(t, p, "docs")

	results, err := p.Search(context.Background(), "docs", []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
}

func TestMemorySearchWithFilter(t *testing.T) {
	p := NewMemoryProvider()
	seedMemory(t, p, "docs")

	filter := &Filter{All: []Clause{{Any: []FieldMatch{{Field: "year", Values: []string{"2019"}}}}}}
	results, err := p.SearchWithFilter(context.Background(), "docs", []float32{1, 0}, 10, filter, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "c", results[1].ID)
}

func TestMemorySearchScoreThreshold(t *testing.T) {
	p := NewMemoryProvider()
	seedMemory(t, p, "docs")

	results, err := p.SearchWithFilter(context.Background(), "docs", []float32{1, 0}, 10, nil, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, float32(0.5))
	}
}

func TestMemorySearchTieBreaksByID(t *testing.T) {
	p := NewMemoryProvider()
	ctx := context.Background()
	// Identical vectors produce identical scores; order must still be stable.
	for _, id := range []string{"z", "m", "a"} {
		require.NoError(t, p.Upsert(ctx, "ties", id, []float32{1, 0}, map[string]any{"content": id}))
	}

	results, err := p.Search(ctx, "ties", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "m", results[1].ID)
	assert.Equal(t, "z", results[2].ID)
}

func TestMemorySearchUnknownCollection(t *testing.T) {
	p := NewMemoryProvider()
	results, err := p.Search(context.Background(), "missing", []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryScrollPaginates(t *testing.T) {
	p := NewMemoryProvider()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("doc-%d", i)
		require.NoError(t, p.Upsert(ctx, "scroll", id, []float32{1, 0}, map[string]any{"content": id}))
	}

	seen := make([]string, 0, 5)
	offset := ""
	for {
		page, next, err := p.Scroll(ctx, "scroll", 2, offset)
		require.NoError(t, err)
		for _, r := range page {
			seen = append(seen, r.ID)
		}
		if next == "" {
			break
		}
		offset = next
	}

	assert.Equal(t, []string{"doc-0", "doc-1", "doc-2", "doc-3", "doc-4"}, seen)
}

func TestMemoryUpsertOverwrites(t *testing.T) {
	p := NewMemoryProvider()
	ctx := context.Background()
	require.NoError(t, p.Upsert(ctx, "docs", "a", []float32{1, 0}, map[string]any{"content": "old"}))
	require.NoError(t, p.Upsert(ctx, "docs", "a", []float32{1, 0}, map[string]any{"content": "new"}))

	results, err := p.Search(ctx, "docs", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].Content)
}
