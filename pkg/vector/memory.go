package vector

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryProvider is an in-process Provider used by unit tests and as a last
// resort when no store is configured. Cosine similarity, full filter and
// scroll support, no persistence.
type MemoryProvider struct {
	mu          sync.RWMutex
	collections map[string]map[string]memoryPoint
}

type memoryPoint struct {
	id       string
	vector   []float32
	metadata map[string]any
}

// NewMemoryProvider creates an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{collections: make(map[string]map[string]memoryPoint)}
}

// Name returns the provider name.
func (p *MemoryProvider) Name() string {
	return "memory"
}

// Search finds the topK most similar vectors.
func (p *MemoryProvider) Search(ctx context.Context, collection string, vector []float32, topK int) ([]Result, error) {
	return p.SearchWithFilter(ctx, collection, vector, topK, nil, 0)
}

// SearchWithFilter combines similarity search with filtering.
func (p *MemoryProvider) SearchWithFilter(ctx context.Context, collection string, vector []float32, topK int, filter *Filter, scoreThreshold float32) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	points := p.collections[collection]
	candidates := make([]Result, 0, len(points))
	for _, pt := range points {
		if !MatchesFilter(pt.metadata, filter) {
			continue
		}
		score := cosine(vector, pt.vector)
		if scoreThreshold > 0 && score < scoreThreshold {
			continue
		}
		candidates = append(candidates, Result{
			ID:       pt.id,
			Content:  contentFromMetadata(pt.metadata),
			Score:    score,
			Vector:   pt.vector,
			Metadata: pt.metadata,
		})
	}
	p.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})
	if topK >= 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

// Scroll enumerates the collection in stable ID order.
func (p *MemoryProvider) Scroll(ctx context.Context, collection string, limit int, offset string) ([]Result, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	p.mu.RLock()
	points := p.collections[collection]
	ids := make([]string, 0, len(points))
	for id := range points {
		ids = append(ids, id)
	}
	p.mu.RUnlock()
	sort.Strings(ids)

	start := 0
	if offset != "" {
		start = sort.SearchStrings(ids, offset)
		if start < len(ids) && ids[start] == offset {
			start++
		}
	}

	end := start + limit
	if end > len(ids) {
		end = len(ids)
	}

	p.mu.RLock()
	results := make([]Result, 0, end-start)
	for _, id := range ids[start:end] {
		pt := points[id]
		results = append(results, Result{
			ID:       pt.id,
			Content:  contentFromMetadata(pt.metadata),
			Vector:   pt.vector,
			Metadata: pt.metadata,
		})
	}
	p.mu.RUnlock()

	next := ""
	if end < len(ids) && end > start {
		next = ids[end-1]
	}
	return results, next, nil
}

// Upsert adds or updates a point.
func (p *MemoryProvider) Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.collections[collection] == nil {
		p.collections[collection] = make(map[string]memoryPoint)
	}
	p.collections[collection][id] = memoryPoint{id: id, vector: vector, metadata: metadata}
	return nil
}

// CreateCollection ensures the collection map exists.
func (p *MemoryProvider) CreateCollection(ctx context.Context, collection string, vectorDimension int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.collections[collection] == nil {
		p.collections[collection] = make(map[string]memoryPoint)
	}
	return nil
}

// Close is a no-op.
func (p *MemoryProvider) Close() error {
	return nil
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// Ensure MemoryProvider implements Provider.
var _ Provider = (*MemoryProvider)(nil)
