package llms

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/cache"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/observability"
)

// Synthesizer is the narrow generation surface the pipeline consumes.
type Synthesizer interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// CachedSynthesizer wraps a Synthesizer with the content-addressed file
// cache. Only deterministic-enough calls are cached: requests with
// temperature above the threshold bypass the cache entirely.
type CachedSynthesizer struct {
	inner   Synthesizer
	store   *cache.FileCache
	model   string
	maxTemp float64
}

// NewCachedSynthesizer wraps inner with the given file cache. model labels
// the cache keys; calls hotter than maxTemp are not cached.
func NewCachedSynthesizer(inner Synthesizer, store *cache.FileCache, model string, maxTemp float64) *CachedSynthesizer {
	return &CachedSynthesizer{inner: inner, store: store, model: model, maxTemp: maxTemp}
}

// Generate serves from cache when possible, generating and storing on miss.
func (s *CachedSynthesizer) Generate(ctx context.Context, req Request) (*Response, error) {
	if s.store == nil || req.Temperature > s.maxTemp {
		return s.inner.Generate(ctx, req)
	}

	content := fmt.Sprintf("%s\x00%s\x00%.3f\x00%d", req.System, req.Prompt, req.Temperature, req.MaxTokens)
	key := cache.Key(req.TaskType, s.model, content)

	if raw, ok := s.store.Get(key); ok {
		var resp Response
		if err := json.Unmarshal([]byte(raw), &resp); err == nil {
			observability.GetGlobalMetrics().RecordCacheLookup("llm", true)
			resp.Cached = true
			return &resp, nil
		}
	}
	observability.GetGlobalMetrics().RecordCacheLookup("llm", false)

	resp, err := s.inner.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(resp); err == nil {
		if err := s.store.Put(key, req.TaskType, s.model, string(raw)); err != nil {
			slog.Warn("Failed to store generation in cache", "error", err)
		}
	}
	return resp, nil
}

// Ensure implementations satisfy Synthesizer.
var (
	_ Synthesizer = (*CachedSynthesizer)(nil)
	_ Synthesizer = (*Registry)(nil)
)
