// Package testutils provides fakes and corpus seeding helpers shared by the
// engine tests.
package testutils

import (
	"context"
	"fmt"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/config"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/embedder"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/llms"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/vector"
)

// Chunk is one seedable corpus document.
type Chunk struct {
	ID       string
	Vertical string
	Content  string
	Metadata map[string]any
}

// Config returns a test configuration on the in-memory store with the
// deterministic fallback embedder and hybrid features enabled.
func Config() *config.Config {
	cfg := config.Default()
	cfg.VectorStore.Type = "memory"
	cfg.Embedding.Dimension = 64
	cfg.Features.HybridSearch = true
	cfg.Features.DynamicTopK = true
	return cfg
}

// Seed upserts chunks into per-vertical collections, embedding the content
// with the given embedder.
func Seed(ctx context.Context, store vector.Provider, emb embedder.Embedder, prefix string, chunks []Chunk) error {
	for _, chunk := range chunks {
		vec, err := emb.Embed(ctx, chunk.Content)
		if err != nil {
			return fmt.Errorf("failed to embed chunk %s: %w", chunk.ID, err)
		}
		metadata := map[string]any{
			"content":  chunk.Content,
			"vertical": chunk.Vertical,
		}
		for k, v := range chunk.Metadata {
			metadata[k] = v
		}
		collection := prefix + chunk.Vertical
		if err := store.Upsert(ctx, collection, chunk.ID, vec, metadata); err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", chunk.ID, err)
		}
	}
	return nil
}

// ScriptedLLM replies with canned text, recording the prompts it saw.
type ScriptedLLM struct {
	Reply   string
	Err     error
	Prompts []string
}

// Generate returns the scripted reply.
func (s *ScriptedLLM) Generate(_ context.Context, req llms.Request) (*llms.Response, error) {
	s.Prompts = append(s.Prompts, req.Prompt)
	if s.Err != nil {
		return nil, s.Err
	}
	return &llms.Response{Text: s.Reply, Model: "scripted"}, nil
}

// Ensure ScriptedLLM implements Synthesizer.
var _ llms.Synthesizer = (*ScriptedLLM)(nil)
