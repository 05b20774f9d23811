package embedder

import (
	"fmt"
	"log/slog"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/config"
)

// NewEmbedder creates one embedding backend from config. An unconfigured or
// unknown provider degrades to the deterministic fallback instead of failing;
// the engine must keep answering even without an embedding service.
func NewEmbedder(cfg config.EmbedderModelConfig, dimension int) Embedder {
	switch cfg.Provider {
	case "openai":
		e, err := NewOpenAIEmbedder(cfg, dimension)
		if err != nil {
			slog.Warn("OpenAI embedder unavailable, using hash fallback", "error", err)
			return NewFallbackEmbedder(dimension)
		}
		return e
	case "ollama":
		e, err := NewOllamaEmbedder(cfg, dimension)
		if err != nil {
			slog.Warn("Ollama embedder unavailable, using hash fallback", "error", err)
			return NewFallbackEmbedder(dimension)
		}
		return e
	case "fallback", "":
		return NewFallbackEmbedder(dimension)
	default:
		slog.Warn("Unknown embedder provider, using hash fallback", "provider", cfg.Provider)
		return NewFallbackEmbedder(dimension)
	}
}

// NewRouterFromConfig builds the cached fast/deep router.
func NewRouterFromConfig(cfg config.EmbeddingConfig, cacheBudget int) (*Router, error) {
	fast, err := NewCachedEmbedder(NewEmbedder(cfg.Fast, cfg.Dimension), cacheBudget)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}

	if cfg.Deep == cfg.Fast {
		return NewRouter(fast, fast), nil
	}
	deep, err := NewCachedEmbedder(NewEmbedder(cfg.Deep, cfg.Dimension), cacheBudget)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return NewRouter(fast, deep), nil
}
