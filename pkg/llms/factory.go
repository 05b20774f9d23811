package llms

import (
	"log/slog"
	"time"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/cache"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/config"
)

// NewSynthesizerFromConfig builds the generation stack: provider generators
// in a failover registry, wrapped in the file-backed response cache. Returns
// nil when no provider is configured; the pipeline then falls back to
// extractive answers.
func NewSynthesizerFromConfig(llmCfg config.LLMConfig, cacheCfg config.CacheConfig) Synthesizer {
	var generators []Generator

	switch llmCfg.Provider {
	case "openai":
		gen, err := NewOpenAIGenerator(llmCfg)
		if err != nil {
			slog.Warn("OpenAI generator unavailable", "error", err)
		} else {
			generators = append(generators, gen)
		}
	case "ollama":
		gen, err := NewOllamaGenerator(llmCfg)
		if err != nil {
			slog.Warn("Ollama generator unavailable", "error", err)
		} else {
			generators = append(generators, gen)
		}
	case "":
		// No generation backend configured.
	default:
		slog.Warn("Unknown LLM provider", "provider", llmCfg.Provider)
	}

	if len(generators) == 0 {
		return nil
	}

	var synth Synthesizer = NewRegistry(generators...)

	ttl := time.Duration(cacheCfg.LLMTTL) * time.Hour
	store, err := cache.NewFileCache(cacheCfg.LLMDir, ttl)
	if err != nil {
		slog.Warn("LLM response cache unavailable", "error", err)
		return synth
	}
	// Only near-deterministic calls are worth caching.
	return NewCachedSynthesizer(synth, store, llmCfg.Model, 0.2)
}
