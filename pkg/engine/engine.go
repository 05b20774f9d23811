// Package engine assembles the retrieval pipeline into one service
// container: planner, retriever, rerankers, coverage, supersession, and the
// answer composer, constructed once at process start.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/answer"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/config"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/embedder"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/internet"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/llms"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/observability"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/planner"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/rerank"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/retrieval"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/supersede"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/vector"
	"go.opentelemetry.io/otel/trace"
)

// ErrBadRequest marks caller input errors; the transport layer maps it to a
// 400 response.
var ErrBadRequest = errors.New("bad request")

// Engine is the process-wide service container.
type Engine struct {
	cfg *config.Config

	store  vector.Provider
	embeds *embedder.Router
	synth  llms.Synthesizer

	planner    *planner.Planner
	retriever  *retrieval.Retriever
	policy     *rerank.PolicyReranker
	brainstorm *rerank.BrainstormReranker
	coverage   *rerank.CoverageEnforcer
	booster    *rerank.Booster
	superseder *supersede.Manager
	composer   *answer.Composer

	tracer trace.Tracer
}

// New builds the engine from configuration. Optional backends (LLM, web
// search) degrade to nil; everything else must construct.
func New(cfg *config.Config) (*Engine, error) {
	store, err := vector.NewProvider(cfg.VectorStore)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	embeds, err := embedder.NewRouterFromConfig(cfg.Embedding, cfg.Cache.EmbeddingBudget)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedders: %w", err)
	}

	synth := llms.NewSynthesizerFromConfig(cfg.LLM, cfg.Cache)
	if synth == nil {
		slog.Warn("No LLM configured, answers will degrade to source listings")
	}

	var web internet.Searcher
	if client := internet.NewClient(cfg.Internet); client != nil {
		web = client
	}
	return NewWithBackends(cfg, store, embeds, synth, web), nil
}

// NewWithBackends assembles the engine over caller-provided backends. Tests
// use it to inject a seeded store and a scripted LLM.
func NewWithBackends(cfg *config.Config, store vector.Provider, embeds *embedder.Router, synth llms.Synthesizer, web internet.Searcher) *Engine {
	goCollection := cfg.VectorStore.CollectionPrefix + string(planner.VerticalGO)

	return &Engine{
		cfg:        cfg,
		store:      store,
		embeds:     embeds,
		synth:      synth,
		planner:    planner.New(cfg),
		retriever:  retrieval.New(store, embeds, web, cfg),
		policy:     rerank.NewPolicyReranker(synth, cfg.Features.LLMRerank),
		brainstorm: rerank.NewBrainstormReranker(),
		coverage:   rerank.NewCoverageEnforcer(cfg.Retrieval),
		booster:    rerank.NewBooster(cfg.Boost),
		superseder: supersede.NewManager(store, goCollection, cfg.Supersession),
		composer:   answer.New(synth, cfg.LLM.MaxTokens),
		tracer:     observability.GetTracer("policyengine"),
	}
}

// Warm eagerly builds the process-wide caches: the supersession graph and
// one embedding per model class so later queries skip cold-start latency.
func (e *Engine) Warm(ctx context.Context) error {
	stats := e.superseder.Stats(ctx)
	slog.Info("Supersession graph built",
		"go_numbers", stats.GONumbers,
		"arcs", stats.Arcs,
		"unresolved", stats.Unresolved,
		"cycles_broken", stats.CyclesBroken,
		"scan_available", stats.ScanAvailable)

	for _, class := range []embedder.ModelClass{embedder.ModelFast, embedder.ModelDeep} {
		if _, err := e.embeds.Select(class).Embed(ctx, "education policy"); err != nil {
			return fmt.Errorf("failed to warm %s embedder: %w", class, err)
		}
	}
	return nil
}

// Close releases the engine's backends.
func (e *Engine) Close() error {
	var firstErr error
	if err := e.embeds.Close(); err != nil {
		firstErr = err
	}
	if err := e.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
