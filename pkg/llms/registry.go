package llms

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/httpclient"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/observability"
)

// Registry holds the configured generators in preference order and routes
// around ones that have failed permanently. A 401/403 from a provider marks
// it disabled for the rest of the process lifetime; transient failures fall
// through to the next generator for this call only.
type Registry struct {
	mu         sync.RWMutex
	generators []Generator
	disabled   map[string]bool
}

// NewRegistry creates a registry over the given generators.
func NewRegistry(generators ...Generator) *Registry {
	return &Registry{
		generators: generators,
		disabled:   make(map[string]bool),
	}
}

// Generate tries each enabled generator in order until one succeeds.
func (r *Registry) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	for _, gen := range r.generators {
		if r.isDisabled(gen.Name()) {
			continue
		}

		start := time.Now()
		resp, err := gen.Generate(ctx, req)
		if err == nil {
			observability.GetGlobalMetrics().RecordLLMCall(
				gen.Model(), time.Since(start), resp.PromptTokens, resp.CompletionTokens, nil)
			return resp, nil
		}
		observability.GetGlobalMetrics().RecordLLMCall(gen.Model(), time.Since(start), 0, 0, err)
		lastErr = err

		if httpclient.IsPermanentFailure(err) {
			r.disable(gen.Name())
			slog.Warn("Generator disabled after permanent failure",
				"generator", gen.Name(), "model", gen.Model(), "error", err)
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("Generator failed, trying next",
			"generator", gen.Name(), "error", err)
	}

	if lastErr == nil {
		return nil, fmt.Errorf("no generators available")
	}
	return nil, fmt.Errorf("all generators failed: %w", lastErr)
}

func (r *Registry) isDisabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.disabled[name]
}

func (r *Registry) disable(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disabled[name] = true
}

// Available reports whether at least one generator is still enabled.
func (r *Registry) Available() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, gen := range r.generators {
		if !r.disabled[gen.Name()] {
			return true
		}
	}
	return false
}

// Close closes all generators.
func (r *Registry) Close() error {
	var firstErr error
	for _, gen := range r.generators {
		if err := gen.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
