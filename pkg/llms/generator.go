package llms

import "context"

// Request is a single text-generation call.
type Request struct {
	// TaskType labels the call for caching and metrics ("compose", "rerank", ...).
	TaskType    string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Response carries the generated text and token accounting when the provider
// reports it.
type Response struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Cached           bool
}

// Generator produces text from a prompt. Implementations must be safe for
// concurrent use.
type Generator interface {
	Name() string
	Model() string
	Generate(ctx context.Context, req Request) (*Response, error)
	Close() error
}
