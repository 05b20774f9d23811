package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/config"
)

// OllamaGenerator calls a local Ollama server for text generation.
type OllamaGenerator struct {
	client  *http.Client
	baseURL string
	model   string
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	System  string         `json:"system,omitempty"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response        string `json:"response"`
	Model           string `json:"model"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// NewOllamaGenerator creates an Ollama generator from config.
func NewOllamaGenerator(cfg config.LLMConfig) (*OllamaGenerator, error) {
	model := cfg.Model
	if model == "" {
		model = "llama3.2"
	}
	baseURL := cfg.Host
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	timeout := 120 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	return &OllamaGenerator{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		model:   model,
	}, nil
}

// Name identifies the provider.
func (g *OllamaGenerator) Name() string { return "ollama" }

// Model returns the configured model.
func (g *OllamaGenerator) Model() string { return g.model }

// Generate runs one non-streaming completion.
func (g *OllamaGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	options := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	reqBody, err := json.Marshal(ollamaGenerateRequest{
		Model:   g.model,
		System:  req.System,
		Prompt:  req.Prompt,
		Stream:  false,
		Options: options,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	var genResp ollamaGenerateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	model := genResp.Model
	if model == "" {
		model = g.model
	}
	return &Response{
		Text:             genResp.Response,
		Model:            model,
		PromptTokens:     genResp.PromptEvalCount,
		CompletionTokens: genResp.EvalCount,
	}, nil
}

// Close is a no-op.
func (g *OllamaGenerator) Close() error { return nil }

// Ensure OllamaGenerator implements Generator.
var _ Generator = (*OllamaGenerator)(nil)
