// Package internet provides the optional web-search pseudo-vertical, backed
// by any SearxNG-compatible JSON search endpoint.
package internet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/config"
)

// Result is one web hit.
type Result struct {
	Title   string
	URL     string
	Content string
	Score   float64
}

// Searcher is the web-search surface the retriever consumes.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Client queries a SearxNG-compatible endpoint.
type Client struct {
	http     *http.Client
	endpoint string
	maxHits  int
}

type searxResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// NewClient creates a web search client, or nil when disabled.
func NewClient(cfg config.InternetConfig) *Client {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil
	}
	timeout := 5 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	maxHits := cfg.MaxHits
	if maxHits <= 0 {
		maxHits = 5
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		endpoint: cfg.Endpoint,
		maxHits:  maxHits,
	}
}

// Search runs one query and returns at most max_hits results.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search endpoint returned HTTP %d", resp.StatusCode)
	}

	var parsed searxResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	results := make([]Result, 0, c.maxHits)
	for _, r := range parsed.Results {
		if len(results) >= c.maxHits {
			break
		}
		if r.Title == "" && r.Content == "" {
			continue
		}
		results = append(results, Result{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
			Score:   r.Score,
		})
	}
	return results, nil
}

// Ensure Client implements Searcher.
var _ Searcher = (*Client)(nil)
