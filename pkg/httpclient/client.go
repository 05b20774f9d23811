// Package httpclient provides a retrying HTTP client shared by the embedder,
// LLM, and internet-search providers.
package httpclient

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"
)

// RetryStrategy classifies how a response status should be retried.
type RetryStrategy int

const (
	// NoRetry means the response is final.
	NoRetry RetryStrategy = iota
	// ConservativeRetry uses plain exponential backoff.
	ConservativeRetry
	// SmartRetry honors Retry-After and rate-limit headers when present.
	SmartRetry
)

// RetryStrategyFunc decides the retry strategy for a status code.
type RetryStrategyFunc func(statusCode int) RetryStrategy

// Client wraps http.Client with bounded retries.
type Client struct {
	client       *http.Client
	maxRetries   int
	baseDelay    time.Duration
	maxDelay     time.Duration
	strategyFunc RetryStrategyFunc
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.client = client }
}

// WithMaxRetries sets the retry budget.
func WithMaxRetries(max int) Option {
	return func(c *Client) { c.maxRetries = max }
}

// WithBaseDelay sets the first backoff delay.
func WithBaseDelay(delay time.Duration) Option {
	return func(c *Client) { c.baseDelay = delay }
}

// WithRetryStrategy overrides the status-code classification.
func WithRetryStrategy(strategyFunc RetryStrategyFunc) Option {
	return func(c *Client) { c.strategyFunc = strategyFunc }
}

// New creates a retrying client. Defaults: 60s request timeout, 2 retries,
// 1s base delay.
func New(opts ...Option) *Client {
	client := &Client{
		client:       &http.Client{Timeout: 60 * time.Second},
		maxRetries:   2,
		baseDelay:    time.Second,
		maxDelay:     30 * time.Second,
		strategyFunc: DefaultRetryStrategy,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// DefaultRetryStrategy retries rate limits and transient server errors only.
func DefaultRetryStrategy(statusCode int) RetryStrategy {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusServiceUnavailable:
		return SmartRetry
	case http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusGatewayTimeout:
		return ConservativeRetry
	default:
		return NoRetry
	}
}

// Do executes the request, retrying per the configured strategy. The request
// must have GetBody set when it carries a body, so retries can replay it.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var lastStatus int
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("failed to recreate request body for retry: %w", err)
			}
			req.Body = body
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if attempt >= c.maxRetries {
				return nil, err
			}
			c.sleep(req, c.delay(ConservativeRetry, attempt, 0))
			continue
		}

		strategy := c.strategyFunc(resp.StatusCode)
		if strategy == NoRetry || attempt >= c.maxRetries {
			return resp, nil
		}

		retryAfter := parseRetryAfter(resp.Header)
		lastStatus = resp.StatusCode
		resp.Body.Close()
		c.sleep(req, c.delay(strategy, attempt, retryAfter))
	}
	return nil, &StatusError{StatusCode: lastStatus, Message: "retry budget exhausted"}
}

func (c *Client) delay(strategy RetryStrategy, attempt int, retryAfter time.Duration) time.Duration {
	if strategy == SmartRetry && retryAfter > 0 {
		return retryAfter
	}
	d := time.Duration(float64(c.baseDelay) * math.Pow(2, float64(attempt)))
	if d > c.maxDelay {
		d = c.maxDelay
	}
	return d
}

// sleep waits for d or until the request context is cancelled.
func (c *Client) sleep(req *http.Request, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
	case <-timer.C:
	}
}

func parseRetryAfter(header http.Header) time.Duration {
	v := header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
