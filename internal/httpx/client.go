// Package httpx is the retrying HTTP client shared by the ontology loader
// and the external assessment services.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig configures retry behavior for outbound calls.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts (0 = no retries)
	RetryDelay time.Duration // Initial delay between retries
	MaxDelay   time.Duration // Maximum delay between retries
	Timeout    time.Duration // Per-request timeout
	MaxBody    int64         // Largest response body read, in bytes
}

// DefaultRetryConfig returns a sensible default configuration.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Timeout:    30 * time.Second,
		MaxBody:    64 << 20,
	}
}

// ErrBodyTooLarge is returned when a response body exceeds MaxBody.
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Response is a fully read HTTP response.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client performs requests with per-attempt timeouts and exponential
// backoff between retryable failures.
type Client struct {
	http      *http.Client
	config    *RetryConfig
	userAgent string
}

// NewClient creates a client. A nil config uses DefaultRetryConfig.
func NewClient(config *RetryConfig, userAgent string) *Client {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &Client{
		http: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects (max 10)")
				}
				return nil
			},
		},
		config:    config,
		userAgent: userAgent,
	}
}

// Get fetches url with the given Accept header.
func (c *Client) Get(ctx context.Context, url, accept string) (*Response, error) {
	return c.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		if accept != "" {
			req.Header.Set("Accept", accept)
		}
		return req, nil
	})
}

// PostJSON posts payload encoded as JSON to url.
func (c *Client) PostJSON(ctx context.Context, url string, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return c.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
}

// Do runs the request built by build until it succeeds, fails with a
// non-retryable error, or retries are exhausted. build is called once per
// attempt so request bodies can be replayed.
func (c *Client) Do(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*Response, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.config.RetryDelay
	eb.MaxInterval = c.config.MaxDelay

	attempt := func() (*Response, error) {
		attemptCtx := ctx
		if c.config.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, c.config.Timeout)
			defer cancel()
		}
		req, err := build(attemptCtx)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		resp, err := c.do(req)
		if err != nil {
			if !isRetryable(ctx, err) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return resp, nil
	}

	resp, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(c.config.MaxRetries+1)),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	limit := c.config.MaxBody
	if limit <= 0 {
		limit = DefaultRetryConfig().MaxBody
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.URL, err)
	}
	tooLarge := int64(len(body)) > limit
	if tooLarge {
		body = body[:limit]
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := body
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return nil, &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode, Body: string(snippet)}
	}
	if tooLarge {
		return nil, fmt.Errorf("read %s: %w (limit %d bytes)", req.URL, ErrBodyTooLarge, limit)
	}
	return &Response{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// isRetryable determines if an error should trigger a retry.
func isRetryable(ctx context.Context, err error) bool {
	// Caller cancelled
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}

	// Per-attempt timeouts are retryable
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return false
}
