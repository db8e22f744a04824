package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// Client talks to the Assessment Service. Authentication is supplied by an
// injected TokenSource rather than read from ambient state.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a Client for the service rooted at baseURL (e.g.
// "http://localhost:5000/api").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root this client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request performs a JSON request. body is encoded when non-nil and the
// response is decoded into out when out is non-nil. Non-2xx responses yield
// *StatusError; transport failures yield *NetworkError.
func (c *Client) Request(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("load token: %w", err)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	log.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("assessment service request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(op, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", op, err)
	}
	return nil
}
