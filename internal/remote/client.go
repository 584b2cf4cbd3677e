// Package remote implements the tracker's Remote API collaborators over
// JSON/HTTP. Every non-2xx response surfaces as an error; the stores treat
// any error as rollback/notify.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrStatus indicates a non-2xx response.
var ErrStatus = errors.New("remote: unexpected status")

// maxErrBody caps how much of an error response body lands in the error
// message.
const maxErrBody = 512

const defaultTimeout = 10 * time.Second

// Client speaks the tracker's REST dialect against one base URL. One
// Client backs all four entity remotes and feeds one latency [Monitor].
type Client struct {
	base string
	http *http.Client
	mon  *Monitor
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client (timeouts, transports).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient creates a Client for the given base URL, e.g.
// "https://api.example.com/v1".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: defaultTimeout},
		mon:  newMonitor(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Monitor returns the shared request-latency monitor.
func (c *Client) Monitor() *Monitor {
	return c.mon
}

// do performs one JSON round-trip. body (when non-nil) is marshaled as the
// request body; out (when non-nil) receives the decoded response.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	start := time.Now()
	err := c.doOnce(ctx, method, path, body, out)
	c.mon.observe(time.Since(start), err)

	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s: %w", method, path, err)
		}

		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reqBody)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))

		return fmt.Errorf("%w: %s %s: %d %s",
			ErrStatus, method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}

	return nil
}

func escape(id string) string {
	return url.PathEscape(id)
}
