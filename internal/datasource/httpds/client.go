// Package httpds fetches input files over HTTP(S).
//
// A request is made once; there is no retry. Cancellation of the caller's
// context aborts both the request and the body download.
package httpds

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout is used when Config.Timeout is zero. Parquet months are
// large, so it is minutes rather than seconds.
const DefaultTimeout = 5 * time.Minute

// Config configures the HTTP client.
type Config struct {
	// Timeout bounds a whole request including the body download.
	Timeout time.Duration

	// Transport replaces http.DefaultTransport when set.
	Transport http.RoundTripper
}

// Client issues GET requests for Source.
type Client struct {
	httpClient *http.Client
}

// NewClient constructs a Client from cfg, applying DefaultTimeout.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{httpClient: &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport}}
}

// Get sends a GET bound to ctx. The caller must close the response body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	if url == "" {
		return nil, fmt.Errorf("httpds: url must not be empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("httpds: build request: %w", err)
	}
	return c.httpClient.Do(req)
}
