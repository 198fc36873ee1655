package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Source downloads a single URL.
type Source struct {
	client *Client
	url    string
}

// NewSource binds url to client.
func NewSource(client *Client, url string) *Source {
	return &Source{client: client, url: url}
}

// URL returns the bound address.
func (s *Source) URL() string { return s.url }

// Open issues a GET and returns the response body. Any status other than
// 200 is an error.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("httpds: get %s: %w", s.url, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("httpds: get %s: unexpected status %s", s.url, resp.Status)
	}
	return resp.Body, nil
}
