// Package client is a small HTTP client shared by all upstream providers.
// Fetches are bounded by the context handed in and retried on transport
// errors; HTTP error statuses are surfaced as typed errors without retry.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type Response struct {
	StatusCode int
	Body       []byte
}

type Interface interface {
	Get(ctx context.Context, path string, query url.Values) (*Response, error)
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}

	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}

	return &Client{
		baseURL: opts.BaseURL,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		maxRetries: opts.MaxRetries,
	}
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Transport failure: worth retrying.
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			lastErr = err
			continue
		}

		return &Response{
			StatusCode: resp.StatusCode,
			Body:       body,
		}, nil
	}

	return nil, fmt.Errorf("GET %s: %w", fullURL, lastErr)
}

// GetJSON fetches path and decodes the response body into v. A non-2xx
// status is returned as a *StatusError.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, v any) error {
	resp, err := c.Get(ctx, path, query)
	if err != nil {
		return err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{URL: c.baseURL + path, StatusCode: resp.StatusCode}
	}

	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decoding response from %s: %w", c.baseURL+path, err)
	}

	return nil
}
