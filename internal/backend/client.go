// Package backend is the HTTP client for the managed matching service that
// curates podcast candidates, computes fit analyses, and aggregates audience
// demographics. The engine treats it as an opaque collaborator.
package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Client talks to the matching backend's JSON API. It retries transient
// failures and rate-limits outbound calls so a prospect clicking through a
// large catalog cannot hammer the upstream.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a backend client.
// Rate limited to 5 requests per second with a small burst.
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.HTTPClient.Timeout = 30 * time.Second
	rc.Logger = nil // Use our slog logger instead of retryablehttp's

	return &Client{
		http:    rc,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		logger:  logger,
	}
}

// get performs a rate-limited GET. A 404 response returns (nil, false, nil):
// the resource was checked and does not exist, which callers map to the
// explicit-absent sentinel rather than an error.
func (c *Client) get(ctx context.Context, path string) (body []byte, found bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, false, fmt.Errorf("request %s: unexpected status %d", path, resp.StatusCode)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read response %s: %w", path, err)
	}
	return body, true, nil
}
