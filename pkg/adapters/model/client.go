// Package model is the client of the AI model service that predicts item
// prices, summarizes quotations and clusters customers.
package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/reliant/configurator/internal/logging"
)

// ErrUnavailable is returned when the model service answers with an error status.
var ErrUnavailable = errors.New("model service unavailable")

// maxResponse bounds the body read from the model service.
const maxResponse = 4 << 20

// Client implements ports.Predictor.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
}

// Option configures a Client.
type Option func(*retryablehttp.Client)

// WithLogger sets the logger used for retries.
func WithLogger(logger *slog.Logger) Option {
	return func(c *retryablehttp.Client) { c.Logger = logger }
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *retryablehttp.Client) { c.HTTPClient.Timeout = d }
}

// WithRetryMax sets how many times a failed request is retried.
func WithRetryMax(n int) Option {
	return func(c *retryablehttp.Client) { c.RetryMax = n }
}

// New creates a client for the model service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	hc := retryablehttp.NewClient()
	hc.RetryMax = 2
	hc.RetryWaitMin = 200 * time.Millisecond
	hc.RetryWaitMax = 2 * time.Second
	hc.HTTPClient.Timeout = 30 * time.Second
	hc.Logger = logging.NewNop()
	for _, opt := range opts {
		opt(hc)
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) Predict(ctx context.Context, itemID string) (json.RawMessage, error) {
	return c.getJSON(ctx, "/predict/"+url.PathEscape(itemID))
}

func (c *Client) Summarize(ctx context.Context, quotationID string) (string, error) {
	body, err := c.get(ctx, "/summary/"+url.PathEscape(quotationID))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) Cluster(ctx context.Context) (json.RawMessage, error) {
	return c.getJSON(ctx, "/cluster")
}

func (c *Client) getJSON(ctx context.Context, path string) (json.RawMessage, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("GET %s: response is not valid JSON", path)
	}
	return json.RawMessage(body), nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w: %w", path, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %w: status %d", path, ErrUnavailable, resp.StatusCode)
	}
	return body, nil
}
