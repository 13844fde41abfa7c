// Package pocketbase reads the product catalog from, and writes quotations to,
// a PocketBase instance over its REST API.
package pocketbase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/mitchellh/mapstructure"
	"github.com/reliant/configurator/internal/logging"
)

// Collection names used by the storefront.
const (
	CollectionProducts       = "products"
	CollectionPages          = "pages"
	CollectionSelectionItems = "page_selection_items"
	CollectionNumberItems    = "page_number_items"
	CollectionCustomers      = "customers"
	CollectionQuotations     = "quotations"
	CollectionQuotationItems = "quotation_items"
)

// SelectionItemsCollectionID is the collection id used to build selection image URLs.
const SelectionItemsCollectionID = "pbc_1130117620"

const fullListPageSize = 500

// errNotFound is returned by the client for 404 responses.
var errNotFound = errors.New("record not found")

// Client talks to the PocketBase records API.
type Client struct {
	baseURL string
	token   string
	http    *retryablehttp.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the value of the Authorization header.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger used for request retries.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRetry sets the retry count and the minimum and maximum backoff.
func WithRetry(max int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.http.RetryMax = max
		c.http.RetryWaitMin = waitMin
		c.http.RetryWaitMax = waitMax
	}
}

// NewClient creates a client for the PocketBase instance at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    retryablehttp.NewClient(),
		logger:  logging.NewNop(),
	}
	c.http.RetryMax = 3
	c.http.RetryWaitMin = 100 * time.Millisecond
	c.http.RetryWaitMax = 2 * time.Second
	for _, opt := range opts {
		opt(c)
	}
	c.http.Logger = c.logger
	return c
}

// FileURL returns the public URL of a file field, or "" when filename is empty.
func (c *Client) FileURL(collectionID, recordID, filename string) string {
	if filename == "" {
		return ""
	}
	return fmt.Sprintf("%s/api/files/%s/%s/%s", c.baseURL, collectionID, recordID, filename)
}

type listResponse struct {
	Page       int              `json:"page"`
	PerPage    int              `json:"perPage"`
	TotalPages int              `json:"totalPages"`
	Items      []map[string]any `json:"items"`
}

func (c *Client) recordsURL(collection string, parts ...string) string {
	u := fmt.Sprintf("%s/api/collections/%s/records", c.baseURL, url.PathEscape(collection))
	for _, p := range parts {
		u += "/" + url.PathEscape(p)
	}
	return u
}

// getOne fetches a single record and decodes it into out.
func (c *Client) getOne(ctx context.Context, collection, id string, query url.Values, out any) error {
	u := c.recordsURL(collection, id)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var raw map[string]any
	if err := c.do(ctx, http.MethodGet, u, nil, &raw); err != nil {
		return err
	}
	return decode(raw, out)
}

// fullList fetches every record of a collection matching query, page by page.
func (c *Client) fullList(ctx context.Context, collection string, query url.Values) ([]map[string]any, error) {
	var all []map[string]any
	for page := 1; ; page++ {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", fmt.Sprint(page))
		q.Set("perPage", fmt.Sprint(fullListPageSize))
		q.Set("skipTotal", "1")

		var resp listResponse
		if err := c.do(ctx, http.MethodGet, c.recordsURL(collection)+"?"+q.Encode(), nil, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Items...)
		if len(resp.Items) < fullListPageSize {
			return all, nil
		}
	}
}

// create posts a new record and decodes the stored record into out.
func (c *Client) create(ctx context.Context, collection string, body any, out any) error {
	var raw map[string]any
	if err := c.do(ctx, http.MethodPost, c.recordsURL(collection), body, &raw); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(raw, out)
}

func (c *Client) update(ctx context.Context, collection, id string, body any) error {
	return c.do(ctx, http.MethodPatch, c.recordsURL(collection, id), body, nil)
}

func (c *Client) do(ctx context.Context, method, u string, body any, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, u, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, u, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decode maps a raw record onto a struct using its `pb` tags.
func decode(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "pb",
		WeaklyTypedInput: true,
		DecodeHook:       timeHook,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// pbTimeLayout is the datetime format of PocketBase system fields.
const pbTimeLayout = "2006-01-02 15:04:05.000Z"

// timeHook parses PocketBase datetimes. Empty values decode to the zero time.
func timeHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	s := data.(string)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(pbTimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// idFilter builds a filter matching any of the given ids on field.
func idFilter(field string, ids []string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%s=%q", field, id)
	}
	return strings.Join(parts, " || ")
}
