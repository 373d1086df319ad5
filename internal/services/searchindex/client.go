// Package searchindex fetches screenshot records from the Elasticsearch index
// that the recorder writes to.
package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"variantshare/internal/services"
	"variantshare/internal/variant"
)

const (
	defaultMaxResults = 1000
	defaultTimeout    = 15 * time.Second
	maxErrorBody      = 512
)

// Config captures the index connection settings.
type Config struct {
	Addresses  []string
	Index      string
	Username   string
	Password   string
	APIKey     string
	MaxResults int
	Timeout    time.Duration
}

// Scope narrows a query to one process variant.
type Scope struct {
	ProcessID string
	VariantID string
}

// Result is the parsed response. Rejected documents never reach Records.
type Result struct {
	Records  []variant.ScreenshotRecord
	Rejected []variant.Rejection
	Total    int
}

// Client queries the screenshot index.
type Client struct {
	es         *elasticsearch.Client
	index      string
	maxResults int
	timeout    time.Duration
	transport  http.RoundTripper
}

// Option customizes the client.
type Option func(*Client)

// WithTransport overrides the HTTP transport used by the Elasticsearch client.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.transport = rt
		}
	}
}

// NewClient constructs a search client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	client := &Client{
		index:      strings.TrimSpace(cfg.Index),
		maxResults: cfg.MaxResults,
		timeout:    cfg.Timeout,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.index == "" {
		return nil, services.Wrap(services.ErrConfiguration, "searchindex", "new client", "index name required", nil)
	}
	if client.maxResults <= 0 {
		client.maxResults = defaultMaxResults
	}
	if client.timeout <= 0 {
		client.timeout = defaultTimeout
	}
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		APIKey:    cfg.APIKey,
		Transport: client.transport,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "searchindex", "new client", "invalid elasticsearch settings", err)
	}
	client.es = es
	return client, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Query renders the search body for scope.
func Query(scope Scope, size int) map[string]any {
	filters := make([]any, 0, 2)
	if scope.ProcessID != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"processId": scope.ProcessID}})
	}
	if scope.VariantID != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"variantId": scope.VariantID}})
	}
	return map[string]any{
		"size":  size,
		"query": map[string]any{"bool": map[string]any{"filter": filters}},
	}
}

// Fetch returns every record in scope in a single request. Malformed
// documents are reported in Result.Rejected.
func (c *Client) Fetch(ctx context.Context, scope Scope) (Result, error) {
	if strings.TrimSpace(scope.ProcessID) == "" && strings.TrimSpace(scope.VariantID) == "" {
		return Result{}, services.Wrap(services.ErrValidation, "searchindex", "fetch", "process or variant scope required", nil)
	}
	body, err := json.Marshal(Query(scope, c.maxResults))
	if err != nil {
		return Result{}, fmt.Errorf("searchindex fetch: encode query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalService, "searchindex", "fetch", "search request failed", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		marker := services.ErrExternalService
		if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
			marker = services.ErrUnauthorized
		}
		return Result{}, services.Wrap(marker, "searchindex", "fetch", fmt.Sprintf("status %d", res.StatusCode), fmt.Errorf("%s", strings.TrimSpace(string(snippet))))
	}

	var parsed searchResponse
	decoder := json.NewDecoder(res.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&parsed); err != nil {
		return Result{}, services.Wrap(services.ErrExternalService, "searchindex", "fetch", "decode response", err)
	}

	docs := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	records, rejected := variant.ParseRecords(docs)
	return Result{Records: records, Rejected: rejected, Total: len(docs)}, nil
}
