// Package docgen talks to the remote document generation service that renders
// variants server-side.
package docgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"variantshare/internal/services"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	generatePath       = "/documents/generate"
	maxErrorBody       = 512
)

// Config captures the service location.
type Config struct {
	BaseURL        string
	RepositoryID   string
	TimeoutSeconds int
}

// Request asks the service to render one variant.
type Request struct {
	VariantID    string `json:"variantId"`
	ProcessID    string `json:"processId"`
	Format       string `json:"format"`
	RepositoryID string `json:"repositoryId"`
}

// Document is the rendered binary.
type Document struct {
	Data        []byte
	ContentType string
}

// Client renders documents through the generation service.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			RepositoryID:   strings.TrimSpace(cfg.RepositoryID),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Configured reports whether a service endpoint is set.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.BaseURL != ""
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Generate posts req and returns the rendered document. The repository id
// falls back to the configured one.
func (c *Client) Generate(ctx context.Context, req Request) (Document, error) {
	if !c.Configured() {
		return Document{}, services.Wrap(services.ErrConfiguration, "docgen", "generate", "base url not configured", nil)
	}
	if strings.TrimSpace(req.RepositoryID) == "" {
		req.RepositoryID = c.cfg.RepositoryID
	}
	if strings.TrimSpace(req.VariantID) == "" || strings.TrimSpace(req.Format) == "" {
		return Document{}, services.Wrap(services.ErrValidation, "docgen", "generate", "variant id and format required", nil)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Document{}, fmt.Errorf("docgen generate: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return Document{}, fmt.Errorf("docgen generate: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "*/*")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Document{}, services.Wrap(services.ErrExternalService, "docgen", "generate", "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Document{}, services.Wrap(services.ErrExternalService, "docgen", "generate", "unexpected status", &httpStatusError{StatusCode: resp.StatusCode, Body: string(snippet)})
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Document{}, services.Wrap(services.ErrExternalService, "docgen", "generate", "read response", err)
	}
	if len(data) == 0 {
		return Document{}, services.Wrap(services.ErrExternalService, "docgen", "generate", "empty response", errors.New("no content"))
	}
	return Document{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}
