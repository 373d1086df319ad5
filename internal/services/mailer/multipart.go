package mailer

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"variantshare/internal/services"
)

// MultipartTransport posts {to, cc, subject, body, file} as a multipart form.
type MultipartTransport struct {
	endpoint   string
	httpClient *http.Client
}

// MultipartOption customizes the transport.
type MultipartOption func(*MultipartTransport)

// WithMultipartHTTPClient overrides the default HTTP client.
func WithMultipartHTTPClient(client *http.Client) MultipartOption {
	return func(t *MultipartTransport) {
		if client != nil {
			t.httpClient = client
		}
	}
}

// NewMultipartTransport posts to endpoint, authenticating with token when set.
func NewMultipartTransport(endpoint, token string, timeout time.Duration, opts ...MultipartOption) *MultipartTransport {
	t := &MultipartTransport{
		endpoint:   strings.TrimSpace(endpoint),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.httpClient = authorizedClient(t.httpClient, token)
	return t
}

// Name implements Transport.
func (t *MultipartTransport) Name() string { return "multipart" }

// Send implements Transport.
func (t *MultipartTransport) Send(ctx context.Context, msg Message) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"to", strings.Join(msg.To, ", ")},
		{"subject", msg.Subject},
		{"body", msg.Body},
	}
	if len(msg.CC) > 0 {
		fields = append(fields, [2]string{"cc", strings.Join(msg.CC, ", ")})
	}
	for _, field := range fields {
		if err := w.WriteField(field[0], field[1]); err != nil {
			return fmt.Errorf("multipart send: write %s: %w", field[0], err)
		}
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, msg.Attachment.Name))
	header.Set("Content-Type", msg.Attachment.ContentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("multipart send: create file part: %w", err)
	}
	if _, err := part.Write(msg.Attachment.Data); err != nil {
		return fmt.Errorf("multipart send: write file: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("multipart send: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, &buf)
	if err != nil {
		return fmt.Errorf("multipart send: build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "mailer", "send", "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()
	return checkResponse("mailer", resp)
}
