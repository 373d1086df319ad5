package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"variantshare/internal/services"
)

// GraphTransport sends through Microsoft Graph /users/{sender}/sendMail.
type GraphTransport struct {
	endpoint   string
	sender     string
	httpClient *http.Client
}

// GraphOption customizes the transport.
type GraphOption func(*GraphTransport)

// WithGraphHTTPClient overrides the default HTTP client.
func WithGraphHTTPClient(client *http.Client) GraphOption {
	return func(t *GraphTransport) {
		if client != nil {
			t.httpClient = client
		}
	}
}

// NewGraphTransport sends as sender via the Graph API rooted at endpoint.
// token is an already acquired access token.
func NewGraphTransport(endpoint, sender, token string, timeout time.Duration, opts ...GraphOption) *GraphTransport {
	t := &GraphTransport{
		endpoint:   strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		sender:     strings.TrimSpace(sender),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.httpClient = authorizedClient(t.httpClient, token)
	return t
}

// Name implements Transport.
func (t *GraphTransport) Name() string { return "graph" }

type graphAddress struct {
	EmailAddress struct {
		Address string `json:"address"`
	} `json:"emailAddress"`
}

type graphAttachment struct {
	ODataType    string `json:"@odata.type"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType"`
	ContentBytes string `json:"contentBytes"`
}

type graphMessage struct {
	Subject string `json:"subject"`
	Body    struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
	ToRecipients []graphAddress    `json:"toRecipients"`
	CCRecipients []graphAddress    `json:"ccRecipients,omitempty"`
	Attachments  []graphAttachment `json:"attachments"`
}

type graphSendMail struct {
	Message         graphMessage `json:"message"`
	SaveToSentItems bool         `json:"saveToSentItems"`
}

func addresses(list []string) []graphAddress {
	out := make([]graphAddress, 0, len(list))
	for _, addr := range list {
		var a graphAddress
		a.EmailAddress.Address = addr
		out = append(out, a)
	}
	return out
}

// Payload renders the Graph sendMail body for msg.
func Payload(msg Message) ([]byte, error) {
	payload := graphSendMail{SaveToSentItems: true}
	payload.Message.Subject = msg.Subject
	payload.Message.Body.ContentType = "Text"
	payload.Message.Body.Content = msg.Body
	payload.Message.ToRecipients = addresses(msg.To)
	if len(msg.CC) > 0 {
		payload.Message.CCRecipients = addresses(msg.CC)
	}
	payload.Message.Attachments = []graphAttachment{{
		ODataType:    "#microsoft.graph.fileAttachment",
		Name:         msg.Attachment.Name,
		ContentType:  msg.Attachment.ContentType,
		ContentBytes: base64.StdEncoding.EncodeToString(msg.Attachment.Data),
	}}
	return json.Marshal(payload)
}

// Send implements Transport.
func (t *GraphTransport) Send(ctx context.Context, msg Message) error {
	if t.sender == "" {
		return services.Wrap(services.ErrConfiguration, "graph", "send", "sender mailbox not configured", nil)
	}
	body, err := Payload(msg)
	if err != nil {
		return fmt.Errorf("graph send: encode message: %w", err)
	}
	target := fmt.Sprintf("%s/users/%s/sendMail", t.endpoint, url.PathEscape(t.sender))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("graph send: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "graph", "send", "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()
	return checkResponse("graph", resp)
}
