package mailer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"variantshare/internal/services"
)

const maxErrorBody = 512

// Attachment is the single file carried by a message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is a transport-agnostic send request.
type Message struct {
	To         []string
	CC         []string
	Subject    string
	Body       string
	Attachment Attachment
}

// Transport delivers a message to a backend.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// authorizedClient wraps base with a static bearer token when one is set.
func authorizedClient(base *http.Client, token string) *http.Client {
	token = strings.TrimSpace(token)
	if token == "" {
		return base
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	client.Timeout = base.Timeout
	return client
}

func checkResponse(component string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	statusErr := &httpStatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return services.Wrap(services.ErrUnauthorized, component, "send", "backend rejected credentials", statusErr)
	}
	return services.Wrap(services.ErrExternalService, component, "send", "unexpected status", statusErr)
}
