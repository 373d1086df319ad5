// Package dispatch validates a send request for a finished artifact and hands
// it to the configured mail transport exactly once. It never retries.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"variantshare/internal/document"
	"variantshare/internal/logging"
	"variantshare/internal/services"
	"variantshare/internal/services/mailer"
)

// Kind classifies a dispatch failure.
type Kind string

const (
	KindValidationFailed Kind = "ValidationFailed"
	KindTransportFailed  Kind = "TransportFailed"
	KindUnauthorized     Kind = "Unauthorized"
)

// Error is returned by Client.Send.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "dispatch: " + string(e.Kind)
	}
	return fmt.Sprintf("dispatch: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorKind implements services.ErrorClassifier.
func (e *Error) ErrorKind() string {
	switch e.Kind {
	case KindValidationFailed:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "external"
	}
}

// Request carries everything needed to send one artifact.
type Request struct {
	To       []string
	CC       []string
	Subject  string
	Body     string
	Artifact *document.Artifact
}

func validationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidationFailed, Err: fmt.Errorf(format, args...)}
}

// Normalize validates req and returns a copy with trimmed, de-duplicated
// recipient lists.
func (r Request) Normalize() (Request, error) {
	to, err := normalizeAddresses("to", r.To)
	if err != nil {
		return Request{}, err
	}
	if len(to) == 0 {
		return Request{}, validationError("at least one recipient required")
	}
	cc, err := normalizeAddresses("cc", r.CC)
	if err != nil {
		return Request{}, err
	}
	subject := strings.TrimSpace(r.Subject)
	if subject == "" {
		return Request{}, validationError("subject required")
	}
	if r.Artifact == nil || len(r.Artifact.Data) == 0 {
		return Request{}, validationError("artifact required")
	}
	return Request{To: to, CC: cc, Subject: subject, Body: r.Body, Artifact: r.Artifact}, nil
}

func normalizeAddresses(field string, raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			addr, err := mail.ParseAddress(part)
			if err != nil {
				return nil, validationError("%s: invalid address %q", field, part)
			}
			key := strings.ToLower(addr.Address)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, addr.Address)
		}
	}
	return out, nil
}

// Client forwards validated requests to a mail transport.
type Client struct {
	transport mailer.Transport
	logger    *slog.Logger
}

// NewClient wraps transport. A nil transport makes every send fail with
// KindTransportFailed.
func NewClient(transport mailer.Transport, logger *slog.Logger) *Client {
	return &Client{transport: transport, logger: logging.NewComponentLogger(logger, "dispatch")}
}

// Send validates req and issues a single transport call.
func (c *Client) Send(ctx context.Context, req Request) error {
	normalized, err := req.Normalize()
	if err != nil {
		return err
	}
	if c.transport == nil {
		return &Error{Kind: KindTransportFailed, Err: mailer.ErrDisabled}
	}
	msg := mailer.Message{
		To:      normalized.To,
		CC:      normalized.CC,
		Subject: normalized.Subject,
		Body:    normalized.Body,
		Attachment: mailer.Attachment{
			Name:        normalized.Artifact.Name,
			ContentType: normalized.Artifact.MIME,
			Data:        normalized.Artifact.Data,
		},
	}
	logger := logging.WithContext(ctx, c.logger)
	if err := c.transport.Send(ctx, msg); err != nil {
		kind := KindTransportFailed
		if errors.Is(err, services.ErrUnauthorized) {
			kind = KindUnauthorized
		}
		logger.Warn("artifact dispatch failed",
			logging.String("transport", c.transport.Name()),
			logging.String("kind", string(kind)),
			logging.Error(err),
		)
		return &Error{Kind: kind, Err: err}
	}
	logger.Info("artifact dispatched",
		logging.String("transport", c.transport.Name()),
		logging.String("artifact", normalized.Artifact.Name),
		logging.Int("recipients", len(normalized.To)+len(normalized.CC)),
	)
	return nil
}
