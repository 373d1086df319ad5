package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"variantshare/internal/dispatch"
	"variantshare/internal/document"
	"variantshare/internal/services"
	"variantshare/internal/services/mailer"
)

type recordingTransport struct {
	calls []mailer.Message
	err   error
}

func (r *recordingTransport) Name() string { return "recording" }

func (r *recordingTransport) Send(_ context.Context, msg mailer.Message) error {
	r.calls = append(r.calls, msg)
	return r.err
}

func artifact() *document.Artifact {
	return &document.Artifact{Name: "variant.pdf", Format: document.FormatPDF, MIME: document.MIMEPDF, Data: []byte("%PDF")}
}

func TestSendPackagesMessage(t *testing.T) {
	transport := &recordingTransport{}
	client := dispatch.NewClient(transport, nil)
	err := client.Send(context.Background(), dispatch.Request{
		To:       []string{" a@example.com, B <b@example.com>", "a@example.com"},
		CC:       []string{"c@example.com"},
		Subject:  "  Export ",
		Body:     "body",
		Artifact: artifact(),
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if len(transport.calls) != 1 {
		t.Fatalf("expected exactly one transport call, got %d", len(transport.calls))
	}
	msg := transport.calls[0]
	if len(msg.To) != 2 || msg.To[0] != "a@example.com" || msg.To[1] != "b@example.com" {
		t.Fatalf("unexpected recipients: %v", msg.To)
	}
	if msg.Subject != "Export" || msg.Attachment.Name != "variant.pdf" || msg.Attachment.ContentType != document.MIMEPDF {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestSendValidation(t *testing.T) {
	cases := map[string]dispatch.Request{
		"no recipient":  {Subject: "s", Artifact: artifact()},
		"bad recipient": {To: []string{"nope"}, Subject: "s", Artifact: artifact()},
		"bad cc":        {To: []string{"a@example.com"}, CC: []string{"??"}, Subject: "s", Artifact: artifact()},
		"no subject":    {To: []string{"a@example.com"}, Artifact: artifact()},
		"no artifact":   {To: []string{"a@example.com"}, Subject: "s"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			transport := &recordingTransport{}
			err := dispatch.NewClient(transport, nil).Send(context.Background(), req)
			var dispatchErr *dispatch.Error
			if !errors.As(err, &dispatchErr) || dispatchErr.Kind != dispatch.KindValidationFailed {
				t.Fatalf("expected ValidationFailed, got %v", err)
			}
			if len(transport.calls) != 0 {
				t.Fatal("transport must not be called for invalid requests")
			}
			if services.Kind(err) != "validation" {
				t.Fatalf("unexpected classification %q", services.Kind(err))
			}
		})
	}
}

func TestSendClassifiesTransportErrors(t *testing.T) {
	cases := []struct {
		err  error
		kind dispatch.Kind
	}{
		{services.Wrap(services.ErrUnauthorized, "mailer", "send", "denied", nil), dispatch.KindUnauthorized},
		{services.Wrap(services.ErrExternalService, "mailer", "send", "down", nil), dispatch.KindTransportFailed},
		{fmt.Errorf("boom"), dispatch.KindTransportFailed},
	}
	for _, tc := range cases {
		transport := &recordingTransport{err: tc.err}
		err := dispatch.NewClient(transport, nil).Send(context.Background(), dispatch.Request{
			To: []string{"a@example.com"}, Subject: "s", Artifact: artifact(),
		})
		var dispatchErr *dispatch.Error
		if !errors.As(err, &dispatchErr) || dispatchErr.Kind != tc.kind {
			t.Fatalf("expected %s, got %v", tc.kind, err)
		}
		if len(transport.calls) != 1 {
			t.Fatalf("expected a single attempt, got %d", len(transport.calls))
		}
	}
}

func TestSendWithoutTransport(t *testing.T) {
	err := dispatch.NewClient(nil, nil).Send(context.Background(), dispatch.Request{
		To: []string{"a@example.com"}, Subject: "s", Artifact: artifact(),
	})
	if !errors.Is(err, mailer.ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}
