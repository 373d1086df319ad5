package services_test

import (
	"context"
	"testing"

	"variantshare/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSessionID(ctx, "sess-42")
	ctx = services.WithFormat(ctx, "pdf")
	ctx = services.WithVariantID(ctx, "v-7")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.SessionIDFromContext(ctx); !ok || id != "sess-42" {
		t.Fatalf("unexpected session id: %v %v", id, ok)
	}
	if format, ok := services.FormatFromContext(ctx); !ok || format != "pdf" {
		t.Fatalf("unexpected format: %v %v", format, ok)
	}
	if id, ok := services.VariantIDFromContext(ctx); !ok || id != "v-7" {
		t.Fatalf("unexpected variant id: %v %v", id, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithFormat(ctx, "")
	ctx = services.WithSessionID(ctx, "")
	if _, ok := services.FormatFromContext(ctx); ok {
		t.Fatal("expected no format value")
	}
	if _, ok := services.SessionIDFromContext(ctx); ok {
		t.Fatal("expected no session value")
	}
}
