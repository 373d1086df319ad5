package daemonrun

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"variantshare/internal/dispatch"
	"variantshare/internal/document"
	"variantshare/internal/logging"
	"variantshare/internal/services/mailer"
	"variantshare/internal/testsupport"
)

func TestNewSenderWithDisabledTransport(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sender, err := newSender(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("newSender: %v", err)
	}
	err = sender.Send(t.Context(), dispatch.Request{
		To:       []string{"ops@example.com"},
		Subject:  "report",
		Artifact: &document.Artifact{Name: "a.pdf", MIME: document.MIMEPDF, Data: []byte("x")},
	})
	var dispatchErr *dispatch.Error
	if !errors.As(err, &dispatchErr) || dispatchErr.Kind != dispatch.KindTransportFailed || !errors.Is(err, mailer.ErrDisabled) {
		t.Fatalf("expected disabled transport failure, got %v", err)
	}
}

func TestNewSenderRejectsUnknownTransport(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMail("carrier-pigeon", "https://mail.example.com"))
	if _, err := newSender(cfg, logging.NewNop()); err == nil {
		t.Fatal("expected error for unknown transport")
	}
}

func TestLogPointerAndPIDFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "variantshare-run.log")
	if err := os.WriteFile(target, []byte("line\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ensureCurrentLogPointer(dir, target); err != nil {
		t.Fatalf("ensureCurrentLogPointer: %v", err)
	}
	content, err := os.ReadFile(filepath.Join(dir, "variantshare.log"))
	if err != nil || string(content) != "line\n" {
		t.Fatalf("expected pointer to resolve to target, got %q (%v)", content, err)
	}

	pidPath := filepath.Join(dir, "variantshare.pid")
	if err := writePIDFile(pidPath); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	raw, err := os.ReadFile(pidPath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(raw)) != strconv.Itoa(os.Getpid()) {
		t.Fatalf("unexpected pid file %q", raw)
	}
}
