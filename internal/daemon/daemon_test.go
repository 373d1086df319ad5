package daemon_test

import (
	"context"
	"net/http"
	"testing"

	"variantshare/internal/artifact"
	"variantshare/internal/config"
	"variantshare/internal/correlate"
	"variantshare/internal/daemon"
	"variantshare/internal/dispatch"
	"variantshare/internal/document"
	"variantshare/internal/exporter"
	"variantshare/internal/testsupport"
	"variantshare/internal/timefmt"
)

type nopSender struct{}

func (nopSender) Send(context.Context, dispatch.Request) error { return nil }

var _ artifact.Sender = nopSender{}

func newDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()
	dates, err := timefmt.Parse("UTC", "en-US")
	if err != nil {
		t.Fatalf("timefmt.Parse: %v", err)
	}
	pipeline := exporter.New(
		exporter.NewStaticSource(nil),
		correlate.New(correlate.Rules{}, nil),
		document.NewSet(document.NewWordBuilder(nil)),
		dates,
	)
	d, err := daemon.New(cfg, daemon.Dependencies{
		Users:    testsupport.MustOpenUserDB(t, cfg),
		Pipeline: pipeline,
		Sender:   nopSender{},
	}, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !d.Status().Running {
		t.Fatal("expected daemon to report running")
	}

	resp, err := http.Get("http://" + d.Address() + "/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", resp.StatusCode)
	}

	if _, err := d.OpenSession(testsupport.Variant(2)); err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if got := d.Status().Sessions; got != 1 {
		t.Fatalf("expected 1 session, got %d", got)
	}

	d.Stop()
	status := d.Status()
	if status.Running || status.Sessions != 0 {
		t.Fatalf("expected stopped daemon without sessions, got %+v", status)
	}
	if status.LockFilePath != cfg.LockPath() {
		t.Fatalf("unexpected lock path %q", status.LockFilePath)
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := newDaemon(t, cfg)
	second := newDaemon(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected second daemon to fail acquiring the lock")
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := daemon.New(testsupport.NewConfig(t), daemon.Dependencies{}, nil); err == nil {
		t.Fatal("expected error without dependencies")
	}
}
