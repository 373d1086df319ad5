package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gofrs/flock"

	"variantshare/internal/artifact"
	"variantshare/internal/config"
	"variantshare/internal/exporter"
	"variantshare/internal/logging"
	"variantshare/internal/userdb"
	"variantshare/internal/variant"
)

// Dependencies are the collaborators the daemon serves.
type Dependencies struct {
	Users    *userdb.Store
	Pipeline *exporter.Pipeline
	Sender   artifact.Sender
}

// Daemon owns the export sessions and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	users    *userdb.Store
	pipeline *exporter.Pipeline
	sender   artifact.Sender
	previews *artifact.Registry
	sessions *sessionRegistry
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Sessions     int
	LivePreviews int
	UserDBPath   string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, deps Dependencies, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || deps.Users == nil || deps.Pipeline == nil || deps.Sender == nil {
		return nil, errors.New("daemon requires config, user store, pipeline, and sender")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		users:    deps.Users,
		pipeline: deps.Pipeline,
		sender:   deps.Sender,
		previews: artifact.NewRegistry(),
		sessions: newSessionRegistry(),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and starts the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another variantshare daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start api: %w", err)
	}
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("variantshare daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.address()),
	)
	return nil
}

// Stop tears down every session, stops the API and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	closed := d.sessions.closeAll()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("variantshare daemon stopped",
		logging.Int("sessions_closed", closed),
		logging.Int("live_previews", d.previews.Live()),
	)
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	d.sessions.closeAll()
	if d.users != nil {
		return d.users.Close()
	}
	return nil
}

// Handler returns the HTTP handler serving the daemon API.
func (d *Daemon) Handler() http.Handler {
	return d.api.handler
}

// Address returns the bound API address once started.
func (d *Daemon) Address() string {
	return d.api.address()
}

// OpenSession registers a new export session for v.
func (d *Daemon) OpenSession(v *variant.Variant) (string, error) {
	if err := v.Validate(); err != nil {
		return "", err
	}
	s := d.sessions.create(d.pipeline.ForVariant(v), func(gen artifact.Generator) *artifact.Manager {
		return artifact.NewManager(gen, d.sender, d.previews, artifact.WithLogger(d.logger))
	})
	d.logger.Info("session opened",
		logging.String(logging.FieldSessionID, s.id),
		logging.String(logging.FieldVariantID, v.ID),
		logging.Int("steps", len(v.Steps)),
	)
	return s.id, nil
}

// CloseSession tears down a session and releases its preview.
func (d *Daemon) CloseSession(id string) bool {
	ok := d.sessions.remove(id)
	if ok {
		d.logger.Info("session closed", logging.String(logging.FieldSessionID, id))
	}
	return ok
}

// Previews exposes the shared preview registry.
func (d *Daemon) Previews() *artifact.Registry {
	return d.previews
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		Sessions:     d.sessions.count(),
		LivePreviews: d.previews.Live(),
		LockFilePath: d.lockPath,
	}
	if d.users != nil {
		status.UserDBPath = d.users.Path()
	}
	return status
}
