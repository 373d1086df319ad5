package artifact

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"variantshare/internal/dispatch"
	"variantshare/internal/document"
	"variantshare/internal/logging"
)

// Generator produces one artifact per call.
type Generator interface {
	Generate(ctx context.Context, format document.Format, mode document.Mode) (*document.Artifact, error)
}

// Sender dispatches a finished artifact.
type Sender interface {
	Send(ctx context.Context, req dispatch.Request) error
}

// Snapshot is a point-in-time view of a manager.
type Snapshot struct {
	State        State
	Format       document.Format
	Mode         document.Mode
	ArtifactName string
	ArtifactMIME string
	ArtifactSize int
	PreviewToken string
	LastError    string
	Generation   uint64
	UpdatedAt    time.Time
}

// Manager drives a single session's artifact through its lifecycle.
type Manager struct {
	generator Generator
	sender    Sender
	previews  *Registry
	logger    *slog.Logger
	now       func() time.Time

	mu         sync.Mutex
	state      State
	format     document.Format
	mode       document.Mode
	artifact   *document.Artifact
	preview    *Handle
	lastErr    error
	generation uint64
	sending    bool
	closed     bool
	updatedAt  time.Time
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logging.NewComponentLogger(logger, "lifecycle")
	}
}

// WithClock overrides the time source for snapshots.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager returns an Idle manager. previews may be shared across managers.
func NewManager(generator Generator, sender Sender, previews *Registry, opts ...ManagerOption) *Manager {
	if previews == nil {
		previews = NewRegistry()
	}
	m := &Manager{
		generator: generator,
		sender:    sender,
		previews:  previews,
		logger:    logging.NewComponentLogger(nil, "lifecycle"),
		now:       time.Now,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.updatedAt = m.now().UTC()
	return m
}

// Generate builds a new artifact, discarding the current one first. It is
// not reentrant: a call while another generation or send is in flight
// returns ErrBusy and leaves the state untouched.
func (m *Manager) Generate(ctx context.Context, format document.Format, mode document.Mode) (*document.Artifact, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if m.state == StateGenerating || m.sending {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	m.discardLocked()
	m.generation++
	gen := m.generation
	m.format = format
	m.mode = mode
	m.lastErr = nil
	m.setStateLocked(StateGenerating)
	m.mu.Unlock()

	logger := logging.WithContext(ctx, m.logger)
	logger.Debug("generation started", logging.String("format", string(format)), logging.String("mode", string(mode)))

	artifact, err := m.generator.Generate(ctx, format, mode)
	if err == nil && (artifact == nil || len(artifact.Data) == 0) {
		err = &document.BuildError{Format: format, Kind: document.KindSerializationFailed, Err: errors.New("builder returned no data")}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.generation {
		// Torn down while building; the result is dropped.
		return nil, ErrClosed
	}
	if err != nil {
		m.lastErr = err
		m.setStateLocked(StateFailed)
		logger.Warn("generation failed", logging.Error(err))
		return nil, err
	}
	m.artifact = artifact
	if artifact.Format == document.FormatPDF {
		m.preview = m.previews.Acquire(artifact)
	}
	m.setStateLocked(StatePreviewable)
	logger.Info("artifact ready",
		logging.String("name", artifact.Name),
		logging.Int("bytes", artifact.Size()),
		logging.Bool("preview", m.preview != nil),
	)
	return artifact, nil
}

// Cancel discards the current artifact and returns to Idle. An in-flight
// generation cannot be aborted, so Cancel reports ErrBusy while Generating.
func (m *Manager) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.state == StateGenerating || m.sending {
		return ErrBusy
	}
	m.discardLocked()
	m.lastErr = nil
	m.setStateLocked(StateIdle)
	m.logger.Debug("artifact cancelled")
	return nil
}

// Send dispatches the Previewable artifact. On success the artifact is
// released and the state becomes Sent; on failure the artifact is kept so
// the caller can retry without regenerating.
func (m *Manager) Send(ctx context.Context, req dispatch.Request) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.sending {
		m.mu.Unlock()
		return ErrBusy
	}
	if m.state != StatePreviewable || m.artifact == nil {
		m.mu.Unlock()
		return ErrNotPreviewable
	}
	req.Artifact = m.artifact
	m.sending = true
	m.mu.Unlock()

	err := m.sender.Send(ctx, req)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sending = false
	if m.closed {
		return err
	}
	if err != nil {
		m.lastErr = err
		m.updatedAt = m.now().UTC()
		logging.WithContext(ctx, m.logger).Warn("send failed; artifact retained", logging.Error(err))
		return err
	}
	name := req.Artifact.Name
	m.discardLocked()
	m.lastErr = nil
	m.setStateLocked(StateSent)
	logging.WithContext(ctx, m.logger).Info("artifact sent", logging.String("name", name))
	return nil
}

// Artifact returns the Previewable artifact for explicit download.
func (m *Manager) Artifact() (*document.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StatePreviewable || m.artifact == nil {
		return nil, ErrNotPreviewable
	}
	return m.artifact, nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns the current view of the manager.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		State:      m.state,
		Format:     m.format,
		Mode:       m.mode,
		Generation: m.generation,
		UpdatedAt:  m.updatedAt,
	}
	if m.artifact != nil {
		snap.ArtifactName = m.artifact.Name
		snap.ArtifactMIME = m.artifact.MIME
		snap.ArtifactSize = m.artifact.Size()
	}
	if m.preview != nil {
		snap.PreviewToken = m.preview.Token()
	}
	if m.lastErr != nil {
		snap.LastError = m.lastErr.Error()
	}
	return snap
}

// Close tears the session down and releases any preview handle. Later calls
// return ErrClosed; a generation still running is dropped when it returns.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.generation++
	m.discardLocked()
	m.setStateLocked(StateIdle)
}

func (m *Manager) setStateLocked(state State) {
	m.state = state
	m.updatedAt = m.now().UTC()
}

// discardLocked is the only place a preview handle is released.
func (m *Manager) discardLocked() {
	if m.preview != nil {
		m.preview.Release()
		m.preview = nil
	}
	m.artifact = nil
}
