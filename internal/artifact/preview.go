package artifact

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"variantshare/internal/document"
)

// Registry tracks live preview handles by token.
type Registry struct {
	mu          sync.RWMutex
	handles     map[string]*Handle
	acquired    atomic.Int64
	revocations atomic.Int64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]*Handle)}
}

// Handle is a revocable reference to an artifact's bytes.
type Handle struct {
	token     string
	artifact  *document.Artifact
	createdAt time.Time
	registry  *Registry
	once      sync.Once
}

// Acquire publishes a for preview and returns its handle.
func (r *Registry) Acquire(a *document.Artifact) *Handle {
	h := &Handle{
		token:     uuid.NewString(),
		artifact:  a,
		createdAt: time.Now().UTC(),
		registry:  r,
	}
	r.mu.Lock()
	r.handles[h.token] = h
	r.mu.Unlock()
	r.acquired.Add(1)
	return h
}

// Lookup returns the live handle for token.
func (r *Registry) Lookup(token string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[token]
	return h, ok
}

// Live reports the number of unreleased handles.
func (r *Registry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// Acquired reports how many handles were ever issued.
func (r *Registry) Acquired() int64 { return r.acquired.Load() }

// Revocations reports how many handles were released.
func (r *Registry) Revocations() int64 { return r.revocations.Load() }

// Release revokes the handle. Only the first call has any effect; it
// reports whether this call performed the revocation.
func (h *Handle) Release() bool {
	if h == nil {
		return false
	}
	released := false
	h.once.Do(func() {
		h.registry.mu.Lock()
		delete(h.registry.handles, h.token)
		h.registry.mu.Unlock()
		h.registry.revocations.Add(1)
		released = true
	})
	return released
}

// Token returns the opaque handle identifier.
func (h *Handle) Token() string { return h.token }

// Artifact returns the previewed artifact.
func (h *Handle) Artifact() *document.Artifact { return h.artifact }

// CreatedAt returns when the handle was acquired.
func (h *Handle) CreatedAt() time.Time { return h.createdAt }
