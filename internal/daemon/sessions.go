package daemon

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"variantshare/internal/api"
	"variantshare/internal/artifact"
	"variantshare/internal/exporter"
)

type session struct {
	id        string
	job       *exporter.Job
	manager   *artifact.Manager
	createdAt time.Time
}

func (s *session) view() api.Session {
	return api.FromSession(s.id, s.job.Variant(), s.manager.Snapshot(), s.job.LastReport(), s.createdAt)
}

type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*session)}
}

func (r *sessionRegistry) create(job *exporter.Job, newManager func(artifact.Generator) *artifact.Manager) *session {
	s := &session{
		id:        uuid.NewString(),
		job:       job,
		manager:   newManager(job),
		createdAt: time.Now().UTC(),
	}
	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
	return s
}

func (r *sessionRegistry) get(id string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// remove tears the session down and forgets it.
func (r *sessionRegistry) remove(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.manager.Close()
	}
	return ok
}

func (r *sessionRegistry) list() []*session {
	r.mu.RLock()
	out := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].createdAt.Before(out[j].createdAt) })
	return out
}

// closeAll tears down every session and returns how many were open.
func (r *sessionRegistry) closeAll() int {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.manager.Close()
	}
	return len(sessions)
}

func (r *sessionRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

