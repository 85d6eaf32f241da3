package session

import (
	"sync"

	"github.com/google/uuid"
)

// Registry is the process-wide set of live sessions, keyed by session id.
// Modeled on the concurrent session map in the teacher's SOL manager: a
// mutex-guarded map plus a snapshot method, so the status API never holds
// the lock longer than a copy.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*Session)}
}

func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) live() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// Snapshot returns a point-in-time, full-detail copy of every live
// session, safe to serialize without holding the registry lock. Used for
// diagnostics and tests; the status API uses StatusSnapshot instead.
func (r *Registry) Snapshot() []Snapshot {
	sessions := r.live()
	out := make([]Snapshot, len(sessions))
	for i, s := range sessions {
		out[i] = s.Snapshot()
	}
	return out
}

// StatusSnapshot returns the narrow projection the status HTTP API
// serializes for every live session.
func (r *Registry) StatusSnapshot() []StatusView {
	sessions := r.live()
	out := make([]StatusView, len(sessions))
	for i, s := range sessions {
		out[i] = s.Status()
	}
	return out
}
