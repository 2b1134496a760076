package web

import (
	"sync"
	"time"

	"foodflow-pickup/internal/domain"
	"foodflow-pickup/internal/infra/metrics"
	"foodflow-pickup/internal/usecase"

	"github.com/oklog/ulid/v2"
)

type session struct {
	owner string
	flow  *usecase.Flow
}

// SessionRegistry holds the open confirmation flows, keyed by ULID.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: map[string]session{}}
}

func NewSessionID() string { return ulid.Make().String() }

func (r *SessionRegistry) Put(id, owner string, flow *usecase.Flow) {
	r.mu.Lock()
	r.sessions[id] = session{owner: owner, flow: flow}
	n := len(r.sessions)
	r.mu.Unlock()
	metrics.SetSessionsActive(n)
}

// Get returns the flow only to its owner. Unknown and foreign ids are both
// domain.ErrNotFound.
func (r *SessionRegistry) Get(id, owner string) (*usecase.Flow, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok || s.owner != owner {
		return nil, domain.ErrNotFound
	}
	return s.flow, nil
}

func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()
	metrics.SetSessionsActive(n)
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SweepIdle discards idle flows untouched since cutoff. Flows with a
// submission outstanding are kept. Callbacks are not fired.
func (r *SessionRegistry) SweepIdle(cutoff time.Time) int {
	r.mu.Lock()
	removed := 0
	for id, s := range r.sessions {
		touched, state := s.flow.Activity()
		if state == usecase.FlowSubmitting {
			continue
		}
		if state == usecase.FlowClosed || touched.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()
	metrics.SetSessionsActive(n)
	return removed
}
