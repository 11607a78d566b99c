package session

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// DefaultID names the session used when a caller does not pick one.
const DefaultID = "default"

// Factory builds a new session for id.
type Factory func(id string) *Session

// Registry maps session ids to sessions. Sessions never share state.
type Registry struct {
	factory Factory

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry(factory Factory) *Registry {
	return &Registry{factory: factory, sessions: make(map[string]*Session)}
}

// Get returns the session for id, creating it on first use. An empty id
// selects DefaultID.
func (r *Registry) Get(id string) *Session {
	if id == "" {
		id = DefaultID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		s = r.factory(id)
		r.sessions[id] = s
	}
	return s
}

// Lookup returns an existing session.
func (r *Registry) Lookup(id string) (*Session, bool) {
	if id == "" {
		id = DefaultID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Create starts a session under a fresh random id.
func (r *Registry) Create() *Session {
	return r.Get(uuid.NewString())
}

// Delete drops a session. It reports whether the session existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// IDs returns the known session ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NewFactory returns a Factory whose sessions share the given pipeline
// stages. The stages are stateless; each session keeps its own label.
func NewFactory(p Parser, r Renderer, e Exporter, opts ...Option) Factory {
	return func(id string) *Session {
		return New(id, p, r, e, opts...)
	}
}
