package server

import "sync"

// SessionRegistry tracks live streaming sessions by identifier. The map
// is never exposed; every mutation goes through Add and Remove so the
// insert and remove steps stay atomic with respect to each other.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*sseSession
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*sseSession),
	}
}

// Add inserts a session under its identifier.
func (r *SessionRegistry) Add(session *sseSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID()] = session
}

// Get looks up a live session by identifier.
func (r *SessionRegistry) Get(id string) (*sseSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	return session, ok
}

// Remove deletes a session from the registry. The identifier is removed
// at most once; a second call reports false and has no effect.
func (r *SessionRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll closes and removes every session. Used at shutdown.
func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, session := range r.sessions {
		session.Close()
		delete(r.sessions, id)
	}
}
