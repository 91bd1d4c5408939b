// Package refresh stores the server-side sessions behind issued refresh
// tokens. The token string itself is the key; the session records what the
// token authorises. The store enforces no expiry of its own: the signed
// token's exp claim is the authority, keeping this a pure association
// table.
package refresh

import "sync"

// Session is what a refresh token authorises.
type Session struct {
	SubjectID string
	ClientID  string
	Scope     string
}

// Store is a thread-safe in-memory refresh-token session store. A revoked
// key can never again be read as valid: revocation deletes the entry and
// nothing re-inserts an old key.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
	}
}

// Store associates token with session, overwriting any previous entry.
func (s *Store) Store(token string, session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := session
	s.sessions[token] = &stored
}

// Consume atomically removes and returns the session for token. Rotation
// goes through this, not Get, so two concurrent exchanges presenting the
// same token can never both observe it live: exactly one wins the
// check-and-delete, the other sees absent.
func (s *Store) Consume(token string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	delete(s.sessions, token)
	out := *stored
	return &out, true
}

// Get returns the session for token, or absent.
func (s *Store) Get(token string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	out := *stored
	return &out, true
}

// Revoke removes the session for token, reporting whether one existed.
func (s *Store) Revoke(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[token]; !ok {
		return false
	}
	delete(s.sessions, token)
	return true
}

// RevokeAllForClient removes every session belonging to clientID and
// reports how many were removed.
func (s *Store) RevokeAllForClient(clientID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	revoked := 0
	for token, session := range s.sessions {
		if session.ClientID == clientID {
			delete(s.sessions, token)
			revoked++
		}
	}
	return revoked
}
