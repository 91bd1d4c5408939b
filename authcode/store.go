// Package authcode stores short-lived, single-use authorization codes.
package authcode

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oauthlab/oidc-sandbox/oauthmodel"
)

// Code is an issued authorization code together with the context of the
// authorization request that produced it.
type Code struct {
	Code                string
	ClientID            string
	RedirectURI         string
	Scope               string
	SubjectID           string
	Nonce               string
	CodeChallenge       string
	CodeChallengeMethod oauthmodel.CodeMethodType
	ExpiresAt           time.Time
}

// Store is a thread-safe in-memory authorization code store. Codes are
// consumed exactly once: a read removes the entry whether or not it has
// expired, which is what makes replay impossible.
type Store struct {
	mu      sync.RWMutex
	codes   map[string]*Code
	ttl     time.Duration
	nowFunc func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithNowFunc overrides the clock, primarily for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Store) {
		s.nowFunc = now
	}
}

// NewStore creates a Store whose codes expire after ttl.
func NewStore(ttl time.Duration, options ...Option) *Store {
	s := &Store{
		codes:   make(map[string]*Code),
		ttl:     ttl,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Store generates a fresh unguessable code, stamps the expiry and persists
// the record. The returned copy carries the generated code value.
func (s *Store) Store(code Code) Code {
	s.mu.Lock()
	defer s.mu.Unlock()

	code.Code = uuid.NewString()
	code.ExpiresAt = s.nowFunc().Add(s.ttl)
	stored := code
	s.codes[code.Code] = &stored
	return code
}

// Consume atomically removes and returns the record for code. It returns
// absent for unknown codes and for expired ones; an expired entry is
// removed all the same, so no code can ever be read twice.
func (s *Store) Consume(code string) (*Code, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.codes[code]
	if !ok {
		return nil, false
	}
	delete(s.codes, code)

	if s.nowFunc().After(stored.ExpiresAt) {
		return nil, false
	}
	out := *stored
	return &out, true
}

// CleanupExpired removes expired entries and reports how many were removed.
// Lazy expiry in Consume already prevents stale reads; this exists for
// memory hygiene under a periodic sweep.
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	removed := 0
	for code, stored := range s.codes {
		if now.After(stored.ExpiresAt) {
			delete(s.codes, code)
			removed++
		}
	}
	return removed
}

// Len reports the number of live entries, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.codes)
}
