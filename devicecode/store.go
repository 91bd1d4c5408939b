// Package devicecode stores device authorization grants (RFC 8628): a
// long device code the client polls with, and a short human-typable user
// code the end user enters on a second device.
package devicecode

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Status is the approval state of a device code. pending is the only state
// that admits transitions; approved and denied are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

// userCodeAlphabet excludes visually confusable characters (0/O, 1/I/L)
// so the code survives being read off a TV screen and typed on a phone.
const (
	userCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	userCodeLength   = 8
)

// Code is a stored device authorization grant.
type Code struct {
	DeviceCode string
	UserCode   string
	ClientID   string
	Scope      string
	ExpiresAt  time.Time
	Interval   int
	Status     Status
	SubjectID  string
}

// Store is a thread-safe in-memory device code store with a secondary
// index from user code to device code.
type Store struct {
	mu        sync.RWMutex
	codes     map[string]*Code
	userIndex map[string]string
	ttl       time.Duration
	interval  time.Duration
	nowFunc   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithNowFunc overrides the clock, primarily for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Store) {
		s.nowFunc = now
	}
}

// NewStore creates a Store whose codes expire after ttl and which tells
// clients to poll every interval.
func NewStore(ttl, interval time.Duration, options ...Option) *Store {
	s := &Store{
		codes:     make(map[string]*Code),
		userIndex: make(map[string]string),
		ttl:       ttl,
		interval:  interval,
		nowFunc:   time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Create generates a device code and user code pair for the client,
// stores the record in the pending state and returns a copy.
func (s *Store) Create(clientID, scope string) (Code, error) {
	userCode, err := generateUserCode()
	if err != nil {
		return Code{}, errors.Wrap(err, "[Store.Create] generateUserCode")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	code := Code{
		DeviceCode: uuid.NewString(),
		UserCode:   userCode,
		ClientID:   clientID,
		Scope:      scope,
		ExpiresAt:  s.nowFunc().Add(s.ttl),
		Interval:   int(s.interval.Seconds()),
		Status:     StatusPending,
	}
	stored := code
	s.codes[code.DeviceCode] = &stored
	s.userIndex[code.UserCode] = code.DeviceCode
	return code, nil
}

// GetByDeviceCode returns the record for deviceCode, purging it (and its
// user-code index entry) when expired.
func (s *Store) GetByDeviceCode(deviceCode string) (*Code, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(deviceCode)
}

// GetByUserCode resolves through the user-code index, subject to the same
// expiry purge as GetByDeviceCode.
func (s *Store) GetByUserCode(userCode string) (*Code, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deviceCode, ok := s.userIndex[userCode]
	if !ok {
		return nil, false
	}
	return s.getLocked(deviceCode)
}

// Approve transitions a pending record to approved and attaches the
// subject. Non-pending, unknown and expired records return absent, which
// makes duplicate approval actions harmless.
func (s *Store) Approve(userCode, subjectID string) (*Code, bool) {
	return s.transition(userCode, StatusApproved, subjectID)
}

// Deny transitions a pending record to denied, with the same idempotency
// guard as Approve.
func (s *Store) Deny(userCode string) (*Code, bool) {
	return s.transition(userCode, StatusDenied, "")
}

func (s *Store) transition(userCode string, to Status, subjectID string) (*Code, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deviceCode, ok := s.userIndex[userCode]
	if !ok {
		return nil, false
	}
	stored, ok := s.getLocked(deviceCode)
	if !ok || stored.Status != StatusPending {
		return nil, false
	}

	record := s.codes[deviceCode]
	record.Status = to
	record.SubjectID = subjectID
	out := *record
	return &out, true
}

// getLocked reads and lazily purges a record. Callers hold the write lock.
func (s *Store) getLocked(deviceCode string) (*Code, bool) {
	stored, ok := s.codes[deviceCode]
	if !ok {
		return nil, false
	}
	if s.nowFunc().After(stored.ExpiresAt) {
		delete(s.codes, deviceCode)
		delete(s.userIndex, stored.UserCode)
		return nil, false
	}
	out := *stored
	return &out, true
}

// CleanupExpired removes expired entries from both indexes and reports how
// many device codes were removed.
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	removed := 0
	for deviceCode, stored := range s.codes {
		if now.After(stored.ExpiresAt) {
			delete(s.codes, deviceCode)
			delete(s.userIndex, stored.UserCode)
			removed++
		}
	}
	return removed
}

func generateUserCode() (string, error) {
	buf := make([]byte, userCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := make([]byte, userCodeLength)
	for i, b := range buf {
		code[i] = userCodeAlphabet[int(b)%len(userCodeAlphabet)]
	}
	return string(code), nil
}
