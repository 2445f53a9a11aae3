// ABOUTME: TokenStore holding the current access and refresh credentials
// ABOUTME: Answers staleness queries; mutated only by its Coordinator

package auth

import (
	"sync"
	"time"
)

// TokenStore holds at most one access and one refresh credential.
// An absent credential is always considered expired.
type TokenStore struct {
	mu      sync.RWMutex
	access  *Credential
	refresh *Credential
	now     func() time.Time
	margin  time.Duration
}

// NewTokenStore creates an empty store. now defaults to time.Now; margin is
// subtracted from every expiry before comparing.
func NewTokenStore(now func() time.Time, margin time.Duration) *TokenStore {
	if now == nil {
		now = time.Now
	}
	return &TokenStore{now: now, margin: margin}
}

// IsAccessExpired reports whether the access credential is absent or stale.
func (s *TokenStore) IsAccessExpired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiredLocked(s.access)
}

// IsRefreshExpired reports whether the refresh credential is absent or stale.
func (s *TokenStore) IsRefreshExpired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiredLocked(s.refresh)
}

func (s *TokenStore) expiredLocked(c *Credential) bool {
	if c == nil {
		return true
	}
	return c.ExpiredAt(s.now(), s.margin)
}

// SetFull replaces both credentials at once.
func (s *TokenStore) SetFull(access, refresh Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = &access
	s.refresh = &refresh
}

// SetAccess replaces the access credential and leaves refresh untouched.
func (s *TokenStore) SetAccess(access Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = &access
}

// Access returns the access credential, if any.
func (s *TokenStore) Access() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.access == nil {
		return Credential{}, false
	}
	return *s.access, true
}

// Refresh returns the refresh credential, if any.
func (s *TokenStore) Refresh() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.refresh == nil {
		return Credential{}, false
	}
	return *s.refresh, true
}
