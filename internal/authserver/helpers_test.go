// ABOUTME: Shared fixtures for authserver tests
// ABOUTME: Provides a manual clock, a test secret, and a server/key factory

package authserver

import (
	"sync"
	"testing"
	"time"

	"github.com/2389/searcher-auth/pkg/auth"
)

// testSecret is a 32-byte secret that meets MinSecretLength.
var testSecret = []byte("authserver-test-secret-32bytes!!")

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestServer(t *testing.T, cfg Config) (*Server, *manualClock) {
	t.Helper()
	clock := newManualClock()
	if cfg.Secret == nil {
		cfg.Secret = testSecret
	}
	cfg.Now = clock.Now
	srv, err := NewServer(cfg, nil)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(srv.Close)
	return srv, clock
}

func newTestSigner(t *testing.T) *auth.Ed25519Signer {
	t.Helper()
	signer, err := auth.GenerateEd25519Signer()
	if err != nil {
		t.Fatalf("GenerateEd25519Signer() error = %v", err)
	}
	return signer
}
