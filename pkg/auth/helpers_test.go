// ABOUTME: Shared test doubles for the auth package
// ABOUTME: A scriptable auth service mock and a manually advanced clock

package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/2389/searcher-auth/pkg/authpb"
)

// testEpoch is second-aligned so expiries round-trip through the wire format exactly.
var testEpoch = time.Unix(1_700_000_000, 0)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testEpoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// mockChallengeClient implements ChallengeClient with call counters.
type mockChallengeClient struct {
	mu sync.Mutex

	clock      *fakeClock
	challenge  string
	accessTTL  time.Duration
	refreshTTL time.Duration

	challengeErr error
	tokensErr    error
	refreshErr   error

	// omitRefresh drops the refresh token from handshake responses.
	omitRefresh bool

	// block, when set, stalls GenerateAuthChallenge until closed or ctx ends.
	block   chan struct{}
	entered chan struct{}

	challengeCalls int
	tokensCalls    int
	refreshCalls   int
	seq            int

	lastChallengeReq *authpb.GenerateAuthChallengeRequest
	lastTokensReq    *authpb.GenerateAuthTokensRequest
	lastRefreshReq   *authpb.RefreshAccessTokenRequest
}

func newMockChallengeClient(clock *fakeClock) *mockChallengeClient {
	return &mockChallengeClient{
		clock:      clock,
		challenge:  "abc123",
		accessTTL:  3600 * time.Second,
		refreshTTL: 86400 * time.Second,
	}
}

func (m *mockChallengeClient) GenerateAuthChallenge(ctx context.Context, in *authpb.GenerateAuthChallengeRequest, _ ...grpc.CallOption) (*authpb.GenerateAuthChallengeResponse, error) {
	m.mu.Lock()
	m.challengeCalls++
	m.lastChallengeReq = in
	block, entered := m.block, m.entered
	m.mu.Unlock()

	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.challengeErr != nil {
		return nil, m.challengeErr
	}
	return &authpb.GenerateAuthChallengeResponse{Challenge: m.challenge}, nil
}

func (m *mockChallengeClient) GenerateAuthTokens(_ context.Context, in *authpb.GenerateAuthTokensRequest, _ ...grpc.CallOption) (*authpb.GenerateAuthTokensResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokensCalls++
	m.lastTokensReq = in
	if m.tokensErr != nil {
		return nil, m.tokensErr
	}
	m.seq++
	resp := &authpb.GenerateAuthTokensResponse{
		AccessToken: m.token(fmt.Sprintf("access-%d", m.seq), m.accessTTL),
	}
	if !m.omitRefresh {
		resp.RefreshToken = m.token(fmt.Sprintf("refresh-%d", m.seq), m.refreshTTL)
	}
	return resp, nil
}

func (m *mockChallengeClient) RefreshAccessToken(_ context.Context, in *authpb.RefreshAccessTokenRequest, _ ...grpc.CallOption) (*authpb.RefreshAccessTokenResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshCalls++
	m.lastRefreshReq = in
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	m.seq++
	return &authpb.RefreshAccessTokenResponse{
		AccessToken: m.token(fmt.Sprintf("access-refreshed-%d", m.seq), m.accessTTL),
	}, nil
}

func (m *mockChallengeClient) token(value string, ttl time.Duration) *authpb.Token {
	return &authpb.Token{
		Value:        value,
		ExpiresAtUtc: timestamppb.New(m.clock.Now().Add(ttl)),
	}
}

func (m *mockChallengeClient) counts() (challenge, tokens, refresh int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.challengeCalls, m.tokensCalls, m.refreshCalls
}

// newTestCoordinator wires a coordinator to a mock client, a fake clock, and
// a fresh ed25519 signer. The expiry margin is disabled unless cfg sets one.
func newTestCoordinator(t *testing.T, cfg Config) (*Coordinator, *mockChallengeClient, *fakeClock, *Ed25519Signer) {
	t.Helper()

	signer, err := GenerateEd25519Signer()
	if err != nil {
		t.Fatalf("GenerateEd25519Signer() error = %v", err)
	}

	clock := newFakeClock()
	client := newMockChallengeClient(clock)
	cfg.Now = clock.Now
	if cfg.ExpiryMargin == 0 {
		cfg.ExpiryMargin = -1
	}
	return NewCoordinator(client, signer, cfg, nil), client, clock, signer
}
