// ABOUTME: Coordinator deciding between full handshake, refresh, or nothing
// ABOUTME: Serializes freshness checks so concurrent callers share one round trip

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc"

	"github.com/2389/searcher-auth/pkg/authpb"
)

const (
	// DefaultTimeout bounds each auth round trip.
	DefaultTimeout = 10 * time.Second

	// DefaultExpiryMargin is taken off every expiry so a token is not used
	// right as it lapses.
	DefaultExpiryMargin = 10 * time.Second
)

// ChallengeClient is the stateless auth service. *authpb.AuthServiceClient
// implements it.
type ChallengeClient interface {
	GenerateAuthChallenge(ctx context.Context, in *authpb.GenerateAuthChallengeRequest, opts ...grpc.CallOption) (*authpb.GenerateAuthChallengeResponse, error)
	GenerateAuthTokens(ctx context.Context, in *authpb.GenerateAuthTokensRequest, opts ...grpc.CallOption) (*authpb.GenerateAuthTokensResponse, error)
	RefreshAccessToken(ctx context.Context, in *authpb.RefreshAccessTokenRequest, opts ...grpc.CallOption) (*authpb.RefreshAccessTokenResponse, error)
}

// Config tunes a Coordinator. Zero durations select the defaults.
type Config struct {
	// Role is sent with every challenge request as is. The zero value is
	// RoleUser, so callers wanting a searcher token must say so.
	Role authpb.Role

	// Timeout bounds each round trip. Zero means DefaultTimeout, negative disables.
	Timeout time.Duration

	// ExpiryMargin is subtracted from expiries. Zero means DefaultExpiryMargin,
	// negative disables.
	ExpiryMargin time.Duration

	// RefreshFallback makes a failed refresh fall back to a full handshake in
	// the same call instead of surfacing ErrRefreshFailed.
	RefreshFallback bool

	// Now overrides the clock, for tests.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ExpiryMargin == 0 {
		c.ExpiryMargin = DefaultExpiryMargin
	}
	if c.ExpiryMargin < 0 {
		c.ExpiryMargin = 0
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Coordinator keeps a TokenStore fresh. It owns the store; one Coordinator
// serves one logical connection.
type Coordinator struct {
	client ChallengeClient
	signer Signer
	cfg    Config
	store  *TokenStore
	gate   *semaphore.Weighted
	logger *slog.Logger
}

// NewCoordinator creates a Coordinator with an empty TokenStore.
// The optional logger receives handshake and refresh events.
func NewCoordinator(client ChallengeClient, signer Signer, cfg Config, logger *slog.Logger) *Coordinator {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{
		client: client,
		signer: signer,
		cfg:    cfg,
		store:  NewTokenStore(cfg.Now, cfg.ExpiryMargin),
		gate:   semaphore.NewWeighted(1),
		logger: logger.With("component", "auth", "identity", signer.Identity()),
	}
}

// Store exposes the coordinator's TokenStore for inspection.
func (c *Coordinator) Store() *TokenStore {
	return c.store
}

// Identity is the signer's public identity.
func (c *Coordinator) Identity() string {
	return c.signer.Identity()
}

// EnsureFresh guarantees a usable access credential and returns it.
//
// With no access token, or with both tokens stale, it performs a full
// handshake. With only the access token stale it refreshes. Otherwise it makes
// no network calls. Calls are serialized: a caller arriving while another is
// authenticating waits for that attempt and then reuses its result.
func (c *Coordinator) EnsureFresh(ctx context.Context) (Credential, error) {
	if err := c.gate.Acquire(ctx, 1); err != nil {
		return Credential{}, fmt.Errorf("%w: %w", ErrGateAbandoned, err)
	}
	defer c.gate.Release(1)

	if err := c.freshenLocked(ctx); err != nil {
		return Credential{}, err
	}

	access, ok := c.store.Access()
	if !ok {
		return Credential{}, ErrNoCredential
	}
	return access, nil
}

func (c *Coordinator) freshenLocked(ctx context.Context) error {
	_, hasAccess := c.store.Access()
	switch {
	case !hasAccess || (c.store.IsAccessExpired() && c.store.IsRefreshExpired()):
		return c.handshake(ctx)
	case c.store.IsAccessExpired():
		err := c.refresh(ctx)
		if err == nil || !c.cfg.RefreshFallback || ctx.Err() != nil {
			return err
		}
		c.logger.Warn("refresh failed, falling back to full handshake", "error", err)
		if herr := c.handshake(ctx); herr != nil {
			return errors.Join(err, herr)
		}
		return nil
	default:
		return nil
	}
}

// handshake runs challenge, sign, and exchange. The store is written only
// after every step succeeded.
func (c *Coordinator) handshake(ctx context.Context) error {
	c.logger.Debug("starting auth handshake", "role", c.cfg.Role.String())

	pubkey := c.signer.PublicKey()

	challengeCtx, cancel := c.roundTripContext(ctx)
	challengeResp, err := c.client.GenerateAuthChallenge(challengeCtx, &authpb.GenerateAuthChallengeRequest{
		Role:   c.cfg.Role,
		Pubkey: pubkey,
	})
	cancel()
	if err != nil {
		return c.fail(ErrAuthenticationFailed, "challenge request", err)
	}
	if challengeResp.Challenge == "" {
		return c.fail(ErrAuthenticationFailed, "challenge request", errors.New("empty challenge"))
	}

	message := ChallengeMessage(c.signer.Identity(), challengeResp.Challenge)
	signature, err := c.signer.Sign([]byte(message))
	if err != nil {
		return c.fail(ErrAuthenticationFailed, "signing challenge", err)
	}

	exchangeCtx, cancel := c.roundTripContext(ctx)
	tokens, err := c.client.GenerateAuthTokens(exchangeCtx, &authpb.GenerateAuthTokensRequest{
		Challenge:       message,
		ClientPubkey:    pubkey,
		SignedChallenge: signature,
	})
	cancel()
	if err != nil {
		return c.fail(ErrAuthenticationFailed, "token exchange", err)
	}

	access, err := credentialFromToken(tokens.AccessToken)
	if err != nil {
		return c.fail(ErrAuthenticationFailed, "access token", err)
	}
	refresh, err := credentialFromToken(tokens.RefreshToken)
	if err != nil {
		return c.fail(ErrAuthenticationFailed, "refresh token", err)
	}
	if access.ExpiredAt(c.cfg.Now(), c.cfg.ExpiryMargin) {
		return c.fail(ErrAuthenticationFailed, "access token", errAlreadyExpired)
	}

	c.store.SetFull(access, refresh)
	c.logger.Debug("auth handshake complete",
		"access_expires_at", access.ExpiresAt,
		"refresh_expires_at", refresh.ExpiresAt,
	)
	return nil
}

func (c *Coordinator) refresh(ctx context.Context) error {
	current, ok := c.store.Refresh()
	if !ok {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, ErrNoCredential)
	}

	refreshCtx, cancel := c.roundTripContext(ctx)
	resp, err := c.client.RefreshAccessToken(refreshCtx, &authpb.RefreshAccessTokenRequest{
		RefreshToken: current.Token,
	})
	cancel()
	if err != nil {
		return c.fail(ErrRefreshFailed, "refresh request", err)
	}

	access, err := credentialFromToken(resp.AccessToken)
	if err != nil {
		return c.fail(ErrRefreshFailed, "access token", err)
	}
	if access.ExpiredAt(c.cfg.Now(), c.cfg.ExpiryMargin) {
		return c.fail(ErrRefreshFailed, "access token", errAlreadyExpired)
	}

	c.store.SetAccess(access)
	c.logger.Debug("access token refreshed", "access_expires_at", access.ExpiresAt)
	return nil
}

// roundTripContext applies the per-call timeout; an earlier caller deadline wins.
func (c *Coordinator) roundTripContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout < 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

func (c *Coordinator) fail(kind error, step string, cause error) error {
	err := wrapFailure(kind, step, cause)
	c.logger.Warn("auth failure", "reason", step, "error", cause.Error())
	return err
}
