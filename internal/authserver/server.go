// ABOUTME: Challenge-response auth service issuing JWT access and refresh tokens
// ABOUTME: Challenges are single use and bound to the public key that requested them

package authserver

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/2389/searcher-auth/internal/dedupe"
	"github.com/2389/searcher-auth/pkg/authpb"
)

// Defaults applied by NewServer to zero Config fields.
const (
	DefaultAccessTTL     = 30 * time.Minute
	DefaultRefreshTTL    = 24 * time.Hour
	DefaultChallengeTTL  = 2 * time.Minute
	DefaultMaxChallenges = 10000
)

// Config configures a Server.
type Config struct {
	Secret        []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ChallengeTTL  time.Duration
	MaxChallenges int
	AllowedRoles  []authpb.Role // empty means searcher only

	// ChallengeRate limits challenge requests per public key, per second.
	// Zero disables limiting.
	ChallengeRate  float64
	ChallengeBurst int

	// Registerer receives the service metrics. Nil keeps them unregistered.
	Registerer prometheus.Registerer

	Now func() time.Time
}

// Stats counts successful calls per method.
type Stats struct {
	Challenges int64
	Handshakes int64
	Refreshes  int64
}

type pendingChallenge struct {
	pubkey []byte
	role   authpb.Role
}

// Server implements authpb.AuthServiceServer.
type Server struct {
	cfg        Config
	tokens     *TokenIssuer
	challenges *dedupe.Cache[pendingChallenge]
	limiter    *limiterRegistry
	metrics    *Metrics
	logger     *slog.Logger

	challengeCount atomic.Int64
	handshakeCount atomic.Int64
	refreshCount   atomic.Int64
}

var _ authpb.AuthServiceServer = (*Server)(nil)

// NewServer creates a Server. Close releases its challenge sweeper.
func NewServer(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.ChallengeTTL == 0 {
		cfg.ChallengeTTL = DefaultChallengeTTL
	}
	if cfg.MaxChallenges == 0 {
		cfg.MaxChallenges = DefaultMaxChallenges
	}
	if len(cfg.AllowedRoles) == 0 {
		cfg.AllowedRoles = []authpb.Role{authpb.RoleSearcher}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tokens, err := NewTokenIssuer(cfg.Secret, cfg.Now)
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:        cfg,
		tokens:     tokens,
		challenges: dedupe.NewWithClock[pendingChallenge](cfg.MaxChallenges, time.Minute, cfg.Now),
		limiter:    newLimiterRegistry(cfg.ChallengeRate, cfg.ChallengeBurst),
		metrics:    NewMetrics(cfg.Registerer),
		logger:     logger.With("component", "authserver"),
	}, nil
}

// Tokens returns the issuer, which the bearer interceptors verify against.
func (s *Server) Tokens() *TokenIssuer {
	return s.tokens
}

// Stats returns call counters.
func (s *Server) Stats() Stats {
	return Stats{
		Challenges: s.challengeCount.Load(),
		Handshakes: s.handshakeCount.Load(),
		Refreshes:  s.refreshCount.Load(),
	}
}

// Close stops background work.
func (s *Server) Close() {
	s.challenges.Close()
}

// GenerateAuthChallenge issues a challenge for req.Pubkey.
func (s *Server) GenerateAuthChallenge(ctx context.Context, req *authpb.GenerateAuthChallengeRequest) (*authpb.GenerateAuthChallengeResponse, error) {
	if len(req.Pubkey) != ed25519.PublicKeySize {
		return nil, s.reject("bad_pubkey", "", codes.InvalidArgument, fmt.Sprintf("pubkey must be %d bytes", ed25519.PublicKeySize))
	}
	identity := base58.Encode(req.Pubkey)
	if !slices.Contains(s.cfg.AllowedRoles, req.Role) {
		return nil, s.reject("role_not_allowed", identity, codes.PermissionDenied, fmt.Sprintf("role %s is not allowed", req.Role))
	}
	if !s.limiter.allow(identity, s.cfg.Now()) {
		return nil, s.reject("rate_limited", identity, codes.ResourceExhausted, "too many challenge requests")
	}

	challenge := strings.ReplaceAll(uuid.NewString(), "-", "")
	s.challenges.Put(challenge, pendingChallenge{
		pubkey: bytes.Clone(req.Pubkey),
		role:   req.Role,
	}, s.cfg.Now().Add(s.cfg.ChallengeTTL))

	s.challengeCount.Add(1)
	s.metrics.ChallengesIssued.Inc()
	s.logger.Debug("challenge issued", "identity", identity, "role", req.Role.String())
	return &authpb.GenerateAuthChallengeResponse{Challenge: challenge}, nil
}

// GenerateAuthTokens checks the signed challenge and mints both tokens.
// req.Challenge is the full signed message "{identity}-{challenge}".
func (s *Server) GenerateAuthTokens(ctx context.Context, req *authpb.GenerateAuthTokensRequest) (*authpb.GenerateAuthTokensResponse, error) {
	if len(req.ClientPubkey) != ed25519.PublicKeySize {
		return nil, s.reject("bad_pubkey", "", codes.InvalidArgument, fmt.Sprintf("client_pubkey must be %d bytes", ed25519.PublicKeySize))
	}

	identity := base58.Encode(req.ClientPubkey)
	raw, ok := strings.CutPrefix(req.Challenge, identity+"-")
	if !ok {
		return nil, s.reject("bad_challenge_format", identity, codes.InvalidArgument, "challenge must be prefixed with the client identity")
	}
	if !ed25519.Verify(req.ClientPubkey, []byte(req.Challenge), req.SignedChallenge) {
		return nil, s.reject("bad_signature", identity, codes.Unauthenticated, "signature verification failed")
	}

	// The challenge is consumed only by the key it was issued to.
	pending, found, taken := s.challenges.TakeIf(raw, func(p pendingChallenge) bool {
		return bytes.Equal(p.pubkey, req.ClientPubkey)
	})
	if !found {
		return nil, s.reject("unknown_challenge", identity, codes.Unauthenticated, "challenge not found or expired")
	}
	if !taken {
		return nil, s.reject("challenge_key_mismatch", identity, codes.Unauthenticated, "challenge was issued to a different key")
	}

	access, err := s.mint(KindAccess, identity, pending.role, s.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.mint(KindRefresh, identity, pending.role, s.cfg.RefreshTTL)
	if err != nil {
		return nil, err
	}

	s.handshakeCount.Add(1)
	s.logger.Info("tokens issued", "identity", identity, "role", pending.role.String())
	return &authpb.GenerateAuthTokensResponse{AccessToken: access, RefreshToken: refresh}, nil
}

// RefreshAccessToken exchanges a valid refresh token for a new access token.
func (s *Server) RefreshAccessToken(ctx context.Context, req *authpb.RefreshAccessTokenRequest) (*authpb.RefreshAccessTokenResponse, error) {
	claims, err := s.tokens.Verify(KindRefresh, req.RefreshToken)
	if err != nil {
		s.logger.Debug("refresh token rejected", "error", err.Error())
		return nil, s.reject("refresh_rejected", "", codes.Unauthenticated, "invalid or expired refresh token")
	}
	role, _ := authpb.ParseRole(claims.Role)

	access, err := s.mint(KindAccess, claims.Subject, role, s.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}

	s.refreshCount.Add(1)
	s.logger.Debug("access token refreshed", "identity", claims.Subject)
	return &authpb.RefreshAccessTokenResponse{AccessToken: access}, nil
}

func (s *Server) mint(kind TokenKind, identity string, role authpb.Role, ttl time.Duration) (*authpb.Token, error) {
	value, expiresAt, err := s.tokens.Issue(kind, identity, role, ttl)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to issue %s token: %v", kind, err)
	}
	s.metrics.TokensIssued.WithLabelValues(string(kind)).Inc()
	return &authpb.Token{Value: value, ExpiresAtUtc: timestamppb.New(expiresAt)}, nil
}

// reject logs and counts a refused request and returns its status error.
func (s *Server) reject(reason, identity string, code codes.Code, msg string) error {
	s.metrics.Failures.WithLabelValues(reason).Inc()
	attrs := []any{"reason", reason}
	if identity != "" {
		attrs = append(attrs, "identity", identity)
	}
	s.logger.Warn("auth failure", attrs...)
	return status.Error(code, msg)
}
