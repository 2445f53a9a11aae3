// ABOUTME: HS256 JWT issuance and verification for access and refresh tokens
// ABOUTME: Token kind travels in the audience claim so the two cannot be swapped

package authserver

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/2389/searcher-auth/pkg/authpb"
)

// MinSecretLength is the shortest HMAC secret NewTokenIssuer accepts.
const MinSecretLength = 32

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
	ErrShortSecret  = fmt.Errorf("secret must be at least %d bytes", MinSecretLength)
)

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims is the JWT payload. Subject is the base58 client identity.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and checks HS256 tokens.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. A nil now uses time.Now.
func NewTokenIssuer(secret []byte, now func() time.Time) (*TokenIssuer, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrShortSecret
	}
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{secret: secret, now: now}, nil
}

// Issue creates a token of the given kind for subject. The expiry is
// truncated to whole seconds since that is all the wire format carries.
func (t *TokenIssuer) Issue(kind TokenKind, subject string, role authpb.Role, ttl time.Duration) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(ttl).Truncate(time.Second)

	claims := Claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Subject:   subject,
			Audience:  jwt.ClaimStrings{string(kind)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing %s token: %w", kind, err)
	}
	return signed, expiresAt, nil
}

// Verify validates tokenString as a token of the given kind and returns its claims.
func (t *TokenIssuer) Verify(kind TokenKind, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(string(kind)),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	if _, err := authpb.ParseRole(claims.Role); err != nil {
		return nil, fmt.Errorf("%w: role: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
