// ABOUTME: Error taxonomy for the client-side auth layer
// ABOUTME: Auth errors wrap both a sentinel and the transport cause

package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationFailed covers the challenge request, signing, and token
	// exchange of a full handshake.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrRefreshFailed covers the refresh-token exchange.
	ErrRefreshFailed = errors.New("access token refresh failed")

	// ErrNoCredential is returned when no usable access token is held.
	ErrNoCredential = errors.New("no access token")

	// ErrInvalidKey is returned for unusable key material.
	ErrInvalidKey = errors.New("invalid key")

	// ErrGateAbandoned is returned when a caller's context ends while it waits
	// for another caller's handshake or refresh. It wraps the context error.
	ErrGateAbandoned = errors.New("gave up waiting for in-flight authentication")
)

// errAlreadyExpired is the cause when the server hands out a token that is
// stale on arrival, for example a TTL no longer than the expiry margin.
var errAlreadyExpired = errors.New("server issued an access token that is already expired")

// wrapFailure joins kind and cause so callers can test for either with errors.Is.
func wrapFailure(kind error, step string, cause error) error {
	return fmt.Errorf("%w: %s: %w", kind, step, cause)
}
