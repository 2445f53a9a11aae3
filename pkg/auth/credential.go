// ABOUTME: Credential value type: an opaque bearer token and its absolute expiry
// ABOUTME: Built from server token messages, replaced wholesale on refresh

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/2389/searcher-auth/pkg/authpb"
)

// Credential is an immutable bearer token. ExpiresAt is second-granular and
// follows the server's clock.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

// ExpiredAt reports whether the credential is unusable at now once margin is
// taken off its lifetime.
func (c Credential) ExpiredAt(now time.Time, margin time.Duration) bool {
	return !now.Before(c.ExpiresAt.Add(-margin))
}

// String redacts the token so credentials can be logged.
func (c Credential) String() string {
	return fmt.Sprintf("Credential{Token: %s, ExpiresAt: %s}", redact(c.Token), c.ExpiresAt.UTC().Format(time.RFC3339))
}

func redact(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// credentialFromToken validates a token message from the server.
func credentialFromToken(t *authpb.Token) (Credential, error) {
	if t == nil {
		return Credential{}, errors.New("missing token")
	}
	if t.Value == "" {
		return Credential{}, errors.New("empty token value")
	}
	if t.ExpiresAtUtc == nil {
		return Credential{}, errors.New("missing token expiry")
	}
	return Credential{
		Token:     t.Value,
		ExpiresAt: time.Unix(t.ExpiresAtUtc.GetSeconds(), 0),
	}, nil
}
