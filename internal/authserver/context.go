// ABOUTME: Authenticated caller identity carried through request contexts
// ABOUTME: Populated by the bearer interceptors for downstream handlers

package authserver

import (
	"context"

	"github.com/2389/searcher-auth/pkg/authpb"
)

// Subject is the verified caller of a request.
type Subject struct {
	Identity string // base58 public key
	Role     authpb.Role
}

type subjectKey struct{}

// WithSubject returns a context carrying s.
func WithSubject(ctx context.Context, s *Subject) context.Context {
	return context.WithValue(ctx, subjectKey{}, s)
}

// SubjectFromContext returns the caller attached by the interceptors, or nil.
func SubjectFromContext(ctx context.Context) *Subject {
	s, _ := ctx.Value(subjectKey{}).(*Subject)
	return s
}
