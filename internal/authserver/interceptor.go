// ABOUTME: gRPC server interceptors requiring a bearer access token
// ABOUTME: Calls to auth.AuthService itself pass through unauthenticated

package authserver

import (
	"context"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/2389/searcher-auth/pkg/authpb"
)

const authServicePrefix = "/" + authpb.ServiceName + "/"

// logAuthFailure logs an authentication failure with structured context.
func logAuthFailure(logger *slog.Logger, ctx context.Context, reason string, attrs ...any) {
	if logger == nil {
		return
	}
	baseAttrs := []any{"reason", reason}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		baseAttrs = append(baseAttrs, "peer_addr", p.Addr.String())
	}
	baseAttrs = append(baseAttrs, attrs...)
	logger.Warn("auth failure", baseAttrs...)
}

// UnaryInterceptor returns a gRPC unary interceptor that authenticates requests.
// The optional logger enables auth failure logging.
func UnaryInterceptor(tokens *TokenIssuer, logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if strings.HasPrefix(info.FullMethod, authServicePrefix) {
			return handler(ctx, req)
		}

		subject, err := extractSubject(ctx, tokens, info.FullMethod, logger)
		if err != nil {
			return nil, err
		}
		return handler(WithSubject(ctx, subject), req)
	}
}

// StreamInterceptor returns a gRPC stream interceptor that authenticates requests.
// The optional logger enables auth failure logging.
func StreamInterceptor(tokens *TokenIssuer, logger *slog.Logger) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if strings.HasPrefix(info.FullMethod, authServicePrefix) {
			return handler(srv, ss)
		}

		subject, err := extractSubject(ss.Context(), tokens, info.FullMethod, logger)
		if err != nil {
			return err
		}

		wrapped := &wrappedServerStream{
			ServerStream: ss,
			ctx:          WithSubject(ss.Context(), subject),
		}
		return handler(srv, wrapped)
	}
}

// wrappedServerStream wraps a grpc.ServerStream with a custom context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapped context.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}

// extractSubject requires exactly one "authorization: Bearer <access token>"
// entry in the incoming metadata.
func extractSubject(ctx context.Context, tokens *TokenIssuer, method string, logger *slog.Logger) (*Subject, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		logAuthFailure(logger, ctx, "missing_metadata", "method", method)
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}

	values := md.Get("authorization")
	switch len(values) {
	case 0:
		logAuthFailure(logger, ctx, "missing_authorization", "method", method)
		return nil, status.Error(codes.Unauthenticated, "missing authorization header")
	case 1:
	default:
		logAuthFailure(logger, ctx, "duplicate_authorization", "method", method, "count", len(values))
		return nil, status.Error(codes.Unauthenticated, "multiple authorization headers")
	}

	tokenString, ok := strings.CutPrefix(values[0], "Bearer ")
	if !ok {
		logAuthFailure(logger, ctx, "malformed_authorization", "method", method)
		return nil, status.Error(codes.Unauthenticated, "invalid authorization header format")
	}

	claims, err := tokens.Verify(KindAccess, tokenString)
	if err != nil {
		logAuthFailure(logger, ctx, "token_rejected", "method", method, "error", err.Error())
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}

	role, _ := authpb.ParseRole(claims.Role)
	return &Subject{Identity: claims.Subject, Role: role}, nil
}
