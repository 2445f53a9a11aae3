// ABOUTME: gRPC client interceptors that attach a fresh bearer token to every call
// ABOUTME: Unary and streaming paths share the same pre-call authorization

package auth

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
)

const (
	// AuthorizationHeader is the metadata key carrying the bearer token.
	AuthorizationHeader = "authorization"

	bearerPrefix = "Bearer "
)

// UnaryInterceptor is the unary half of an auth interceptor.
type UnaryInterceptor interface {
	Unary(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error
}

// StreamInterceptor is the streaming half of an auth interceptor.
type StreamInterceptor interface {
	Stream(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error)
}

// Interceptor authorizes outbound calls through a Coordinator. Requests and
// responses pass through untouched.
type Interceptor struct {
	coord  *Coordinator
	logger *slog.Logger
}

var (
	_ UnaryInterceptor  = (*Interceptor)(nil)
	_ StreamInterceptor = (*Interceptor)(nil)
)

// NewInterceptor creates an interceptor backed by coord.
// The optional logger enables auth failure logging.
func NewInterceptor(coord *Coordinator, logger *slog.Logger) *Interceptor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Interceptor{coord: coord, logger: logger}
}

// Unary implements grpc.UnaryClientInterceptor.
func (i *Interceptor) Unary(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	ctx, err := i.authorize(ctx, method)
	if err != nil {
		return err
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// Stream implements grpc.StreamClientInterceptor.
func (i *Interceptor) Stream(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	ctx, err := i.authorize(ctx, method)
	if err != nil {
		return nil, err
	}
	return streamer(ctx, desc, cc, method, opts...)
}

// DialOptions chains both interceptors onto a connection.
func (i *Interceptor) DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithChainUnaryInterceptor(i.Unary),
		grpc.WithChainStreamInterceptor(i.Stream),
	}
}

func (i *Interceptor) authorize(ctx context.Context, method string) (context.Context, error) {
	cred, err := i.coord.EnsureFresh(ctx)
	if err != nil {
		i.logger.Warn("auth failure", "reason", "ensure_fresh_failed", "method", method, "error", err.Error())
		return ctx, err
	}
	return WithBearer(ctx, cred.Token), nil
}

// WithBearer returns ctx with its outgoing authorization header set to token,
// replacing any existing value and keeping every other header.
func WithBearer(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	md.Set(AuthorizationHeader, bearerPrefix+token)
	return metadata.NewOutgoingContext(ctx, md)
}

// perRPCCredentials exposes a Coordinator through grpc's credentials API.
type perRPCCredentials struct {
	coord      *Coordinator
	requireTLS bool
}

// PerRPCCredentials adapts the coordinator for grpc.WithPerRPCCredentials,
// an alternative to the interceptors for callers that already chain their own.
func (c *Coordinator) PerRPCCredentials(requireTLS bool) credentials.PerRPCCredentials {
	return perRPCCredentials{coord: c, requireTLS: requireTLS}
}

func (p perRPCCredentials) GetRequestMetadata(ctx context.Context, _ ...string) (map[string]string, error) {
	cred, err := p.coord.EnsureFresh(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{AuthorizationHeader: bearerPrefix + cred.Token}, nil
}

func (p perRPCCredentials) RequireTransportSecurity() bool {
	return p.requireTLS
}
