// ABOUTME: Dials an authenticated connection to a block engine
// ABOUTME: Pairs a bare auth connection with an intercepted business connection

package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"slices"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/2389/searcher-auth/pkg/auth"
	"github.com/2389/searcher-auth/pkg/authpb"
)

// Config describes how to reach a block engine.
type Config struct {
	// Addr is a gRPC target such as "mainnet.block-engine.jito.wtf:443".
	Addr string

	// Insecure disables TLS.
	Insecure bool

	// TLS overrides the TLS settings. Nil uses the system roots.
	TLS *tls.Config

	// Auth tunes the coordinator.
	Auth auth.Config

	// Eager authenticates during Dial so a bad key or role fails fast.
	Eager bool

	// DialOptions are appended to both connections.
	DialOptions []grpc.DialOption
}

// Conn is an authenticated connection. Every call made on the embedded
// ClientConn carries a fresh bearer token.
type Conn struct {
	*grpc.ClientConn

	authConn *grpc.ClientConn
	coord    *auth.Coordinator
}

// Dial connects to cfg.Addr and wires signer into every call on the returned
// connection. Auth round trips use a separate connection without the
// interceptors so they never recurse. The optional logger receives auth events.
func Dial(ctx context.Context, cfg Config, signer auth.Signer, logger *slog.Logger) (*Conn, error) {
	if signer == nil {
		return nil, auth.ErrInvalidKey
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	base := baseDialOptions(cfg)

	authConn, err := grpc.NewClient(cfg.Addr, base...)
	if err != nil {
		return nil, fmt.Errorf("creating auth connection: %w", err)
	}

	coord := auth.NewCoordinator(authpb.NewAuthServiceClient(authConn), signer, cfg.Auth, logger)
	interceptor := auth.NewInterceptor(coord, logger)

	conn, err := grpc.NewClient(cfg.Addr, append(slices.Clone(base), interceptor.DialOptions()...)...)
	if err != nil {
		authConn.Close()
		return nil, fmt.Errorf("creating connection: %w", err)
	}

	c := &Conn{ClientConn: conn, authConn: authConn, coord: coord}
	if cfg.Eager {
		if _, err := coord.EnsureFresh(ctx); err != nil {
			c.Close()
			return nil, err
		}
		logger.Info("authenticated", "addr", cfg.Addr, "identity", signer.Identity())
	}
	return c, nil
}

// DialNoAuth connects without any auth layer. Useful for endpoints that do not
// require a token.
func DialNoAuth(cfg Config) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(cfg.Addr, baseDialOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("creating connection: %w", err)
	}
	return conn, nil
}

// Coordinator returns the coordinator behind the connection.
func (c *Conn) Coordinator() *auth.Coordinator {
	return c.coord
}

// Close closes both underlying connections.
func (c *Conn) Close() error {
	return errors.Join(c.ClientConn.Close(), c.authConn.Close())
}

func baseDialOptions(cfg Config) []grpc.DialOption {
	var creds credentials.TransportCredentials
	switch {
	case cfg.Insecure:
		creds = insecure.NewCredentials()
	case cfg.TLS != nil:
		creds = credentials.NewTLS(cfg.TLS)
	default:
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                30 * time.Second,
			Timeout:             10 * time.Second,
			PermitWithoutStream: true,
		}),
	}
	return append(opts, cfg.DialOptions...)
}

// ParseURL turns a block engine URL into a gRPC target. "https://host" maps
// to host:443 with TLS and "http://host" to host:80 without. Anything without
// a scheme is returned unchanged with TLS on.
func ParseURL(raw string) (addr string, insecureTransport bool, err error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		if raw == "" {
			return "", false, errors.New("empty block engine address")
		}
		return raw, false, nil
	}

	var port string
	switch u.Scheme {
	case "https", "grpcs":
		port = "443"
	case "http", "grpc":
		port = "80"
		insecureTransport = true
	default:
		return "", false, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	if u.Port() != "" {
		return u.Host, insecureTransport, nil
	}
	return net.JoinHostPort(u.Hostname(), port), insecureTransport, nil
}
