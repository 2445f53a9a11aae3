// ABOUTME: Standalone auth.AuthService for local end-to-end testing of searcher clients
// ABOUTME: Usage: fake-auth-server [-addr localhost:1005] [-access-ttl 30m] [-refresh-ttl 24h]

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/2389/searcher-auth/internal/authserver"
	"github.com/2389/searcher-auth/internal/logging"
	"github.com/2389/searcher-auth/pkg/authpb"
)

func main() {
	addr := flag.String("addr", "localhost:1005", "gRPC listen address")
	secret := flag.String("secret", os.Getenv("FAKE_AUTH_SECRET"), "HMAC secret, at least 32 bytes (random if empty)")
	accessTTL := flag.Duration("access-ttl", authserver.DefaultAccessTTL, "access token lifetime")
	refreshTTL := flag.Duration("refresh-ttl", authserver.DefaultRefreshTTL, "refresh token lifetime")
	challengeTTL := flag.Duration("challenge-ttl", authserver.DefaultChallengeTTL, "challenge lifetime")
	roles := flag.String("roles", "searcher", "comma-separated roles allowed to authenticate")
	challengeRate := flag.Float64("challenge-rate", 0, "challenge requests per second per key (0 = unlimited)")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address")
	logLevel := flag.String("log-level", "info", "debug, info, warn, or error")
	logFormat := flag.String("log-format", "color", "text, json, or color")
	flag.Parse()

	logger := logging.New(*logLevel, *logFormat, os.Stderr)

	cfg := authserver.Config{
		AccessTTL:      *accessTTL,
		RefreshTTL:     *refreshTTL,
		ChallengeTTL:   *challengeTTL,
		ChallengeRate:  *challengeRate,
		ChallengeBurst: 5,
	}
	if err := run(*addr, *secret, *roles, *metricsAddr, cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(addr, secret, roles, metricsAddr string, cfg authserver.Config, logger *slog.Logger) error {
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("generating secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
	}
	cfg.Secret = []byte(secret)

	for _, name := range strings.Split(roles, ",") {
		role, err := authpb.ParseRole(name)
		if err != nil {
			return err
		}
		cfg.AllowedRoles = append(cfg.AllowedRoles, role)
	}

	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		cfg.Registerer = reg
		go serveMetrics(metricsAddr, reg, logger)
	}

	authSrv, err := authserver.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating auth server: %w", err)
	}
	defer authSrv.Close()

	server := grpc.NewServer(
		authpb.ServerOption(),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    15 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.ChainUnaryInterceptor(authserver.UnaryInterceptor(authSrv.Tokens(), logger)),
		grpc.ChainStreamInterceptor(authserver.StreamInterceptor(authSrv.Tokens(), logger)),
	)
	authpb.RegisterAuthServiceServer(server, authSrv)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		server.GracefulStop()
	}()

	logger.Info("fake auth server listening", "addr", lis.Addr().String(), "roles", roles)
	if err := server.Serve(lis); err != nil {
		return fmt.Errorf("serving: %w", err)
	}

	stats := authSrv.Stats()
	logger.Info("served",
		"challenges", stats.Challenges,
		"handshakes", stats.Handshakes,
		"refreshes", stats.Refreshes,
	)
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", "error", err)
	}
}
