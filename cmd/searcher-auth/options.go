// ABOUTME: Flag and config-file resolution shared by the subcommands
// ABOUTME: Flags override file values, which override built-in defaults

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/2389/searcher-auth/internal/config"
	"github.com/2389/searcher-auth/internal/logging"
	"github.com/2389/searcher-auth/pkg/auth"
	"github.com/2389/searcher-auth/pkg/client"
)

type commonFlags struct {
	configPath string
	url        string
	keypair    string
	role       string
	insecure   bool
	logLevel   string
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", os.Getenv("SEARCHER_AUTH_CONFIG"), "config file (YAML or TOML)")
	fs.StringVar(&f.url, "url", "", "block engine URL")
	fs.StringVar(&f.keypair, "keypair", "", "keypair file")
	fs.StringVar(&f.role, "role", "", "auth role")
	fs.BoolVar(&f.insecure, "insecure", false, "disable TLS")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn, or error")
}

// resolve merges the config file (if any) with the flags.
func (f *commonFlags) resolve() (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if f.url != "" {
		cfg.BlockEngine.URL = f.url
	}
	if f.keypair != "" {
		cfg.Auth.KeypairPath = f.keypair
	}
	if f.role != "" {
		cfg.Auth.Role = f.role
	}
	if f.insecure {
		cfg.BlockEngine.Insecure = true
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating settings: %w", err)
	}
	return cfg, nil
}

func loadSigner(cfg *config.Config) (auth.Signer, error) {
	path, err := cfg.KeypairPath()
	if err != nil {
		return nil, err
	}
	return auth.LoadSigner(path)
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
}

func clientConfig(cfg *config.Config, eager bool) (client.Config, error) {
	cc, err := cfg.ClientConfig()
	if err != nil {
		return client.Config{}, err
	}
	cc.Eager = eager
	return cc, nil
}
