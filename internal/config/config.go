// ABOUTME: Configuration loading for searcher-auth clients
// ABOUTME: Reads YAML or TOML with ${ENV} expansion, durations, and validation

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/2389/searcher-auth/pkg/auth"
	"github.com/2389/searcher-auth/pkg/authpb"
	"github.com/2389/searcher-auth/pkg/client"
)

// Config is the root configuration.
type Config struct {
	BlockEngine BlockEngineConfig `yaml:"block_engine" toml:"block_engine"`
	Auth        AuthConfig        `yaml:"auth" toml:"auth"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
}

type BlockEngineConfig struct {
	URL      string `yaml:"url" toml:"url"`
	Insecure bool   `yaml:"insecure" toml:"insecure"`
}

type AuthConfig struct {
	KeypairPath     string `yaml:"keypair_path" toml:"keypair_path"`
	Role            string `yaml:"role" toml:"role"`
	RefreshFallback bool   `yaml:"refresh_fallback" toml:"refresh_fallback"`
	Eager           *bool  `yaml:"eager" toml:"eager"` // nil means true

	Timeout      time.Duration `yaml:"-" toml:"-"`
	ExpiryMargin time.Duration `yaml:"-" toml:"-"`

	TimeoutRaw      string `yaml:"timeout" toml:"timeout"`
	ExpiryMarginRaw string `yaml:"expiry_margin" toml:"expiry_margin"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		BlockEngine: BlockEngineConfig{URL: "https://mainnet.block-engine.jito.wtf"},
		Auth: AuthConfig{
			KeypairPath: "~/.config/solana/id.json",
			Role:        "searcher",
		},
		Logging: LoggingConfig{Level: "info", Format: "color"},
	}
}

// Load reads path on top of Default. Files ending in .toml are parsed as
// TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR} with environment variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that required fields are present and well formed.
func (c *Config) Validate() error {
	if c.BlockEngine.URL == "" {
		return fmt.Errorf("block_engine.url is required")
	}
	if _, _, err := client.ParseURL(c.BlockEngine.URL); err != nil {
		return fmt.Errorf("block_engine.url: %w", err)
	}

	if c.Auth.KeypairPath == "" {
		return fmt.Errorf("auth.keypair_path is required")
	}
	if _, err := authpb.ParseRole(c.Auth.Role); err != nil {
		return fmt.Errorf("auth.role: %w", err)
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json", "color":
	default:
		return fmt.Errorf("logging.format must be text, json, or color (got %q)", c.Logging.Format)
	}

	return nil
}

func parseDurations(cfg *Config) error {
	var err error

	if cfg.Auth.TimeoutRaw != "" {
		cfg.Auth.Timeout, err = time.ParseDuration(cfg.Auth.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing timeout %q: %w", cfg.Auth.TimeoutRaw, err)
		}
	}

	if cfg.Auth.ExpiryMarginRaw != "" {
		cfg.Auth.ExpiryMargin, err = time.ParseDuration(cfg.Auth.ExpiryMarginRaw)
		if err != nil {
			return fmt.Errorf("parsing expiry_margin %q: %w", cfg.Auth.ExpiryMarginRaw, err)
		}
	}

	return nil
}

// KeypairPath returns the keypair path with a leading ~ expanded.
func (c *Config) KeypairPath() (string, error) {
	path := c.Auth.KeypairPath
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ClientConfig converts the file settings into a dialable client.Config.
func (c *Config) ClientConfig() (client.Config, error) {
	addr, insecureTransport, err := client.ParseURL(c.BlockEngine.URL)
	if err != nil {
		return client.Config{}, fmt.Errorf("block_engine.url: %w", err)
	}
	role, err := authpb.ParseRole(c.Auth.Role)
	if err != nil {
		return client.Config{}, fmt.Errorf("auth.role: %w", err)
	}

	eager := true
	if c.Auth.Eager != nil {
		eager = *c.Auth.Eager
	}

	return client.Config{
		Addr:     addr,
		Insecure: insecureTransport || c.BlockEngine.Insecure,
		Eager:    eager,
		Auth: auth.Config{
			Role:            role,
			Timeout:         c.Auth.Timeout,
			ExpiryMargin:    c.Auth.ExpiryMargin,
			RefreshFallback: c.Auth.RefreshFallback,
		},
	}, nil
}
