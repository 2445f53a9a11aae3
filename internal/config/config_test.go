// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/2389/searcher-auth/pkg/authpb"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
block_engine:
  url: "https://ny.mainnet.block-engine.jito.wtf"

auth:
  keypair_path: "/keys/id.json"
  role: "searcher"
  timeout: "5s"
  expiry_margin: "30s"
  refresh_fallback: true
  eager: false

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BlockEngine.URL != "https://ny.mainnet.block-engine.jito.wtf" {
		t.Errorf("BlockEngine.URL = %q", cfg.BlockEngine.URL)
	}
	if cfg.Auth.Timeout != 5*time.Second {
		t.Errorf("Auth.Timeout = %v, want 5s", cfg.Auth.Timeout)
	}
	if cfg.Auth.ExpiryMargin != 30*time.Second {
		t.Errorf("Auth.ExpiryMargin = %v, want 30s", cfg.Auth.ExpiryMargin)
	}
	if !cfg.Auth.RefreshFallback {
		t.Error("Auth.RefreshFallback = false, want true")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want debug/json", cfg.Logging)
	}

	cc, err := cfg.ClientConfig()
	if err != nil {
		t.Fatalf("ClientConfig() error = %v", err)
	}
	if cc.Addr != "ny.mainnet.block-engine.jito.wtf:443" {
		t.Errorf("Addr = %q", cc.Addr)
	}
	if cc.Insecure {
		t.Error("https URL must not be insecure")
	}
	if cc.Eager {
		t.Error("Eager = true, want false from config")
	}
	if cc.Auth.Role != authpb.RoleSearcher {
		t.Errorf("Role = %v, want searcher", cc.Auth.Role)
	}
	if cc.Auth.Timeout != 5*time.Second || cc.Auth.ExpiryMargin != 30*time.Second || !cc.Auth.RefreshFallback {
		t.Errorf("Auth = %+v, not carried over from file", cc.Auth)
	}
}

func TestClientConfig_CarriesConfiguredRole(t *testing.T) {
	tests := map[string]authpb.Role{
		"user":      authpb.RoleUser,
		"relayer":   authpb.RoleRelayer,
		"searcher":  authpb.RoleSearcher,
		"validator": authpb.RoleValidator,
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Auth.Role = name

			cc, err := cfg.ClientConfig()
			if err != nil {
				t.Fatalf("ClientConfig() error = %v", err)
			}
			if cc.Auth.Role != want {
				t.Errorf("Role = %v, want %v", cc.Auth.Role, want)
			}
		})
	}
}

func TestLoad_ValidTOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[block_engine]
url = "http://localhost:1005"

[auth]
keypair_path = "/keys/id.json"
role = "relayer"
timeout = "2s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cc, err := cfg.ClientConfig()
	if err != nil {
		t.Fatalf("ClientConfig() error = %v", err)
	}
	if cc.Addr != "localhost:1005" || !cc.Insecure {
		t.Errorf("Addr = %q insecure = %v, want localhost:1005 insecure", cc.Addr, cc.Insecure)
	}
	if cc.Auth.Role != authpb.RoleRelayer {
		t.Errorf("Role = %v, want relayer", cc.Auth.Role)
	}
	if cc.Auth.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", cc.Auth.Timeout)
	}
	if !cc.Eager {
		t.Error("Eager should default to true")
	}
	if cfg.Logging.Format != "color" {
		t.Errorf("Logging.Format = %q, want default color", cfg.Logging.Format)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_SEARCHER_KEYPAIR", "/secret/keypair.json")
	t.Setenv("TEST_BLOCK_ENGINE", "https://amsterdam.mainnet.block-engine.jito.wtf")

	path := writeConfig(t, "config.yaml", `
block_engine:
  url: "${TEST_BLOCK_ENGINE}"
auth:
  keypair_path: "${TEST_SEARCHER_KEYPAIR}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.KeypairPath != "/secret/keypair.json" {
		t.Errorf("KeypairPath = %q, want /secret/keypair.json", cfg.Auth.KeypairPath)
	}
	if cfg.BlockEngine.URL != "https://amsterdam.mainnet.block-engine.jito.wtf" {
		t.Errorf("URL = %q", cfg.BlockEngine.URL)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{
			name:    "bad duration",
			file:    "config.yaml",
			content: "auth:\n  timeout: \"soon\"\n",
			wantErr: "parsing timeout",
		},
		{
			name:    "unknown role",
			file:    "config.yaml",
			content: "auth:\n  role: \"admin\"\n",
			wantErr: "auth.role",
		},
		{
			name:    "empty url",
			file:    "config.yaml",
			content: "block_engine:\n  url: \"\"\n",
			wantErr: "block_engine.url is required",
		},
		{
			name:    "unsupported scheme",
			file:    "config.yaml",
			content: "block_engine:\n  url: \"ftp://example.com\"\n",
			wantErr: "block_engine.url",
		},
		{
			name:    "bad log format",
			file:    "config.yaml",
			content: "logging:\n  format: \"xml\"\n",
			wantErr: "logging.format",
		},
		{
			name:    "malformed yaml",
			file:    "config.yaml",
			content: "auth: [unclosed",
			wantErr: "parsing config file",
		},
		{
			name:    "malformed toml",
			file:    "config.toml",
			content: "[auth\nrole = ",
			wantErr: "parsing config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			if err == nil {
				t.Fatal("Load() should have returned an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}

func TestKeypairPath_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := Default()
	got, err := cfg.KeypairPath()
	if err != nil {
		t.Fatalf("KeypairPath() error = %v", err)
	}
	if want := filepath.Join(home, ".config/solana/id.json"); got != want {
		t.Errorf("KeypairPath() = %q, want %q", got, want)
	}

	cfg.Auth.KeypairPath = "/abs/id.json"
	if got, _ := cfg.KeypairPath(); got != "/abs/id.json" {
		t.Errorf("KeypairPath() = %q, want unchanged absolute path", got)
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}
