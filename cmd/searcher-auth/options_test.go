// ABOUTME: Tests for merging config files with command-line flags
// ABOUTME: Flags take precedence and the result must validate

package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/searcher-auth/pkg/authpb"
)

func parseCommon(t *testing.T, args ...string) commonFlags {
	t.Helper()
	t.Setenv("SEARCHER_AUTH_CONFIG", "")
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	require.NoError(t, fs.Parse(args))
	return common
}

func TestResolve_DefaultsWithoutFile(t *testing.T) {
	common := parseCommon(t)
	cfg, err := common.resolve()
	require.NoError(t, err)

	assert.Equal(t, "https://mainnet.block-engine.jito.wtf", cfg.BlockEngine.URL)
	assert.Equal(t, "searcher", cfg.Auth.Role)
}

func TestResolve_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
block_engine:
  url: "https://frankfurt.mainnet.block-engine.jito.wtf"
auth:
  keypair_path: "/from/file.json"
  role: "searcher"
`), 0644))

	common := parseCommon(t, "-config", path, "-keypair", "/from/flag.json", "-url", "http://localhost:1005")
	cfg, err := common.resolve()
	require.NoError(t, err)

	assert.Equal(t, "/from/flag.json", cfg.Auth.KeypairPath)
	assert.Equal(t, "http://localhost:1005", cfg.BlockEngine.URL)

	cc, err := clientConfig(cfg, false)
	require.NoError(t, err)
	assert.Equal(t, "localhost:1005", cc.Addr)
	assert.True(t, cc.Insecure)
	assert.False(t, cc.Eager)
}

func TestResolve_InvalidRoleFlag(t *testing.T) {
	common := parseCommon(t, "-role", "superuser")
	_, err := common.resolve()
	assert.Error(t, err)
}

func TestResolve_UserRoleFlagReachesClientConfig(t *testing.T) {
	common := parseCommon(t, "-role", "user")
	cfg, err := common.resolve()
	require.NoError(t, err)

	cc, err := clientConfig(cfg, true)
	require.NoError(t, err)
	assert.Equal(t, authpb.RoleUser, cc.Auth.Role)
}
