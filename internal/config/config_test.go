package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefault_HasDemoPairs(t *testing.T) {
	cfg := Default()
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, 4, cfg.Shards.NumShards)
	require.Len(t, cfg.Pairs, 2)
	require.Equal(t, "BTC-USD", cfg.Pairs[0].Symbol)
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default().Server.Addr, cfg.Server.Addr)
	require.Equal(t, Default().Shards.NumShards, cfg.Shards.NumShards)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kernel.yaml")
	contents := `
server:
  addr: ":9090"
shards:
  num_shards: 8
  algorithm: pro-rata
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, 8, cfg.Shards.NumShards)
	require.Equal(t, "pro-rata", cfg.Shards.Algorithm)
	require.Equal(t, Default().Audit.Path, cfg.Audit.Path, "keys the file omits keep their default")
}

func TestLoad_EnvOverridesFileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kernel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o644))

	t.Setenv("KERNEL_SERVER_ADDR", ":7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.Server.Addr, "an env var takes precedence over both the file and the default")
}

func TestServerConfig_ShutdownTimeoutDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
}
