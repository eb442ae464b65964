package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout.Std())
	assert.Equal(t, 128, cfg.Cache.Size)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Store.ExactOnly)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
  shutdown_timeout: 10s
store:
  exact_only: true
cache:
  size: 32
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Std())
	// unset file values keep their defaults
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout.Std())
	assert.True(t, cfg.Store.ExactOnly)
	assert.Equal(t, 32, cfg.Cache.Size)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	require.Error(t, err)
}

func TestLoadNoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ROLODEX_SERVER_ADDR", ":7070")
	t.Setenv("ROLODEX_SERVER_READ_TIMEOUT", "30s")
	t.Setenv("ROLODEX_STORE_EXACT_ONLY", "true")
	t.Setenv("ROLODEX_CACHE_SIZE", "64")
	t.Setenv("ROLODEX_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout.Std())
	assert.True(t, cfg.Store.ExactOnly)
	assert.Equal(t, 64, cfg.Cache.Size)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestEnvInvalidDuration(t *testing.T) {
	t.Setenv("ROLODEX_SERVER_READ_TIMEOUT", "not-a-duration")

	_, err := Load("")
	require.Error(t, err)
}
