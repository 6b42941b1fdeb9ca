package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, Development, cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Cache.WarmingInterval.Std())
	assert.Equal(t, 5, cfg.Cache.WarmingConcurrency)
}

func TestLoadOverlaysYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: production
server:
  port: 9090
redis:
  addr: redis.internal:6379
cache:
  warming_interval: 30s
  ttl_overrides:
    overview: 10m
    system_status: 30s
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, Production, cfg.Environment)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Cache.WarmingInterval.Std())
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTLOverrides["overview"].Std())
	assert.Equal(t, 30*time.Second, cfg.Cache.TTLOverrides["system_status"].Std())

	// File values must not disturb untouched defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 5, cfg.Cache.WarmingConcurrency)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Port, cfg.Server.Port)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600))

	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("REDIS_ADDR", "env-redis:6379")
	t.Setenv("WARMING_INTERVAL", "45s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "env-redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 45*time.Second, cfg.Cache.WarmingInterval.Std())
}

func TestValidateRejectsUnknownTTLOverrideClass(t *testing.T) {
	cfg := Default()
	cfg.Cache.TTLOverrides = map[string]Duration{"bogus_class": Duration(time.Minute)}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus_class")
}

func TestValidateRejectsNonPositiveTTLOverride(t *testing.T) {
	cfg := Default()
	cfg.Cache.TTLOverrides = map[string]Duration{"overview": 0}

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadEnvironment(t *testing.T) {
	cfg := Default()
	cfg.Environment = Environment("qa")

	assert.Error(t, cfg.Validate())
}

func TestDurationUnmarshalForms(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  read_timeout: 20s
  write_timeout: 20000000000
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, cfg.Server.ReadTimeout.Std())
	assert.Equal(t, 20*time.Second, cfg.Server.WriteTimeout.Std())
}

func TestDurationRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  read_timeout: soon\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
