package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "server:\n  port: 8080\n")

	initial, err := Load(path)
	require.NoError(t, err)

	w, err := NewWatcher(path, initial, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	var (
		mu       sync.Mutex
		reloaded *Config
	)
	w.OnChange(func(cfg *Config) {
		mu.Lock()
		reloaded = cfg
		mu.Unlock()
	})

	writeConfig(t, path, "server:\n  port: 9191\n")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return reloaded != nil && reloaded.Server.Port == 9191
	}, 5*time.Second, 50*time.Millisecond)

	assert.Equal(t, 9191, w.Current().Server.Port)
}

func TestWatcherKeepsOldConfigOnInvalidReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "server:\n  port: 8080\n")

	initial, err := Load(path)
	require.NoError(t, err)

	w, err := NewWatcher(path, initial, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	writeConfig(t, path, "server:\n  port: -1\n")

	// Give the debounce window time to fire the rejected reload.
	time.Sleep(2 * debounceDelay)
	assert.Equal(t, 8080, w.Current().Server.Port)
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "server:\n  port: 8080\n")

	w, err := NewWatcher(path, Default(), zap.NewNop())
	require.NoError(t, err)

	w.Stop()
	w.Stop()
}
