package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
poller:
  enabled: true
  address: "192.168.4.1"
  danger_zone: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10.0, cfg.Server.RateLimitPerSec)
	assert.Equal(t, 5, cfg.Server.RateLimitBurst)
	assert.True(t, cfg.Poller.Enabled)
	assert.Equal(t, "192.168.4.1", cfg.Poller.Address)
	assert.Equal(t, 2*time.Second, cfg.Poller.Interval)
	assert.Equal(t, 10*time.Second, cfg.Poller.Timeout)
	assert.Equal(t, time.Second, cfg.Poller.Debounce)
	assert.True(t, cfg.Poller.DangerZone)
	assert.Equal(t, 6, cfg.Store.SlotCount)
	assert.Equal(t, 5*time.Second, cfg.Relay.WriteTimeout)
	assert.Equal(t, 24*time.Hour, cfg.History.Retention)
	assert.Equal(t, "@every 1h", cfg.History.PruneSchedule)
	assert.Equal(t, "file::memory:?cache=shared", cfg.Database.DSN)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, 64, cfg.WorkerPool.QueueSize)
	assert.False(t, cfg.Push.Enabled())
}

func TestLoad_DerivesDurations(t *testing.T) {
	path := writeConfig(t, `
poller:
  interval_ms: 500
  timeout_seconds: 3
  debounce_ms: 1500
relay:
  write_timeout_seconds: 2
history:
  retention_hours: 48
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Poller.Interval)
	assert.Equal(t, 3*time.Second, cfg.Poller.Timeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.Poller.Debounce)
	assert.Equal(t, 2*time.Second, cfg.Relay.WriteTimeout)
	assert.Equal(t, 48*time.Hour, cfg.History.Retention)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  dsn: "parking.db"
`)
	t.Setenv("PARKING_SERVER_PORT", "7070")
	t.Setenv("PARKING_SENSOR_ADDRESS", "sensor.local")
	t.Setenv("PARKING_DATABASE_DSN", "postgres://localhost/parking")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.True(t, cfg.Poller.Enabled)
	assert.Equal(t, "sensor.local", cfg.Poller.Address)
	assert.Equal(t, "postgres://localhost/parking", cfg.Database.DSN)
}

func TestLoad_InvalidPortOverrideIsIgnored(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("PARKING_SERVER_PORT", "eighty")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [not, a, map]\n"))
	assert.Error(t, err)
}

func TestPushConfig_Enabled(t *testing.T) {
	assert.False(t, PushConfig{PublicKey: "pub"}.Enabled())
	assert.True(t, PushConfig{PublicKey: "pub", PrivateKey: "priv"}.Enabled())
}

func TestSampleConfigLoads(t *testing.T) {
	cfg, err := Load("config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.WorkerPool.Size)
	assert.True(t, cfg.Relay.BroadcastStoreEvents)
	assert.True(t, cfg.History.Enabled)
}
