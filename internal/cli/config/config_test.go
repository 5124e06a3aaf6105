package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/store"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Development)
	assert.Empty(t, cfg.Store.Driver)
	assert.Equal(t, store.DefaultRedisPrefix, cfg.Store.Prefix)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Empty(t, cfg.Server.AuthSecret)
	assert.Equal(t, 24*time.Hour, cfg.Server.TokenTTL)
}

func TestLoadWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	content := `
graph: graphs/shop.yaml
log:
  level: debug
  development: true
store:
  driver: sqlite3
  dsn: runs.db
server:
  address: 127.0.0.1:9090
  shutdown_timeout: 5s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "multicast.yaml"), []byte(content), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "graphs/shop.yaml", cfg.Graph)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, "sqlite3", cfg.Store.Driver)
	assert.Equal(t, "runs.db", cfg.Store.DSN)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Address)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
}

func TestLoadExplicitPath(t *testing.T) {
	dir := t.TempDir()
	chdir(t, t.TempDir())

	path := filepath.Join(dir, "ci.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: error\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoadEnvironmentOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MULTICAST_STORE_DRIVER", "redis")
	t.Setenv("MULTICAST_STORE_DSN", "localhost:6379")
	t.Setenv("MULTICAST_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "localhost:6379", cfg.Store.DSN)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, "store.driver must be one of"},
		{"missing dsn", func(c *Config) { c.Store.Driver = "pgx" }, "store.dsn is required"},
		{"empty address", func(c *Config) { c.Server.Address = "" }, "server.address"},
		{"auth without ttl", func(c *Config) { c.Server.AuthSecret = "s3cret" }, "server.token_ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Log: LogConfig{Level: "info"}}
			cfg.Server.Address = ":8080"
			tt.modify(cfg)

			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
