package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akagifreeez/cookie-relay/pkg/kv"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, 3, cfg.MaxFailCount)
	assert.Equal(t, 1000, cfg.MaxLogEntries)
	assert.Equal(t, time.Hour, cfg.BackupInterval)
	assert.Equal(t, 5*time.Minute, cfg.HealthCheckInterval)
	assert.Empty(t, cfg.DefaultCookies)
	assert.False(t, cfg.RequireAPIKey)
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BACKEND", "sqlite")
	t.Setenv("MAX_FAIL_COUNT", "5")
	t.Setenv("DEFAULT_COOKIES", "session=a, session=b,,")
	t.Setenv("DEFAULT_API_KEYS", "sk-one")
	t.Setenv("REQUIRE_API_KEY", "true")
	t.Setenv("BACKUP_INTERVAL", "15m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, 5, cfg.MaxFailCount)
	assert.Equal(t, []string{"session=a", "session=b"}, cfg.DefaultCookies)
	assert.Equal(t, []string{"sk-one"}, cfg.DefaultAPIKeys)
	assert.True(t, cfg.RequireAPIKey)
	assert.Equal(t, 15*time.Minute, cfg.BackupInterval)
}

func TestLoadSeedFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "seed.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[defaults]
cookies = ["session=from-file"]
api_keys = ["sk-file"]
`), 0o600))
	t.Setenv("SEED_FILE", path)
	t.Setenv("DEFAULT_COOKIES", "session=from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"session=from-env", "session=from-file"}, cfg.DefaultCookies)
	assert.Equal(t, []string{"sk-file"}, cfg.DefaultAPIKeys)
}

func TestLoadRejectsMissingSeedFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SEED_FILE", "does-not-exist.toml")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Backend: BackendMemory, MaxFailCount: 3, MaxLogEntries: 10, HealthCheckInterval: time.Minute, BackupInterval: time.Hour}
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(*Config){
		"zero fail count":    func(c *Config) { c.MaxFailCount = 0 },
		"zero log cap":       func(c *Config) { c.MaxLogEntries = 0 },
		"unknown backend":    func(c *Config) { c.Backend = "etcd" },
		"short key":          func(c *Config) { c.EncryptionKey = "short" },
		"negative rate limit":  func(c *Config) { c.RateLimit = -1 },
		"zero health interval": func(c *Config) { c.HealthCheckInterval = 0 },
		"backup no interval": func(c *Config) { c.BackupS3Bucket = "b"; c.BackupInterval = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, err := OpenStore(ctx, &Config{Backend: BackendMemory})
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &kv.MemoryStore{}, store)
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data", "relay.db")
		store, err := OpenStore(ctx, &Config{Backend: BackendSQLite, SQLitePath: path})
		require.NoError(t, err)
		defer store.Close()
		require.NoError(t, store.Set(ctx, "k/", []byte("v")))
		assert.FileExists(t, path)
	})

	t.Run("sealed", func(t *testing.T) {
		store, err := OpenStore(ctx, &Config{Backend: BackendMemory, EncryptionKey: "0123456789abcdef0123456789abcdef"})
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &kv.SealedStore{}, store)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := OpenStore(ctx, &Config{Backend: "etcd"})
		assert.Error(t, err)
	})
}
