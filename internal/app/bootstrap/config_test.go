package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func setSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "session")
	t.Setenv("JWT_RESET_SECRET", "reset")
}

func TestLoadConfigLayering(t *testing.T) {
	setSecrets(t)
	path := writeConfig(t, `
service:
  http_port: 8181
  storage: memory
auth:
  session_ttl: 2h
  reset_ttl: "600"
  bcrypt_cost: 4
app:
  client_url: http://admin.local
`)
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_SECRET_EXPIRATION", "1d")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTPPort, "env wins over file")
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL.Duration())
	assert.Equal(t, 10*time.Minute, cfg.ResetTTL.Duration())
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.Equal(t, "http://admin.local", cfg.ClientURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 9090, cfg.GRPCPort, "default survives")
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	setSecrets(t)
	t.Setenv("STORAGE_DRIVER", "Memory")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, time.Hour, cfg.SessionTTL.Duration())
}

func TestValidate(t *testing.T) {
	base := defaultConfig()
	base.SessionSecret = "a"
	base.ResetSecret = "b"
	base.Storage = StorageMemory
	require.NoError(t, base.Validate())

	cases := map[string]func(*Config){
		"missing session secret": func(c *Config) { c.SessionSecret = "" },
		"shared secrets":         func(c *Config) { c.ResetSecret = c.SessionSecret },
		"postgres without url":   func(c *Config) { c.Storage = StoragePostgres },
		"unknown driver":         func(c *Config) { c.Storage = "mongo" },
		"bcrypt cost too low":    func(c *Config) { c.BcryptCost = 1 },
		"zero reset lifetime":    func(c *Config) { c.ResetTTL = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLifetimeParsing(t *testing.T) {
	cases := map[string]time.Duration{
		"3600": time.Hour,
		"7d":   7 * 24 * time.Hour,
		"90m":  90 * time.Minute,
	}
	for raw, want := range cases {
		var l Lifetime
		require.NoError(t, l.UnmarshalText([]byte(raw)), raw)
		assert.Equal(t, want, l.Duration(), raw)
	}

	var l Lifetime
	assert.Error(t, l.UnmarshalText([]byte("soon")))
	assert.Error(t, l.UnmarshalText([]byte("xd")))
}

func TestSlogLevelFallsBackToInfo(t *testing.T) {
	cfg := Config{LogLevel: "debug"}
	assert.Equal(t, "DEBUG", cfg.SlogLevel().String())
	cfg.LogLevel = "loud"
	assert.Equal(t, "INFO", cfg.SlogLevel().String())
}
