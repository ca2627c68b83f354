package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, int32(25), cfg.Database.MaxConns)
	assert.Equal(t, 30*time.Second, cfg.Database.StatementTimeout)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Redis.IdempotencyTTL)
	assert.False(t, cfg.Purchasing.TrackPartialReceipts)
	assert.Equal(t, 7, cfg.Reorder.DefaultPaymentTerms)
	assert.Equal(t, "true", cfg.Reorder.ApprovalRule)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MEDSTORE_APP_PORT", "9090")
	t.Setenv("MEDSTORE_DATABASE_DSN", "postgres://medstore@db:5432/medstore")
	t.Setenv("MEDSTORE_DATABASE_STATEMENT_TIMEOUT", "5s")
	t.Setenv("MEDSTORE_PURCHASING_TRACK_PARTIAL_RECEIPTS", "true")
	t.Setenv("MEDSTORE_REORDER_APPROVAL_RULE", "total <= 5000.0")
	t.Setenv("MEDSTORE_REDIS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "postgres://medstore@db:5432/medstore", cfg.Database.DSN)
	assert.Equal(t, 5*time.Second, cfg.Database.StatementTimeout)
	assert.True(t, cfg.Purchasing.TrackPartialReceipts)
	assert.Equal(t, "total <= 5000.0", cfg.Reorder.ApprovalRule)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	yaml := "app:\n  port: \"7070\"\nreorder:\n  default_payment_terms: 30\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.App.Port)
	assert.Equal(t, 30, cfg.Reorder.DefaultPaymentTerms)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:      AppConfig{Env: "production"},
			Database: DatabaseConfig{DSN: "postgres://x", MaxConns: 5},
			JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
			Reorder:  ReorderConfig{DefaultPaymentTerms: 7, ApprovalRule: "true"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing secret in production", func(c *Config) { c.JWT.Secret = "" }, "jwt.secret is required"},
		{"short secret", func(c *Config) { c.JWT.Secret = "short" }, "at least 32"},
		{"no dsn", func(c *Config) { c.Database.DSN = "" }, "database.dsn"},
		{"redis without addr", func(c *Config) { c.Redis = RedisConfig{Enabled: true} }, "redis.addr"},
		{"negative terms", func(c *Config) { c.Reorder.DefaultPaymentTerms = -1 }, "default_payment_terms"},
		{"empty rule", func(c *Config) { c.Reorder.ApprovalRule = " " }, "approval_rule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MEDSTORE_DOTENV_PROBE=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MEDSTORE_DOTENV_PROBE") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("MEDSTORE_DOTENV_PROBE"))
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
