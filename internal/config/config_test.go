package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaults checks the built-in defaults.
func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "toa_permit", cfg.Database.DBName)
	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.Equal(t, "toa-permit", cfg.Auth.Issuer)
	assert.True(t, cfg.Sweeper.Enabled)
	assert.Equal(t, "0 * * * *", cfg.Sweeper.Schedule)
	assert.False(t, cfg.Limits.Enabled)
	assert.False(t, IsProduction(cfg))
}

// TestLoadFromFile checks YAML loading with partial overrides.
func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
env: production
server:
  port: 9090
database:
  driver: sqlite
  path: /tmp/permits.db
auth:
  jwt_secret: s3cret
sweeper:
  schedule: "*/30 * * * *"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	// Environment-dependent defaults are resolved before the file is
	// read, so the environment drives them.
	t.Setenv("APP_ENV", "production")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host) // default survives
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/permits.db", cfg.Database.Path)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "*/30 * * * *", cfg.Sweeper.Schedule)
	assert.True(t, IsProduction(cfg))
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

// TestLoadMissingFile checks the error path.
func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

// TestEnvOverride checks APP_ environment variables.
func TestEnvOverride(t *testing.T) {
	t.Setenv("APP_SERVER_PORT", "7070")
	t.Setenv("APP_DATABASE_DRIVER", "sqlite")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}
