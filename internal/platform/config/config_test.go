package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, EnvDev, cfg.Env)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 72*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "@every 20s", cfg.Jobs.StatsPageSpec)
	assert.Same(t, Cfg, cfg)
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	dir := chdirTemp(t)
	yaml := []byte("env: qa\nserver:\n  address: \":9090\"\ndatabase:\n  driver: postgres\n  dsn: host=db\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))
	t.Setenv("DATABASE_REDIS_ADDRESS", "redis:6380")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, EnvQA, cfg.Env)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "redis:6380", cfg.Database.Redis.Address)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("database:\n  driver: mysql\n"), 0o644))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestProdRequiresSecret(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("env: prod\n"), 0o644))

	_, err := LoadConfig()
	assert.Error(t, err)
}
