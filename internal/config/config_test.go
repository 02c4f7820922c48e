package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inTempDir(t *testing.T) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "polisee.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 50, cfg.Store.InsertBatchSize)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.InDelta(t, 10, cfg.Server.UploadsPerMinute, 0.001)
	assert.Equal(t, int64(8<<20), cfg.Ingest.MaxUploadBytes)
	assert.Equal(t, 60, cfg.Analytics.ExpiryWindowDays)
	assert.InDelta(t, 2000, cfg.Analytics.HighPremiumAnnualNIS, 0.001)
	assert.InDelta(t, 0.70, cfg.Analytics.ConcentrationShare, 0.001)
	assert.InDelta(t, 0.20, cfg.Analytics.ShopSavingsRate, 0.001)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	inTempDir(t)
	t.Setenv("POLISEE_STORE_DRIVER", "postgres")
	t.Setenv("POLISEE_SERVER_PORT", "9090")
	t.Setenv("POLISEE_ANALYTICS_EXPIRY_WINDOW_DAYS", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Analytics.ExpiryWindowDays)
}

func TestLoad_ConfigFile(t *testing.T) {
	inTempDir(t)
	require.NoError(t, os.WriteFile("config.yaml", []byte(`
store:
  driver: postgres
  database_url: postgres://localhost/polisee
log:
  level: debug
`), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/polisee", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched sections keep defaults
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "driver: sqlite")
	assert.Contains(t, string(data), "expiry_window_days: 60")

	// refuses to clobber an existing file
	err = WriteDefault(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "shouting", Format: "json"})
	require.Error(t, err)
}
