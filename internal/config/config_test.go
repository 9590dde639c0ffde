package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "fundamentals.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2010, cfg.Fetch.CutoffYear)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.Equal(t, 2, cfg.Fetch.RatePerSecond)
	assert.Equal(t, "periodic_reports", cfg.Documents.Dir)
	assert.Equal(t, 1095, cfg.Documents.LookbackDays)
	assert.Equal(t, "pdftotext", cfg.Documents.PdfToTextPath)
	assert.Equal(t, "local", cfg.Documents.OCRProvider)
	assert.InDelta(t, 0.02, cfg.Reconcile.Tolerance, 1e-9)
	assert.InDelta(t, 1e6, cfg.Reconcile.UnitBaseFloor, 1)
	assert.InDelta(t, 1e4, cfg.Reconcile.UnitScaleCeiling, 1)
	assert.Equal(t, 60000, cfg.Reconcile.ExcerptLimit)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.Model)
	assert.Equal(t, int64(1024), cfg.Anthropic.MaxTokens)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/fundamentals
log:
  level: debug
  format: console
server:
  port: 9090
reconcile:
  tolerance: 0.05
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 0.05, cfg.Reconcile.Tolerance, 1e-9)
	// Defaults still apply for unset values
	assert.Equal(t, 2010, cfg.Fetch.CutoffYear)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("FUNDAMENTALS_STORE_DRIVER", "postgres")
	t.Setenv("FUNDAMENTALS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("FUNDAMENTALS_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.Path = "fundamentals.db"
	cfg.Fetch.CutoffYear = 2010
	cfg.Fetch.RatePerSecond = 2
	cfg.Documents.Dir = "periodic_reports"
	cfg.Documents.LookbackDays = 1095
	cfg.Reconcile.Tolerance = 0.02
	cfg.Reconcile.UnitBaseFloor = 1e6
	cfg.Reconcile.UnitScaleCeiling = 1e4
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateFetch(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("fetch"))

	cfg.Fetch.RatePerSecond = 0
	err := cfg.Validate("fetch")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rate_per_second")
}

func TestValidateStoreDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("fetch")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/fundamentals"
	assert.NoError(t, cfg.Validate("fetch"))

	cfg.Store.Driver = "mysql"
	err = cfg.Validate("fetch")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be sqlite or postgres")
}

func TestValidateReconcileTolerance(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("validate"))

	cfg.Reconcile.Tolerance = 0
	err := cfg.Validate("validate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "tolerance")

	cfg.Reconcile.Tolerance = 0.02
	cfg.Reconcile.UnitScaleCeiling = 1e7
	err = cfg.Validate("validate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unit_scale_ceiling")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
