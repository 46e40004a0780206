package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "2022", cfg.ACS.Year)
	assert.Equal(t, "acs5", cfg.ACS.Dataset)
	assert.Equal(t, "https://api.census.gov/data", cfg.ACS.BaseURL)
	assert.Empty(t, cfg.ACS.APIKey)
	assert.Equal(t, 30, cfg.ACS.TimeoutSecs)
	assert.Equal(t, 30*time.Second, cfg.ACS.Timeout())
	assert.Empty(t, cfg.ACS.Variables)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "acs.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "acs_records", cfg.Store.Table)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
acs:
  year: "2019"
  dataset: acs1
  timeout_secs: 10
  variables:
    - NAME
    - B25001_001E
store:
  driver: postgres
  database_url: postgres://localhost/census
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "2019", cfg.ACS.Year)
	assert.Equal(t, "acs1", cfg.ACS.Dataset)
	assert.Equal(t, 10*time.Second, cfg.ACS.Timeout())
	assert.Equal(t, []string{"NAME", "B25001_001E"}, cfg.ACS.Variables)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/census", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, "acs_records", cfg.Store.Table)
	assert.Equal(t, "https://api.census.gov/data", cfg.ACS.BaseURL)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
acs:
  year: "2019"
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("ACS_ACS_YEAR", "2021")
	t.Setenv("ACS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "2021", cfg.ACS.Year)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("ACS_SERVER_PORT", "3000")
	t.Setenv("ACS_ACS_API_KEY", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.ACS.APIKey)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("acs: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
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
	cfg.ACS.Year = "2022"
	cfg.ACS.Dataset = "acs5"
	cfg.ACS.TimeoutSecs = 30
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "acs.db"
	cfg.Store.Table = "acs_records"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateFetch(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("fetch"))

	cfg.ACS.Year = ""
	cfg.ACS.TimeoutSecs = -1
	err := cfg.Validate("fetch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acs.year is required")
	assert.Contains(t, err.Error(), "acs.timeout_secs must be >= 0")
}

func TestValidateLoad(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("load"))

	cfg.Store.Driver = "mysql"
	cfg.Store.DatabaseURL = ""
	err := cfg.Validate("load")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be postgres or sqlite")
	assert.Contains(t, err.Error(), "store.database_url is required")
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
