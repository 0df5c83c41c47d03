package globalconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/metafetch/internal/config"
)

func TestLoad_FromFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")

	content := `api:
  base_url: https://api.example.test/v1
  site: UK
  timeout: 5s
cache:
  driver: sqlite
  dir: ` + dir + `
retry:
  trigger_status_codes: "500;503"
  max_attempts: 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("METAFETCH_SITE", "DE")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.test/v1", cfg.API.BaseURL)
	assert.Equal(t, "DE", cfg.API.Site)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, config.DriverSQLite, cfg.Cache.Driver)
	assert.Equal(t, filepath.Join(dir, "cache.sqlite"), cfg.Cache.DSN)
	assert.Equal(t, "500;503", cfg.Retry.TriggerStatusCodes)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.InitialInterval)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("METAFETCH_API_BASE_URL", "https://api.example.test/v1")
	t.Setenv("METAFETCH_CACHE_DIR", t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, "US", cfg.API.Site)
	assert.Equal(t, config.DriverFS, cfg.Cache.Driver)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}

func TestLoad_InvalidConfiguration(t *testing.T) {
	t.Setenv("METAFETCH_API_BASE_URL", "")
	t.Setenv("METAFETCH_CACHE_DIR", t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url is required")
}

func TestSaveDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	cfg := config.Default()
	cfg.API.BaseURL = "https://api.example.test/v1"

	require.NoError(t, SaveDefault(path, cfg, false))
	assert.ErrorIs(t, SaveDefault(path, cfg, false), ErrConfigExists)
	require.NoError(t, SaveDefault(path, cfg, true))

	t.Setenv("METAFETCH_CACHE_DIR", t.TempDir())
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Retry.TriggerStatusCodes, loaded.Retry.TriggerStatusCodes)
	assert.Equal(t, cfg.Retry.TriggerExceptions, loaded.Retry.TriggerExceptions)
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	p, err := Path("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg-config/metafetch/config.yml", p)

	p, err = Path("/etc/metafetch.yml")
	require.NoError(t, err)
	assert.Equal(t, "/etc/metafetch.yml", p)
}
