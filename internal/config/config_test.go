package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(EnvOverrides{}, CLIOverrides{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "gcloud", cfg.Gcloud)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.CacheDir)
}

func TestLoadFromFile(t *testing.T) {
	path := writeTestConfig(t, `
cache_dir = "/tmp/gdocs-test"
gcloud = "/opt/google-cloud-sdk/bin/gcloud"
log_level = "debug"
`)

	cfg, err := Load(EnvOverrides{ConfigPath: path}, CLIOverrides{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/gdocs-test", cfg.CacheDir)
	assert.Equal(t, "/opt/google-cloud-sdk/bin/gcloud", cfg.Gcloud)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadEnvBeatsFile(t *testing.T) {
	path := writeTestConfig(t, `cache_dir = "/from-file"`)

	cfg, err := Load(EnvOverrides{
		ConfigPath: path,
		CacheDir:   "/from-env",
	}, CLIOverrides{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "/from-env", cfg.CacheDir)
}

func TestLoadCLIBeatsEnv(t *testing.T) {
	path := writeTestConfig(t, `cache_dir = "/from-file"`)

	cfg, err := Load(EnvOverrides{
		ConfigPath: path,
		CacheDir:   "/from-env",
	}, CLIOverrides{
		CacheDir: "/from-flag",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "/from-flag", cfg.CacheDir)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")

	_, err := Load(EnvOverrides{ConfigPath: missing}, CLIOverrides{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := writeTestConfig(t, `cache_dir = [broken`)

	_, err := Load(EnvOverrides{ConfigPath: path}, CLIOverrides{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

// Unknown keys must not fail the load; forward compatibility with newer
// config files matters more than strictness.
func TestLoadUnknownKeysTolerated(t *testing.T) {
	path := writeTestConfig(t, `
cache_dir = "/tmp/x"
future_option = true
`)

	cfg, err := Load(EnvOverrides{ConfigPath: path}, CLIOverrides{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", cfg.CacheDir)
}

func TestReadEnvOverrides(t *testing.T) {
	t.Setenv(EnvConfig, "/cfg/path.toml")
	t.Setenv(EnvCacheDir, "/cache/dir")
	t.Setenv(EnvGcloud, "/bin/gcloud")
	t.Setenv(EnvLogLevel, "warn")

	env := ReadEnvOverrides()

	assert.Equal(t, "/cfg/path.toml", env.ConfigPath)
	assert.Equal(t, "/cache/dir", env.CacheDir)
	assert.Equal(t, "/bin/gcloud", env.Gcloud)
	assert.Equal(t, "warn", env.LogLevel)
}
