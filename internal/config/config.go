// Package config resolves gdocmd's effective configuration from three
// layers, lowest to highest priority: built-in defaults, an optional TOML
// config file, and GDOCMD_* environment variables. CLI flags are applied
// on top by the command layer, because flags always win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

// Environment override variable names.
const (
	EnvConfig   = "GDOCMD_CONFIG"
	EnvCacheDir = "GDOCMD_CACHE_DIR"
	EnvGcloud   = "GDOCMD_GCLOUD"
	EnvLogLevel = "GDOCMD_LOG_LEVEL"
)

// Config is the effective configuration for one invocation.
type Config struct {
	// CacheDir is where exported documents and their sidecars live.
	CacheDir string `toml:"cache_dir"`
	// Gcloud is the binary invoked for the interactive login flow. A bare
	// name is resolved through PATH.
	Gcloud string `toml:"gcloud"`
	// LogLevel is the baseline log level; --verbose and --quiet override it.
	LogLevel string `toml:"log_level"`
}

// EnvOverrides carries the GDOCMD_* environment values, read once at startup.
type EnvOverrides struct {
	ConfigPath string
	CacheDir   string
	Gcloud     string
	LogLevel   string
}

// CLIOverrides carries values the user set explicitly on the command line.
// Empty fields mean "not set".
type CLIOverrides struct {
	ConfigPath string
	CacheDir   string
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		CacheDir: DefaultCacheDir(),
		Gcloud:   "gcloud",
		LogLevel: "info",
	}
}

// ReadEnvOverrides reads the GDOCMD_* environment variables.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		CacheDir:   os.Getenv(EnvCacheDir),
		Gcloud:     os.Getenv(EnvGcloud),
		LogLevel:   os.Getenv(EnvLogLevel),
	}
}

// Load resolves the effective configuration. A missing config file at the
// default location is fine; a path the user named explicitly (flag or env)
// must exist. A file that exists but fails to parse is always an error.
func Load(env EnvOverrides, cli CLIOverrides, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := Defaults()

	path, explicit := configPath(env, cli)
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)

		switch {
		case errors.Is(err, fs.ErrNotExist):
			if explicit {
				return nil, fmt.Errorf("config: %s does not exist", path)
			}
			// No config file: defaults apply.
		case err != nil:
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		default:
			warnUnknownKeys(path, md, logger)
		}
	}

	applyEnv(&cfg, env)
	applyCLI(&cfg, cli)

	if cfg.CacheDir == "" {
		return nil, errors.New("config: cannot determine cache directory (home directory unknown; set cache_dir or GDOCMD_CACHE_DIR)")
	}

	return &cfg, nil
}

// configPath picks the config file location: --config beats GDOCMD_CONFIG
// beats the default path. The second return reports whether the user named
// the path explicitly.
func configPath(env EnvOverrides, cli CLIOverrides) (string, bool) {
	if cli.ConfigPath != "" {
		return cli.ConfigPath, true
	}

	if env.ConfigPath != "" {
		return env.ConfigPath, true
	}

	return DefaultConfigPath(), false
}

func applyEnv(cfg *Config, env EnvOverrides) {
	if env.CacheDir != "" {
		cfg.CacheDir = env.CacheDir
	}

	if env.Gcloud != "" {
		cfg.Gcloud = env.Gcloud
	}

	if env.LogLevel != "" {
		cfg.LogLevel = env.LogLevel
	}
}

func applyCLI(cfg *Config, cli CLIOverrides) {
	if cli.CacheDir != "" {
		cfg.CacheDir = cli.CacheDir
	}
}

// warnUnknownKeys logs any config keys this binary does not understand.
// Unknown keys are warnings, not errors: an older binary must still run
// against a newer config file.
func warnUnknownKeys(path string, md toml.MetaData, logger *slog.Logger) {
	for _, key := range md.Undecoded() {
		logger.Warn("unknown config key",
			slog.String("file", path),
			slog.String("key", key.String()),
		)
	}
}
