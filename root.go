package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"gdocmd/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagCacheDir   string
	flagForce      bool
	flagPathOnly   bool
	flagVerbose    bool
	flagQuiet      bool
)

// resolvedCfg holds the effective configuration loaded by PersistentPreRunE.
var resolvedCfg *config.Config

// newRootCmd builds the root command. gdocmd is a single-operation tool, so
// the fetch lives on the root command itself rather than a subcommand.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gdocmd <doc-id-or-url>",
		Short: "Fetch a Google Doc as Markdown, cached locally",
		Long: `Fetch a Google Doc's content as Markdown and cache it locally, keyed by
document ID. The remote modification timestamp is checked on every run and
the document is only re-downloaded when it changed.

Authentication uses gcloud application default credentials; when none are
available, gcloud's browser login is started automatically.`,
		Version: version,
		Args:    cobra.ExactArgs(1),
		// Silence Cobra's default error/usage printing — we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(cmd)
		},
		RunE: runFetch,
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "cache directory (default: platform cache dir)")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress status output")

	cmd.Flags().BoolVarP(&flagForce, "force", "f", false, "re-download even if the cached copy is up to date")
	cmd.Flags().BoolVar(&flagPathOnly, "path-only", false, "print the cached file path instead of its content")

	return cmd
}

// loadConfig resolves the effective configuration and stores it in
// resolvedCfg for the run phase.
func loadConfig(cmd *cobra.Command) error {
	cli := config.CLIOverrides{ConfigPath: flagConfigPath}

	// Only pass --cache-dir to the resolver if the user explicitly set it.
	if cmd.Flags().Changed("cache-dir") {
		cli.CacheDir = flagCacheDir
	}

	resolved, err := config.Load(config.ReadEnvOverrides(), cli, buildLogger())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	resolvedCfg = resolved

	return nil
}

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. Config-file log level provides the baseline; --verbose and
// --quiet override it because CLI flags always win.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	if resolvedCfg != nil {
		switch resolvedCfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
