package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/seriesmux/internal/config"
)

var version = "dev"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "seriesmux",
	Short: "Organize episodic media into a clean library",
	Long: `seriesmux - organize episodic media into a clean library

Scans release directories, groups video, audio and subtitle files into
per-episode bundles, fixes up containers and codecs, merges everything
into one MKV per episode and files the result into a media-server
library layout.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: discovered)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("seriesmux {{.Version}}\n")
}

// loadConfig loads the configuration from --config, the discovered
// location, or built-in defaults when no file exists.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		discovered, err := config.Discover()
		if err != nil {
			return config.Default(), nil
		}
		path = discovered
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, &config.ConfigError{
			Path:    path,
			Missing: cfg.MissingVars,
			Errors:  problems,
		}
	}
	for _, name := range cfg.MissingVars {
		fmt.Fprintf(os.Stderr, "warning: %s referenced in %s but not set\n", name, path)
	}
	return cfg, nil
}

// newLogger builds the process logger. The --log-level flag overrides
// the configured level.
func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}

	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
