package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// EnvVar overrides discovery entirely when set; it must point at an
// existing file.
const EnvVar = "SERIESMUX_CONFIG"

// DefaultPath returns the per-user config location under the XDG config
// home.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "./config.toml"
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "seriesmux", "config.toml")
}

// searchPaths lists the discovery candidates in priority order. The
// working directory comes first so a per-library config wins over the
// user and system ones.
func searchPaths() []string {
	return []string{
		"./config.toml",
		DefaultPath(),
		"/etc/seriesmux/config.toml",
	}
}

// Discover locates the config file: the SERIESMUX_CONFIG override if
// set, otherwise the first existing candidate from searchPaths.
func Discover() (string, error) {
	if envPath := os.Getenv(EnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvVar, envPath, err)
		}
		return envPath, nil
	}

	candidates := searchPaths()
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("config not found, checked: %s", strings.Join(candidates, ", "))
}

// loadEnvFiles reads a .env next to the config file, then one in the
// working directory, into the process environment before ${VAR}
// substitution runs. Both are optional; this is the usual route for
// OPENAI_API_KEY. Variables already set in the environment win.
func loadEnvFiles(configPath string) {
	_ = godotenv.Load(filepath.Join(filepath.Dir(configPath), ".env"))
	_ = godotenv.Load()
}
