// Package config handles TOML configuration loading with environment
// variable substitution and .env support.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Log        LogConfig        `toml:"log"`
	Tools      ToolsConfig      `toml:"tools"`
	Extensions ExtensionsConfig `toml:"extensions"`
	Labels     []string         `toml:"labels"`
	AI         AIConfig         `toml:"ai"`
	Dedupe     DedupeConfig     `toml:"dedupe"`
	Planner    PlannerConfig    `toml:"planner"`
	Output     OutputConfig     `toml:"output"`
	History    HistoryConfig    `toml:"history"`

	// MissingVars lists ${VAR} references that had no value at load
	// time. Kept for error reporting; harmless when the affected keys
	// go unused.
	MissingVars []string `toml:"-"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// ToolsConfig names the external binaries and bounds their runtime.
type ToolsConfig struct {
	FFmpeg         string `toml:"ffmpeg"`
	FFprobe        string `toml:"ffprobe"`
	MKVMerge       string `toml:"mkvmerge"`
	TimeoutMinutes int    `toml:"timeout_minutes"`
}

// ExtensionsConfig overrides the recognized extension sets.
type ExtensionsConfig struct {
	Video    []string `toml:"video"`
	Audio    []string `toml:"audio"`
	Subtitle []string `toml:"subtitle"`
}

// AIConfig configures the title-resolution collaborator.
// Strict makes missing credentials fatal for a directory; otherwise the
// run falls back to local pattern parsing.
type AIConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Strict  bool   `toml:"strict"`
}

// DedupeConfig tunes subtitle duplicate detection. Keep is "larger"
// (default) or "first"; the tie-break is a heuristic, so it stays
// configurable.
type DedupeConfig struct {
	Tolerance float64 `toml:"tolerance"`
	Keep      string  `toml:"keep"`
}

// PlannerConfig drives the preprocessing decision table.
type PlannerConfig struct {
	LegacyContainers []string `toml:"legacy_containers"`
	TranscodeCodec   string   `toml:"transcode_codec"`
	TargetCodec      string   `toml:"target_codec"`
	AudioBitrate     string   `toml:"audio_bitrate"`
}

// OutputConfig controls the media-server library layout and validation.
type OutputConfig struct {
	LibraryRoot        string `toml:"library_root"`
	SubtitleLanguage   string `toml:"subtitle_language"`
	SubtitleFallback   string `toml:"subtitle_fallback"`
	MinDurationSeconds int    `toml:"min_duration_seconds"`
}

type HistoryConfig struct {
	Path string `toml:"path"`
}

// Load reads and parses the configuration file. A .env file next to the
// config (or in the working directory) is loaded first so ${VAR}
// references can resolve keys like OPENAI_API_KEY.
func Load(path string) (*Config, error) {
	loadEnvFiles(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.MissingVars = missing
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a config with all defaults applied, used when no
// config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = "ffmpeg"
	}
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = "ffprobe"
	}
	if c.Tools.MKVMerge == "" {
		c.Tools.MKVMerge = "mkvmerge"
	}
	if c.Tools.TimeoutMinutes == 0 {
		c.Tools.TimeoutMinutes = 30
	}
	if c.AI.BaseURL == "" {
		c.AI.BaseURL = "https://api.openai.com"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-4o-mini"
	}
	if c.Dedupe.Keep == "" {
		c.Dedupe.Keep = "larger"
	}
	if len(c.Planner.LegacyContainers) == 0 {
		c.Planner.LegacyContainers = []string{".avi", ".ts"}
	}
	if c.Planner.TranscodeCodec == "" {
		c.Planner.TranscodeCodec = "eac3"
	}
	if c.Planner.TargetCodec == "" {
		c.Planner.TargetCodec = "aac"
	}
	if c.Planner.AudioBitrate == "" {
		c.Planner.AudioBitrate = "192k"
	}
	if c.Output.SubtitleLanguage == "" {
		c.Output.SubtitleLanguage = "rus"
	}
	if c.Output.SubtitleFallback == "" {
		c.Output.SubtitleFallback = "Russian"
	}
	if c.Output.MinDurationSeconds == 0 {
		c.Output.MinDurationSeconds = 60
	}
	if c.History.Path == "" {
		c.History.Path = defaultHistoryPath()
	}
}

func defaultHistoryPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "./seriesmux.db"
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "seriesmux", "history.db")
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable
// values and reports the names that had no value. Unresolved references
// are left literal so they show up in error messages.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) (string, []string) {
	var missing []string
	seen := make(map[string]bool)
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1]
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		if !seen[varName] {
			seen[varName] = true
			missing = append(missing, varName)
		}
		return match
	})
	return out, missing
}
