package config

import (
	"fmt"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validDedupeKeep = map[string]bool{
	"larger": true, "first": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if !validLogLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level: must be one of debug, info, warn, error; got %q", c.Log.Level))
	}

	if c.Tools.TimeoutMinutes < 0 {
		errs = append(errs, fmt.Sprintf("tools.timeout_minutes: must be positive, got %d", c.Tools.TimeoutMinutes))
	}

	if !validDedupeKeep[c.Dedupe.Keep] {
		errs = append(errs, fmt.Sprintf("dedupe.keep: must be \"larger\" or \"first\", got %q", c.Dedupe.Keep))
	}
	if c.Dedupe.Tolerance < 0 || c.Dedupe.Tolerance >= 1 {
		errs = append(errs, fmt.Sprintf("dedupe.tolerance: must be in [0, 1), got %g", c.Dedupe.Tolerance))
	}

	// An unresolved ${VAR} reference is as good as no key at all.
	if c.AI.Enabled && c.AI.Strict && (c.AI.APIKey == "" || strings.HasPrefix(c.AI.APIKey, "${")) {
		errs = append(errs, "ai.api_key: required when ai.strict is set")
	}

	if c.Output.MinDurationSeconds < 0 {
		errs = append(errs, fmt.Sprintf("output.min_duration_seconds: must be positive, got %d", c.Output.MinDurationSeconds))
	}

	return errs
}
