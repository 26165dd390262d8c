package config

import (
	"fmt"
	"strings"
)

// ConfigError aggregates everything wrong with a loaded config file:
// environment variables that never resolved and validation failures.
type ConfigError struct {
	Path    string   // config file path
	Missing []string // unresolved ${VAR} references
	Errors  []string // validation errors
}

func (e *ConfigError) Error() string {
	var parts []string
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("invalid configuration in %s", e.Path))
	}
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("unresolved environment variables: %s", strings.Join(e.Missing, ", ")))
	}
	for _, err := range e.Errors {
		parts = append(parts, "  - "+err)
	}
	return strings.Join(parts, "\n")
}

// HasErrors reports whether anything actually went wrong.
func (e *ConfigError) HasErrors() bool {
	return len(e.Missing) > 0 || len(e.Errors) > 0
}
