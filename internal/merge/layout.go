package merge

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vmunix/seriesmux/internal/bundle"
)

// DefaultTemplate is the media-server library layout for episodes.
const DefaultTemplate = "{title} ({year})/Season {season:02}/{title} - S{season:02}E{episode:02}.mkv"

// Layout generates library-relative output paths from series metadata.
type Layout struct {
	template string
}

// NewLayout creates a Layout. An empty template uses DefaultTemplate.
func NewLayout(template string) *Layout {
	if template == "" {
		template = DefaultTemplate
	}
	return &Layout{template: template}
}

// EpisodePath returns the relative output path for one episode. When
// the series year is unknown the year parenthetical is dropped rather
// than rendered as (0).
func (l *Layout) EpisodePath(series *bundle.SeriesInfo, episode int) string {
	template := l.template
	if series.Year == 0 {
		template = strings.ReplaceAll(template, " ({year})", "")
	}
	vars := map[string]any{
		"title":   SanitizeFilename(series.Title),
		"year":    series.Year,
		"season":  series.Season,
		"episode": episode,
	}
	return applyTemplate(template, vars)
}

// formatPattern matches {name} or {name:02} style placeholders.
var formatPattern = regexp.MustCompile(`\{(\w+)(?::(\d+))?\}`)

// applyTemplate substitutes variables into a template string.
// Supports {name} for simple substitution and {name:02} for zero-padded
// integers.
func applyTemplate(template string, vars map[string]any) string {
	return formatPattern.ReplaceAllStringFunc(template, func(match string) string {
		parts := formatPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		val, ok := vars[name]
		if !ok {
			return match
		}

		if len(parts) >= 3 && parts[2] != "" {
			width, err := strconv.Atoi(parts[2])
			if err == nil {
				if v, ok := val.(int); ok {
					return fmt.Sprintf("%0*d", width, v)
				}
			}
		}

		return fmt.Sprintf("%v", val)
	})
}
