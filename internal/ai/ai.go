// Package ai is the title-resolution collaborator: it turns raw
// directory and file name strings into structured series metadata via an
// OpenAI-compatible chat completions endpoint.
package ai

import (
	"context"
	"fmt"
)

// SeriesRequest carries the naming context for a resolution attempt.
type SeriesRequest struct {
	DirName     string
	SampleFiles []string // a few representative file names
	Season      int      // locally parsed season hint, 0 if unknown
	Group       string   // locally parsed release group hint
}

// SeriesResolution is a successful series lookup.
type SeriesResolution struct {
	Title             string
	Year              int // 0 when unknown
	Season            int
	TotalEpisodes     int
	NeedsConfirmation bool // model was unsure; prompt the user when interactive
}

// UnresolvedError reports that the model could not resolve a name.
// Callers must branch on this rather than assume a response shape.
type UnresolvedError struct {
	Reason string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("series unresolved: %s", e.Reason)
}

// EpisodeGuess is one entry of a batch episode-number extraction.
// Determined is false when the model explicitly could not tell.
type EpisodeGuess struct {
	Season     int
	Episode    int
	Determined bool
}

// LabelQuery asks which studio/group a track file belongs to.
type LabelQuery struct {
	Filename  string
	ParentDir string
}

// Resolver is the AI collaborator contract consumed by the scanner and
// runner. The HTTP client implements it; tests substitute fakes.
type Resolver interface {
	ResolveSeries(ctx context.Context, req SeriesRequest) (*SeriesResolution, error)
	ExtractEpisodes(ctx context.Context, names []string) ([]EpisodeGuess, error)
	DetectLabels(ctx context.Context, items []LabelQuery) ([]string, error)
}
