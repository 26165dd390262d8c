package ai

import (
	"context"
	"fmt"
	"strings"
)

const systemPrompt = `You are a media library assistant. You identify TV
series and anime from release directory and file names. Always answer
with valid JSON only, no prose, no markdown fences.`

// seriesWire is the expected model output for a series resolution.
type seriesWire struct {
	Title             string `json:"title"`
	Year              int    `json:"year"`
	Season            int    `json:"season"`
	TotalEpisodes     int    `json:"total_episodes"`
	NeedsConfirmation bool   `json:"needs_confirmation"`
	Unresolved        string `json:"unresolved,omitempty"`
}

// ResolveSeries asks the model to identify the series behind a release
// directory. An explicit model "unresolved" answer surfaces as
// *UnresolvedError.
func (c *Client) ResolveSeries(ctx context.Context, req SeriesRequest) (*SeriesResolution, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Identify the series for this release.\n\nDirectory: %s\n", req.DirName)
	if len(req.SampleFiles) > 0 {
		fmt.Fprintf(&b, "Sample files:\n")
		for _, f := range req.SampleFiles {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	if req.Season > 0 {
		fmt.Fprintf(&b, "Season hint: %d\n", req.Season)
	}
	if req.Group != "" {
		fmt.Fprintf(&b, "Release group hint: %s\n", req.Group)
	}
	b.WriteString(`
Respond with JSON:
{"title": "<official English title>", "year": <first air year or 0>,
"season": <season number>, "total_episodes": <count or 0>,
"needs_confirmation": <true if unsure>}
If you cannot identify the series, respond with
{"unresolved": "<short reason>"}.`)

	var wire seriesWire
	if err := c.completeJSON(ctx, systemPrompt, b.String(), &wire); err != nil {
		return nil, fmt.Errorf("resolve series: %w", err)
	}
	if wire.Unresolved != "" {
		return nil, &UnresolvedError{Reason: wire.Unresolved}
	}
	if wire.Title == "" {
		return nil, &UnresolvedError{Reason: "model returned empty title"}
	}
	if wire.Season == 0 {
		wire.Season = req.Season
	}
	if wire.Season == 0 {
		wire.Season = 1
	}

	return &SeriesResolution{
		Title:             wire.Title,
		Year:              wire.Year,
		Season:            wire.Season,
		TotalEpisodes:     wire.TotalEpisodes,
		NeedsConfirmation: wire.NeedsConfirmation,
	}, nil
}

// episodeWire is one entry of the batch episode extraction output.
type episodeWire struct {
	Index   int  `json:"index"`
	Season  *int `json:"season"`
	Episode *int `json:"episode"`
}

// ExtractEpisodes asks the model for season/episode numbers of files
// whose names did not match the S01E01 convention. The returned slice is
// index-aligned with names; undetermined entries have Determined=false.
func (c *Client) ExtractEpisodes(ctx context.Context, names []string) ([]EpisodeGuess, error) {
	if len(names) == 0 {
		return nil, nil
	}

	var b strings.Builder
	b.WriteString("Extract season and episode numbers from these file names:\n")
	for i, name := range names {
		fmt.Fprintf(&b, "%d. %s\n", i, name)
	}
	b.WriteString(`
Respond with a JSON array, one object per file:
[{"index": 0, "season": 1, "episode": 5}, ...]
Use null for season or episode you cannot determine.`)

	var wire []episodeWire
	if err := c.completeJSON(ctx, systemPrompt, b.String(), &wire); err != nil {
		return nil, fmt.Errorf("extract episodes: %w", err)
	}

	guesses := make([]EpisodeGuess, len(names))
	for _, w := range wire {
		if w.Index < 0 || w.Index >= len(names) {
			continue
		}
		g := EpisodeGuess{}
		if w.Episode != nil && *w.Episode > 0 {
			g.Episode = *w.Episode
			g.Determined = true
		}
		if w.Season != nil && *w.Season > 0 {
			g.Season = *w.Season
		}
		guesses[w.Index] = g
	}
	return guesses, nil
}

// labelWire is one entry of the batch label detection output.
type labelWire struct {
	Index int     `json:"index"`
	Label *string `json:"label"`
}

// DetectLabels asks the model which studio or translation group each
// track file belongs to. The returned slice is index-aligned with items;
// an empty string means no label.
func (c *Client) DetectLabels(ctx context.Context, items []LabelQuery) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}

	var b strings.Builder
	b.WriteString("Determine the studio or translation group label for these track files:\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. file: %s, directory: %s\n", i, item.Filename, item.ParentDir)
	}
	b.WriteString(`
Respond with a JSON array, one object per file:
[{"index": 0, "label": "Crunchyroll"}, ...]
Use null when no label can be determined.`)

	var wire []labelWire
	if err := c.completeJSON(ctx, systemPrompt, b.String(), &wire); err != nil {
		return nil, fmt.Errorf("detect labels: %w", err)
	}

	labels := make([]string, len(items))
	for _, w := range wire {
		if w.Index < 0 || w.Index >= len(items) {
			continue
		}
		if w.Label != nil {
			labels[w.Index] = *w.Label
		}
	}
	return labels, nil
}
