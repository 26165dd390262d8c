// Package bundle groups classified media files into per-episode bundles
// and owns the subtitle duplicate detection that keeps one winner per
// distinct track identity.
package bundle

import (
	"github.com/vmunix/seriesmux/pkg/scanname"
)

// MediaFile is one physical input file, classified during the scan.
// Episode 0 means the episode number could not be determined yet; it may
// be backfilled by the AI-assisted pass before aggregation.
type MediaFile struct {
	Path      string
	Kind      scanname.Kind
	Season    int
	Episode   int
	Label     string // studio/group track label, "" when unlabeled
	SizeBytes int64
}

// SeriesInfo is the metadata for one whole batch. Title is empty until
// the AI collaborator or the user resolves it.
type SeriesInfo struct {
	RawTitle      string
	Title         string
	Year          int
	Season        int
	Group         string
	TotalEpisodes int
}

// Resolved reports whether the series title has been resolved. Output
// paths must not be constructed before this returns true.
func (s *SeriesInfo) Resolved() bool {
	return s.Title != ""
}

// EpisodeBundle is the canonical grouping of all files for one episode.
// Track slices keep discovery order, which becomes merge track order.
type EpisodeBundle struct {
	Episode        int
	Video          *MediaFile
	AudioTracks    []MediaFile
	SubtitleTracks []MediaFile
}

// ExternalTracks reports whether the bundle carries tracks stored
// outside the video container.
func (b *EpisodeBundle) ExternalTracks() bool {
	return len(b.AudioTracks) > 0 || len(b.SubtitleTracks) > 0
}
