// Package scanname classifies media file names and parses episodic naming
// conventions (S01E01 numbering, release directory names, studio labels).
package scanname

import (
	"path/filepath"
	"strings"
)

// Kind is the media category of a scanned file.
type Kind int

const (
	KindUnknown Kind = iota
	KindVideo
	KindAudio
	KindSubtitle
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindSubtitle:
		return "subtitle"
	default:
		return "unknown"
	}
}

// Extensions holds the recognized file extensions per kind.
// Extensions are lowercase and include the leading dot.
type Extensions struct {
	Video    []string
	Audio    []string
	Subtitle []string
}

// DefaultExtensions returns the built-in extension sets.
func DefaultExtensions() Extensions {
	return Extensions{
		Video:    []string{".mkv", ".mp4", ".avi", ".m4v", ".ts"},
		Audio:    []string{".mka", ".aac", ".mp3", ".flac", ".ac3", ".dts"},
		Subtitle: []string{".srt", ".ass", ".ssa", ".sub", ".sup"},
	}
}

// Classifier maps file names to kinds and detects studio/group labels.
type Classifier struct {
	kinds  map[string]Kind
	labels []string
}

// NewClassifier builds a classifier from extension sets and known studio
// labels. Empty extension sets fall back to DefaultExtensions.
func NewClassifier(exts Extensions, labels []string) *Classifier {
	if len(exts.Video) == 0 && len(exts.Audio) == 0 && len(exts.Subtitle) == 0 {
		exts = DefaultExtensions()
	}
	kinds := make(map[string]Kind)
	for _, e := range exts.Video {
		kinds[strings.ToLower(e)] = KindVideo
	}
	for _, e := range exts.Audio {
		kinds[strings.ToLower(e)] = KindAudio
	}
	for _, e := range exts.Subtitle {
		kinds[strings.ToLower(e)] = KindSubtitle
	}
	if len(labels) == 0 {
		labels = DefaultLabels()
	}
	return &Classifier{kinds: kinds, labels: labels}
}

// Kind returns the media kind for a path, decided by extension alone.
// Unrecognized extensions return KindUnknown.
func (c *Classifier) Kind(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	return c.kinds[ext]
}
