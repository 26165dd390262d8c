// Package merge assembles the final per-episode MKV with mkvmerge and
// places it into the media-server library layout.
package merge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vmunix/seriesmux/internal/bundle"
	"github.com/vmunix/seriesmux/internal/toolexec"
)

// Config controls output placement and subtitle track metadata.
type Config struct {
	MKVMerge         string
	LibraryRoot      string
	Template         string
	SubtitleLanguage string
	SubtitleFallback string
}

// Merger runs mkvmerge to produce final library files.
type Merger struct {
	runner   toolexec.Runner
	mkvmerge string
	root     string
	layout   *Layout
	subLang  string
	subName  string
	log      *slog.Logger
}

// New creates a Merger.
func New(runner toolexec.Runner, cfg Config, log *slog.Logger) *Merger {
	return &Merger{
		runner:   runner,
		mkvmerge: cfg.MKVMerge,
		root:     cfg.LibraryRoot,
		layout:   NewLayout(cfg.Template),
		subLang:  cfg.SubtitleLanguage,
		subName:  cfg.SubtitleFallback,
		log:      log,
	}
}

// OutputPath returns the absolute library path an episode would merge
// to, without touching the filesystem. Used for dry-run previews.
func (m *Merger) OutputPath(series *bundle.SeriesInfo, episode int) string {
	return filepath.Join(m.root, m.layout.EpisodePath(series, episode))
}

// Merge produces the final MKV for one episode. Track order is fixed:
// video first, then external audio in discovery order, then subtitles
// in discovery order. Returns the absolute output path.
func (m *Merger) Merge(ctx context.Context, series *bundle.SeriesInfo, b *bundle.EpisodeBundle) (string, error) {
	if !series.Resolved() {
		return "", fmt.Errorf("episode %d: series title not resolved", b.Episode)
	}

	out := m.OutputPath(series, b.Episode)
	if err := validatePath(out, m.root); err != nil {
		return "", fmt.Errorf("episode %d: %w", b.Episode, err)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("episode %d: creating output dir: %w", b.Episode, err)
	}

	args := []string{"-o", out, b.Video.Path}
	for _, a := range b.AudioTracks {
		args = append(args, a.Path)
	}
	for _, s := range b.SubtitleTracks {
		name := s.Label
		if name == "" {
			name = m.subName
		}
		args = append(args,
			"--language", "0:"+m.subLang,
			"--track-name", "0:"+name,
			s.Path,
		)
	}

	if _, err := m.runner.Run(ctx, m.mkvmerge, args...); err != nil {
		return "", fmt.Errorf("episode %d: merge: %w", b.Episode, err)
	}
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("episode %d: merge produced no output at %s", b.Episode, out)
	}

	m.log.Info("episode merged", "episode", b.Episode, "output", out)
	return out, nil
}
