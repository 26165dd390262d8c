// Package preprocess executes planner decisions: container remux,
// audio transcode and external-track embedding, staged through a
// temporary directory next to the source files.
package preprocess

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmunix/seriesmux/internal/bundle"
	"github.com/vmunix/seriesmux/internal/planner"
	"github.com/vmunix/seriesmux/internal/toolexec"
)

// TempDirName is the staging directory created under the source
// directory. It holds intermediate files only and is removed when the
// directory run ends, whatever the outcome.
const TempDirName = ".preprocessing_temp"

// Config names the external tools and the subtitle track metadata
// applied during embedding.
type Config struct {
	FFmpeg           string
	MKVMerge         string
	SubtitleLanguage string // ISO 639-2 code stamped on embedded subtitles
	SubtitleFallback string // track name when the subtitle has no label
}

// Preprocessor applies decisions to episode bundles in place.
type Preprocessor struct {
	runner   toolexec.Runner
	ffmpeg   string
	mkvmerge string
	subLang  string
	subName  string
	log      *slog.Logger
}

// New creates a Preprocessor.
func New(runner toolexec.Runner, cfg Config, log *slog.Logger) *Preprocessor {
	return &Preprocessor{
		runner:   runner,
		ffmpeg:   cfg.FFmpeg,
		mkvmerge: cfg.MKVMerge,
		subLang:  cfg.SubtitleLanguage,
		subName:  cfg.SubtitleFallback,
		log:      log,
	}
}

// Apply executes the decision's transforms in order (remux, transcode,
// embed) and drives its lifecycle. On success the bundle's video path
// points at the preprocessed file and embedded external tracks are
// cleared; on failure the bundle is left untouched and the decision is
// marked failed.
func (p *Preprocessor) Apply(ctx context.Context, d *planner.Decision, b *bundle.EpisodeBundle) error {
	if err := d.Begin(); err != nil {
		return err
	}
	if d.NoOp() {
		return d.Complete()
	}

	tempDir := filepath.Join(filepath.Dir(b.Video.Path), TempDirName)
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		_ = d.Fail()
		return fmt.Errorf("creating temp dir: %w", err)
	}

	current := b.Video.Path
	stem := strings.TrimSuffix(filepath.Base(b.Video.Path), filepath.Ext(b.Video.Path))

	if d.NeedsRemux {
		out := filepath.Join(tempDir, stem+".remux.mkv")
		if err := p.remux(ctx, current, out); err != nil {
			_ = d.Fail()
			return fmt.Errorf("episode %d: %w", d.Episode, err)
		}
		current = out
	}

	if d.NeedsTranscode() {
		out := filepath.Join(tempDir, stem+".transcode.mkv")
		if err := p.transcode(ctx, current, out, d.AudioTranscodes); err != nil {
			_ = d.Fail()
			return fmt.Errorf("episode %d: %w", d.Episode, err)
		}
		current = out
	}

	if len(d.Embed) > 0 {
		out := filepath.Join(tempDir, stem+".embed.mkv")
		if err := p.embed(ctx, current, out, b); err != nil {
			_ = d.Fail()
			return fmt.Errorf("episode %d: %w", d.Episode, err)
		}
		current = out
	}

	b.Video.Path = current
	if info, err := os.Stat(current); err == nil {
		b.Video.SizeBytes = info.Size()
	}
	if len(d.Embed) > 0 {
		b.AudioTracks = nil
		b.SubtitleTracks = nil
	}

	p.log.Info("episode preprocessed", "episode", d.Episode, "output", filepath.Base(current))
	return d.Complete()
}

// remux rewrites the container without touching streams.
func (p *Preprocessor) remux(ctx context.Context, in, out string) error {
	args := []string{"-i", in, "-c", "copy", "-y", out}
	if _, err := p.runner.Run(ctx, p.ffmpeg, args...); err != nil {
		return fmt.Errorf("remux: %w", err)
	}
	return checkOutput(out)
}

// transcode converts the flagged audio streams while copying everything
// else. All streams are mapped so subtitle and attachment tracks survive
// the pass; unflagged audio streams stay under the blanket copy.
func (p *Preprocessor) transcode(ctx context.Context, in, out string, tcs []planner.AudioTranscode) error {
	args := []string{
		"-i", in,
		"-map", "0",
		"-c", "copy",
	}
	for _, tc := range tcs {
		args = append(args,
			fmt.Sprintf("-c:a:%d", tc.TrackIndex), tc.TargetCodec,
			fmt.Sprintf("-b:a:%d", tc.TrackIndex), tc.Bitrate,
		)
	}
	args = append(args, "-y", out)
	if _, err := p.runner.Run(ctx, p.ffmpeg, args...); err != nil {
		return fmt.Errorf("transcode audio: %w", err)
	}
	return checkOutput(out)
}

// embed folds the bundle's external audio and subtitle tracks into the
// video container. Subtitles get a language tag and a track name from
// their label so media servers can present them meaningfully.
func (p *Preprocessor) embed(ctx context.Context, in, out string, b *bundle.EpisodeBundle) error {
	args := []string{"-o", out, in}
	for _, a := range b.AudioTracks {
		args = append(args, a.Path)
	}
	for _, s := range b.SubtitleTracks {
		name := s.Label
		if name == "" {
			name = p.subName
		}
		args = append(args,
			"--language", "0:"+p.subLang,
			"--track-name", "0:"+name,
			s.Path,
		)
	}
	if _, err := p.runner.Run(ctx, p.mkvmerge, args...); err != nil {
		return fmt.Errorf("embed tracks: %w", err)
	}
	return checkOutput(out)
}

// checkOutput guards against tools that exit zero without producing a
// file.
func checkOutput(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("tool produced no output at %s", path)
	}
	return nil
}

// Cleanup removes every staging directory under dir. Videos can sit in
// subdirectories, so the whole tree is walked. Called once per source
// directory after all episodes finish, including on cancel.
func Cleanup(dir string, log *slog.Logger) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// The source directory may already have been deleted.
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() && d.Name() == TempDirName {
			if err := os.RemoveAll(path); err != nil {
				return err
			}
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		log.Warn("failed to remove temp dirs", "dir", dir, "error", err)
	}
}
