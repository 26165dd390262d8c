// Package planner decides, per episode, which preprocessing transforms
// (container remux, audio transcode, external-track embedding) must run
// before the final merge.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/vmunix/seriesmux/internal/bundle"
	"github.com/vmunix/seriesmux/internal/probe"
)

// AudioTranscode flags one audio stream of the video container for
// conversion. TrackIndex is relative to audio streams only (ffmpeg
// 0:a:N addressing).
type AudioTranscode struct {
	TrackIndex  int
	SourceCodec string
	TargetCodec string
	Bitrate     string
}

// Decision is the per-episode preprocessing plan. Flags derive
// deterministically from probed properties and are never overridden
// mid-run.
type Decision struct {
	Episode         int
	NeedsRemux      bool
	AudioTranscodes []AudioTranscode
	Embed           []bundle.MediaFile

	state State
}

// NoOp reports whether no preprocessing is required; the bundle then
// goes to merge untouched.
func (d *Decision) NoOp() bool {
	return !d.NeedsRemux && len(d.AudioTranscodes) == 0 && len(d.Embed) == 0
}

// NeedsTranscode reports whether any audio stream requires conversion.
func (d *Decision) NeedsTranscode() bool {
	return len(d.AudioTranscodes) > 0
}

// Config carries the decision-table inputs.
type Config struct {
	LegacyContainers []string // extensions that force a structural remux
	TranscodeCodec   string   // probed audio codec requiring conversion
	TargetCodec      string
	AudioBitrate     string
}

// Planner evaluates the preprocessing decision table.
type Planner struct {
	prober    probe.Prober
	legacy    map[string]bool
	transcode string
	target    string
	bitrate   string
	log       *slog.Logger
}

// New creates a Planner.
func New(prober probe.Prober, cfg Config, log *slog.Logger) *Planner {
	legacy := make(map[string]bool, len(cfg.LegacyContainers))
	for _, ext := range cfg.LegacyContainers {
		legacy[strings.ToLower(ext)] = true
	}
	return &Planner{
		prober:    prober,
		legacy:    legacy,
		transcode: normalizeCodec(cfg.TranscodeCodec),
		target:    cfg.TargetCodec,
		bitrate:   cfg.AudioBitrate,
		log:       log,
	}
}

// Plan inspects one episode bundle and returns its preprocessing
// decision. A probe failure is an error: the episode is excluded from
// merge and reported, never silently skipped.
func (p *Planner) Plan(ctx context.Context, b *bundle.EpisodeBundle) (*Decision, error) {
	d := &Decision{Episode: b.Episode, state: StatePlanned}

	ext := strings.ToLower(filepath.Ext(b.Video.Path))
	if p.legacy[ext] {
		d.NeedsRemux = true
	}

	res, err := p.prober.Probe(ctx, b.Video.Path)
	if err != nil {
		return nil, fmt.Errorf("plan episode %d: %w", b.Episode, err)
	}

	for i, codec := range res.AudioCodecs {
		if normalizeCodec(codec) != p.transcode {
			continue
		}
		d.AudioTranscodes = append(d.AudioTranscodes, AudioTranscode{
			TrackIndex:  i,
			SourceCodec: codec,
			TargetCodec: p.target,
			Bitrate:     p.bitrate,
		})
	}

	if b.ExternalTracks() {
		d.Embed = append(d.Embed, b.AudioTracks...)
		d.Embed = append(d.Embed, b.SubtitleTracks...)
	}

	p.log.Debug("episode planned",
		"episode", b.Episode,
		"remux", d.NeedsRemux,
		"transcodes", len(d.AudioTranscodes),
		"embed", len(d.Embed),
	)
	return d, nil
}

// normalizeCodec folds ffprobe codec spellings (eac3, e-ac-3, E-AC-3)
// into one comparable form.
func normalizeCodec(codec string) string {
	return strings.ReplaceAll(strings.ToLower(codec), "-", "")
}
