// Package probe inspects media file structure (container, codecs,
// duration, track counts) via a single ffprobe JSON call.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/vmunix/seriesmux/internal/toolexec"
)

//go:generate mockgen -destination=mocks/mock_prober.go -package=mocks github.com/vmunix/seriesmux/internal/probe Prober

// ErrProbeFailed indicates the prober could not read a file. The owning
// episode is excluded from merge when this happens.
var ErrProbeFailed = errors.New("probe failed")

// Result is the parsed structural description of one media file.
type Result struct {
	Container      string
	Duration       float64 // seconds
	VideoCodec     string
	Width          int
	Height         int
	VideoTracks    int
	AudioCodecs    []string // one entry per audio stream, in stream order
	SubtitleTracks int
}

// AudioTracks returns the number of audio streams.
func (r *Result) AudioTracks() int {
	return len(r.AudioCodecs)
}

// Resolution returns "WxH" for the primary video stream, or "unknown".
func (r *Result) Resolution() string {
	if r.Width <= 0 || r.Height <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Prober reads the structural properties of a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (*Result, error)
}

// FFProbe is the real Prober backed by the ffprobe binary.
type FFProbe struct {
	runner toolexec.Runner
	bin    string
}

// NewFFProbe creates an FFProbe. An empty bin uses "ffprobe" from PATH.
func NewFFProbe(runner toolexec.Runner, bin string) *FFProbe {
	if bin == "" {
		bin = "ffprobe"
	}
	return &FFProbe{runner: runner, bin: bin}
}

// Probe runs one ffprobe JSON call against path.
func (p *FFProbe) Probe(ctx context.Context, path string) (*Result, error) {
	out, err := p.runner.Run(ctx, p.bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %s", ErrProbeFailed, path, err)
	}
	return ParseJSON(out)
}

// ffprobe JSON wire types.

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

type ffprobeStream struct {
	CodecName   string         `json:"codec_name"`
	CodecType   string         `json:"codec_type"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Disposition map[string]int `json:"disposition"`
}

// ParseJSON converts raw ffprobe JSON output into a Result. Exported for
// testing without a real ffprobe binary.
func ParseJSON(data []byte) (*Result, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse ffprobe JSON: %s", ErrProbeFailed, err)
	}

	r := &Result{Container: raw.Format.FormatName}
	r.Duration, _ = strconv.ParseFloat(raw.Format.Duration, 64)

	for _, s := range raw.Streams {
		switch s.CodecType {
		case "video":
			if s.Disposition["attached_pic"] == 1 {
				continue // cover art, not a playable video track
			}
			r.VideoTracks++
			if r.VideoCodec == "" {
				r.VideoCodec = s.CodecName
				r.Width = s.Width
				r.Height = s.Height
			}
		case "audio":
			r.AudioCodecs = append(r.AudioCodecs, s.CodecName)
		case "subtitle":
			r.SubtitleTracks++
		}
	}
	return r, nil
}
