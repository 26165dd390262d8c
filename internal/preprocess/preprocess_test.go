package preprocess

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/seriesmux/internal/bundle"
	"github.com/vmunix/seriesmux/internal/planner"
	"github.com/vmunix/seriesmux/internal/probe"
	"github.com/vmunix/seriesmux/pkg/scanname"
)

type call struct {
	name string
	args []string
}

// fakeRunner records tool invocations and creates the output file each
// tool would have produced, so output checks pass.
type fakeRunner struct {
	calls []call
	fail  bool
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.fail {
		return nil, errors.New("tool exploded")
	}
	out := args[len(args)-1]
	if name == "mkvmerge" {
		for i, a := range args {
			if a == "-o" {
				out = args[i+1]
				break
			}
		}
	}
	if err := os.WriteFile(out, []byte("x"), 0o644); err != nil {
		return nil, err
	}
	return nil, nil
}

func testConfig() Config {
	return Config{
		FFmpeg:           "ffmpeg",
		MKVMerge:         "mkvmerge",
		SubtitleLanguage: "rus",
		SubtitleFallback: "Russian",
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func videoBundle(t *testing.T, dir, name string) *bundle.EpisodeBundle {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("video"), 0o644))
	return &bundle.EpisodeBundle{
		Episode: 1,
		Video:   &bundle.MediaFile{Path: path, Kind: scanname.KindVideo, Episode: 1},
	}
}

func TestApplyNoOp(t *testing.T) {
	dir := t.TempDir()
	b := videoBundle(t, dir, "show.s01e01.mkv")
	runner := &fakeRunner{}
	p := New(runner, testConfig(), discard())

	d := plan(t, b)
	require.True(t, d.NoOp())
	require.NoError(t, p.Apply(context.Background(), d, b))

	assert.Empty(t, runner.calls)
	assert.Equal(t, planner.StateDone, d.State())
	assert.Equal(t, filepath.Join(dir, "show.s01e01.mkv"), b.Video.Path)
}

func TestApplyRemux(t *testing.T) {
	dir := t.TempDir()
	b := videoBundle(t, dir, "show.s01e01.avi")
	runner := &fakeRunner{}
	p := New(runner, testConfig(), discard())

	d := plan(t, b)
	require.True(t, d.NeedsRemux)
	require.NoError(t, p.Apply(context.Background(), d, b))

	require.Len(t, runner.calls, 1)
	want := filepath.Join(dir, TempDirName, "show.s01e01.remux.mkv")
	assert.Equal(t, "ffmpeg", runner.calls[0].name)
	assert.Equal(t, []string{"-i", filepath.Join(dir, "show.s01e01.avi"), "-c", "copy", "-y", want}, runner.calls[0].args)
	assert.Equal(t, want, b.Video.Path)
	assert.Equal(t, planner.StateDone, d.State())
}

func TestApplyTranscode(t *testing.T) {
	dir := t.TempDir()
	b := videoBundle(t, dir, "show.s01e01.mkv")
	runner := &fakeRunner{}
	p := New(runner, testConfig(), discard())

	d := plan(t, b, "ac3", "eac3")
	require.True(t, d.NeedsTranscode())
	require.NoError(t, p.Apply(context.Background(), d, b))

	require.Len(t, runner.calls, 1)
	args := runner.calls[0].args
	assert.Contains(t, args, "-map")
	// The ac3 track at index 0 stays copied; only the eac3 track at
	// index 1 is converted.
	assert.Equal(t, []string{
		"-i", filepath.Join(dir, "show.s01e01.mkv"),
		"-map", "0",
		"-c", "copy",
		"-c:a:1", "aac",
		"-b:a:1", "192k",
		"-y", filepath.Join(dir, TempDirName, "show.s01e01.transcode.mkv"),
	}, args)
}

func TestApplyTranscodeMultipleTracks(t *testing.T) {
	dir := t.TempDir()
	b := videoBundle(t, dir, "show.s01e01.mkv")
	runner := &fakeRunner{}
	p := New(runner, testConfig(), discard())

	d := plan(t, b, "eac3", "aac", "eac3")
	require.Len(t, d.AudioTranscodes, 2)
	require.NoError(t, p.Apply(context.Background(), d, b))

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{
		"-i", filepath.Join(dir, "show.s01e01.mkv"),
		"-map", "0",
		"-c", "copy",
		"-c:a:0", "aac",
		"-b:a:0", "192k",
		"-c:a:2", "aac",
		"-b:a:2", "192k",
		"-y", filepath.Join(dir, TempDirName, "show.s01e01.transcode.mkv"),
	}, runner.calls[0].args)
}

func TestApplyEmbed(t *testing.T) {
	dir := t.TempDir()
	b := videoBundle(t, dir, "show.s01e01.mkv")
	b.AudioTracks = []bundle.MediaFile{
		{Path: filepath.Join(dir, "show.s01e01.mka"), Kind: scanname.KindAudio, Episode: 1},
	}
	b.SubtitleTracks = []bundle.MediaFile{
		{Path: filepath.Join(dir, "Animevod.s01e01.ass"), Kind: scanname.KindSubtitle, Episode: 1, Label: "Animevod"},
		{Path: filepath.Join(dir, "show.s01e01.srt"), Kind: scanname.KindSubtitle, Episode: 1},
	}
	runner := &fakeRunner{}
	p := New(runner, testConfig(), discard())

	d := plan(t, b)
	require.Len(t, d.Embed, 3)
	require.NoError(t, p.Apply(context.Background(), d, b))

	require.Len(t, runner.calls, 1)
	out := filepath.Join(dir, TempDirName, "show.s01e01.embed.mkv")
	assert.Equal(t, "mkvmerge", runner.calls[0].name)
	assert.Equal(t, []string{
		"-o", out,
		filepath.Join(dir, "show.s01e01.mkv"),
		filepath.Join(dir, "show.s01e01.mka"),
		"--language", "0:rus",
		"--track-name", "0:Animevod",
		filepath.Join(dir, "Animevod.s01e01.ass"),
		"--language", "0:rus",
		"--track-name", "0:Russian",
		filepath.Join(dir, "show.s01e01.srt"),
	}, runner.calls[0].args)

	// Embedded tracks must not reach the merge step again.
	assert.Equal(t, out, b.Video.Path)
	assert.Empty(t, b.AudioTracks)
	assert.Empty(t, b.SubtitleTracks)
}

func TestApplyChainsStages(t *testing.T) {
	dir := t.TempDir()
	b := videoBundle(t, dir, "show.s01e01.avi")
	b.SubtitleTracks = []bundle.MediaFile{
		{Path: filepath.Join(dir, "show.s01e01.srt"), Kind: scanname.KindSubtitle, Episode: 1},
	}
	runner := &fakeRunner{}
	p := New(runner, testConfig(), discard())

	d := plan(t, b, "aac", "eac3", "eac3")
	require.NoError(t, p.Apply(context.Background(), d, b))

	require.Len(t, runner.calls, 3)
	remuxed := filepath.Join(dir, TempDirName, "show.s01e01.remux.mkv")
	transcoded := filepath.Join(dir, TempDirName, "show.s01e01.transcode.mkv")
	embedded := filepath.Join(dir, TempDirName, "show.s01e01.embed.mkv")

	// Each stage consumes the previous stage's output.
	assert.Equal(t, remuxed, runner.calls[0].args[len(runner.calls[0].args)-1])
	assert.Equal(t, remuxed, runner.calls[1].args[1])
	assert.Equal(t, transcoded, runner.calls[1].args[len(runner.calls[1].args)-1])
	assert.Equal(t, transcoded, runner.calls[2].args[2])
	assert.Equal(t, embedded, b.Video.Path)
}

func TestApplyFailureLeavesBundleUntouched(t *testing.T) {
	dir := t.TempDir()
	b := videoBundle(t, dir, "show.s01e01.avi")
	original := b.Video.Path
	runner := &fakeRunner{fail: true}
	p := New(runner, testConfig(), discard())

	d := plan(t, b)
	err := p.Apply(context.Background(), d, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "episode 1")
	assert.Equal(t, original, b.Video.Path)
	assert.Equal(t, planner.StateFailed, d.State())
}

func TestApplyRejectsReuse(t *testing.T) {
	dir := t.TempDir()
	b := videoBundle(t, dir, "show.s01e01.mkv")
	p := New(&fakeRunner{}, testConfig(), discard())

	d := plan(t, b)
	require.NoError(t, p.Apply(context.Background(), d, b))
	assert.Error(t, p.Apply(context.Background(), d, b))
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	tempDir := filepath.Join(dir, TempDirName)
	require.NoError(t, os.MkdirAll(tempDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "leftover.mkv"), []byte("x"), 0o644))

	Cleanup(dir, discard())

	_, err := os.Stat(tempDir)
	assert.True(t, os.IsNotExist(err))
}

func TestCleanupNestedStagingDirs(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "episodes", TempDirName)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, TempDirName), 0o755))
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "leftover.mkv"), []byte("x"), 0o644))
	kept := filepath.Join(dir, "episodes", "show.s01e01.mkv")
	require.NoError(t, os.WriteFile(kept, []byte("x"), 0o644))

	Cleanup(dir, discard())

	_, err := os.Stat(filepath.Join(dir, TempDirName))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(nested)
	assert.True(t, os.IsNotExist(err), "staging dirs next to nested videos must be removed too")
	assert.FileExists(t, kept)
}

func TestCleanupMissingDir(t *testing.T) {
	Cleanup(filepath.Join(t.TempDir(), "deleted"), discard())
}

// plan produces a real planner decision for the bundle using a canned
// probe result whose audio codecs are given by codecs.
func plan(t *testing.T, b *bundle.EpisodeBundle, codecs ...string) *planner.Decision {
	t.Helper()
	pl := planner.New(stubProber{codecs: codecs}, planner.Config{
		LegacyContainers: []string{".avi", ".ts"},
		TranscodeCodec:   "eac3",
		TargetCodec:      "aac",
		AudioBitrate:     "192k",
	}, discard())
	d, err := pl.Plan(context.Background(), b)
	require.NoError(t, err)
	return d
}

type stubProber struct {
	codecs []string
}

func (s stubProber) Probe(context.Context, string) (*probe.Result, error) {
	return &probe.Result{
		Container:   "matroska,webm",
		VideoCodec:  "h264",
		VideoTracks: 1,
		AudioCodecs: s.codecs,
	}, nil
}
