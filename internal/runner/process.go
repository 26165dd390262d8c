package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/vmunix/seriesmux/internal/ai"
	"github.com/vmunix/seriesmux/internal/bundle"
	"github.com/vmunix/seriesmux/internal/history"
	"github.com/vmunix/seriesmux/internal/planner"
	"github.com/vmunix/seriesmux/internal/preprocess"
	"github.com/vmunix/seriesmux/internal/validate"
	"github.com/vmunix/seriesmux/pkg/scanname"
)

// EpisodeFailure records one episode that could not be processed.
type EpisodeFailure struct {
	Episode int
	Err     error
}

// DirResult is the outcome of processing one source directory.
type DirResult struct {
	Dir        string
	Series     *bundle.SeriesInfo
	Merged     map[int]string // episode -> output path
	Failed     []EpisodeFailure
	Skipped    []int    // episodes skipped (already merged previously)
	Planned    []string // dry-run previews, one line per episode
	Unknown    []string // files with unrecognized extensions
	Report     bundle.Report
	Validation *validate.Report
	Err        error // directory-level failure, nothing was processed
}

// OK reports whether the directory finished with every episode merged
// and validated.
func (d *DirResult) OK() bool {
	if d.Err != nil || len(d.Failed) > 0 {
		return false
	}
	if d.Validation != nil && !d.Validation.Passed() {
		return false
	}
	return true
}

func (r *Runner) processDir(ctx context.Context, dir string) *DirResult {
	res := &DirResult{Dir: dir, Merged: make(map[int]string)}
	log := r.log.With("dir", filepath.Base(dir))

	scanned, err := r.scanner.Scan(ctx, dir)
	if err != nil {
		res.Err = err
		return res
	}
	res.Unknown = scanned.Skipped
	if len(scanned.Files) == 0 {
		res.Err = fmt.Errorf("no media files in %s", dir)
		return res
	}

	series, err := r.resolveSeries(ctx, dir, scanned.Files)
	if err != nil {
		res.Err = err
		return res
	}
	res.Series = series

	agg := bundle.Aggregate(scanned.Files, bundle.DedupeOptions{
		Tolerance: r.cfg.Dedupe.Tolerance,
		KeepFirst: r.cfg.Dedupe.Keep == "first",
	})
	res.Report = agg.Report
	if len(agg.Bundles) == 0 {
		res.Err = fmt.Errorf("no complete episodes in %s", dir)
		return res
	}

	if !r.opts.DryRun {
		defer preprocess.Cleanup(dir, r.log)
	}

	for _, ep := range agg.Episodes() {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		r.processEpisode(ctx, series, agg.Bundles[ep], res, log)
	}

	if r.opts.DryRun || len(res.Merged) == 0 {
		return res
	}

	targets := make([]validate.Target, 0, len(res.Merged))
	for ep, path := range res.Merged {
		targets = append(targets, validate.Target{Path: path, Episode: ep})
	}
	report, err := r.validator.Batch(ctx, targets)
	if err != nil {
		res.Err = err
		return res
	}
	res.Validation = report
	for i := range report.Files {
		fr := &report.Files[i]
		if fr.OK() {
			r.record(series, fr.Episode, history.EventValidated, "", fr.Path, "")
		}
	}

	if r.opts.DeleteSource && res.OK() && len(res.Skipped) == 0 && len(res.Report.Incomplete) == 0 {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn("failed to delete source directory", "error", err)
		} else {
			log.Info("source directory deleted")
		}
	}
	return res
}

func (r *Runner) processEpisode(ctx context.Context, series *bundle.SeriesInfo, b *bundle.EpisodeBundle, res *DirResult, log *slog.Logger) {
	ep := b.Episode

	done, err := r.hist.Merged(series.Title, series.Season, ep)
	if err == nil && done {
		log.Info("episode already merged, skipping", "episode", ep)
		res.Skipped = append(res.Skipped, ep)
		r.record(series, ep, history.EventSkipped, b.Video.Path, "", "already merged")
		return
	}

	decision, err := r.planner.Plan(ctx, b)
	if err != nil {
		res.Failed = append(res.Failed, EpisodeFailure{Episode: ep, Err: err})
		r.record(series, ep, history.EventFailed, b.Video.Path, "", err.Error())
		return
	}

	if r.opts.DryRun {
		res.Planned = append(res.Planned, previewLine(b, decision, r.merger.OutputPath(series, ep)))
		return
	}

	if err := r.pre.Apply(ctx, decision, b); err != nil {
		res.Failed = append(res.Failed, EpisodeFailure{Episode: ep, Err: err})
		r.record(series, ep, history.EventFailed, b.Video.Path, "", err.Error())
		return
	}

	out, err := r.merger.Merge(ctx, series, b)
	if err != nil {
		res.Failed = append(res.Failed, EpisodeFailure{Episode: ep, Err: err})
		r.record(series, ep, history.EventFailed, b.Video.Path, "", err.Error())
		return
	}

	res.Merged[ep] = out
	r.record(series, ep, history.EventMerged, b.Video.Path, out, "")
}

// resolveSeries combines local directory-name parsing with the AI
// collaborator. Local parsing supplies hints; the model supplies the
// canonical title and year. With no resolver (or an unresolvable name
// in non-strict mode) the cleaned local title is used instead.
func (r *Runner) resolveSeries(ctx context.Context, dir string, files []bundle.MediaFile) (*bundle.SeriesInfo, error) {
	base := filepath.Base(dir)
	series := &bundle.SeriesInfo{RawTitle: base, Season: 1}

	if info, err := scanname.ParseDirName(base); err == nil {
		series.Season = info.Season
		series.Year = info.Year
		series.Group = info.Group
		series.Title = localTitle(info.Title)
	}

	if r.resolver != nil {
		req := ai.SeriesRequest{
			DirName:     base,
			SampleFiles: sampleNames(files, 5),
			Season:      series.Season,
			Group:       series.Group,
		}
		resolution, err := r.resolver.ResolveSeries(ctx, req)
		var unresolved *ai.UnresolvedError
		switch {
		case err == nil:
			series.Title = resolution.Title
			series.Year = resolution.Year
			series.Season = resolution.Season
			series.TotalEpisodes = resolution.TotalEpisodes
			if resolution.NeedsConfirmation && !r.confirm(fmt.Sprintf("Use title %q (%d)?", series.Title, series.Year)) {
				return nil, fmt.Errorf("title %q rejected by user", series.Title)
			}
		case errors.As(err, &unresolved):
			if r.cfg.AI.Strict {
				return nil, err
			}
			r.log.Warn("series unresolved, falling back to local title", "reason", unresolved.Reason)
		default:
			return nil, err
		}
	}

	if !series.Resolved() {
		return nil, fmt.Errorf("cannot determine series title for %s", base)
	}
	if !r.opts.AssumeYes && !r.opts.DryRun {
		if !r.confirm(fmt.Sprintf("Process %q season %d into the library?", series.Title, series.Season)) {
			return nil, fmt.Errorf("run aborted by user")
		}
	}
	return series, nil
}

func (r *Runner) confirm(prompt string) bool {
	if r.opts.AssumeYes || r.opts.Confirm == nil {
		return true
	}
	return r.opts.Confirm(prompt)
}

func (r *Runner) record(series *bundle.SeriesInfo, episode int, event, src, out, detail string) {
	err := r.hist.Add(&history.Entry{
		Series:     series.Title,
		Season:     series.Season,
		Episode:    episode,
		Event:      event,
		SourcePath: src,
		OutputPath: out,
		Detail:     detail,
	})
	if err != nil {
		r.log.Warn("failed to record history", "event", event, "episode", episode, "error", err)
	}
}

// localTitle turns a parsed release title into a display title. This is
// only a fallback when no AI resolution is available, so simple
// per-word casing is fine.
func localTitle(raw string) string {
	words := strings.Fields(raw)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func sampleNames(files []bundle.MediaFile, n int) []string {
	names := make([]string, 0, n)
	for _, f := range files {
		if f.Kind != scanname.KindVideo {
			continue
		}
		names = append(names, filepath.Base(f.Path))
		if len(names) == n {
			break
		}
	}
	return names
}

func previewLine(b *bundle.EpisodeBundle, d *planner.Decision, out string) string {
	actions := "copy"
	switch {
	case d.NoOp():
	case d.NeedsRemux && d.NeedsTranscode():
		actions = "remux+transcode"
	case d.NeedsRemux:
		actions = "remux"
	case d.NeedsTranscode():
		actions = "transcode"
	}
	if len(d.Embed) > 0 {
		actions += fmt.Sprintf("+embed(%d)", len(d.Embed))
	}
	return fmt.Sprintf("E%02d [%s] %s -> %s", b.Episode, actions, filepath.Base(b.Video.Path), out)
}
