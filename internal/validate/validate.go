// Package validate checks merged output files for structural problems
// before a run is declared successful.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vmunix/seriesmux/internal/probe"
)

// FileResult holds the validation outcome for one output file. Errors
// fail the run; warnings are reported but do not. The probed duration
// and track counts are carried so summaries can show what was measured,
// not only what failed.
type FileResult struct {
	Path           string
	Episode        int
	Duration       float64 // seconds, 0 when the probe failed
	VideoTracks    int
	AudioTracks    int
	SubtitleTracks int
	Errors         []string
	Warnings       []string
}

// OK reports whether the file passed validation.
func (f *FileResult) OK() bool {
	return len(f.Errors) == 0
}

// Report is the validation outcome for a whole batch.
type Report struct {
	Files []FileResult
}

// Passed reports whether every file validated without errors.
func (r *Report) Passed() bool {
	for i := range r.Files {
		if !r.Files[i].OK() {
			return false
		}
	}
	return true
}

// Target names one merged file to validate.
type Target struct {
	Path    string
	Episode int
}

// Validator probes merged files and applies structural checks.
type Validator struct {
	prober      probe.Prober
	minDuration float64 // seconds
	log         *slog.Logger
}

// New creates a Validator. minDurationSeconds guards against merges
// that technically succeeded but produced a stub file.
func New(prober probe.Prober, minDurationSeconds int, log *slog.Logger) *Validator {
	return &Validator{
		prober:      prober,
		minDuration: float64(minDurationSeconds),
		log:         log,
	}
}

// Batch validates all targets. Per-file checks are hard errors; batch
// consistency checks (resolution or video codec deviating from the
// majority of the batch) are warnings, since mixed sources are
// sometimes intentional.
func (v *Validator) Batch(ctx context.Context, targets []Target) (*Report, error) {
	report := &Report{Files: make([]FileResult, 0, len(targets))}
	results := make(map[string]*probe.Result, len(targets))

	for _, tgt := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fr := FileResult{Path: tgt.Path, Episode: tgt.Episode}

		res, err := v.prober.Probe(ctx, tgt.Path)
		if err != nil {
			fr.Errors = append(fr.Errors, fmt.Sprintf("unreadable: %v", err))
			report.Files = append(report.Files, fr)
			continue
		}
		results[tgt.Path] = res
		fr.Duration = res.Duration
		fr.VideoTracks = res.VideoTracks
		fr.AudioTracks = res.AudioTracks()
		fr.SubtitleTracks = res.SubtitleTracks

		if res.VideoTracks == 0 {
			fr.Errors = append(fr.Errors, "no video track")
		}
		if res.AudioTracks() == 0 {
			fr.Errors = append(fr.Errors, "no audio track")
		}
		if res.Duration < v.minDuration {
			fr.Errors = append(fr.Errors, fmt.Sprintf("duration %.1fs below minimum %.0fs", res.Duration, v.minDuration))
		}
		if res.VideoTracks > 1 {
			fr.Warnings = append(fr.Warnings, fmt.Sprintf("%d video tracks", res.VideoTracks))
		}
		report.Files = append(report.Files, fr)
	}

	v.applyConsistencyChecks(report, results)

	for i := range report.Files {
		fr := &report.Files[i]
		if !fr.OK() {
			v.log.Warn("validation failed", "path", fr.Path, "errors", fr.Errors)
		}
	}
	return report, nil
}

// applyConsistencyChecks warns about files whose resolution or video
// codec differ from the batch majority.
func (v *Validator) applyConsistencyChecks(report *Report, results map[string]*probe.Result) {
	if len(results) < 2 {
		return
	}

	var resolutions, codecs []string
	for _, res := range results {
		resolutions = append(resolutions, res.Resolution())
		codecs = append(codecs, res.VideoCodec)
	}
	wantRes := majority(resolutions)
	wantCodec := majority(codecs)

	for i := range report.Files {
		fr := &report.Files[i]
		res, ok := results[fr.Path]
		if !ok {
			continue
		}
		if got := res.Resolution(); got != wantRes {
			fr.Warnings = append(fr.Warnings, fmt.Sprintf("resolution %s differs from batch majority %s", got, wantRes))
		}
		if res.VideoCodec != wantCodec {
			fr.Warnings = append(fr.Warnings, fmt.Sprintf("video codec %s differs from batch majority %s", res.VideoCodec, wantCodec))
		}
	}
}

// majority returns the most common value; ties break lexically so the
// outcome is stable across runs.
func majority(values []string) string {
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := ""
	bestCount := 0
	for _, k := range keys {
		if counts[k] > bestCount {
			best = k
			bestCount = counts[k]
		}
	}
	return best
}
