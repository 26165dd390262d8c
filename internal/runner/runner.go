// Package runner drives the full per-directory pipeline: scan, series
// resolution, aggregation, preprocessing, merge and validation.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/seriesmux/internal/ai"
	"github.com/vmunix/seriesmux/internal/config"
	"github.com/vmunix/seriesmux/internal/history"
	"github.com/vmunix/seriesmux/internal/merge"
	"github.com/vmunix/seriesmux/internal/planner"
	"github.com/vmunix/seriesmux/internal/preprocess"
	"github.com/vmunix/seriesmux/internal/probe"
	"github.com/vmunix/seriesmux/internal/scanner"
	"github.com/vmunix/seriesmux/internal/toolexec"
	"github.com/vmunix/seriesmux/internal/validate"
	"github.com/vmunix/seriesmux/pkg/scanname"
)

// ConfirmFunc asks the user a yes/no question. A nil ConfirmFunc
// answers yes to everything.
type ConfirmFunc func(prompt string) bool

// Options are the per-invocation flags.
type Options struct {
	DryRun       bool
	AssumeYes    bool
	DeleteSource bool
	Jobs         int // concurrent directories, minimum 1
	Confirm      ConfirmFunc
	LibraryRoot  string // overrides the configured library root when set
}

// Runner owns the wired pipeline components.
type Runner struct {
	cfg       *config.Config
	opts      Options
	scanner   *scanner.Scanner
	resolver  ai.Resolver
	planner   *planner.Planner
	pre       *preprocess.Preprocessor
	merger    *merge.Merger
	validator *validate.Validator
	hist      *history.Store
	log       *slog.Logger
}

// New wires a Runner from configuration. External tools are checked up
// front except in dry-run mode, where nothing is executed.
func New(cfg *config.Config, opts Options, log *slog.Logger) (*Runner, error) {
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	// Prompts read a shared stdin, so confirmation only works with one
	// directory in flight at a time.
	if opts.Jobs > 1 && !opts.AssumeYes && !opts.DryRun {
		return nil, fmt.Errorf("--jobs %d needs --yes: confirmation prompts cannot run concurrently", opts.Jobs)
	}
	// Dry runs still probe files, so ffprobe is always required.
	tools := []string{cfg.Tools.FFprobe}
	if !opts.DryRun {
		tools = append(tools, cfg.Tools.FFmpeg, cfg.Tools.MKVMerge)
	}
	if err := toolexec.Preflight(tools...); err != nil {
		return nil, err
	}

	root := cfg.Output.LibraryRoot
	if opts.LibraryRoot != "" {
		root = opts.LibraryRoot
	}
	if root == "" {
		return nil, fmt.Errorf("no library root configured")
	}

	var resolver ai.Resolver
	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			if cfg.AI.Strict {
				return nil, ai.ErrNoCredentials
			}
			log.Warn("AI enabled but no API key configured, using local parsing only")
		} else {
			resolver = ai.NewClient(cfg.AI.APIKey,
				ai.WithBaseURL(cfg.AI.BaseURL),
				ai.WithModel(cfg.AI.Model),
			)
		}
	}

	runner := toolexec.New(time.Duration(cfg.Tools.TimeoutMinutes)*time.Minute, log.With("component", "exec"))
	prober := probe.NewFFProbe(runner, cfg.Tools.FFprobe)

	classifier := scanname.NewClassifier(scanname.Extensions{
		Video:    cfg.Extensions.Video,
		Audio:    cfg.Extensions.Audio,
		Subtitle: cfg.Extensions.Subtitle,
	}, cfg.Labels)

	hist, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:      cfg,
		opts:     opts,
		scanner:  scanner.New(classifier, resolver, log.With("component", "scanner")),
		resolver: resolver,
		planner: planner.New(prober, planner.Config{
			LegacyContainers: cfg.Planner.LegacyContainers,
			TranscodeCodec:   cfg.Planner.TranscodeCodec,
			TargetCodec:      cfg.Planner.TargetCodec,
			AudioBitrate:     cfg.Planner.AudioBitrate,
		}, log.With("component", "planner")),
		pre: preprocess.New(runner, preprocess.Config{
			FFmpeg:           cfg.Tools.FFmpeg,
			MKVMerge:         cfg.Tools.MKVMerge,
			SubtitleLanguage: cfg.Output.SubtitleLanguage,
			SubtitleFallback: cfg.Output.SubtitleFallback,
		}, log.With("component", "preprocess")),
		merger: merge.New(runner, merge.Config{
			MKVMerge:         cfg.Tools.MKVMerge,
			LibraryRoot:      root,
			SubtitleLanguage: cfg.Output.SubtitleLanguage,
			SubtitleFallback: cfg.Output.SubtitleFallback,
		}, log.With("component", "merge")),
		validator: validate.New(prober, cfg.Output.MinDurationSeconds, log.With("component", "validate")),
		hist:      hist,
		log:       log,
	}, nil
}

// Close releases the runner's resources.
func (r *Runner) Close() error {
	if r.hist != nil {
		return r.hist.Close()
	}
	return nil
}

// Run processes each directory. Directories run concurrently up to
// Jobs; a failing directory does not stop the others. Results come back
// in input order.
func (r *Runner) Run(ctx context.Context, dirs []string) ([]*DirResult, error) {
	results := make([]*DirResult, len(dirs))

	// Wait cancels gctx when it returns, so the caller's ctx decides
	// whether the run as a whole was interrupted.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Jobs)
	for i, dir := range dirs {
		i, dir := i, dir
		g.Go(func() error {
			results[i] = r.processDir(gctx, dir)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// OK reports whether every directory finished with all episodes merged
// and validated. This decides the process exit code.
func OK(results []*DirResult) bool {
	for _, res := range results {
		if res == nil || !res.OK() {
			return false
		}
	}
	return true
}
