// Package scanner walks a source directory and turns its contents into
// classified media files, with AI backfill for names the local parser
// cannot number or label.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/vmunix/seriesmux/internal/ai"
	"github.com/vmunix/seriesmux/internal/bundle"
	"github.com/vmunix/seriesmux/internal/preprocess"
	"github.com/vmunix/seriesmux/pkg/scanname"
)

// Result is everything a directory scan produced.
type Result struct {
	Files   []bundle.MediaFile
	Skipped []string // unrecognized extensions, reported not processed
}

// Scanner classifies directory contents. A nil resolver disables the
// AI backfill pass and leaves unparseable names unnumbered.
type Scanner struct {
	classifier *scanname.Classifier
	resolver   ai.Resolver
	log        *slog.Logger
}

// New creates a Scanner.
func New(classifier *scanname.Classifier, resolver ai.Resolver, log *slog.Logger) *Scanner {
	return &Scanner{classifier: classifier, resolver: resolver, log: log}
}

// Scan walks dir recursively and returns its classified media files.
// Episode numbers and labels are parsed locally first; files the local
// parser cannot handle go through the AI collaborator in one batch per
// concern. Backfill failures degrade to unnumbered files rather than
// failing the scan.
func (s *Scanner) Scan(ctx context.Context, dir string) (*Result, error) {
	result := &Result{}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != dir && (name == preprocess.TempDirName || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		kind := s.classifier.Kind(path)
		if kind == scanname.KindUnknown {
			result.Skipped = append(result.Skipped, path)
			s.log.Debug("skipping unrecognized file", "path", path)
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		mf := bundle.MediaFile{
			Path:      path,
			Kind:      kind,
			SizeBytes: info.Size(),
		}
		if ep, ok := scanname.ParseEpisode(d.Name()); ok {
			mf.Season = ep.Season
			mf.Episode = ep.Episode
		}
		if kind != scanname.KindVideo {
			if label, ok := s.classifier.DetectLabel(d.Name(), ancestors(dir, path)); ok {
				mf.Label = label
			}
		}

		result.Files = append(result.Files, mf)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	if s.resolver != nil {
		s.backfillEpisodes(ctx, result.Files)
		s.backfillLabels(ctx, result.Files)
	}

	s.log.Info("scan complete",
		"dir", dir,
		"files", len(result.Files),
		"skipped", len(result.Skipped),
	)
	return result, nil
}

// ancestors returns the directory names between root and path, closest
// to the file first. Label hints usually live in the immediate parent
// (per-group subtitle subdirectories).
func ancestors(root, path string) []string {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." {
		return nil
	}
	parts := strings.Split(rel, string(filepath.Separator))
	out := make([]string, 0, len(parts))
	for i := len(parts) - 1; i >= 0; i-- {
		out = append(out, parts[i])
	}
	return out
}

// backfillEpisodes asks the AI collaborator to number files the local
// parser could not, in one batch.
func (s *Scanner) backfillEpisodes(ctx context.Context, files []bundle.MediaFile) {
	var idx []int
	var names []string
	for i := range files {
		if files[i].Episode == 0 {
			idx = append(idx, i)
			names = append(names, filepath.Base(files[i].Path))
		}
	}
	if len(names) == 0 {
		return
	}

	guesses, err := s.resolver.ExtractEpisodes(ctx, names)
	if err != nil {
		s.log.Warn("episode backfill failed, files stay unnumbered", "count", len(names), "error", err)
		return
	}
	if len(guesses) != len(names) {
		s.log.Warn("episode backfill returned wrong count", "want", len(names), "got", len(guesses))
		return
	}

	for n, g := range guesses {
		if !g.Determined {
			continue
		}
		f := &files[idx[n]]
		f.Episode = g.Episode
		if g.Season > 0 {
			f.Season = g.Season
		}
		s.log.Debug("episode backfilled", "file", filepath.Base(f.Path), "episode", g.Episode)
	}
}

// backfillLabels asks the AI collaborator to attribute unlabeled audio
// and subtitle tracks to a studio or translation group.
func (s *Scanner) backfillLabels(ctx context.Context, files []bundle.MediaFile) {
	var idx []int
	var queries []ai.LabelQuery
	for i := range files {
		if files[i].Kind != scanname.KindVideo && files[i].Label == "" {
			idx = append(idx, i)
			queries = append(queries, ai.LabelQuery{
				Filename:  filepath.Base(files[i].Path),
				ParentDir: filepath.Base(filepath.Dir(files[i].Path)),
			})
		}
	}
	if len(queries) == 0 {
		return
	}

	labels, err := s.resolver.DetectLabels(ctx, queries)
	if err != nil {
		s.log.Warn("label backfill failed, tracks stay unlabeled", "count", len(queries), "error", err)
		return
	}
	if len(labels) != len(queries) {
		s.log.Warn("label backfill returned wrong count", "want", len(queries), "got", len(labels))
		return
	}

	for n, label := range labels {
		if label == "" {
			continue
		}
		files[idx[n]].Label = label
	}
}
