package bundle

import (
	"path/filepath"
	"strings"
)

// DefaultDedupeTolerance is the relative size difference under which two
// same-label subtitle files are considered copies of one translation.
const DefaultDedupeTolerance = 0.01

// DedupeOptions tune duplicate detection. The keep-larger tie-break is a
// heuristic, so it stays overridable.
type DedupeOptions struct {
	Tolerance float64 // relative size tolerance, 0 means DefaultDedupeTolerance
	KeepFirst bool    // keep the first-seen duplicate instead of the larger one
}

// Dedupe removes redundant subtitle tracks, keeping one winner per
// distinct (label, near-identical size) identity. Survivors keep their
// input order. Unlabeled tracks are assumed distinct unless they share
// both exact size and filename stem.
func Dedupe(subs []MediaFile, opts DedupeOptions) []MediaFile {
	if len(subs) < 2 {
		return subs
	}
	tol := opts.Tolerance
	if tol <= 0 {
		tol = DefaultDedupeTolerance
	}

	lost := make([]bool, len(subs))
	for i := 0; i < len(subs); i++ {
		if lost[i] {
			continue
		}
		for j := i + 1; j < len(subs); j++ {
			if lost[j] {
				continue
			}
			if !sameIdentity(&subs[i], &subs[j], tol) {
				continue
			}
			if loserIsFirst(&subs[i], &subs[j], opts.KeepFirst) {
				lost[i] = true
				break // i lost; stop comparing it against the rest
			}
			lost[j] = true
		}
	}

	kept := make([]MediaFile, 0, len(subs))
	for i, f := range subs {
		if !lost[i] {
			kept = append(kept, f)
		}
	}
	return kept
}

// sameIdentity reports whether two subtitle files are copies of the same
// translation track.
func sameIdentity(a, b *MediaFile, tol float64) bool {
	if a.Label != "" && a.Label == b.Label {
		return withinTolerance(a.SizeBytes, b.SizeBytes, tol)
	}
	if a.Label == "" && b.Label == "" {
		return a.SizeBytes == b.SizeBytes && stem(a.Path) == stem(b.Path)
	}
	return false
}

// loserIsFirst decides which of a duplicate pair is dropped. Default
// policy keeps the larger file; exact size ties keep the lexically
// earlier path.
func loserIsFirst(a, b *MediaFile, keepFirst bool) bool {
	if keepFirst {
		return false
	}
	if a.SizeBytes != b.SizeBytes {
		return a.SizeBytes < b.SizeBytes
	}
	return a.Path > b.Path
}

func withinTolerance(a, b int64, tol float64) bool {
	larger := max(a, b)
	if larger == 0 {
		return true
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) < tol*float64(larger)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
