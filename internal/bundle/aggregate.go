package bundle

import (
	"sort"

	"github.com/vmunix/seriesmux/pkg/scanname"
)

// VideoConflict records a second video file seen for an episode that
// already had one. The first file encountered wins.
type VideoConflict struct {
	Episode int
	Kept    string
	Dropped string
}

// Report collects non-fatal findings from one aggregation pass.
type Report struct {
	VideoConflicts []VideoConflict
	Incomplete     []int    // episodes dropped for lacking a video file
	Unnumbered     []string // files excluded for undetermined episode number
}

// Aggregation is the result of grouping a scanned file set by episode.
type Aggregation struct {
	Bundles map[int]*EpisodeBundle
	Report  Report
}

// Episodes returns episode numbers in ascending order. All iteration and
// reporting over an aggregation goes through this for determinism.
func (a *Aggregation) Episodes() []int {
	nums := make([]int, 0, len(a.Bundles))
	for n := range a.Bundles {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// Aggregate builds per-episode bundles in a single pass over the scanned
// files, then dedupes each episode's subtitle list. Episodes without a
// video file are dropped and reported.
func Aggregate(files []MediaFile, opts DedupeOptions) *Aggregation {
	agg := &Aggregation{Bundles: make(map[int]*EpisodeBundle)}

	// Stable placement order: lexical by path, so the "first encountered"
	// winner does not depend on directory walk quirks.
	ordered := make([]MediaFile, len(files))
	copy(ordered, files)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Path < ordered[j].Path
	})

	for _, f := range ordered {
		if f.Episode <= 0 {
			agg.Report.Unnumbered = append(agg.Report.Unnumbered, f.Path)
			continue
		}
		b := agg.Bundles[f.Episode]
		if b == nil {
			b = &EpisodeBundle{Episode: f.Episode}
			agg.Bundles[f.Episode] = b
		}
		switch f.Kind {
		case scanname.KindVideo:
			if b.Video != nil {
				agg.Report.VideoConflicts = append(agg.Report.VideoConflicts, VideoConflict{
					Episode: f.Episode,
					Kept:    b.Video.Path,
					Dropped: f.Path,
				})
				continue
			}
			video := f
			b.Video = &video
		case scanname.KindAudio:
			b.AudioTracks = append(b.AudioTracks, f)
		case scanname.KindSubtitle:
			b.SubtitleTracks = append(b.SubtitleTracks, f)
		}
	}

	for num, b := range agg.Bundles {
		if b.Video == nil {
			agg.Report.Incomplete = append(agg.Report.Incomplete, num)
			delete(agg.Bundles, num)
			continue
		}
		b.SubtitleTracks = Dedupe(b.SubtitleTracks, opts)
	}
	sort.Ints(agg.Report.Incomplete)

	return agg
}
