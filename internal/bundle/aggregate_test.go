package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmunix/seriesmux/pkg/scanname"
)

func TestAggregateGroupsByEpisode(t *testing.T) {
	files := []MediaFile{
		{Path: "/in/Frieren.S01E01.mkv", Kind: scanname.KindVideo, Episode: 1, SizeBytes: 1 << 30},
		{Path: "/in/Frieren.S01E01.ru.mka", Kind: scanname.KindAudio, Episode: 1, SizeBytes: 90 << 20},
		{Path: "/in/subs/Frieren.S01E01.a.ass", Kind: scanname.KindSubtitle, Episode: 1, Label: "Animevod", SizeBytes: 50000},
		{Path: "/in/subs/Frieren.S01E01.b.ass", Kind: scanname.KindSubtitle, Episode: 1, Label: "Animevod", SizeBytes: 50200},
		{Path: "/in/Frieren.S01E02.mkv", Kind: scanname.KindVideo, Episode: 2, SizeBytes: 1 << 30},
	}

	agg := Aggregate(files, DedupeOptions{})

	require.Len(t, agg.Bundles, 2)
	assert.Equal(t, []int{1, 2}, agg.Episodes())

	ep1 := agg.Bundles[1]
	require.NotNil(t, ep1.Video)
	assert.Equal(t, "/in/Frieren.S01E01.mkv", ep1.Video.Path)
	assert.Len(t, ep1.AudioTracks, 1)
	// Two Animevod subtitles 50000/50200 bytes: one survivor, the larger.
	require.Len(t, ep1.SubtitleTracks, 1)
	assert.Equal(t, int64(50200), ep1.SubtitleTracks[0].SizeBytes)
}

func TestAggregateVideoConflictFirstWins(t *testing.T) {
	files := []MediaFile{
		{Path: "/in/b/Show.S01E01.mkv", Kind: scanname.KindVideo, Episode: 1},
		{Path: "/in/a/Show.S01E01.mkv", Kind: scanname.KindVideo, Episode: 1},
	}

	agg := Aggregate(files, DedupeOptions{})

	require.Len(t, agg.Bundles, 1)
	assert.Equal(t, "/in/a/Show.S01E01.mkv", agg.Bundles[1].Video.Path)
	require.Len(t, agg.Report.VideoConflicts, 1)
	assert.Equal(t, "/in/b/Show.S01E01.mkv", agg.Report.VideoConflicts[0].Dropped)
}

func TestAggregateDropsVideolessEpisodes(t *testing.T) {
	files := []MediaFile{
		{Path: "/in/Show.S01E01.mkv", Kind: scanname.KindVideo, Episode: 1},
		{Path: "/in/Show.S01E03.ass", Kind: scanname.KindSubtitle, Episode: 3},
	}

	agg := Aggregate(files, DedupeOptions{})

	assert.Equal(t, []int{1}, agg.Episodes())
	assert.Equal(t, []int{3}, agg.Report.Incomplete)
}

func TestAggregateExcludesUnnumbered(t *testing.T) {
	files := []MediaFile{
		{Path: "/in/Show.S01E01.mkv", Kind: scanname.KindVideo, Episode: 1},
		{Path: "/in/opening.mkv", Kind: scanname.KindVideo, Episode: 0},
	}

	agg := Aggregate(files, DedupeOptions{})

	assert.Len(t, agg.Bundles, 1)
	assert.Equal(t, []string{"/in/opening.mkv"}, agg.Report.Unnumbered)
}
