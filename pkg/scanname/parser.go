package scanname

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoMatch is returned when a name does not follow the expected
// naming convention. Callers typically fall back to AI-assisted parsing.
var ErrNoMatch = errors.New("name does not match naming convention")

// Episode identifies one episode within a season.
type Episode struct {
	Season  int
	Episode int
}

// seRegex matches the S01E01 numbering convention, case-insensitive.
var seRegex = regexp.MustCompile(`(?i)\bS(\d{1,2})[\s._-]?E(\d{1,3})\b`)

// ParseEpisode extracts season/episode numbering from a file name.
// Only the S<season>E<episode> convention is recognized locally; anything
// else is left to the AI fallback.
func ParseEpisode(name string) (Episode, bool) {
	m := seRegex.FindStringSubmatch(name)
	if m == nil {
		return Episode{}, false
	}
	season, _ := strconv.Atoi(m[1])
	episode, _ := strconv.Atoi(m[2])
	if episode == 0 {
		return Episode{}, false
	}
	return Episode{Season: season, Episode: episode}, true
}

// DirInfo is the information parsed from a release directory name.
type DirInfo struct {
	Title   string
	Season  int
	Year    int
	Quality string
	Group   string
}

// dirRegex matches the Title.S01.1080p-GROUP directory convention.
// The quality segment is optional; the group suffix is optional.
var dirRegex = regexp.MustCompile(`(?i)^(.+?)[. _]S(\d{1,2})(?:[. _]((?:\d{3,4}p|4k|uhd)))?(?:[. _][^-]*)?(?:-(\w+))?$`)

// yearRegex matches a plausible release year inside a title segment.
var yearRegex = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// ParseDirName parses a release directory name of the form
// Title.S<season>.<quality>-<GROUP>. Returns ErrNoMatch when the name
// does not carry a season number in that convention.
func ParseDirName(name string) (*DirInfo, error) {
	m := dirRegex.FindStringSubmatch(name)
	if m == nil {
		return nil, ErrNoMatch
	}

	info := &DirInfo{
		Quality: strings.ToLower(m[3]),
		Group:   m[4],
	}
	info.Season, _ = strconv.Atoi(m[2])
	if info.Season == 0 {
		return nil, ErrNoMatch
	}

	title := m[1]
	if y := yearRegex.FindString(title); y != "" {
		info.Year, _ = strconv.Atoi(y)
		title = strings.Replace(title, y, "", 1)
	}
	title = strings.NewReplacer(".", " ", "_", " ").Replace(title)
	title = strings.Join(strings.Fields(title), " ")
	title = strings.Trim(title, " -([")
	if title == "" {
		return nil, ErrNoMatch
	}
	info.Title = title

	return info, nil
}
