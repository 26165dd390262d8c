package scanname

import (
	"path/filepath"
	"strings"

	"github.com/hbollon/go-edlib"
)

// labelFuzzyThreshold is the minimum Jaro-Winkler similarity for a
// filename token to count as a studio label match. High on purpose:
// labels are short and near-misses are usually unrelated words.
const labelFuzzyThreshold = 0.92

// DefaultLabels returns the built-in studio/translation-group labels
// recognized without AI assistance.
func DefaultLabels() []string {
	return []string{
		"Crunchyroll",
		"Animevod",
		"BudLightSubs",
		"AniLibria",
		"SovetRomantica",
		"Netflix",
	}
}

// labelAliases maps common short forms to their canonical label.
var labelAliases = map[string]string{
	"cr":       "Crunchyroll",
	"crunchy":  "Crunchyroll",
	"budlight": "BudLightSubs",
	"nf":       "Netflix",
}

// DetectLabel scans a file name and its ancestor directory names
// (closest first) for a known studio label. The first name that yields a
// match wins, so a label on the file itself beats one inherited from a
// parent directory.
func (c *Classifier) DetectLabel(filename string, ancestors []string) (string, bool) {
	names := make([]string, 0, len(ancestors)+1)
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	names = append(names, base)
	names = append(names, ancestors...)

	for _, name := range names {
		if label, ok := c.matchLabel(name); ok {
			return label, true
		}
	}
	return "", false
}

// matchLabel checks one name against the known label set: alias lookup
// first, then substring match, then per-token fuzzy comparison.
func (c *Classifier) matchLabel(name string) (string, bool) {
	clean := CleanTitle(name)
	if clean == "" {
		return "", false
	}
	tokens := strings.Fields(clean)

	for _, tok := range tokens {
		if canonical, ok := labelAliases[tok]; ok {
			return canonical, true
		}
	}

	for _, label := range c.labels {
		cleanLabel := CleanTitle(label)
		if cleanLabel == "" {
			continue
		}
		if strings.Contains(clean, cleanLabel) {
			return label, true
		}
		// Fuzzy matching only for single-word labels; multi-word labels
		// must match as substrings above.
		if strings.ContainsRune(cleanLabel, ' ') {
			continue
		}
		for _, tok := range tokens {
			if edlib.JaroWinklerSimilarity(tok, cleanLabel) >= labelFuzzyThreshold {
				return label, true
			}
		}
	}
	return "", false
}
