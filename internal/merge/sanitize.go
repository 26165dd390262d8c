package merge

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrPathTraversal indicates a generated output path would escape the
// library root.
var ErrPathTraversal = errors.New("path escapes library root")

// illegalChars are characters not allowed in filenames on common filesystems.
var illegalChars = regexp.MustCompile(`[<>:"/\\|?*\x00]`)

// multiSpace matches multiple consecutive spaces.
var multiSpace = regexp.MustCompile(`\s+`)

// multiDot matches multiple consecutive dots.
var multiDot = regexp.MustCompile(`\.{2,}`)

// SanitizeFilename removes or replaces characters that are unsafe for
// filenames. Titles come back from an AI model, so this also guards
// against path traversal through the title.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.ReplaceAll(name, "/", " ")
	name = strings.ReplaceAll(name, "\\", " ")
	name = illegalChars.ReplaceAllString(name, " ")
	name = multiDot.ReplaceAllString(name, ".")
	name = multiSpace.ReplaceAllString(name, " ")
	return strings.Trim(name, " .")
}

// validatePath ensures path stays within root after cleaning.
func validatePath(path, root string) error {
	cleanPath := filepath.Clean(path)
	cleanRoot := filepath.Clean(root)
	if !strings.HasSuffix(cleanRoot, string(filepath.Separator)) {
		cleanRoot += string(filepath.Separator)
	}
	if cleanPath != filepath.Clean(root) && !strings.HasPrefix(cleanPath, cleanRoot) {
		return ErrPathTraversal
	}
	return nil
}
