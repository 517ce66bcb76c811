// Package discover locates TAP report files on disk.
package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/AndreyAkinshin/taptally/internal/report"
)

// DefaultPattern matches every .tap file below the search root.
const DefaultPattern = "**/*.tap"

// Find returns the regular files below root matching any of patterns,
// sorted and without duplicates. Patterns use doublestar syntax and are
// relative to root unless absolute.
//
// When since is non-zero, files last modified before it are discarded.
// Modification times are compared with one-second resolution.
func Find(root string, patterns []string, since time.Time) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{DefaultPattern}
	}

	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}

		base, rel := split(root, pattern)
		matches, err := doublestar.Glob(os.DirFS(base), rel, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to match %q: %w", pattern, err)
		}

		for _, m := range matches {
			path := filepath.Join(base, filepath.FromSlash(m))
			if seen[path] {
				continue
			}
			seen[path] = true

			keep, err := modifiedSince(path, since)
			if err != nil {
				return nil, err
			}
			if keep {
				files = append(files, path)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// split turns pattern into a directory to search and a pattern relative to
// it. Absolute patterns are split at their first meta character.
func split(root, pattern string) (base, rel string) {
	pattern = filepath.ToSlash(pattern)
	if !filepath.IsAbs(filepath.FromSlash(pattern)) {
		if root == "" {
			root = "."
		}
		return root, pattern
	}
	b, p := doublestar.SplitPattern(pattern)
	return filepath.FromSlash(b), p
}

func modifiedSince(path string, since time.Time) (bool, error) {
	if since.IsZero() {
		return true, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.ModTime().Unix() >= since.Unix(), nil
}

// Normalize returns file relative to root when it lies below root, using
// forward slashes.
func Normalize(root, file string) string {
	return report.NormalizePath(root, file)
}
