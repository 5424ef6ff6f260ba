package scanner

import (
	"path/filepath"
	"strings"
)

// pattern is a parsed glob pattern with its matching strategy.
type pattern struct {
	glob      string
	matchPath bool // true = match against the root-relative path; false = basename only
}

// filter decides which files a scan covers. Exclude patterns win over
// include patterns; an empty include list accepts everything. Patterns
// containing '/' match the path relative to the scan root, all others
// match the basename only.
type filter struct {
	includes    []pattern
	excludes    []pattern
	minFileSize *int64
	maxFileSize *int64
}

func newFilter(includes, excludes []string, minSize, maxSize *int64) *filter {
	return &filter{
		includes:    parsePatterns(includes),
		excludes:    parsePatterns(excludes),
		minFileSize: minSize,
		maxFileSize: maxSize,
	}
}

func parsePatterns(raw []string) []pattern {
	var patterns []pattern
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		patterns = append(patterns, pattern{glob: r, matchPath: strings.Contains(r, "/")})
	}
	return patterns
}

// acceptPath reports whether the file at relativePath passes the glob
// patterns. relativePath is relative to the scan root.
func (f *filter) acceptPath(relativePath string) bool {
	if matchAny(f.excludes, relativePath) {
		return false
	}
	if len(f.includes) == 0 {
		return true
	}
	return matchAny(f.includes, relativePath)
}

// acceptSize reports whether a file of the given size is in range.
func (f *filter) acceptSize(size int64) bool {
	if f.minFileSize != nil && size < *f.minFileSize {
		return false
	}
	if f.maxFileSize != nil && size > *f.maxFileSize {
		return false
	}
	return true
}

func matchAny(patterns []pattern, relativePath string) bool {
	if len(patterns) == 0 {
		return false
	}
	normalized := filepath.ToSlash(relativePath)
	basename := filepath.Base(relativePath)

	for _, p := range patterns {
		var matched bool
		var err error
		if p.matchPath {
			matched, err = filepath.Match(p.glob, normalized)
		} else {
			matched, err = filepath.Match(p.glob, basename)
		}
		if err != nil {
			// Bad pattern, skip rather than crash.
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
