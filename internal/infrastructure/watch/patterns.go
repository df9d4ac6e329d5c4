package watch

import (
	"path/filepath"
	"strings"
)

// DefaultExclude skips files pulse writes itself plus editor scratch files.
// Without it every generated report would append to events.jsonl and
// trigger the next one.
var DefaultExclude = []string{"events.jsonl", "deadletters.jsonl", "*.swp", "*~", ".#*", "*.tmp"}

// PatternFilter filters file paths based on include/exclude glob patterns.
// A pattern ending in "/" matches every path below that directory.
type PatternFilter struct {
	Include []string
	Exclude []string
}

// NewPatternFilter creates a filter that always applies DefaultExclude.
func NewPatternFilter(include, exclude []string) *PatternFilter {
	ex := make([]string, 0, len(DefaultExclude)+len(exclude))
	ex = append(ex, DefaultExclude...)
	ex = append(ex, exclude...)
	return &PatternFilter{
		Include: include,
		Exclude: ex,
	}
}

// Matches returns true if the path passes the filter.
// If include patterns are set, at least one must match.
// If exclude patterns are set, none must match.
func (f *PatternFilter) Matches(path string) bool {
	for _, pattern := range f.Exclude {
		if match(pattern, path) {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, pattern := range f.Include {
		if match(pattern, path) {
			return true
		}
	}
	return false
}

func match(pattern, path string) bool {
	slashed := filepath.ToSlash(path)
	if dir, ok := strings.CutSuffix(pattern, "/"); ok {
		return strings.HasPrefix(slashed, dir+"/") || strings.Contains(slashed, "/"+dir+"/")
	}
	if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
		return true
	}
	matched, _ := filepath.Match(pattern, path)
	return matched
}
