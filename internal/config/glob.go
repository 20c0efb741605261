package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher decides which workspace files are corpus files and which
// category they belong to. Paths are workspace-relative and matched
// case-insensitively with forward slashes.
type Matcher struct {
	include    []string
	exclude    []string
	categories []categoryMatcher
}

type categoryMatcher struct {
	name  string
	globs []string
}

// Included reports whether rel is a corpus file.
func (m *Matcher) Included(rel string) bool {
	rel = filepath.ToSlash(rel)
	return matchAny(m.include, rel) && !matchAny(m.exclude, rel)
}

// Excluded reports whether rel matches an exclude glob. Directories are
// tested with a trailing slash so "backup/**" prunes the whole tree.
func (m *Matcher) Excluded(rel string) bool {
	return matchAny(m.exclude, filepath.ToSlash(rel))
}

// Category returns the category of rel.
func (m *Matcher) Category(rel string) string {
	rel = filepath.ToSlash(rel)
	for _, c := range m.categories {
		if matchAny(c.globs, rel) {
			return c.name
		}
	}
	return DefaultCategory
}

func matchAny(globs []string, rel string) bool {
	rel = strings.ToLower(rel)
	for _, g := range globs {
		if matchGlob(g, rel) {
			return true
		}
	}
	return false
}

// matchGlob matches a compiled glob against a lower-cased path. A trailing
// slash marks a directory, which also matches "dir/**".
func matchGlob(glob, rel string) bool {
	if ok, _ := doublestar.Match(glob, rel); ok {
		return true
	}
	if dir := strings.TrimSuffix(rel, "/"); dir != rel {
		ok, _ := doublestar.Match(glob, dir)
		return ok
	}
	return false
}

func compileGlobs(patterns []string) ([]string, error) {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		g, err := compileGlob(p)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// compileGlob normalizes a doublestar pattern for case-insensitive matching.
// A pattern without '/' matches the base name at any depth.
func compileGlob(pattern string) (string, error) {
	pattern = strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(pattern)), "./")
	if pattern == "" {
		return "", fmt.Errorf("empty glob")
	}
	if !strings.Contains(pattern, "/") {
		pattern = "**/" + pattern
	}
	pattern = strings.ToLower(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return "", fmt.Errorf("invalid glob %q", pattern)
	}
	return pattern, nil
}
