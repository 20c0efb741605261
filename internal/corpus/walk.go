// Package corpus finds and reads the INI files of a workspace.
package corpus

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aidanlsb/iniref/internal/config"
	"github.com/aidanlsb/iniref/internal/engine"
)

// WalkResult is one corpus file found by Walk.
type WalkResult struct {
	Path         string // absolute
	RelativePath string // workspace-relative, forward slashes
	File         engine.File
	Error        error
}

// skipDir reports directories that never hold corpus files.
func skipDir(name string) bool {
	return name == ".iniref" || name == ".git" || (strings.HasPrefix(name, ".") && name != ".")
}

// Walk visits every file under root accepted by m and calls handler with
// its content. Read errors are passed to handler rather than aborting.
func Walk(root string, m *config.Matcher, handler func(WalkResult) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		rel := RelativePath(root, path)
		if err != nil {
			return handler(WalkResult{Path: path, RelativePath: rel, Error: err})
		}

		if d.IsDir() {
			if path != root && (skipDir(d.Name()) || m.Excluded(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !m.Included(rel) {
			return nil
		}

		file, err := ReadFile(root, path, m)
		if err != nil {
			return handler(WalkResult{Path: path, RelativePath: rel, Error: err})
		}
		return handler(WalkResult{Path: path, RelativePath: rel, File: file})
	})
}

// Collect walks root and returns the readable files plus the failures.
func Collect(root string, m *config.Matcher) ([]engine.File, []WalkResult, error) {
	var files []engine.File
	var failed []WalkResult

	err := Walk(root, m, func(r WalkResult) error {
		if r.Error != nil {
			failed = append(failed, r)
		} else {
			files = append(files, r.File)
		}
		return nil
	})
	return files, failed, err
}

// ReadFile reads one file into an engine.File keyed by its workspace-relative
// path.
func ReadFile(root, path string, m *config.Matcher) (engine.File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return engine.File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	rel := RelativePath(root, path)
	return engine.File{
		Path:     rel,
		Content:  string(content),
		Category: m.Category(rel),
	}, nil
}

// RelativePath returns path relative to root with forward slashes. Paths
// outside root are returned cleaned but otherwise unchanged.
func RelativePath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(filepath.Clean(path))
	}
	return filepath.ToSlash(rel)
}

// AbsolutePath is the inverse of RelativePath.
func AbsolutePath(root, rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(root, filepath.FromSlash(rel))
}
