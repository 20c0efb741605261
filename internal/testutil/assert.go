package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// AssertFileExists fails the test if the file does not exist.
func (w *TestWorkspace) AssertFileExists(relPath string) {
	w.t.Helper()
	if _, err := os.Stat(filepath.Join(w.Path, relPath)); os.IsNotExist(err) {
		w.t.Errorf("expected file to exist: %s", relPath)
	}
}

// AssertFileContains fails the test if the file does not contain substr.
func (w *TestWorkspace) AssertFileContains(relPath, substr string) {
	w.t.Helper()
	content := w.ReadFile(relPath)
	if !strings.Contains(content, substr) {
		w.t.Errorf("expected file %s to contain %q, got:\n%s", relPath, substr, content)
	}
}

// AssertFileNotContains fails the test if the file contains substr.
func (w *TestWorkspace) AssertFileNotContains(relPath, substr string) {
	w.t.Helper()
	content := w.ReadFile(relPath)
	if strings.Contains(content, substr) {
		w.t.Errorf("expected file %s to not contain %q, got:\n%s", relPath, substr, content)
	}
}

// Diagnostics returns the diagnostics reported by `iniref check --json`
// for path.
func (r *CLIResult) Diagnostics(path string) []map[string]interface{} {
	var out []map[string]interface{}
	for _, f := range r.DataList("files") {
		file, ok := f.(map[string]interface{})
		if !ok || file["path"] != path {
			continue
		}
		diags, _ := file["diagnostics"].([]interface{})
		for _, d := range diags {
			if m, ok := d.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

// AssertDiagnostic fails the test unless path has a diagnostic with code on
// the given 0-based line.
func (r *CLIResult) AssertDiagnostic(t *testing.T, path, code string, line int) {
	t.Helper()
	for _, d := range r.Diagnostics(path) {
		rng, _ := d["range"].(map[string]interface{})
		start, _ := rng["start"].(map[string]interface{})
		if d["code"] == code && start["line"] == float64(line) {
			return
		}
	}
	t.Errorf("expected %s on %s:%d, got: %v", code, path, line, r.Diagnostics(path))
}

// AssertHasWarning fails the test if the response lacks a warning with code.
func (r *CLIResult) AssertHasWarning(t *testing.T, code string) {
	t.Helper()
	for _, w := range r.Warnings {
		if w.Code == code {
			return
		}
	}
	t.Errorf("expected warning %s, got %v", code, r.Warnings)
}

// AssertResultCount fails the test if Data[key] is not a list of length expected.
func (r *CLIResult) AssertResultCount(t *testing.T, key string, expected int) {
	t.Helper()
	if got := len(r.DataList(key)); got != expected {
		t.Errorf("expected %d %s, got %d\nRaw output: %s", expected, key, got, r.RawJSON)
	}
}
