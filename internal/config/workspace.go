package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/iniref/internal/atomicfile"
)

// ManifestFile is the workspace manifest name, looked up at the workspace root.
const ManifestFile = "iniref.yaml"

// DefaultCategory is assigned to files no category rule matches.
const DefaultCategory = "rules"

// DefaultDebounce is the watcher debounce when the manifest sets none.
const DefaultDebounce = 150 * time.Millisecond

// ErrNoManifest is returned by FindWorkspaceRoot when no manifest exists in
// the directory or any parent.
var ErrNoManifest = errors.New("no " + ManifestFile + " found")

// Workspace is the per-workspace manifest read from iniref.yaml.
type Workspace struct {
	// Name identifies the workspace; it also names the default export database.
	Name string `yaml:"name"`

	// Schema is the path of the type dictionary, relative to the workspace root.
	Schema string `yaml:"schema,omitempty"`

	// Include lists globs of corpus files (default: **/*.ini).
	Include []string `yaml:"include,omitempty"`

	// Exclude lists globs removed from Include.
	Exclude []string `yaml:"exclude,omitempty"`

	// Categories assign a file category by glob. The first matching rule
	// wins; unmatched files get DefaultCategory.
	Categories []CategoryRule `yaml:"categories,omitempty"`

	Rules  RulesConfig  `yaml:"rules,omitempty"`
	Watch  WatchConfig  `yaml:"watch,omitempty"`
	Export ExportConfig `yaml:"export,omitempty"`
}

// CategoryRule maps glob patterns to a category.
type CategoryRule struct {
	Category string   `yaml:"category"`
	Patterns []string `yaml:"patterns"`
}

// RulesConfig tunes validation.
type RulesConfig struct {
	// Disable lists diagnostic codes that are never reported.
	Disable []string `yaml:"disable,omitempty"`
}

// WatchConfig tunes `iniref watch`.
type WatchConfig struct {
	// Debounce is a Go duration such as "150ms".
	Debounce string `yaml:"debounce,omitempty"`
}

// ExportConfig tunes `iniref export`.
type ExportConfig struct {
	// Path is the SQLite database path, relative to the workspace root.
	Path string `yaml:"path,omitempty"`
}

// DefaultWorkspace returns the manifest used when a workspace has none.
func DefaultWorkspace(name string) *Workspace {
	return &Workspace{
		Name:    name,
		Include: []string{"**/*.ini"},
	}
}

// LoadWorkspace reads root/iniref.yaml. A missing manifest yields the
// defaults named after the directory.
func LoadWorkspace(root string) (*Workspace, error) {
	path := filepath.Join(root, ManifestFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultWorkspace(filepath.Base(root)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	ws := DefaultWorkspace(filepath.Base(root))
	ws.Include = nil
	if err := yaml.Unmarshal(data, ws); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(ws.Include) == 0 {
		ws.Include = []string{"**/*.ini"}
	}
	if err := ws.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return ws, nil
}

func (w *Workspace) validate() error {
	for i, rule := range w.Categories {
		if strings.TrimSpace(rule.Category) == "" {
			return fmt.Errorf("categories[%d]: category is required", i)
		}
		if len(rule.Patterns) == 0 {
			return fmt.Errorf("categories[%d] (%s): at least one pattern is required", i, rule.Category)
		}
	}
	if w.Watch.Debounce != "" {
		if _, err := time.ParseDuration(w.Watch.Debounce); err != nil {
			return fmt.Errorf("watch.debounce: %w", err)
		}
	}
	return nil
}

// FindWorkspaceRoot walks up from start to the first directory containing a
// manifest.
func FindWorkspaceRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoManifest
		}
		dir = parent
	}
}

// SchemaPath returns the absolute schema path, or "" when none is configured.
func (w *Workspace) SchemaPath(root string) string {
	if w.Schema == "" {
		return ""
	}
	if filepath.IsAbs(w.Schema) {
		return w.Schema
	}
	return filepath.Join(root, w.Schema)
}

// DebounceDuration returns the watcher debounce.
func (w *Workspace) DebounceDuration() time.Duration {
	if d, err := time.ParseDuration(w.Watch.Debounce); err == nil && d > 0 {
		return d
	}
	return DefaultDebounce
}

// ExportPath returns the export database path. It defaults to
// .iniref/<slugified name>.db under the workspace root.
func (w *Workspace) ExportPath(root string) string {
	if w.Export.Path != "" {
		if filepath.IsAbs(w.Export.Path) {
			return w.Export.Path
		}
		return filepath.Join(root, w.Export.Path)
	}
	name := slug.Make(w.Name)
	if name == "" {
		name = "index"
	}
	return filepath.Join(root, ".iniref", name+".db")
}

// Matcher compiles the include, exclude and category globs.
func (w *Workspace) Matcher() (*Matcher, error) {
	m := &Matcher{}
	var err error
	if m.include, err = compileGlobs(w.Include); err != nil {
		return nil, fmt.Errorf("include: %w", err)
	}
	if m.exclude, err = compileGlobs(w.Exclude); err != nil {
		return nil, fmt.Errorf("exclude: %w", err)
	}
	for _, rule := range w.Categories {
		globs, err := compileGlobs(rule.Patterns)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", rule.Category, err)
		}
		m.categories = append(m.categories, categoryMatcher{name: rule.Category, globs: globs})
	}
	return m, nil
}

const defaultManifest = `# iniref workspace manifest
name: %s

# Type dictionary, relative to this file.
# schema: schema.ini

include:
  - "**/*.ini"

# exclude:
#   - "backup/**"

# Categories scope [Child]:[Parent] inheritance. First match wins;
# unmatched files are "rules".
# categories:
#   - category: art
#     patterns: ["art*.ini"]
#   - category: ai
#     patterns: ["ai*.ini"]

# rules:
#   disable:
#     - STYLE_LEADING_WHITESPACE

# watch:
#   debounce: 150ms

# export:
#   path: .iniref/index.db
`

// CreateDefaultWorkspace writes a default manifest into root unless one
// exists. It reports whether a file was created.
func CreateDefaultWorkspace(root, name string) (bool, error) {
	path := filepath.Join(root, ManifestFile)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if name == "" {
		name = filepath.Base(root)
	}
	content := fmt.Sprintf(defaultManifest, yamlScalar(name))
	if err := atomicfile.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", ManifestFile, err)
	}
	return true, nil
}

func yamlScalar(s string) string {
	out, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Sprintf("%q", s)
	}
	return strings.TrimSpace(string(out))
}
