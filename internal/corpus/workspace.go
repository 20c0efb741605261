package corpus

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aidanlsb/iniref/internal/check"
	"github.com/aidanlsb/iniref/internal/config"
	"github.com/aidanlsb/iniref/internal/engine"
	"github.com/aidanlsb/iniref/internal/logging"
)

// Workspace is an opened workspace: its manifest and an engine loaded with
// the schema and every corpus file.
type Workspace struct {
	Root     string
	Manifest *config.Workspace
	Matcher  *config.Matcher
	Engine   *engine.Engine

	// Failed lists files that could not be read while loading.
	Failed []WalkResult

	log *slog.Logger
}

// Open loads the manifest at root, the schema it names, and all corpus files.
// A configured schema that cannot be read is an error; an absent schema
// setting leaves the engine without one.
func Open(root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if st, err := os.Stat(abs); err != nil || !st.IsDir() {
		return nil, fmt.Errorf("workspace %s is not a directory", root)
	}

	manifest, err := config.LoadWorkspace(abs)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Matcher()
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.ManifestFile, err)
	}

	log := logging.Component("corpus")
	ws := &Workspace{
		Root:     abs,
		Manifest: manifest,
		Matcher:  m,
		Engine:   engine.New(engine.Options{Disabled: disabledCodes(manifest, log), Logger: logging.Component("engine")}),
		log:      log,
	}

	if path := manifest.SchemaPath(abs); path != "" {
		if err := ws.Engine.LoadSchemaFile(path); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	files, failed, err := Collect(abs, m)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", abs, err)
	}
	corpusFiles := files[:0]
	for _, f := range files {
		if !ws.IsSchemaFile(f.Path) {
			corpusFiles = append(corpusFiles, f)
		}
	}
	ws.Engine.IndexFiles(corpusFiles)
	ws.Failed = failed
	for _, f := range failed {
		log.Warn("skipping unreadable file", "path", f.RelativePath, "error", f.Error)
	}
	log.Debug("workspace loaded", "root", abs, "files", len(corpusFiles), "duration_ms", time.Since(start).Milliseconds())
	return ws, nil
}

func disabledCodes(manifest *config.Workspace, log *slog.Logger) []check.Code {
	var codes []check.Code
	for _, name := range manifest.Rules.Disable {
		info, ok := check.Lookup(name)
		if !ok {
			log.Warn("unknown rule in rules.disable", "rule", name)
			continue
		}
		codes = append(codes, info.Code)
	}
	return codes
}

// Rel converts an absolute or workspace-relative path to the engine key.
func (w *Workspace) Rel(path string) string {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(filepath.Clean(path))
	}
	return RelativePath(w.Root, path)
}

// Abs converts an engine key back to an absolute path.
func (w *Workspace) Abs(rel string) string {
	return AbsolutePath(w.Root, rel)
}

// IsSchemaFile reports whether path is the configured schema.
func (w *Workspace) IsSchemaFile(path string) bool {
	schema := w.Manifest.SchemaPath(w.Root)
	if schema == "" {
		return false
	}
	if !filepath.IsAbs(path) {
		path = w.Abs(path)
	}
	return filepath.Clean(path) == filepath.Clean(schema)
}

// Accepts reports whether path is a corpus file of this workspace.
func (w *Workspace) Accepts(path string) bool {
	rel := w.Rel(path)
	if strings.HasPrefix(rel, "../") || filepath.IsAbs(rel) || w.IsSchemaFile(rel) {
		return false
	}
	for _, part := range strings.Split(rel, "/")[:strings.Count(rel, "/")] {
		if skipDir(part) {
			return false
		}
	}
	return w.Matcher.Included(rel)
}

// Load reads one file of the workspace into an engine.File.
func (w *Workspace) Load(path string) (engine.File, error) {
	return ReadFile(w.Root, w.Abs(w.Rel(path)), w.Matcher)
}

// ReloadSchema re-reads the configured schema.
func (w *Workspace) ReloadSchema() error {
	path := w.Manifest.SchemaPath(w.Root)
	if path == "" {
		w.Engine.ClearSchema()
		return nil
	}
	return w.Engine.LoadSchemaFile(path)
}
