// Package engine is the entry point used by the CLI, the language server and
// the MCP server. It owns the schema, the parsed corpus, and the index and
// resolver derived from them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aidanlsb/iniref/internal/check"
	"github.com/aidanlsb/iniref/internal/index"
	"github.com/aidanlsb/iniref/internal/logging"
	"github.com/aidanlsb/iniref/internal/parser"
	"github.com/aidanlsb/iniref/internal/resolver"
	"github.com/aidanlsb/iniref/internal/schema"
)

// ErrDocumentNotFound is returned when an operation names a path that has
// not been indexed.
var ErrDocumentNotFound = errors.New("document not found")

// File is one corpus file handed to the engine.
type File struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// ChangeKind says what happened to a file.
type ChangeKind int

const (
	ChangeUpsert ChangeKind = iota
	ChangeRemove
)

func (k ChangeKind) String() string {
	if k == ChangeRemove {
		return "remove"
	}
	return "upsert"
}

// Change is one entry of a batch passed to ApplyChanges. Remove changes only
// need File.Path.
type Change struct {
	Kind ChangeKind
	File File
}

// Options configures an Engine.
type Options struct {
	// Disabled lists diagnostic codes that Validate never reports.
	Disabled []check.Code
	Logger   *slog.Logger
}

// Engine is safe for concurrent use. Rebuilds take the write lock; queries
// and validation take the read lock.
type Engine struct {
	mu       sync.RWMutex
	schema   *schema.Schema
	docs     map[string]*parser.Document
	idx      *index.Index
	res      *resolver.Resolver
	disabled []check.Code
	log      *slog.Logger
}

// New creates an engine with no schema and no files.
func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = logging.Component("engine")
	}
	e := &Engine{
		docs:     make(map[string]*parser.Document),
		disabled: append([]check.Code(nil), opts.Disabled...),
		log:      log,
	}
	e.rebuildLocked("init")
	return e
}

// LoadSchema parses schema text and rebuilds the index against it.
func (e *Engine) LoadSchema(content string) {
	s := schema.Parse(content)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.schema = s
	e.rebuildLocked("schema")
}

// LoadSchemaFile reads and loads a schema file.
func (e *Engine) LoadSchemaFile(path string) error {
	s, err := schema.Load(path)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.schema = s
	e.rebuildLocked("schema")
	return nil
}

// ClearSchema drops the schema. Only style rules run afterwards.
func (e *Engine) ClearSchema() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.schema = nil
	e.rebuildLocked("schema-clear")
}

// IsSchemaLoaded reports whether a schema is active.
func (e *Engine) IsSchemaLoaded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.schema != nil
}

// IndexFiles replaces the whole corpus with files.
func (e *Engine) IndexFiles(files []File) {
	docs := make(map[string]*parser.Document, len(files))
	for _, f := range files {
		docs[f.Path] = parser.Parse(f.Path, f.Category, f.Content)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.docs = docs
	e.rebuildLocked("full")
}

// UpdateFile adds or replaces one file. It reports whether anything changed;
// identical content and category leave the index untouched.
func (e *Engine) UpdateFile(f File) bool {
	doc := parser.Parse(f.Path, f.Category, f.Content)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.putLocked(doc) {
		e.log.Debug("skipping unchanged file", "path", f.Path)
		return false
	}
	e.rebuildLocked("update")
	return true
}

// RemoveFile drops a file from the corpus.
func (e *Engine) RemoveFile(path string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.docs[path]; !ok {
		return false
	}
	delete(e.docs, path)
	e.rebuildLocked("remove")
	return true
}

// ApplyChanges applies a batch of changes with a single rebuild. It returns
// the number of changes that modified the corpus.
func (e *Engine) ApplyChanges(changes []Change) int {
	parsed := make([]*parser.Document, len(changes))
	for i, c := range changes {
		if c.Kind == ChangeUpsert {
			parsed[i] = parser.Parse(c.File.Path, c.File.Category, c.File.Content)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	applied := 0
	for i, c := range changes {
		switch c.Kind {
		case ChangeRemove:
			if _, ok := e.docs[c.File.Path]; ok {
				delete(e.docs, c.File.Path)
				applied++
			}
		default:
			if e.putLocked(parsed[i]) {
				applied++
			}
		}
	}
	if applied > 0 {
		e.rebuildLocked("batch")
	}
	return applied
}

func (e *Engine) putLocked(doc *parser.Document) bool {
	if old, ok := e.docs[doc.Path]; ok && old.Hash == doc.Hash && old.Category == doc.Category {
		return false
	}
	e.docs[doc.Path] = doc
	return true
}

func (e *Engine) rebuildLocked(reason string) {
	start := time.Now()
	docs := make([]*parser.Document, 0, len(e.docs))
	for _, d := range e.docs {
		docs = append(docs, d)
	}
	e.idx = index.Build(docs, e.schema)
	e.res = resolver.New(e.schema, e.idx)
	logging.Rebuild(reason, len(docs), time.Since(start), "schema", e.schema != nil)
}

// Paths returns the indexed file paths in sorted order.
func (e *Engine) Paths() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	paths := make([]string, 0, len(e.docs))
	for p := range e.docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Document returns the parsed document for path.
func (e *Engine) Document(path string) (*parser.Document, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	d, ok := e.docs[path]
	return d, ok
}

// TypeForSection returns the resolved schema type of a section.
func (e *Engine) TypeForSection(name string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.res.TypeForSection(name)
}

// AllKeysForType returns the merged key set of a schema type.
func (e *Engine) AllKeysForType(typeName string) *schema.KeySet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.res.AllKeysForType(typeName)
}

// FindSectionLocations returns every definition of a section.
func (e *Engine) FindSectionLocations(name string) []index.Location {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.SectionLocations(name)
}

// FindReferences returns every value occurrence of value.
func (e *Engine) FindReferences(value string) []index.Location {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.ReferenceLocations(value)
}

// FindReferenceDetails is FindReferences with the referencing section and key.
func (e *Engine) FindReferenceDetails(value string) []index.Reference {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.References(value)
}

// FindInheritanceReferences returns the headers naming parent as their
// inline parent.
func (e *Engine) FindInheritanceReferences(parent string) []index.Location {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.InheritanceReferences(parent)
}

// FindKeyLocationRecursive finds where a section gets key from, walking the
// inheritance chain of category.
func (e *Engine) FindKeyLocationRecursive(section, key, category string) (resolver.KeyLocation, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.res.FindKeyLocationRecursive(section, key, category)
}

// Inheritance returns the inline parent of section within category.
func (e *Engine) Inheritance(section, category string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.res.Inheritance(section, category)
}

// InheritanceChain returns section and its ancestors within category.
func (e *Engine) InheritanceChain(section, category string) ([]string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.res.InheritanceChain(section, category)
}

// RegistryFor returns the registry listing id.
func (e *Engine) RegistryFor(id string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.RegistryOf(id)
}

// RegistryMembers returns the IDs listed in a registry in first-seen order.
func (e *Engine) RegistryMembers(registry string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	reg, ok := e.idx.Registry(registry)
	if !ok {
		return nil
	}
	return append([]string(nil), reg.Members...)
}

// Validate checks one indexed file, or only the lines in lr when it is
// non-nil.
func (e *Engine) Validate(ctx context.Context, path string, lr *check.LineRange) ([]check.Diagnostic, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	doc, ok := e.docs[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
	}
	return e.validatorLocked().Validate(ctx, doc, lr)
}

// ValidateAll checks every indexed file. On cancellation the files finished
// so far are returned with the context error.
func (e *Engine) ValidateAll(ctx context.Context) (map[string][]check.Diagnostic, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	v := e.validatorLocked()
	out := make(map[string][]check.Diagnostic, len(e.docs))
	for _, doc := range e.idx.Documents() {
		diags, err := v.Validate(ctx, doc, nil)
		if err != nil {
			return out, err
		}
		out[doc.Path] = diags
	}
	return out, nil
}

func (e *Engine) validatorLocked() *check.Validator {
	return check.New(e.schema, e.idx, e.res, e.disabled...)
}

// Snapshot is a consistent, read-only view of the engine state. The index
// and resolver are never mutated after a rebuild, so a snapshot stays valid
// after the engine moves on.
type Snapshot struct {
	Schema   *schema.Schema
	Index    *index.Index
	Resolver *resolver.Resolver
	Disabled []check.Code
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Snapshot{
		Schema:   e.schema,
		Index:    e.idx,
		Resolver: e.res,
		Disabled: append([]check.Code(nil), e.disabled...),
	}
}

// Validator returns a validator bound to the snapshot.
func (s Snapshot) Validator() *check.Validator {
	return check.New(s.Schema, s.Index, s.Resolver, s.Disabled...)
}
