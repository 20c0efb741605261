// Package resolver determines the effective schema type of corpus sections
// and the merged key set of schema types.
package resolver

import (
	"strings"
	"sync"

	"github.com/aidanlsb/iniref/internal/index"
	"github.com/aidanlsb/iniref/internal/schema"
)

// Resolver answers type questions against one schema and one index snapshot.
// Top-level results are memoized; a new Resolver must be created when either
// changes.
type Resolver struct {
	schema *schema.Schema // nil when no schema is loaded
	idx    *index.Index

	mu        sync.Mutex
	keyCache  map[string]*schema.KeySet // lower-cased type -> merged keys
	typeCache map[string]string         // section name -> type name
}

// KeyLocation is where a key was found while walking an inheritance chain.
type KeyLocation struct {
	Location index.Location `json:"location"`
	Definer  string         `json:"definer"` // section that defines the key
}

// New creates a resolver. s may be nil.
func New(s *schema.Schema, idx *index.Index) *Resolver {
	if idx == nil {
		idx = index.Empty()
	}
	return &Resolver{
		schema:    s,
		idx:       idx,
		keyCache:  make(map[string]*schema.KeySet),
		typeCache: make(map[string]string),
	}
}

// AllKeysForType returns the type's own keys overlaid on its base chain's
// keys. Unknown types yield an empty set. The returned set must not be
// modified.
func (r *Resolver) AllKeysForType(name string) *schema.KeySet {
	lower := strings.ToLower(name)

	r.mu.Lock()
	cached, ok := r.keyCache[lower]
	r.mu.Unlock()
	if ok {
		return cached
	}

	// Only results computed from an empty walk are cached, so a cycle cut
	// never leaks into another entry point's answer.
	merged := r.allKeys(name, make(map[string]bool))

	r.mu.Lock()
	r.keyCache[lower] = merged
	r.mu.Unlock()
	return merged
}

func (r *Resolver) allKeys(name string, visited map[string]bool) *schema.KeySet {
	if r.schema == nil {
		return schema.NewKeySet()
	}
	t, ok := r.schema.Type(name)
	if !ok {
		return schema.NewKeySet()
	}
	lower := strings.ToLower(name)
	if visited[lower] {
		// Cyclic base chain: stop here; the caller overlays its own keys.
		return schema.NewKeySet()
	}
	visited[lower] = true

	merged := schema.NewKeySet()
	if t.Base != "" {
		merged = r.allKeys(t.Base, visited)
	}
	merged.Overlay(t.Keys)
	return merged
}

// TypeForSection returns the schema type a corpus section belongs to, or the
// section's own name when no type can be determined.
func (r *Resolver) TypeForSection(name string) string {
	r.mu.Lock()
	cached, ok := r.typeCache[name]
	r.mu.Unlock()
	if ok {
		return cached
	}

	result := r.typeForSection(name, newTypeWalk())

	r.mu.Lock()
	r.typeCache[name] = result
	r.mu.Unlock()
	return result
}

// typeWalk is the state of one top-level type resolution. onPath holds the
// sections being resolved; done memoizes finished ones within this walk.
type typeWalk struct {
	onPath map[string]bool
	done   map[string]string
}

func newTypeWalk() *typeWalk {
	return &typeWalk{onPath: make(map[string]bool), done: make(map[string]string)}
}

func (r *Resolver) typeForSection(name string, w *typeWalk) string {
	key := strings.ToLower(name)
	if result, ok := w.done[key]; ok {
		return result
	}
	if w.onPath[key] {
		return name
	}
	w.onPath[key] = true
	result := r.resolveType(name, w)
	delete(w.onPath, key)
	w.done[key] = result
	return result
}

func (r *Resolver) resolveType(name string, w *typeWalk) string {
	if r.schema == nil {
		return name
	}

	// 1. The section is itself a declared type.
	if t, ok := r.schema.Type(name); ok {
		return t.Name
	}

	// 2. The section is listed in an ID-list registry.
	if reg, ok := r.idx.RegistryOf(name); ok {
		if target, ok := r.schema.IDListRegistry(reg); ok {
			return target
		}
	}

	// 3. Some key somewhere references this section by a typed value.
	for _, ref := range r.idx.References(name) {
		if ref.Section == name {
			continue
		}
		owner := r.typeForSection(ref.Section, w)
		vt, ok := r.AllKeysForType(owner).Get(ref.Key)
		if !ok {
			continue
		}
		if target, ok := r.sectionTarget(vt); ok {
			return target
		}
	}

	// 4. Opaque: the section is its own type.
	return name
}

// sectionTarget returns the complex type a value type points at, looking
// through list element types.
func (r *Resolver) sectionTarget(vt schema.ValueType) (string, bool) {
	switch vt.Category {
	case schema.CategorySectionReference:
		if r.schema.IsComplex(vt.Target) {
			return vt.Target, true
		}
	case schema.CategoryList:
		elem := r.schema.Classify(vt.List.Element)
		if elem.Category == schema.CategorySectionReference && r.schema.IsComplex(elem.Target) {
			return elem.Target, true
		}
	}
	return "", false
}

// Inheritance returns the inline parent of a section within a category.
func (r *Resolver) Inheritance(section, category string) (string, bool) {
	return r.idx.Inheritance(category, section)
}

// FindKeyLocationRecursive looks for key in section and then up its
// inheritance chain within category. Later definitions of the same section
// override earlier ones.
func (r *Resolver) FindKeyLocationRecursive(section, key, category string) (KeyLocation, bool) {
	visited := make(map[string]bool)
	current := section
	for current != "" && !visited[current] {
		visited[current] = true

		var found *KeyLocation
		for _, def := range r.idx.Definitions(current) {
			p, ok := def.Section.Get(key)
			if !ok {
				continue
			}
			found = &KeyLocation{
				Location: index.Location{
					Path:  def.Path,
					Line:  p.Line,
					Start: p.KeyStart,
					End:   p.KeyEnd,
				},
				Definer: current,
			}
		}
		if found != nil {
			return *found, true
		}

		parent, ok := r.idx.Inheritance(category, current)
		if !ok {
			break
		}
		current = parent
	}
	return KeyLocation{}, false
}

// InheritanceChain returns section followed by its ancestors within category.
// cyclic is true when the chain loops back on itself.
func (r *Resolver) InheritanceChain(section, category string) (chain []string, cyclic bool) {
	visited := make(map[string]bool)
	current := section
	for {
		if visited[current] {
			return chain, true
		}
		visited[current] = true
		chain = append(chain, current)
		parent, ok := r.idx.Inheritance(category, current)
		if !ok {
			return chain, false
		}
		current = parent
	}
}
