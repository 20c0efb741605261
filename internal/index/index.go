// Package index builds the cross-reference index over a set of corpus
// documents: section definitions, value references, inheritance edges and
// registry membership.
package index

import (
	"sort"

	"github.com/zeebo/blake3"

	"github.com/aidanlsb/iniref/internal/parser"
)

// Location is a span on one line of a corpus file. Line and columns are
// 0-based; End is exclusive.
type Location struct {
	Path  string `json:"path"`
	Line  int    `json:"line"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Reference is a value token together with the section and key it appears
// under.
type Reference struct {
	Location
	Section string `json:"section"`
	Key     string `json:"key"`
}

// Definition is one `[Name]` header somewhere in the corpus.
type Definition struct {
	Location
	Document *parser.Document
	Section  *parser.Section
}

// Registry is an ID-list registry section and every ID listed in it.
type Registry struct {
	Name        string
	Type        string
	Members     []string              // distinct IDs, first-seen order
	Occurrences map[string][]Location // ID -> every place it was listed
}

// Index is derived entirely from a snapshot of documents. It is never
// modified after Build returns, so it is safe for concurrent readers.
type Index struct {
	docs   []*parser.Document
	byPath map[string]*parser.Document

	definitions   map[string][]Definition
	values        map[string][]Reference
	inheritRefs   map[string][]Location
	registryOf    map[string]string
	registries    map[string]*Registry
	inheritance   map[string]map[string]string // category -> child -> parent
	sectionsOrder []string

	fingerprint [32]byte
}

func newIndex() *Index {
	return &Index{
		byPath:      make(map[string]*parser.Document),
		definitions: make(map[string][]Definition),
		values:      make(map[string][]Reference),
		inheritRefs: make(map[string][]Location),
		registryOf:  make(map[string]string),
		registries:  make(map[string]*Registry),
		inheritance: make(map[string]map[string]string),
	}
}

// Empty returns an index over no documents.
func Empty() *Index {
	return newIndex()
}

// Documents returns the indexed documents sorted by path.
func (ix *Index) Documents() []*parser.Document {
	return ix.docs
}

// Document returns an indexed document by path.
func (ix *Index) Document(path string) (*parser.Document, bool) {
	d, ok := ix.byPath[path]
	return d, ok
}

// Definitions returns every definition of a section name.
func (ix *Index) Definitions(name string) []Definition {
	return ix.definitions[name]
}

// SectionLocations returns the header locations of a section name.
func (ix *Index) SectionLocations(name string) []Location {
	defs := ix.definitions[name]
	out := make([]Location, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Location)
	}
	return out
}

// IsDefined reports whether at least one file defines the section.
func (ix *Index) IsDefined(name string) bool {
	return len(ix.definitions[name]) > 0
}

// SectionNames returns every defined section name in first-seen order.
func (ix *Index) SectionNames() []string {
	return ix.sectionsOrder
}

// References returns every place value appears as a value token.
func (ix *Index) References(value string) []Reference {
	return ix.values[value]
}

// ReferenceLocations is References without the section/key context.
func (ix *Index) ReferenceLocations(value string) []Location {
	refs := ix.values[value]
	out := make([]Location, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Location)
	}
	return out
}

// ReferencedValues returns every distinct value token, sorted.
func (ix *Index) ReferencedValues() []string {
	out := make([]string, 0, len(ix.values))
	for v := range ix.values {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// InheritanceReferences returns every place parent appears as an inline parent.
func (ix *Index) InheritanceReferences(parent string) []Location {
	return ix.inheritRefs[parent]
}

// Inheritance returns the inline parent of a section within a category.
func (ix *Index) Inheritance(category, child string) (string, bool) {
	m, ok := ix.inheritance[category]
	if !ok {
		return "", false
	}
	p, ok := m[child]
	return p, ok
}

// InheritanceMap returns the child -> parent map of a category. The returned
// map must not be modified.
func (ix *Index) InheritanceMap(category string) map[string]string {
	return ix.inheritance[category]
}

// Categories returns every category that has inheritance edges, sorted.
func (ix *Index) Categories() []string {
	out := make([]string, 0, len(ix.inheritance))
	for c := range ix.inheritance {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// RegistryOf returns the registry an ID is listed in.
func (ix *Index) RegistryOf(id string) (string, bool) {
	r, ok := ix.registryOf[id]
	return r, ok
}

// Registry returns the membership of one registry.
func (ix *Index) Registry(name string) (*Registry, bool) {
	r, ok := ix.registries[name]
	return r, ok
}

// Registries returns every indexed registry, sorted by name.
func (ix *Index) Registries() []*Registry {
	out := make([]*Registry, 0, len(ix.registries))
	for _, r := range ix.registries {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Fingerprint identifies the document snapshot the index was built from.
func (ix *Index) Fingerprint() [32]byte {
	return ix.fingerprint
}

func fingerprint(docs []*parser.Document) [32]byte {
	h := blake3.New()
	for _, d := range docs {
		_, _ = h.Write([]byte(d.Path))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(d.Category))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write(d.Hash[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
