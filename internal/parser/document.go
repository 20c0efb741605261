// Package parser turns INI corpus files into flat section/key documents with
// positional metadata.
package parser

import (
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// Document is one parsed corpus file. A Document always reflects exactly one
// text snapshot; a changed file produces a new Document.
type Document struct {
	Path     string   // Identity of the file (as supplied by the caller)
	Category string   // Caller-supplied file category (e.g. "rules", "art")
	Text     string   // Raw text snapshot
	Hash     [32]byte // BLAKE3 of Text
	Lines    []string // Text split into lines, CR stripped
	Sections []*Section
}

// Section is a `[Name]` block. EndLine is the last line before the next
// header or the last line of the file.
type Section struct {
	Name        string
	Line        int // header line (0-based)
	EndLine     int
	NameStart   int
	NameEnd     int
	Parent      string // inline parent from [Name]:[Parent]
	ParentStart int
	ParentEnd   int

	properties []*Property
	byKey      map[string]int // lower-cased key -> index into properties
}

// Property is a key/value line inside a section.
type Property struct {
	Key        string
	Value      string
	Line       int
	KeyStart   int
	KeyEnd     int
	ValueStart int
	ValueEnd   int
}

// Parse parses a corpus file. Parsing never fails: lines that are neither
// headers nor key/value pairs are kept in Lines but contribute nothing else.
func Parse(path, category, text string) *Document {
	doc := &Document{
		Path:     path,
		Category: category,
		Text:     text,
		Hash:     blake3.Sum256([]byte(text)),
		Lines:    SplitLines(text),
	}

	var current *Section
	for i, line := range doc.Lines {
		code, _ := SplitComment(line)
		if h, ok := ParseHeader(code); ok {
			if current != nil {
				current.EndLine = i - 1
			}
			current = &Section{
				Name:        h.Name,
				Line:        i,
				NameStart:   h.NameStart,
				NameEnd:     h.NameEnd,
				Parent:      h.Parent,
				ParentStart: h.ParentStart,
				ParentEnd:   h.ParentEnd,
				byKey:       make(map[string]int),
			}
			doc.Sections = append(doc.Sections, current)
			continue
		}
		if current == nil {
			continue
		}
		kv, ok := ParseKeyValue(code)
		if !ok {
			continue
		}
		current.set(&Property{
			Key:        kv.Key,
			Value:      kv.Value,
			Line:       i,
			KeyStart:   kv.KeyStart,
			KeyEnd:     kv.KeyEnd,
			ValueStart: kv.ValueStart,
			ValueEnd:   kv.ValueEnd,
		})
	}
	if current != nil {
		current.EndLine = len(doc.Lines) - 1
	}

	return doc
}

// set stores a property; a repeated key keeps its first position but takes
// the value and location of the last occurrence.
func (s *Section) set(p *Property) {
	k := strings.ToLower(p.Key)
	if i, ok := s.byKey[k]; ok {
		s.properties[i] = p
		return
	}
	s.byKey[k] = len(s.properties)
	s.properties = append(s.properties, p)
}

// Get returns a property by case-insensitive key.
func (s *Section) Get(key string) (*Property, bool) {
	i, ok := s.byKey[strings.ToLower(key)]
	if !ok {
		return nil, false
	}
	return s.properties[i], true
}

// Properties returns the section's properties in first-seen order.
func (s *Section) Properties() []*Property {
	return s.properties
}

// HasParent reports whether the section header declares an inline parent.
func (s *Section) HasParent() bool {
	return s.Parent != ""
}

// SectionAt returns the section containing line, or nil for lines before the
// first header.
func (d *Document) SectionAt(line int) *Section {
	i := sort.Search(len(d.Sections), func(i int) bool {
		return d.Sections[i].Line > line
	})
	if i == 0 {
		return nil
	}
	return d.Sections[i-1]
}

// FindSections returns every section of this document with the given name.
func (d *Document) FindSections(name string) []*Section {
	var out []*Section
	for _, s := range d.Sections {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// Line returns line i, or "" when out of range.
func (d *Document) Line(i int) string {
	if i < 0 || i >= len(d.Lines) {
		return ""
	}
	return d.Lines[i]
}
