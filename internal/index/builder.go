package index

import (
	"sort"
	"strings"

	"github.com/aidanlsb/iniref/internal/parser"
	"github.com/aidanlsb/iniref/internal/schema"
)

// Build derives a fresh index from docs. s may be nil, in which case no
// registry membership is recorded. docs is not modified.
func Build(docs []*parser.Document, s *schema.Schema) *Index {
	ix := newIndex()

	ix.docs = make([]*parser.Document, len(docs))
	copy(ix.docs, docs)
	sort.SliceStable(ix.docs, func(i, j int) bool { return ix.docs[i].Path < ix.docs[j].Path })

	for _, d := range ix.docs {
		ix.byPath[d.Path] = d
	}

	if s != nil {
		for _, d := range ix.docs {
			ix.indexRegistries(d, s)
		}
	}
	for _, d := range ix.docs {
		ix.indexReferences(d)
	}

	ix.fingerprint = fingerprint(ix.docs)
	return ix
}

// indexRegistries records the IDs listed in ID-list registry sections.
func (ix *Index) indexRegistries(d *parser.Document, s *schema.Schema) {
	var current *Registry

	for i, line := range d.Lines {
		code, _ := parser.SplitComment(line)
		if strings.TrimSpace(code) == "" {
			continue
		}
		if h, ok := parser.ParseHeader(code); ok {
			current = nil
			target, ok := s.IDListRegistry(h.Name)
			if !ok {
				continue
			}
			name, _ := s.RegistryName(h.Name)
			current = ix.registries[name]
			if current == nil {
				current = &Registry{
					Name:        name,
					Type:        target,
					Occurrences: make(map[string][]Location),
				}
				ix.registries[name] = current
			}
			continue
		}
		if current == nil {
			continue
		}

		id, start, end := registryEntry(code)
		if id == "" {
			continue
		}
		if _, seen := current.Occurrences[id]; !seen {
			current.Members = append(current.Members, id)
		}
		current.Occurrences[id] = append(current.Occurrences[id], Location{
			Path:  d.Path,
			Line:  i,
			Start: start,
			End:   end,
		})
		ix.registryOf[id] = current.Name
	}
}

// registryEntry reads `index=ID` or a bare `ID`.
func registryEntry(code string) (id string, start, end int) {
	if kv, ok := parser.ParseKeyValue(code); ok {
		return kv.Value, kv.ValueStart, kv.ValueEnd
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" || strings.ContainsRune(trimmed, '=') {
		return "", 0, 0
	}
	start = strings.Index(code, trimmed)
	return trimmed, start, start + len(trimmed)
}

// indexReferences records definitions, inheritance and value references.
func (ix *Index) indexReferences(d *parser.Document) {
	for _, sec := range d.Sections {
		loc := Location{Path: d.Path, Line: sec.Line, Start: sec.NameStart, End: sec.NameEnd}
		if _, seen := ix.definitions[sec.Name]; !seen {
			ix.sectionsOrder = append(ix.sectionsOrder, sec.Name)
		}
		ix.definitions[sec.Name] = append(ix.definitions[sec.Name], Definition{
			Location: loc,
			Document: d,
			Section:  sec,
		})

		if sec.HasParent() {
			m := ix.inheritance[d.Category]
			if m == nil {
				m = make(map[string]string)
				ix.inheritance[d.Category] = m
			}
			m[sec.Name] = sec.Parent
			ix.inheritRefs[sec.Parent] = append(ix.inheritRefs[sec.Parent], Location{
				Path:  d.Path,
				Line:  sec.Line,
				Start: sec.ParentStart,
				End:   sec.ParentEnd,
			})
		}

		for i := sec.Line + 1; i <= sec.EndLine && i < len(d.Lines); i++ {
			code, _ := parser.SplitComment(d.Lines[i])
			kv, ok := parser.ParseKeyValue(code)
			if !ok {
				continue
			}
			for _, tok := range parser.SplitValues(kv.Value, kv.ValueStart) {
				ix.values[tok.Text] = append(ix.values[tok.Text], Reference{
					Location: Location{Path: d.Path, Line: i, Start: tok.Start, End: tok.End},
					Section:  sec.Name,
					Key:      kv.Key,
				})
			}
		}
	}
}
