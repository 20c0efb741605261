package schema

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/aidanlsb/iniref/internal/parser"
)

// block is a declared schema section collected by the structure pass.
type block struct {
	name  string
	base  string
	lines []string
}

// Load reads and parses a schema file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	return Parse(string(data)), nil
}

// Parse builds a Schema from dictionary text. The parser is tolerant:
// malformed headers and lines are skipped, never reported.
func Parse(text string) *Schema {
	blocks, order := collectBlocks(text)

	s := New()

	// Registries and object types first so that type keys can be classified
	// no matter where the tables appear in the file.
	if b, ok := blocks[strings.ToLower(SectionRegistries)]; ok {
		for _, line := range b.lines {
			kv, ok := parser.ParseKeyValue(line)
			if !ok || kv.Value == "" {
				continue
			}
			s.registries[strings.ToLower(kv.Key)] = registry{name: kv.Key, typeName: kv.Value}
			s.registryByType[strings.ToLower(kv.Value)] = kv.Key
		}
	}
	if b, ok := blocks[strings.ToLower(SectionObjectTypes)]; ok {
		for _, line := range b.lines {
			if name := tableEntry(line); name != "" {
				s.complex[strings.ToLower(name)] = name
			}
		}
	}

	defined := make(map[string]bool)
	for _, name := range tableEntries(blocks, SectionNumberLimits) {
		s.numberLimits[strings.ToLower(name)] = parseNumberLimit(blocks[strings.ToLower(name)])
		defined[strings.ToLower(name)] = true
	}
	for _, name := range tableEntries(blocks, SectionStringLimits) {
		s.stringLimits[strings.ToLower(name)] = parseStringLimit(blocks[strings.ToLower(name)])
		defined[strings.ToLower(name)] = true
	}
	for _, name := range tableEntries(blocks, SectionLists) {
		s.lists[strings.ToLower(name)] = parseListSpec(blocks[strings.ToLower(name)])
		defined[strings.ToLower(name)] = true
	}

	for _, lower := range order {
		if isTableSection(lower) || defined[lower] {
			continue
		}
		b := blocks[lower]
		t := &Type{Name: b.name, Base: b.base, Keys: NewKeySet()}
		for _, line := range b.lines {
			key, typeName := splitTypeLine(line)
			if key == "" {
				continue
			}
			t.Keys.Set(key, s.Classify(typeName))
		}
		s.types[lower] = t
		s.order = append(s.order, lower)
	}

	return s
}

// collectBlocks is the structure pass: it groups content lines under their
// headers. A name declared more than once merges into one block.
func collectBlocks(text string) (map[string]*block, []string) {
	blocks := make(map[string]*block)
	var order []string
	var current *block

	for _, line := range parser.SplitLines(text) {
		code, _ := parser.SplitComment(line)
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "[") {
			h, ok := parser.ParseHeader(code)
			if !ok {
				// Malformed header: its lines belong to no block.
				current = nil
				continue
			}
			lower := strings.ToLower(h.Name)
			b, exists := blocks[lower]
			if !exists {
				b = &block{name: h.Name}
				blocks[lower] = b
				order = append(order, lower)
			}
			if h.Parent != "" {
				b.base = h.Parent
			}
			current = b
			continue
		}
		if current != nil {
			current.lines = append(current.lines, trimmed)
		}
	}
	return blocks, order
}

func isTableSection(lower string) bool {
	switch lower {
	case strings.ToLower(SectionRegistries),
		strings.ToLower(SectionObjectTypes),
		strings.ToLower(SectionNumberLimits),
		strings.ToLower(SectionStringLimits),
		strings.ToLower(SectionLists):
		return true
	}
	return false
}

func tableEntries(blocks map[string]*block, table string) []string {
	b, ok := blocks[strings.ToLower(table)]
	if !ok {
		return nil
	}
	var out []string
	for _, line := range b.lines {
		if name := tableEntry(line); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// tableEntry reads `n=Name` or a bare `Name`.
func tableEntry(line string) string {
	if kv, ok := parser.ParseKeyValue(line); ok {
		if kv.Value != "" {
			return kv.Value
		}
		return kv.Key
	}
	return strings.TrimSpace(line)
}

// splitTypeLine splits `Key(args)=TypeName` into the key and the type name.
func splitTypeLine(line string) (key, typeName string) {
	left := line
	if eq := strings.IndexByte(line, '='); eq >= 0 {
		left = line[:eq]
		typeName = strings.TrimSpace(line[eq+1:])
	}
	if paren := strings.IndexByte(left, '('); paren >= 0 {
		left = left[:paren]
	}
	return strings.TrimSpace(left), typeName
}

// blockValues returns the key/value pairs of a definition block, lower-cased
// keys, last write wins.
func blockValues(b *block) map[string]string {
	out := make(map[string]string)
	if b == nil {
		return out
	}
	for _, line := range b.lines {
		if kv, ok := parser.ParseKeyValue(line); ok {
			out[strings.ToLower(kv.Key)] = kv.Value
		}
	}
	return out
}

func parseNumberLimit(b *block) *NumberLimit {
	nl := &NumberLimit{Min: math.MinInt64, Max: math.MaxInt64}
	vals := blockValues(b)
	parts := strings.Split(vals["range"], ",")
	if len(parts) != 2 {
		return nl
	}
	if v, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64); err == nil {
		nl.Min = v
	}
	if v, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64); err == nil {
		nl.Max = v
	}
	return nl
}

func parseStringLimit(b *block) *StringLimit {
	vals := blockValues(b)
	return &StringLimit{
		CaseSensitive: parseBool(vals["casesensitive"]),
		Allowed:       splitList(vals["limitin"]),
		Prefixes:      splitList(vals["startwith"]),
		Suffixes:      splitList(vals["endwith"]),
	}
}

func parseListSpec(b *block) *ListSpec {
	vals := blockValues(b)
	ls := &ListSpec{Element: vals["type"]}
	if v, err := strconv.Atoi(vals["minrange"]); err == nil {
		ls.MinCount = &v
	}
	if v, err := strconv.Atoi(vals["maxrange"]); err == nil {
		ls.MaxCount = &v
	}
	return ls
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "1", "y":
		return true
	}
	return false
}
