package check

import (
	"strings"

	"github.com/aidanlsb/iniref/internal/index"
	"github.com/aidanlsb/iniref/internal/parser"
	"github.com/aidanlsb/iniref/internal/resolver"
	"github.com/aidanlsb/iniref/internal/schema"
)

// LineContext is what a rule sees for one line: the line itself plus the
// enclosing section state.
type LineContext struct {
	Document *parser.Document
	Line     int
	Text     string

	Code      string // text before the comment delimiter
	CommentAt int    // -1 when the line has no comment

	Header *parser.Header   // set on header lines
	KV     *parser.KeyValue // set on key/value lines

	Section     string         // enclosing section, "" before the first header
	SectionType string         // resolved schema type of Section
	Keys        *schema.KeySet // merged keys of SectionType
	Registry    string         // canonical registry name inside an ID-list registry

	Schema   *schema.Schema // nil when no schema is loaded
	Index    *index.Index
	Resolver *resolver.Resolver

	registryKeys map[string]int // registry index -> first line seen
}

// SeenRegistryKey returns the line where key was first used in the current
// registry section, considering only lines before this one.
func (c *LineContext) SeenRegistryKey(key string) (int, bool) {
	line, ok := c.registryKeys[key]
	return line, ok
}

func newLineContext(v *Validator, doc *parser.Document) *LineContext {
	return &LineContext{
		Document:  doc,
		Schema:    v.schema,
		Index:     v.idx,
		Resolver:  v.res,
		CommentAt: -1,
	}
}

// load sets the per-line fields for line i and enters a new section when the
// line is a header.
func (c *LineContext) load(i int) {
	c.Line = i
	c.Text = c.Document.Line(i)
	c.Code, c.CommentAt = parser.SplitComment(c.Text)
	c.Header = nil
	c.KV = nil

	if h, ok := parser.ParseHeader(c.Code); ok {
		c.Header = &h
		c.enter(h.Name)
		return
	}
	if kv, ok := parser.ParseKeyValue(c.Code); ok {
		c.KV = &kv
	}
}

func (c *LineContext) enter(section string) {
	c.Section = section
	c.SectionType = ""
	c.Keys = nil
	c.Registry = ""
	c.registryKeys = nil

	if c.Schema == nil {
		return
	}
	c.SectionType = c.Resolver.TypeForSection(section)
	c.Keys = c.Resolver.AllKeysForType(c.SectionType)
	if _, ok := c.Schema.IDListRegistry(section); ok {
		c.Registry, _ = c.Schema.RegistryName(section)
		c.registryKeys = make(map[string]int)
	}
}

// record remembers state that later lines of the same section depend on.
func (c *LineContext) record() {
	if c.registryKeys == nil || c.KV == nil {
		return
	}
	if _, seen := c.registryKeys[c.KV.Key]; !seen {
		c.registryKeys[c.KV.Key] = c.Line
	}
}

// reconstruct prepares the context for validation starting at line start by
// scanning back to the enclosing header and replaying the lines between.
func (c *LineContext) reconstruct(start int) {
	header := -1
	for i := start - 1; i >= 0; i-- {
		code, _ := parser.SplitComment(c.Document.Line(i))
		if strings.TrimSpace(code) == "" {
			continue
		}
		if _, ok := parser.ParseHeader(code); ok {
			header = i
			break
		}
	}
	if header < 0 {
		return
	}
	for i := header; i < start; i++ {
		c.load(i)
		c.record()
	}
}
