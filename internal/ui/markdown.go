package ui

import (
	"strings"

	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
)

// MarkdownRenderMargin is the left margin used for terminal markdown rendering.
const MarkdownRenderMargin = 2

const defaultCodeTheme = "monokai"

// markdownCodeTheme is the chroma theme for fenced INI examples.
var markdownCodeTheme = defaultCodeTheme

// ConfigureMarkdownCodeTheme selects the chroma theme for code blocks.
// Unknown names fall back to the default.
func ConfigureMarkdownCodeTheme(name string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := chromastyles.Registry[name]; ok {
		markdownCodeTheme = name
		return
	}
	markdownCodeTheme = defaultCodeTheme
}

// RenderMarkdown renders rule documentation for terminal display. The output
// always ends in exactly one newline.
func RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = DefaultTermWidth
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(ruleDocStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(rendered, "\n") + "\n", nil
}

// ruleDocStyle covers the markdown a rule page is built from: a
// "# NUMBER CODE" heading, a bold title, prose with inline code, and fenced
// INI examples.
func ruleDocStyle() ansi.StyleConfig {
	cfg := ansi.StyleConfig{
		Document:  ansi.StyleBlock{Margin: uintPtr(MarkdownRenderMargin)},
		Paragraph: ansi.StyleBlock{},
		Strong:    ansi.StylePrimitive{Bold: boolPtr(true)},
		Emph:      ansi.StylePrimitive{Italic: boolPtr(true)},
		Code:      ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: strPtr("203")}},
	}
	cfg.Document.BlockPrefix = "\n"
	cfg.Document.BlockSuffix = "\n"

	cfg.Heading, cfg.H1 = ruleHeadingStyles()
	cfg.CodeBlock = iniBlockStyle()
	return cfg
}

// ruleHeadingStyles returns the shared heading block and the rule header
// style. Only the rule header picks up the accent color.
func ruleHeadingStyles() (base ansi.StyleBlock, header ansi.StyleBlock) {
	base.BlockSuffix = "\n"
	base.Bold = boolPtr(true)

	header.Bold = boolPtr(true)
	if color, ok := AccentColor(); ok {
		header.Color = strPtr(color)
	}
	return base, header
}

func iniBlockStyle() ansi.StyleCodeBlock {
	block := ansi.StyleCodeBlock{Theme: markdownCodeTheme}
	block.Margin = uintPtr(MarkdownRenderMargin)
	block.Color = strPtr("244")
	return block
}

func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }
func uintPtr(v uint) *uint    { return &v }
