package ui

import (
	"regexp"
	"strings"
	"testing"
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// plain strips color codes and collapses wrapping and padding whitespace.
func plain(s string) string {
	return strings.Join(strings.Fields(ansiEscape.ReplaceAllString(s, "")), " ")
}

const integerRulePage = "# T001 TYPE_INVALID_INTEGER\n\n" +
	"**Invalid integer**\n\n" +
	"Family: type. Default severity: error.\n\n" +
	"The key is declared as `int` but the value is not digits.\n\n" +
	"```ini\nStrength=abc ; flagged\n```\n"

func TestRenderMarkdownRulePage(t *testing.T) {
	tests := []struct {
		name  string
		width int
	}{
		{name: "explicit width", width: 80},
		{name: "non-positive width uses default", width: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := RenderMarkdown(integerRulePage, tt.width)
			if err != nil {
				t.Fatalf("RenderMarkdown() error = %v", err)
			}
			if !strings.HasSuffix(out, "\n") || strings.HasSuffix(out, "\n\n") {
				t.Fatalf("expected exactly one trailing newline, got %q", out)
			}

			text := plain(out)
			for _, want := range []string{
				"T001 TYPE_INVALID_INTEGER",
				"Invalid integer",
				"Family: type. Default severity: error.",
				"declared as int",
				"Strength=abc ; flagged",
			} {
				if !strings.Contains(text, want) {
					t.Errorf("rendered page missing %q:\n%s", want, text)
				}
			}
			if strings.Contains(text, "```") {
				t.Errorf("code fence leaked into output:\n%s", text)
			}
		})
	}
}

func TestRuleDocStyleHeaderAndCode(t *testing.T) {
	style := ruleDocStyle()

	if style.H1.Bold == nil || !*style.H1.Bold {
		t.Fatal("rule header should be bold")
	}
	if style.Strong.Bold == nil || !*style.Strong.Bold {
		t.Fatal("rule title should be bold")
	}
	if style.Code.Color == nil {
		t.Fatal("inline code should be colored")
	}
	if style.Document.Margin == nil || *style.Document.Margin != MarkdownRenderMargin {
		t.Fatalf("document margin = %v, want %d", style.Document.Margin, MarkdownRenderMargin)
	}
}

func TestConfigureMarkdownCodeTheme(t *testing.T) {
	t.Cleanup(func() { ConfigureMarkdownCodeTheme(defaultCodeTheme) })

	tests := []struct {
		in   string
		want string
	}{
		{in: "dracula", want: "dracula"},
		{in: "DrAcUlA", want: "dracula"},
		{in: "  github ", want: "github"},
		{in: "not-a-theme", want: defaultCodeTheme},
		{in: "", want: defaultCodeTheme},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ConfigureMarkdownCodeTheme(tt.in)
			if markdownCodeTheme != tt.want {
				t.Fatalf("theme = %q, want %q", markdownCodeTheme, tt.want)
			}
			if got := ruleDocStyle().CodeBlock.Theme; got != tt.want {
				t.Fatalf("INI block theme = %q, want %q", got, tt.want)
			}
		})
	}
}
