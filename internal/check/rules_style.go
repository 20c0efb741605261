package check

import "strings"

// Rule inspects one line and returns its findings.
type Rule func(c *LineContext) []Diagnostic

var styleRules = []Rule{
	checkLeadingWhitespace,
	checkSpaceAroundEquals,
	checkCommentSpacing,
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

func checkLeadingWhitespace(c *LineContext) []Diagnostic {
	if c.Text == "" || !isSpace(c.Text[0]) || strings.TrimSpace(c.Text) == "" {
		return nil
	}
	end := 0
	for end < len(c.Text) && isSpace(c.Text[end]) {
		end++
	}
	r := span(c.Line, 0, end)
	d := newDiagnostic(CodeLeadingWhitespace, r, "Line starts with whitespace")
	d.Fix = &TextEdit{Range: r}
	return []Diagnostic{d}
}

func checkSpaceAroundEquals(c *LineContext) []Diagnostic {
	kv := c.KV
	if kv == nil {
		return nil
	}
	start, end := kv.Equals, kv.Equals+1
	if kv.KeyEnd < kv.Equals {
		start = kv.KeyEnd
	}
	if kv.Value != "" && kv.ValueStart > kv.Equals+1 {
		end = kv.ValueStart
	}
	if start == kv.Equals && end == kv.Equals+1 {
		return nil
	}
	r := span(c.Line, start, end)
	d := newDiagnostic(CodeSpaceAroundEquals, r, "Unexpected whitespace around '=' after key '%s'", kv.Key)
	d.Fix = &TextEdit{Range: r, NewText: "="}
	return []Diagnostic{d}
}

func checkCommentSpacing(c *LineContext) []Diagnostic {
	at := c.CommentAt
	if at <= 0 || strings.TrimSpace(c.Code) == "" {
		return nil
	}
	missingBefore := !isSpace(c.Text[at-1])
	missingAfter := at+1 < len(c.Text) && !isSpace(c.Text[at+1])
	if !missingBefore && !missingAfter {
		return nil
	}

	replacement := ";"
	if missingBefore {
		replacement = " " + replacement
	}
	if missingAfter {
		replacement += " "
	}
	r := span(c.Line, at, at+1)
	d := newDiagnostic(CodeCommentSpacing, r, "Inline comment should be written as ' ; comment'")
	d.Fix = &TextEdit{Range: r, NewText: replacement}
	return []Diagnostic{d}
}
