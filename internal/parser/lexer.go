package parser

import "strings"

// CommentDelimiter starts a comment that runs to the end of the line.
const CommentDelimiter = ';'

// Header is a parsed `[Name]` or `[Name]:[Parent]` section header.
// Column offsets are byte offsets into the original line.
type Header struct {
	Name        string
	NameStart   int
	NameEnd     int
	Parent      string
	ParentStart int
	ParentEnd   int
}

// HasParent reports whether the header carries an inline parent.
func (h Header) HasParent() bool {
	return h.Parent != ""
}

// KeyValue is a parsed `key=value` line. Key and Value are trimmed; the
// spans point at the trimmed text inside the original line.
type KeyValue struct {
	Key        string
	KeyStart   int
	KeyEnd     int
	Equals     int // column of '='
	Value      string
	ValueStart int
	ValueEnd   int
}

// Token is a single comma-separated item of a value.
type Token struct {
	Text  string
	Start int
	End   int
}

// SplitComment returns the part of the line before the comment delimiter and
// the column of the delimiter, or -1 when the line has no comment.
func SplitComment(line string) (code string, commentAt int) {
	i := strings.IndexByte(line, CommentDelimiter)
	if i < 0 {
		return line, -1
	}
	return line[:i], i
}

// IsBlankOrComment reports whether a line carries no content.
func IsBlankOrComment(line string) bool {
	code, _ := SplitComment(line)
	return strings.TrimSpace(code) == ""
}

// ParseHeader parses a section header from the code part of a line.
// Anything after the closing bracket (other than an inline parent) is ignored.
func ParseHeader(code string) (Header, bool) {
	open := firstNonSpace(code)
	if open < 0 || code[open] != '[' {
		return Header{}, false
	}
	closeAt := strings.IndexByte(code[open+1:], ']')
	if closeAt < 0 {
		return Header{}, false
	}
	closeAt += open + 1

	start, end := trimSpan(code, open+1, closeAt)
	if start == end {
		return Header{}, false
	}

	h := Header{
		Name:      code[start:end],
		NameStart: start,
		NameEnd:   end,
	}

	rest := code[closeAt+1:]
	colon := strings.IndexByte(rest, ':')
	if colon < 0 || strings.TrimSpace(rest[:colon]) != "" {
		return h, true
	}
	base := closeAt + 1 + colon + 1
	pOpen := strings.IndexByte(code[base:], '[')
	if pOpen < 0 || strings.TrimSpace(code[base:base+pOpen]) != "" {
		return h, true
	}
	pOpen += base
	pClose := strings.IndexByte(code[pOpen+1:], ']')
	if pClose < 0 {
		return h, true
	}
	pClose += pOpen + 1

	ps, pe := trimSpan(code, pOpen+1, pClose)
	if ps < pe {
		h.Parent = code[ps:pe]
		h.ParentStart = ps
		h.ParentEnd = pe
	}
	return h, true
}

// ParseKeyValue parses a `key=value` line from the code part of a line.
// Lines without '=' or with an empty key are not key/value lines.
func ParseKeyValue(code string) (KeyValue, bool) {
	eq := strings.IndexByte(code, '=')
	if eq < 0 {
		return KeyValue{}, false
	}
	ks, ke := trimSpan(code, 0, eq)
	if ks == ke {
		return KeyValue{}, false
	}
	vs, ve := trimSpan(code, eq+1, len(code))
	return KeyValue{
		Key:        code[ks:ke],
		KeyStart:   ks,
		KeyEnd:     ke,
		Equals:     eq,
		Value:      code[vs:ve],
		ValueStart: vs,
		ValueEnd:   ve,
	}, true
}

// SplitValues splits a value on commas and returns the non-empty trimmed
// tokens. offset is the column of value[0] in the original line.
func SplitValues(value string, offset int) []Token {
	var tokens []Token
	for _, raw := range SplitRaw(value, offset) {
		if raw.Text != "" {
			tokens = append(tokens, raw)
		}
	}
	return tokens
}

// SplitRaw splits a value on commas keeping every item, including empty
// ones. Each item is trimmed but keeps its own column span.
func SplitRaw(value string, offset int) []Token {
	var tokens []Token
	start := 0
	for i := 0; i <= len(value); i++ {
		if i < len(value) && value[i] != ',' {
			continue
		}
		s, e := trimSpan(value, start, i)
		tokens = append(tokens, Token{
			Text:  value[s:e],
			Start: offset + s,
			End:   offset + e,
		})
		start = i + 1
	}
	return tokens
}

// SplitLines splits text into lines, dropping the trailing '\r' of CRLF files.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func firstNonSpace(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' && s[i] != '\t' {
			return i
		}
	}
	return -1
}

// trimSpan narrows [start,end) of s to exclude surrounding spaces and tabs.
func trimSpan(s string, start, end int) (int, int) {
	for start < end && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	return start, end
}
