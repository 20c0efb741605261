// Package check implements the rule-based validator that reports typed
// diagnostics for corpus files.
package check

import (
	"fmt"
	"strings"
)

// Severity of a diagnostic. Values match the Language Server Protocol.
type Severity int

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
	SeverityHint        Severity = 4
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARN"
	case SeverityInformation:
		return "INFO"
	case SeverityHint:
		return "HINT"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity parses the names printed by Severity.String, case-insensitively,
// plus the long forms "warning" and "information".
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return SeverityError, nil
	case "warn", "warning":
		return SeverityWarning, nil
	case "info", "information":
		return SeverityInformation, nil
	case "hint":
		return SeverityHint, nil
	}
	return 0, fmt.Errorf("unknown severity %q", s)
}

// Position is a 0-based line and byte column.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open span [Start, End).
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// LineRange selects lines [Start, End], both inclusive and 0-based.
type LineRange struct {
	Start int
	End   int
}

// TextEdit replaces the text covered by Range with NewText.
type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"new_text"`
}

// Diagnostic is a single validation finding.
type Diagnostic struct {
	Range    Range     `json:"range"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Code     Code      `json:"code"`
	Fix      *TextEdit `json:"fix,omitempty"`
}

func span(line, start, end int) Range {
	return Range{
		Start: Position{Line: line, Character: start},
		End:   Position{Line: line, Character: end},
	}
}

func newDiagnostic(code Code, r Range, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Range:    r,
		Message:  fmt.Sprintf(format, args...),
		Severity: code.Severity(),
		Code:     code,
	}
}
