package ui

import (
	"fmt"
	"strings"
)

// Unicode symbols for status indicators
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolInfo    = "ℹ"
	SymbolHint    = "·"
)

// Success returns a success message with checkmark symbol
func Success(msg string) string {
	return fmt.Sprintf("%s %s", SymbolSuccess, msg)
}

// Successf returns a formatted success message with checkmark symbol
func Successf(format string, args ...interface{}) string {
	return Success(fmt.Sprintf(format, args...))
}

// Error returns an error message with X symbol
func Error(msg string) string {
	return fmt.Sprintf("%s %s", SymbolError, msg)
}

// Errorf returns a formatted error message with X symbol
func Errorf(format string, args ...interface{}) string {
	return Error(fmt.Sprintf(format, args...))
}

// Warning returns a warning message with warning symbol
func Warning(msg string) string {
	return fmt.Sprintf("%s %s", SymbolWarning, msg)
}

// Warningf returns a formatted warning message with warning symbol
func Warningf(format string, args ...interface{}) string {
	return Warning(fmt.Sprintf(format, args...))
}

// Info returns an info message with info symbol
func Info(msg string) string {
	return fmt.Sprintf("%s %s", SymbolInfo, msg)
}

// Header returns a styled section header
func Header(msg string) string {
	return Bold.Render(msg)
}

// FilePath returns an accent-styled file path
func FilePath(path string) string {
	return Accent.Render(path)
}

// SectionName returns an accent-styled `[Name]`.
func SectionName(name string) string {
	return AccentBold.Render("[" + name + "]")
}

// Hint returns muted hint text
func Hint(msg string) string {
	return Muted.Render(msg)
}

// SeveritySymbol maps a severity label (ERROR, WARN, INFO, HINT) to its symbol.
func SeveritySymbol(label string) string {
	switch strings.ToUpper(label) {
	case "ERROR":
		return SymbolError
	case "WARN", "WARNING":
		return SymbolWarning
	case "INFO", "INFORMATION":
		return SymbolInfo
	default:
		return SymbolHint
	}
}

// DiagnosticLine renders one finding:
//
//	9:10  ✗ ERROR  T001  'lots' is not an integer
func DiagnosticLine(line, col int, severity, number, message string) string {
	pos := fmt.Sprintf("%-8s", fmt.Sprintf("%d:%d", line+1, col+1))
	return fmt.Sprintf("  %s %s %-5s  %s  %s",
		Muted.Render(pos), SeveritySymbol(severity), severity, Muted.Render(number), message)
}

// SummaryCounts returns "3 errors, 2 warnings, 1 info", omitting zero
// counts. It returns "no problems" when everything is zero.
func SummaryCounts(errors, warnings, infos int) string {
	var parts []string
	if errors > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", errors, pluralize("error", errors)))
	}
	if warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", warnings, pluralize("warning", warnings)))
	}
	if infos > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", infos, pluralize("info", infos)))
	}
	if len(parts) == 0 {
		return "no problems"
	}
	return strings.Join(parts, ", ")
}

// pluralize returns singular or plural form based on count
func pluralize(singular string, count int) string {
	if count == 1 {
		return singular
	}
	return singular + "s"
}
