package ui

import (
	"strings"
	"testing"
)

func TestSummaryCounts(t *testing.T) {
	tests := []struct {
		errors, warnings, infos int
		want                    string
	}{
		{0, 0, 0, "no problems"},
		{1, 0, 0, "1 error"},
		{2, 1, 0, "2 errors, 1 warning"},
		{0, 0, 3, "3 infos"},
	}
	for _, tt := range tests {
		if got := SummaryCounts(tt.errors, tt.warnings, tt.infos); got != tt.want {
			t.Errorf("SummaryCounts(%d, %d, %d) = %q, want %q", tt.errors, tt.warnings, tt.infos, got, tt.want)
		}
	}
}

func TestSeveritySymbol(t *testing.T) {
	tests := map[string]string{
		"ERROR": SymbolError,
		"warn":  SymbolWarning,
		"INFO":  SymbolInfo,
		"HINT":  SymbolHint,
	}
	for label, want := range tests {
		if got := SeveritySymbol(label); got != want {
			t.Errorf("SeveritySymbol(%q) = %q, want %q", label, got, want)
		}
	}
}

func TestDiagnosticLineIsOneBased(t *testing.T) {
	DisableColor()
	line := DiagnosticLine(8, 9, "ERROR", "T001", "'lots' is not an integer")
	if !strings.Contains(line, "9:10") || !strings.Contains(line, "T001") {
		t.Errorf("DiagnosticLine = %q", line)
	}
}

func TestTableRender(t *testing.T) {
	tbl := NewTable(NewDisplayContextWithWidth(80), "SECTION", "TYPE")
	if tbl.Render() != "" {
		t.Fatal("empty table should render nothing")
	}
	tbl.AddRow("GAPOWR", "BuildingType")
	tbl.AddRow("AP", "WarheadType", "dropped")

	out := tbl.Render()
	for _, want := range []string{"SECTION", "GAPOWR", "BuildingType", "WarheadType"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "dropped") {
		t.Errorf("extra cells should be dropped:\n%s", out)
	}
	if tbl.Len() != 2 {
		t.Errorf("Len = %d", tbl.Len())
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	if got := TruncateWithEllipsis("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := TruncateWithEllipsis("a much longer value here", 12); len(got) > 12 || !strings.HasSuffix(got, "...") {
		t.Errorf("got %q", got)
	}
}
