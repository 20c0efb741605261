package cli

import (
	"math"
	"testing"

	"github.com/aidanlsb/iniref/internal/check"
)

func TestSeverityValue(t *testing.T) {
	t.Parallel()

	v := newSeverityValue(check.SeverityHint)
	if got := v.String(); got != "hint" {
		t.Fatalf("default String() = %q, want hint", got)
	}
	if err := v.Set("warning"); err != nil {
		t.Fatalf("Set(warning): %v", err)
	}
	if got := v.String(); got != "warn" {
		t.Errorf("String() = %q, want warn", got)
	}
	if !v.includes(check.SeverityError) || !v.includes(check.SeverityWarning) {
		t.Error("warn filter should include errors and warnings")
	}
	if v.includes(check.SeverityInformation) || v.includes(check.SeverityHint) {
		t.Error("warn filter should drop info and hints")
	}
	if err := v.Set("loud"); err == nil {
		t.Error("Set(loud) should fail")
	}
}

func TestLineRangeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        string
		wantStart int
		wantEnd   int
		wantStr   string
		wantErr   bool
	}{
		{name: "closed", in: "10:20", wantStart: 9, wantEnd: 19, wantStr: "10:20"},
		{name: "single line", in: "7", wantStart: 6, wantEnd: 6, wantStr: "7:7"},
		{name: "open end", in: "10:", wantStart: 9, wantEnd: math.MaxInt, wantStr: "10:"},
		{name: "open start", in: ":20", wantStart: 0, wantEnd: 19, wantStr: "1:20"},
		{name: "inverted", in: "20:10", wantErr: true},
		{name: "zero", in: "0:5", wantErr: true},
		{name: "not a number", in: "a:b", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var v lineRangeValue
			err := v.Set(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Set(%q) expected error", tt.in)
				}
				if v.lineRange() != nil {
					t.Error("failed Set should leave the flag unset")
				}
				return
			}
			if err != nil {
				t.Fatalf("Set(%q): %v", tt.in, err)
			}
			lr := v.lineRange()
			if lr == nil {
				t.Fatal("lineRange() = nil")
			}
			if lr.Start != tt.wantStart || lr.End != tt.wantEnd {
				t.Errorf("lineRange() = %d..%d, want %d..%d", lr.Start, lr.End, tt.wantStart, tt.wantEnd)
			}
			if got := v.String(); got != tt.wantStr {
				t.Errorf("String() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestLineRangeValueUnset(t *testing.T) {
	t.Parallel()
	var v lineRangeValue
	if v.lineRange() != nil {
		t.Error("unset flag should give a nil range")
	}
	if v.String() != "" {
		t.Errorf("String() = %q, want empty", v.String())
	}
}
