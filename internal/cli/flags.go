package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/aidanlsb/iniref/internal/check"
)

// severityValue is a --severity flag: the least severe level to report.
type severityValue struct {
	level check.Severity
}

var _ pflag.Value = (*severityValue)(nil)

func newSeverityValue(def check.Severity) *severityValue {
	return &severityValue{level: def}
}

func (v *severityValue) String() string {
	return strings.ToLower(v.level.String())
}

func (v *severityValue) Set(s string) error {
	level, err := check.ParseSeverity(s)
	if err != nil {
		return err
	}
	v.level = level
	return nil
}

func (v *severityValue) Type() string {
	return "severity"
}

// includes reports whether a diagnostic of severity s passes the filter.
// Lower numbers are more severe.
func (v *severityValue) includes(s check.Severity) bool {
	return s <= v.level
}

// lineRangeValue is a --range flag written as 1-based inclusive "START:END".
// Either side may be omitted: "10:" runs to the end of the file and ":20"
// starts at the top.
type lineRangeValue struct {
	set   bool
	start int // 1-based
	end   int // 1-based; 0 means end of file
}

var _ pflag.Value = (*lineRangeValue)(nil)

func (v *lineRangeValue) String() string {
	if !v.set {
		return ""
	}
	if v.end == 0 {
		return fmt.Sprintf("%d:", v.start)
	}
	return fmt.Sprintf("%d:%d", v.start, v.end)
}

func (v *lineRangeValue) Set(s string) error {
	startText, endText, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		// A single line.
		endText = startText
	}

	start, end := 1, 0
	var err error
	if startText != "" {
		if start, err = strconv.Atoi(startText); err != nil || start < 1 {
			return fmt.Errorf("invalid start line %q", startText)
		}
	}
	if endText != "" {
		if end, err = strconv.Atoi(endText); err != nil || end < 1 {
			return fmt.Errorf("invalid end line %q", endText)
		}
		if end < start {
			return fmt.Errorf("end line %d is before start line %d", end, start)
		}
	}

	v.set, v.start, v.end = true, start, end
	return nil
}

func (v *lineRangeValue) Type() string {
	return "range"
}

// lineRange converts the flag to the validator's 0-based inclusive range, or
// nil when the flag was not given.
func (v *lineRangeValue) lineRange() *check.LineRange {
	if !v.set {
		return nil
	}
	lr := &check.LineRange{Start: v.start - 1, End: math.MaxInt}
	if v.end > 0 {
		lr.End = v.end - 1
	}
	return lr
}
