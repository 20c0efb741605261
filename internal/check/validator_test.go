package check

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/aidanlsb/iniref/internal/index"
	"github.com/aidanlsb/iniref/internal/parser"
	"github.com/aidanlsb/iniref/internal/resolver"
	"github.com/aidanlsb/iniref/internal/schema"
)

const testSchema = `
[ObjectTypes]
BuildingType
WeaponType

[Registries]
BuildingTypes=BuildingType

[NumberLimits]
Percent
[Percent]
Range=0,100

[StringLimits]
Armor
Sound
[Armor]
LimitIn=none,wood,steel
[Sound]
StartWith=snd_
EndWith=.wav

[Lists]
Pair
WeaponList
[Pair]
Type=int
MinRange=2
MaxRange=2
[WeaponList]
Type=WeaponType

[BuildingType]
Strength=int
Speed=float
Chance=Percent
Armor=Armor
Sound=Sound
Coords=Pair
Primary=WeaponType
Extras=WeaponList

[WeaponType]
Damage=int
`

const testCorpus = `[BuildingTypes]
0=GAPOWR
1=GAWEAP
0=NAHAND
+=GACNST
+=GAPILE

[GAPOWR]
Strength=abc
Speed=fast
Chance=150
Chance=x
Armor=Steel
Armor=paper
Sound=snd_boom.mp3
Sound=boom.wav
Coords=1
Coords=1,2
Coords=1,x
Primary=Missing
Primary=none
Primary=Cannon
Extras=Cannon,,Ghost
Strength=

[Cannon]
Damage=10`

func newTestValidator(t *testing.T, text string, disabled ...Code) (*Validator, *parser.Document) {
	t.Helper()
	s := schema.Parse(testSchema)
	doc := parser.Parse("rules.ini", "rules", text)
	idx := index.Build([]*parser.Document{doc}, s)
	return New(s, idx, resolver.New(s, idx), disabled...), doc
}

func validate(t *testing.T, v *Validator, doc *parser.Document, lr *LineRange) []Diagnostic {
	t.Helper()
	diags, err := v.Validate(context.Background(), doc, lr)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return diags
}

func codesByLine(diags []Diagnostic) map[int][]Code {
	out := make(map[int][]Code)
	for _, d := range diags {
		out[d.Range.Start.Line] = append(out[d.Range.Start.Line], d.Code)
	}
	return out
}

func findDiagnostic(diags []Diagnostic, line int, code Code) (Diagnostic, bool) {
	for _, d := range diags {
		if d.Range.Start.Line == line && d.Code == code {
			return d, true
		}
	}
	return Diagnostic{}, false
}

func TestValidateCorpus(t *testing.T) {
	v, doc := newTestValidator(t, testCorpus)
	got := codesByLine(validate(t, v, doc, nil))

	want := map[int][]Code{
		3:  {CodeDuplicateRegistryKey},
		8:  {CodeInvalidInteger},
		9:  {CodeInvalidFloat},
		10: {CodeNumberOutOfRange},
		11: {CodeInvalidInteger},
		13: {CodeStringNotAllowed},
		14: {CodeStringInvalidSuffix},
		15: {CodeStringInvalidPrefix},
		16: {CodeListInvalidLength},
		18: {CodeInvalidInteger},
		19: {CodeUndefinedSection},
		22: {CodeUndefinedSection},
		23: {CodeEmptyValue},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("diagnostics by line:\n got %v\nwant %v", got, want)
	}
}

func TestValidateRanges(t *testing.T) {
	v, doc := newTestValidator(t, testCorpus)
	diags := validate(t, v, doc, nil)

	tests := []struct {
		name       string
		line       int
		code       Code
		start, end int
		severity   Severity
	}{
		{"invalid integer covers the value", 8, CodeInvalidInteger, 9, 12, SeverityError},
		{"list length covers the whole value", 16, CodeListInvalidLength, 7, 8, SeverityError},
		{"list item keeps its own column", 18, CodeInvalidInteger, 9, 10, SeverityError},
		{"empty list items are skipped", 22, CodeUndefinedSection, 15, 20, SeverityError},
		{"duplicate registry key covers the key", 3, CodeDuplicateRegistryKey, 0, 1, SeverityWarning},
		{"empty value points at equals", 23, CodeEmptyValue, 8, 9, SeverityWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := findDiagnostic(diags, tt.line, tt.code)
			if !ok {
				t.Fatalf("no %s on line %d", tt.code, tt.line)
			}
			if d.Range.Start.Character != tt.start || d.Range.End.Character != tt.end {
				t.Errorf("range = %d-%d, want %d-%d", d.Range.Start.Character, d.Range.End.Character, tt.start, tt.end)
			}
			if d.Range.End.Line != tt.line {
				t.Errorf("diagnostic should stay on line %d", tt.line)
			}
			if d.Severity != tt.severity {
				t.Errorf("severity = %v, want %v", d.Severity, tt.severity)
			}
		})
	}
}

func TestDuplicateRegistryKeyMessage(t *testing.T) {
	v, doc := newTestValidator(t, testCorpus)
	d, ok := findDiagnostic(validate(t, v, doc, nil), 3, CodeDuplicateRegistryKey)
	if !ok {
		t.Fatal("expected duplicate registry key")
	}
	if !strings.Contains(d.Message, "BuildingTypes") || !strings.Contains(d.Message, "line 2") {
		t.Errorf("unexpected message: %s", d.Message)
	}
}

func TestValidateLineRange(t *testing.T) {
	v, doc := newTestValidator(t, testCorpus)

	tests := []struct {
		name string
		lr   LineRange
		want map[int][]Code
	}{
		{
			name: "registry state is rebuilt before the range",
			lr:   LineRange{Start: 3, End: 5},
			want: map[int][]Code{3: {CodeDuplicateRegistryKey}},
		},
		{
			name: "section type is rebuilt before the range",
			lr:   LineRange{Start: 16, End: 18},
			want: map[int][]Code{16: {CodeListInvalidLength}, 18: {CodeInvalidInteger}},
		},
		{
			name: "range clamped to document",
			lr:   LineRange{Start: 23, End: 500},
			want: map[int][]Code{23: {CodeEmptyValue}},
		},
		{
			name: "empty range",
			lr:   LineRange{Start: 9, End: 8},
			want: map[int][]Code{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr := tt.lr
			got := codesByLine(validate(t, v, doc, &lr))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListLength(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"1,2", false},
		{"1,2,3", true},
		{"1,", false}, // empty items still count
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			v, doc := newTestValidator(t, "[BuildingTypes]\n0=GAPOWR\n[GAPOWR]\nCoords="+tt.value)
			_, got := findDiagnostic(validate(t, v, doc, nil), 3, CodeListInvalidLength)
			if got != tt.want {
				t.Errorf("Coords=%s: invalid length reported = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestLogicRules(t *testing.T) {
	v, doc := newTestValidator(t, "[A]:[Missing]\n[X]:[Y]\n[Y]:[X]\n[B]:[A]")
	diags := validate(t, v, doc, nil)

	got := codesByLine(diags)
	want := map[int][]Code{
		0: {CodeUndefinedParent},
		1: {CodeInheritanceCycle},
		2: {CodeInheritanceCycle},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	d, _ := findDiagnostic(diags, 0, CodeUndefinedParent)
	if d.Range.Start.Character != 5 || d.Range.End.Character != 12 {
		t.Errorf("undefined parent range = %+v", d.Range)
	}
	d, _ = findDiagnostic(diags, 1, CodeInheritanceCycle)
	if !strings.Contains(d.Message, "X -> Y -> X") {
		t.Errorf("cycle message = %q", d.Message)
	}
}

func TestStyleRules(t *testing.T) {
	v := New(nil, nil, nil)
	doc := parser.Parse("rules.ini", "rules", strings.Join([]string{
		"  Key=1",
		"Key = 1",
		"Key=1;c",
		"Key=1 ;c",
		"; just a comment",
		"Key=1 ; ok",
		"Key=1;",
		"Strength=abc",
		"[Child]:[Missing]",
	}, "\n"))
	diags := validate(t, v, doc, nil)

	tests := []struct {
		line       int
		code       Code
		start, end int
		fix        string
	}{
		{0, CodeLeadingWhitespace, 0, 2, ""},
		{1, CodeSpaceAroundEquals, 3, 6, "="},
		{2, CodeCommentSpacing, 5, 6, " ; "},
		{3, CodeCommentSpacing, 6, 7, "; "},
		{6, CodeCommentSpacing, 5, 6, " ;"},
	}
	if len(diags) != len(tests) {
		t.Fatalf("expected %d diagnostics without a schema, got %d: %v", len(tests), len(diags), diags)
	}
	for _, tt := range tests {
		d, ok := findDiagnostic(diags, tt.line, tt.code)
		if !ok {
			t.Errorf("line %d: missing %s", tt.line, tt.code)
			continue
		}
		if d.Severity != SeverityInformation {
			t.Errorf("line %d: style rules report information, got %v", tt.line, d.Severity)
		}
		if d.Range.Start.Character != tt.start || d.Range.End.Character != tt.end {
			t.Errorf("line %d: range %d-%d, want %d-%d", tt.line, d.Range.Start.Character, d.Range.End.Character, tt.start, tt.end)
		}
		if d.Fix == nil || d.Fix.NewText != tt.fix {
			t.Errorf("line %d: fix = %+v, want %q", tt.line, d.Fix, tt.fix)
		}
	}
}

func TestDisabledCodes(t *testing.T) {
	v, doc := newTestValidator(t, testCorpus, CodeInvalidInteger, CodeEmptyValue)
	for _, d := range validate(t, v, doc, nil) {
		if d.Code == CodeInvalidInteger || d.Code == CodeEmptyValue {
			t.Errorf("disabled code reported: %+v", d)
		}
	}
}

func TestValidateCancelled(t *testing.T) {
	v, doc := newTestValidator(t, testCorpus)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	diags, err := v.Validate(ctx, doc, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("expected no diagnostics before the first line, got %d", len(diags))
	}
}

func TestApplyFixes(t *testing.T) {
	lines := []string{"  Key = 1;c", "Other=2", "Key=1;"}
	doc := parser.Parse("rules.ini", "rules", strings.Join(lines, "\n"))
	diags := validate(t, New(nil, nil, nil), doc, nil)

	fixed, applied := ApplyFixes(lines, diags)
	want := []string{"Key=1 ; c", "Other=2", "Key=1 ;"}
	if !reflect.DeepEqual(fixed, want) {
		t.Errorf("fixed = %q, want %q", fixed, want)
	}
	if applied != 4 {
		t.Errorf("applied = %d, want 4", applied)
	}
	if lines[0] != "  Key = 1;c" {
		t.Error("input lines must not be modified")
	}
}

func TestSummarize(t *testing.T) {
	v, doc := newTestValidator(t, testCorpus)
	s := Summarize(validate(t, v, doc, nil))
	if s.Errors != 11 || s.Warnings != 2 || s.Infos != 0 {
		t.Errorf("summary = %+v", s)
	}
}

func TestCatalog(t *testing.T) {
	codes := []Code{
		CodeLeadingWhitespace, CodeSpaceAroundEquals, CodeCommentSpacing,
		CodeInvalidInteger, CodeInvalidFloat, CodeNumberOutOfRange,
		CodeStringNotAllowed, CodeStringInvalidPrefix, CodeStringInvalidSuffix,
		CodeListInvalidLength, CodeUndefinedSection,
		CodeEmptyValue, CodeDuplicateRegistryKey, CodeUndefinedParent, CodeInheritanceCycle,
	}
	numbers := make(map[string]bool)
	for _, c := range codes {
		info, ok := Lookup(string(c))
		if !ok {
			t.Errorf("%s missing from catalog", c)
			continue
		}
		if numbers[info.Number] {
			t.Errorf("duplicate rule number %s", info.Number)
		}
		numbers[info.Number] = true
		if !strings.HasPrefix(string(c), strings.ToUpper(string(info.Family))) {
			t.Errorf("%s is in family %s", c, info.Family)
		}
	}
	if len(Rules()) != len(codes) {
		t.Errorf("catalog has %d rules, want %d", len(Rules()), len(codes))
	}

	info, ok := Lookup("t001")
	if !ok || info.Code != CodeInvalidInteger {
		t.Errorf("Lookup by number failed: %+v", info)
	}
	if _, ok := Lookup("NOPE"); ok {
		t.Error("unknown code should not be found")
	}
}

func TestParseSeverity(t *testing.T) {
	for in, want := range map[string]Severity{
		"error": SeverityError, "WARN": SeverityWarning, "warning": SeverityWarning,
		"info": SeverityInformation, "hint": SeverityHint,
	} {
		got, err := ParseSeverity(in)
		if err != nil || got != want {
			t.Errorf("ParseSeverity(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseSeverity("loud"); err == nil {
		t.Error("expected error for unknown severity")
	}
}
