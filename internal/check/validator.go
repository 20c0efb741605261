package check

import (
	"context"
	"sort"

	"github.com/aidanlsb/iniref/internal/index"
	"github.com/aidanlsb/iniref/internal/parser"
	"github.com/aidanlsb/iniref/internal/resolver"
	"github.com/aidanlsb/iniref/internal/schema"
)

// Validator runs the rule families over documents. It is safe for
// concurrent use as long as the index and resolver are not rebuilt.
type Validator struct {
	schema   *schema.Schema
	idx      *index.Index
	res      *resolver.Resolver
	rules    []Rule
	disabled map[Code]bool
}

// New creates a validator. Without a schema only the style rules run.
// Codes listed in disabled are never reported.
func New(s *schema.Schema, idx *index.Index, res *resolver.Resolver, disabled ...Code) *Validator {
	if idx == nil {
		idx = index.Empty()
	}
	if res == nil {
		res = resolver.New(s, idx)
	}

	rules := append([]Rule(nil), styleRules...)
	if s != nil {
		rules = append(rules, typeRules...)
		rules = append(rules, logicRules...)
	}

	v := &Validator{
		schema:   s,
		idx:      idx,
		res:      res,
		rules:    rules,
		disabled: make(map[Code]bool, len(disabled)),
	}
	for _, code := range disabled {
		v.disabled[code] = true
	}
	return v
}

// Validate checks doc, or only the lines in lr when lr is non-nil. On
// cancellation it returns the diagnostics found so far with ctx.Err().
func (v *Validator) Validate(ctx context.Context, doc *parser.Document, lr *LineRange) ([]Diagnostic, error) {
	start, end := 0, len(doc.Lines)-1
	if lr != nil {
		if lr.Start > start {
			start = lr.Start
		}
		if lr.End < end {
			end = lr.End
		}
	}
	if start > end {
		return nil, nil
	}

	c := newLineContext(v, doc)
	c.reconstruct(start)

	var diags []Diagnostic
	for i := start; i <= end; i++ {
		if err := ctx.Err(); err != nil {
			return diags, err
		}
		c.load(i)
		for _, rule := range v.rules {
			for _, d := range rule(c) {
				if !v.disabled[d.Code] {
					diags = append(diags, d)
				}
			}
		}
		c.record()
	}
	return diags, nil
}

// Summary counts diagnostics by severity.
type Summary struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
}

// Summarize counts diags by severity. Hints are counted as infos.
func Summarize(diags []Diagnostic) Summary {
	var s Summary
	for _, d := range diags {
		switch d.Severity {
		case SeverityError:
			s.Errors++
		case SeverityWarning:
			s.Warnings++
		default:
			s.Infos++
		}
	}
	return s
}

// ApplyFixes returns the lines with every non-overlapping fix applied.
// Fixes on the same line are applied right to left so earlier columns stay
// valid.
func ApplyFixes(lines []string, diags []Diagnostic) ([]string, int) {
	byLine := make(map[int][]*TextEdit)
	for i := range diags {
		if f := diags[i].Fix; f != nil && f.Range.Start.Line == f.Range.End.Line {
			byLine[f.Range.Start.Line] = append(byLine[f.Range.Start.Line], f)
		}
	}

	out := append([]string(nil), lines...)
	applied := 0
	for line, edits := range byLine {
		if line < 0 || line >= len(out) {
			continue
		}
		sort.Slice(edits, func(i, j int) bool {
			return edits[i].Range.Start.Character > edits[j].Range.Start.Character
		})
		text := out[line]
		limit := len(text) + 1
		for _, e := range edits {
			s, en := e.Range.Start.Character, e.Range.End.Character
			if s < 0 || en > len(text) || s > en || en > limit {
				continue
			}
			text = text[:s] + e.NewText + text[en:]
			limit = s
			applied++
		}
		out[line] = text
	}
	return out, applied
}
