package check

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aidanlsb/iniref/internal/parser"
	"github.com/aidanlsb/iniref/internal/schema"
)

var (
	integerPattern = regexp.MustCompile(`^-?[0-9]+$`)
	floatPattern   = regexp.MustCompile(`^[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?$`)
)

var typeRules = []Rule{
	checkValueType,
}

func checkValueType(c *LineContext) []Diagnostic {
	kv := c.KV
	if kv == nil || kv.Value == "" || c.Keys == nil {
		return nil
	}
	vt, ok := c.Keys.Get(kv.Key)
	if !ok {
		return nil
	}
	tok := parser.Token{Text: kv.Value, Start: kv.ValueStart, End: kv.ValueEnd}
	return validateValue(c, kv.Key, vt, tok, nil)
}

// validateValue checks one token against a value type. lists holds the list
// types already being expanded so self-referential lists terminate.
func validateValue(c *LineContext, key string, vt schema.ValueType, tok parser.Token, lists map[string]bool) []Diagnostic {
	r := span(c.Line, tok.Start, tok.End)

	switch vt.Category {
	case schema.CategoryPrimitive:
		switch vt.Primitive {
		case schema.PrimitiveInt:
			if !integerPattern.MatchString(tok.Text) {
				return []Diagnostic{newDiagnostic(CodeInvalidInteger, r,
					"Invalid integer '%s' for key '%s'", tok.Text, key)}
			}
		case schema.PrimitiveFloat:
			if !floatPattern.MatchString(tok.Text) {
				return []Diagnostic{newDiagnostic(CodeInvalidFloat, r,
					"Invalid float '%s' for key '%s'", tok.Text, key)}
			}
		}

	case schema.CategoryNumberLimit:
		if !integerPattern.MatchString(tok.Text) {
			return []Diagnostic{newDiagnostic(CodeInvalidInteger, r,
				"Invalid integer '%s' for key '%s'", tok.Text, key)}
		}
		n, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil || n < vt.Number.Min || n > vt.Number.Max {
			return []Diagnostic{newDiagnostic(CodeNumberOutOfRange, r,
				"Value %s for key '%s' is outside %s [%d, %d]", tok.Text, key, vt.Name, vt.Number.Min, vt.Number.Max)}
		}

	case schema.CategoryStringLimit:
		return checkStringLimit(c, key, vt, tok)

	case schema.CategoryList:
		return checkList(c, key, vt, tok, lists)

	case schema.CategorySectionReference:
		if strings.EqualFold(tok.Text, "none") || c.Index.IsDefined(tok.Text) {
			return nil
		}
		return []Diagnostic{newDiagnostic(CodeUndefinedSection, r,
			"Section '%s' referenced by key '%s' is not defined (expected %s)", tok.Text, key, vt.Target)}
	}
	return nil
}

func checkStringLimit(c *LineContext, key string, vt schema.ValueType, tok parser.Token) []Diagnostic {
	lim := vt.String
	r := span(c.Line, tok.Start, tok.End)

	norm := func(s string) string {
		if lim.CaseSensitive {
			return s
		}
		return strings.ToLower(s)
	}
	value := norm(tok.Text)

	var diags []Diagnostic
	if len(lim.Allowed) > 0 {
		found := false
		for _, a := range lim.Allowed {
			if norm(a) == value {
				found = true
				break
			}
		}
		if !found {
			diags = append(diags, newDiagnostic(CodeStringNotAllowed, r,
				"Value '%s' for key '%s' is not one of: %s", tok.Text, key, strings.Join(lim.Allowed, ", ")))
		}
	}
	if len(lim.Prefixes) > 0 && !anyMatch(lim.Prefixes, func(p string) bool { return strings.HasPrefix(value, norm(p)) }) {
		diags = append(diags, newDiagnostic(CodeStringInvalidPrefix, r,
			"Value '%s' for key '%s' must start with one of: %s", tok.Text, key, strings.Join(lim.Prefixes, ", ")))
	}
	if len(lim.Suffixes) > 0 && !anyMatch(lim.Suffixes, func(s string) bool { return strings.HasSuffix(value, norm(s)) }) {
		diags = append(diags, newDiagnostic(CodeStringInvalidSuffix, r,
			"Value '%s' for key '%s' must end with one of: %s", tok.Text, key, strings.Join(lim.Suffixes, ", ")))
	}
	return diags
}

func checkList(c *LineContext, key string, vt schema.ValueType, tok parser.Token, lists map[string]bool) []Diagnostic {
	name := strings.ToLower(vt.Name)
	if lists[name] {
		return nil
	}

	spec := vt.List
	items := parser.SplitRaw(tok.Text, tok.Start)
	n := len(items)

	if (spec.MinCount != nil && n < *spec.MinCount) || (spec.MaxCount != nil && n > *spec.MaxCount) {
		return []Diagnostic{newDiagnostic(CodeListInvalidLength, span(c.Line, tok.Start, tok.End),
			"List for key '%s' has %d item(s), expected %s", key, n, countBounds(spec))}
	}

	elem := c.Schema.Classify(spec.Element)
	if elem.Category == schema.CategoryUnknown {
		return nil
	}
	nested := make(map[string]bool, len(lists)+1)
	for k := range lists {
		nested[k] = true
	}
	nested[name] = true

	var diags []Diagnostic
	for _, item := range items {
		if item.Text == "" {
			continue
		}
		diags = append(diags, validateValue(c, key, elem, item, nested)...)
	}
	return diags
}

func countBounds(spec *schema.ListSpec) string {
	switch {
	case spec.MinCount != nil && spec.MaxCount != nil:
		return strconv.Itoa(*spec.MinCount) + " to " + strconv.Itoa(*spec.MaxCount)
	case spec.MinCount != nil:
		return "at least " + strconv.Itoa(*spec.MinCount)
	case spec.MaxCount != nil:
		return "at most " + strconv.Itoa(*spec.MaxCount)
	}
	return "any number"
}

func anyMatch(candidates []string, match func(string) bool) bool {
	for _, c := range candidates {
		if match(c) {
			return true
		}
	}
	return false
}
