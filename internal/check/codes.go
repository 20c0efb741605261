package check

import (
	"sort"
	"strings"
)

// Code identifies a validation rule. Codes are stable across releases.
type Code string

const (
	CodeLeadingWhitespace    Code = "STYLE_LEADING_WHITESPACE"
	CodeSpaceAroundEquals    Code = "STYLE_SPACE_AROUND_EQUALS"
	CodeCommentSpacing       Code = "STYLE_COMMENT_SPACING"
	CodeInvalidInteger       Code = "TYPE_INVALID_INTEGER"
	CodeInvalidFloat         Code = "TYPE_INVALID_FLOAT"
	CodeNumberOutOfRange     Code = "TYPE_NUMBER_OUT_OF_RANGE"
	CodeStringNotAllowed     Code = "TYPE_STRING_NOT_ALLOWED"
	CodeStringInvalidPrefix  Code = "TYPE_STRING_INVALID_PREFIX"
	CodeStringInvalidSuffix  Code = "TYPE_STRING_INVALID_SUFFIX"
	CodeListInvalidLength    Code = "TYPE_LIST_INVALID_LENGTH"
	CodeUndefinedSection     Code = "TYPE_UNDEFINED_SECTION"
	CodeEmptyValue           Code = "LOGIC_EMPTY_VALUE"
	CodeDuplicateRegistryKey Code = "LOGIC_DUPLICATE_REGISTRY_KEY"
	CodeUndefinedParent      Code = "LOGIC_UNDEFINED_PARENT"
	CodeInheritanceCycle     Code = "LOGIC_INHERITANCE_CYCLE"
)

// Family groups related rules.
type Family string

const (
	FamilyStyle Family = "style"
	FamilyType  Family = "type"
	FamilyLogic Family = "logic"
)

// RuleInfo documents a rule for `iniref explain` and the LSP.
type RuleInfo struct {
	Code     Code     `json:"code"`
	Number   string   `json:"number"`
	Family   Family   `json:"family"`
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Doc      string   `json:"doc"` // markdown
}

var catalog = []RuleInfo{
	{
		Code: CodeLeadingWhitespace, Number: "S001", Family: FamilyStyle, Severity: SeverityInformation,
		Title: "Line starts with whitespace",
		Doc: "Keys and headers should start in the first column.\n\n" +
			"```ini\n  Strength=200   ; flagged\nStrength=200     ; ok\n```\n\n" +
			"The fix removes the leading spaces and tabs.",
	},
	{
		Code: CodeSpaceAroundEquals, Number: "S002", Family: FamilyStyle, Severity: SeverityInformation,
		Title: "Whitespace around `=`",
		Doc: "Key/value pairs are written without spaces around the equals sign.\n\n" +
			"```ini\nStrength = 200 ; flagged\nStrength=200   ; ok\n```",
	},
	{
		Code: CodeCommentSpacing, Number: "S003", Family: FamilyStyle, Severity: SeverityInformation,
		Title: "Inline comment spacing",
		Doc: "An inline `;` comment needs one space before and one after the delimiter.\n\n" +
			"```ini\nStrength=200;tough  ; flagged\nStrength=200 ; tough ; ok\n```",
	},
	{
		Code: CodeInvalidInteger, Number: "T001", Family: FamilyType, Severity: SeverityError,
		Title: "Invalid integer",
		Doc: "The key is declared as `int` (or a number limit) but the value is not an " +
			"optional minus sign followed by digits.\n\n```ini\nStrength=abc ; flagged\n```",
	},
	{
		Code: CodeInvalidFloat, Number: "T002", Family: FamilyType, Severity: SeverityError,
		Title: "Invalid float",
		Doc:   "The key is declared as `float` or `double` but the value is not a decimal number.",
	},
	{
		Code: CodeNumberOutOfRange, Number: "T003", Family: FamilyType, Severity: SeverityError,
		Title: "Number out of range",
		Doc:   "The value is an integer outside the `Range=min,max` declared by its number limit.",
	},
	{
		Code: CodeStringNotAllowed, Number: "T004", Family: FamilyType, Severity: SeverityError,
		Title: "String not allowed",
		Doc: "The value is not one of the `LimitIn` entries of its string limit. " +
			"Comparison ignores case unless `CaseSensitive=yes`.",
	},
	{
		Code: CodeStringInvalidPrefix, Number: "T005", Family: FamilyType, Severity: SeverityError,
		Title: "Invalid string prefix",
		Doc:   "The value does not start with any `StartWith` entry of its string limit.",
	},
	{
		Code: CodeStringInvalidSuffix, Number: "T006", Family: FamilyType, Severity: SeverityError,
		Title: "Invalid string suffix",
		Doc:   "The value does not end with any `EndWith` entry of its string limit.",
	},
	{
		Code: CodeListInvalidLength, Number: "T007", Family: FamilyType, Severity: SeverityError,
		Title: "Invalid list length",
		Doc: "The number of comma-separated items is outside `MinRange`/`MaxRange` of the list.\n\n" +
			"Empty items count towards the length but are not validated against the element type.",
	},
	{
		Code: CodeUndefinedSection, Number: "T008", Family: FamilyType, Severity: SeverityError,
		Title: "Undefined section",
		Doc: "The value references a section of a complex type, but no section with that " +
			"name exists anywhere in the corpus. The literal `none` is always accepted.",
	},
	{
		Code: CodeEmptyValue, Number: "L001", Family: FamilyLogic, Severity: SeverityWarning,
		Title: "Empty value",
		Doc:   "Nothing follows the `=`. The game falls back to the inherited default.",
	},
	{
		Code: CodeDuplicateRegistryKey, Number: "L002", Family: FamilyLogic, Severity: SeverityWarning,
		Title: "Duplicate registry key",
		Doc: "The same index appears twice in an ID-list registry, so the later entry " +
			"replaces the earlier one. `+=` entries are exempt.\n\n" +
			"```ini\n[BuildingTypes]\n0=GAPOWR\n0=GAWEAP ; flagged\n+=NAHAND ; ok\n```",
	},
	{
		Code: CodeUndefinedParent, Number: "L003", Family: FamilyLogic, Severity: SeverityWarning,
		Title: "Undefined parent",
		Doc:   "The inline parent of `[Child]:[Parent]` is not defined in any file.",
	},
	{
		Code: CodeInheritanceCycle, Number: "L004", Family: FamilyLogic, Severity: SeverityWarning,
		Title: "Inheritance cycle",
		Doc:   "Following inline parents from this header leads back to a section already visited.",
	},
}

var catalogByCode = func() map[Code]*RuleInfo {
	m := make(map[Code]*RuleInfo, len(catalog))
	for i := range catalog {
		m[catalog[i].Code] = &catalog[i]
	}
	return m
}()

// Severity returns the default severity of the rule.
func (c Code) Severity() Severity {
	if info, ok := catalogByCode[c]; ok {
		return info.Severity
	}
	return SeverityError
}

// Family returns the rule family the code belongs to.
func (c Code) Family() Family {
	if info, ok := catalogByCode[c]; ok {
		return info.Family
	}
	return ""
}

// Lookup finds a rule by code or by number (e.g. "T001"), case-insensitively.
func Lookup(name string) (RuleInfo, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if info, ok := catalogByCode[Code(name)]; ok {
		return *info, true
	}
	for _, info := range catalog {
		if info.Number == name {
			return info, true
		}
	}
	return RuleInfo{}, false
}

// Rules returns every rule sorted by number.
func Rules() []RuleInfo {
	out := make([]RuleInfo, len(catalog))
	copy(out, catalog)
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}
