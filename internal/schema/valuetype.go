package schema

import "strings"

// Category tags the variant held by a ValueType.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryPrimitive
	CategoryNumberLimit
	CategoryStringLimit
	CategoryList
	CategorySectionReference
)

func (c Category) String() string {
	switch c {
	case CategoryPrimitive:
		return "primitive"
	case CategoryNumberLimit:
		return "number-limit"
	case CategoryStringLimit:
		return "string-limit"
	case CategoryList:
		return "list"
	case CategorySectionReference:
		return "section"
	default:
		return "unknown"
	}
}

// PrimitiveKind distinguishes the built-in scalar types.
type PrimitiveKind int

const (
	PrimitiveInt PrimitiveKind = iota
	PrimitiveFloat
)

// ValueType is the declared type of a key's value. Exactly one payload
// matching Category is set; the category never changes after loading.
type ValueType struct {
	Name     string // type name as written in the schema
	Category Category

	Primitive PrimitiveKind // CategoryPrimitive
	Number    *NumberLimit  // CategoryNumberLimit
	String    *StringLimit  // CategoryStringLimit
	List      *ListSpec     // CategoryList
	Target    string        // CategorySectionReference: referenced object type
}

// NumberLimit is an inclusive integer range.
type NumberLimit struct {
	Min int64
	Max int64
}

// StringLimit constrains a string value. Empty sets are not checked.
type StringLimit struct {
	CaseSensitive bool
	Allowed       []string
	Prefixes      []string
	Suffixes      []string
}

// ListSpec is a comma-separated list of Element values.
type ListSpec struct {
	Element  string
	MinCount *int
	MaxCount *int
}

// Classify decides the category of a type name. Unknown names yield
// CategoryUnknown, which validates as a no-op.
func (s *Schema) Classify(name string) ValueType {
	vt := ValueType{Name: name}
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return vt
	}

	switch lower {
	case "int", "integer":
		vt.Category = CategoryPrimitive
		vt.Primitive = PrimitiveInt
		return vt
	case "float", "double":
		vt.Category = CategoryPrimitive
		vt.Primitive = PrimitiveFloat
		return vt
	}

	if nl, ok := s.numberLimits[lower]; ok {
		vt.Category = CategoryNumberLimit
		vt.Number = nl
		return vt
	}
	if sl, ok := s.stringLimits[lower]; ok {
		vt.Category = CategoryStringLimit
		vt.String = sl
		return vt
	}
	if ls, ok := s.lists[lower]; ok {
		vt.Category = CategoryList
		vt.List = ls
		return vt
	}
	if declared, ok := s.complex[lower]; ok {
		vt.Category = CategorySectionReference
		vt.Target = declared
		return vt
	}
	return vt
}
