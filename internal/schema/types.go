// Package schema holds the inheritance-based type dictionary the corpus is
// validated against.
package schema

import (
	"sort"
	"strings"
)

// Names of the pseudo-sections that carry schema tables rather than types.
const (
	SectionRegistries   = "Registries"
	SectionObjectTypes  = "ObjectTypes"
	SectionNumberLimits = "NumberLimits"
	SectionStringLimits = "StringLimits"
	SectionLists        = "Lists"
)

// Schema is a loaded dictionary. Lookups by name are case-insensitive.
type Schema struct {
	types map[string]*Type // lower-cased name -> type
	order []string         // lower-cased names in declaration order

	registries     map[string]registry // lower-cased registry section -> registry
	registryByType map[string]string   // lower-cased type -> registry section name

	complex map[string]string // lower-cased -> declared spelling

	numberLimits map[string]*NumberLimit
	stringLimits map[string]*StringLimit
	lists        map[string]*ListSpec
}

type registry struct {
	name     string
	typeName string
}

// Type is an object type: its own keys plus an optional base type.
type Type struct {
	Name string
	Base string
	Keys *KeySet
}

// New returns an empty schema.
func New() *Schema {
	return &Schema{
		types:          make(map[string]*Type),
		registries:     make(map[string]registry),
		registryByType: make(map[string]string),
		complex:        make(map[string]string),
		numberLimits:   make(map[string]*NumberLimit),
		stringLimits:   make(map[string]*StringLimit),
		lists:          make(map[string]*ListSpec),
	}
}

// Type returns a declared type by name.
func (s *Schema) Type(name string) (*Type, bool) {
	t, ok := s.types[strings.ToLower(name)]
	return t, ok
}

// Types returns all declared types in declaration order.
func (s *Schema) Types() []*Type {
	out := make([]*Type, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.types[k])
	}
	return out
}

// IsComplex reports whether name is a declared complex object type.
func (s *Schema) IsComplex(name string) bool {
	_, ok := s.complex[strings.ToLower(name)]
	return ok
}

// ComplexTypes returns the complex object type names, sorted.
func (s *Schema) ComplexTypes() []string {
	out := make([]string, 0, len(s.complex))
	for _, n := range s.complex {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// RegistryTarget returns the type a registry section enumerates.
func (s *Schema) RegistryTarget(registryName string) (string, bool) {
	r, ok := s.registries[strings.ToLower(registryName)]
	if !ok {
		return "", false
	}
	return r.typeName, true
}

// RegistryName returns the declared spelling of a registry section name.
func (s *Schema) RegistryName(name string) (string, bool) {
	r, ok := s.registries[strings.ToLower(name)]
	return r.name, ok
}

// IDListRegistry returns the target type of registryName when it is an
// ID-list registry, i.e. a registry whose target is a complex object type.
func (s *Schema) IDListRegistry(registryName string) (string, bool) {
	target, ok := s.RegistryTarget(registryName)
	if !ok || !s.IsComplex(target) {
		return "", false
	}
	return target, true
}

// RegistryForType returns the registry section listing IDs of typeName.
func (s *Schema) RegistryForType(typeName string) (string, bool) {
	r, ok := s.registryByType[strings.ToLower(typeName)]
	return r, ok
}

// Registries returns all registry section names, sorted.
func (s *Schema) Registries() []string {
	out := make([]string, 0, len(s.registries))
	for _, r := range s.registries {
		out = append(out, r.name)
	}
	sort.Strings(out)
	return out
}

// KeySet is an ordered, case-insensitive mapping of key names to value types.
type KeySet struct {
	names []string
	specs map[string]keyEntry
}

type keyEntry struct {
	name string
	vt   ValueType
}

// NewKeySet returns an empty key set.
func NewKeySet() *KeySet {
	return &KeySet{specs: make(map[string]keyEntry)}
}

// Set adds or replaces a key. A replaced key keeps its original position.
func (k *KeySet) Set(name string, vt ValueType) {
	lower := strings.ToLower(name)
	if _, ok := k.specs[lower]; !ok {
		k.names = append(k.names, lower)
	}
	k.specs[lower] = keyEntry{name: name, vt: vt}
}

// Get returns the value type for a key.
func (k *KeySet) Get(name string) (ValueType, bool) {
	if k == nil {
		return ValueType{}, false
	}
	e, ok := k.specs[strings.ToLower(name)]
	return e.vt, ok
}

// Has reports whether the key is present.
func (k *KeySet) Has(name string) bool {
	_, ok := k.Get(name)
	return ok
}

// Names returns the key names in insertion order, spelled as last set.
func (k *KeySet) Names() []string {
	if k == nil {
		return nil
	}
	out := make([]string, 0, len(k.names))
	for _, n := range k.names {
		out = append(out, k.specs[n].name)
	}
	return out
}

// Len returns the number of keys.
func (k *KeySet) Len() int {
	if k == nil {
		return 0
	}
	return len(k.names)
}

// Clone returns a copy that can be modified independently.
func (k *KeySet) Clone() *KeySet {
	out := NewKeySet()
	if k == nil {
		return out
	}
	out.names = append(out.names, k.names...)
	for n, e := range k.specs {
		out.specs[n] = e
	}
	return out
}

// Overlay sets every key of other on top of k.
func (k *KeySet) Overlay(other *KeySet) {
	if other == nil {
		return
	}
	for _, n := range other.names {
		e := other.specs[n]
		k.Set(e.name, e.vt)
	}
}
