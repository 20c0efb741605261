package resolver

import (
	"testing"

	"github.com/aidanlsb/iniref/internal/index"
	"github.com/aidanlsb/iniref/internal/parser"
	"github.com/aidanlsb/iniref/internal/schema"
)

const testSchema = `
[Registries]
BuildingTypes=BuildingType

[ObjectTypes]
TechnoType
BuildingType
WeaponType
WarheadType

[Lists]
WeaponList
[WeaponList]
Type=WeaponType

[TechnoType]
Strength=int
Speed=float

[BuildingType]:[TechnoType]
Power=int
Speed=int
Primary=WeaponType
Extras=WeaponList

[WeaponType]
Damage=int
Warhead=WarheadType

[Loop1]:[Loop2]
A=int
[Loop2]:[Loop1]
B=int
`

func newTestResolver(t *testing.T, files map[string]string) *Resolver {
	t.Helper()
	var docs []*parser.Document
	for path, text := range files {
		docs = append(docs, parser.Parse(path, "rules", text))
	}
	s := schema.Parse(testSchema)
	return New(s, index.Build(docs, s))
}

func TestAllKeysForType(t *testing.T) {
	r := newTestResolver(t, nil)

	keys := r.AllKeysForType("BuildingType")
	for _, k := range []string{"Strength", "Speed", "Power", "Primary"} {
		if !keys.Has(k) {
			t.Errorf("expected merged key %s", k)
		}
	}
	if vt, _ := keys.Get("Speed"); vt.Primitive != schema.PrimitiveInt {
		t.Error("child Speed=int should override parent Speed=float")
	}

	again := r.AllKeysForType("buildingtype")
	if again != keys {
		t.Error("repeated calls should return the cached key set")
	}

	if r.AllKeysForType("NoSuchType").Len() != 0 {
		t.Error("unknown type should yield no keys")
	}
}

func TestAllKeysForTypeCycle(t *testing.T) {
	r := newTestResolver(t, nil)

	keys := r.AllKeysForType("Loop1")
	if !keys.Has("A") || !keys.Has("B") {
		t.Errorf("cyclic chain should still collect keys, got %v", keys.Names())
	}
	if r.AllKeysForType("Loop2").Len() == 0 {
		t.Error("Loop2 should resolve to a non-empty key set")
	}
}

func TestTypeForSection(t *testing.T) {
	r := newTestResolver(t, map[string]string{
		"rules.ini": `[BuildingTypes]
0=GAWEAP

[GAWEAP]
Primary=Cannon
Extras=Laser,Missile

[Cannon]
Warhead=AP

[AP]
Verses=100%

[Orphan]
Foo=Bar

[SelfRef]
Primary=SelfRef`,
	})

	tests := []struct {
		section string
		want    string
	}{
		{"TechnoType", "TechnoType"}, // declared type
		{"GAWEAP", "BuildingType"},   // registry membership
		{"Cannon", "WeaponType"},     // referenced through Primary
		{"Missile", "WeaponType"},    // referenced through a list of weapons
		{"AP", "WarheadType"},        // two hops of inference
		{"Orphan", "Orphan"},         // opaque fallback
		{"Bar", "Bar"},               // referenced by an opaque section
		{"SelfRef", "SelfRef"},       // self reference terminates
	}
	for _, tt := range tests {
		if got := r.TypeForSection(tt.section); got != tt.want {
			t.Errorf("TypeForSection(%q) = %q, want %q", tt.section, got, tt.want)
		}
	}
}

func TestTypeForSectionMutualReferences(t *testing.T) {
	r := newTestResolver(t, map[string]string{
		"rules.ini": `[A]
Link=B
[B]
Link=A`,
	})
	if got := r.TypeForSection("A"); got != "A" {
		t.Errorf("TypeForSection(A) = %q", got)
	}
}

func TestTypeForSectionWithoutSchema(t *testing.T) {
	r := New(nil, nil)
	if got := r.TypeForSection("GAWEAP"); got != "GAWEAP" {
		t.Errorf("without schema sections are opaque, got %q", got)
	}
	if r.AllKeysForType("BuildingType").Len() != 0 {
		t.Error("without schema no keys are known")
	}
}

func TestFindKeyLocationRecursive(t *testing.T) {
	r := newTestResolver(t, map[string]string{
		"rules.ini": `[Parent]
Key=1

[Child]:[Parent]
Other=2

[Cyc1]:[Cyc2]
[Cyc2]:[Cyc1]`,
	})

	loc, ok := r.FindKeyLocationRecursive("Child", "Key", "rules")
	if !ok {
		t.Fatal("expected Key to be found through inheritance")
	}
	if loc.Definer != "Parent" {
		t.Errorf("definer = %q, want Parent", loc.Definer)
	}
	if loc.Location.Line != 1 || loc.Location.Start != 0 || loc.Location.End != 3 {
		t.Errorf("unexpected location: %+v", loc.Location)
	}

	loc, ok = r.FindKeyLocationRecursive("Child", "other", "rules")
	if !ok || loc.Definer != "Child" {
		t.Errorf("own key should be found in Child, got %+v %v", loc, ok)
	}

	if _, ok := r.FindKeyLocationRecursive("Child", "Key", "art"); ok {
		t.Error("inheritance is scoped by category")
	}
	if _, ok := r.FindKeyLocationRecursive("Cyc1", "Missing", "rules"); ok {
		t.Error("missing key in a cyclic chain should not be found")
	}
}

func TestInheritanceChain(t *testing.T) {
	r := newTestResolver(t, map[string]string{
		"rules.ini": "[A]:[B]\n[B]:[C]\n[C]\n[X]:[Y]\n[Y]:[X]",
	})

	chain, cyclic := r.InheritanceChain("A", "rules")
	if cyclic || len(chain) != 3 || chain[2] != "C" {
		t.Errorf("chain = %v cyclic=%v", chain, cyclic)
	}
	if _, cyclic := r.InheritanceChain("X", "rules"); !cyclic {
		t.Error("X -> Y -> X should be cyclic")
	}
	if parent, ok := r.Inheritance("A", "rules"); !ok || parent != "B" {
		t.Errorf("Inheritance(A) = %q, %v", parent, ok)
	}
}

func TestTypeForSectionIndependentOfQueryOrder(t *testing.T) {
	const orderSchema = `
[ObjectTypes]
AType
BType
CType

[AType]
RefB=BType

[BType]
Name=string

[CType]
RefA=AType
`
	const corpus = `[B]
X=A

[A]
RefB=B

[CType]
RefA=A
`
	build := func() *Resolver {
		s := schema.Parse(orderSchema)
		docs := []*parser.Document{parser.Parse("rules.ini", "rules", corpus)}
		return New(s, index.Build(docs, s))
	}

	want := map[string]string{"A": "AType", "B": "BType"}
	orders := [][]string{{"A", "B"}, {"B", "A"}}
	for _, order := range orders {
		order := order
		t.Run(order[0]+" first", func(t *testing.T) {
			r := build()
			for _, section := range order {
				if got := r.TypeForSection(section); got != want[section] {
					t.Errorf("TypeForSection(%s) = %q, want %q", section, got, want[section])
				}
			}
		})
	}
}

func TestAllKeysForTypeCycleIndependentOfQueryOrder(t *testing.T) {
	fresh := func(name string) []string {
		return newTestResolver(t, nil).AllKeysForType(name).Names()
	}
	wantLoop1, wantLoop2 := fresh("Loop1"), fresh("Loop2")

	r := newTestResolver(t, nil)
	r.AllKeysForType("Loop1")
	if got := r.AllKeysForType("Loop2").Names(); !equalNames(got, wantLoop2) {
		t.Errorf("Loop2 after Loop1 = %v, want %v", got, wantLoop2)
	}

	r = newTestResolver(t, nil)
	r.AllKeysForType("Loop2")
	if got := r.AllKeysForType("Loop1").Names(); !equalNames(got, wantLoop1) {
		t.Errorf("Loop1 after Loop2 = %v, want %v", got, wantLoop1)
	}

	if len(wantLoop2) != 2 {
		t.Errorf("Loop2 should merge both keys, got %v", wantLoop2)
	}
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
