package index

import (
	"reflect"
	"testing"

	"github.com/aidanlsb/iniref/internal/parser"
	"github.com/aidanlsb/iniref/internal/schema"
)

const testSchema = `
[Registries]
BuildingTypes=BuildingType

[ObjectTypes]
BuildingType
WeaponType

[BuildingType]
Primary=WeaponType
`

func testDocs() []*parser.Document {
	rules := parser.Parse("rules.ini", "rules", `[BuildingTypes]
0=GAWEAP
1=GAPOWR ; power plant
+=GAWEAP

[GAWEAP]:[BaseBuilding]
Primary=Cannon, Laser

[GAPOWR]
Primary=Cannon`)

	art := parser.Parse("art.ini", "art", `[GAWEAP]:[ArtBase]
Image=GAWEAPIMG

[BuildingTypes]
2=NAHAND`)

	return []*parser.Document{rules, art}
}

func TestBuildDefinitions(t *testing.T) {
	ix := Build(testDocs(), schema.Parse(testSchema))

	locs := ix.SectionLocations("GAWEAP")
	if len(locs) != 2 {
		t.Fatalf("expected 2 definitions of GAWEAP, got %d", len(locs))
	}
	// Documents are indexed in path order: art.ini before rules.ini.
	if locs[0].Path != "art.ini" || locs[1].Path != "rules.ini" {
		t.Errorf("unexpected definition order: %+v", locs)
	}
	if locs[1].Line != 5 || locs[1].Start != 1 || locs[1].End != 7 {
		t.Errorf("unexpected GAWEAP span: %+v", locs[1])
	}
	if !ix.IsDefined("GAPOWR") || ix.IsDefined("NAHAND") {
		t.Error("IsDefined mismatch")
	}
}

func TestBuildReferences(t *testing.T) {
	ix := Build(testDocs(), schema.Parse(testSchema))

	refs := ix.References("Cannon")
	if len(refs) != 2 {
		t.Fatalf("expected 2 references to Cannon, got %d", len(refs))
	}
	first := refs[0]
	if first.Section != "GAWEAP" || first.Key != "Primary" {
		t.Errorf("unexpected reference context: %+v", first)
	}
	if first.Start != 8 || first.End != 14 {
		t.Errorf("unexpected Cannon span: %+v", first.Location)
	}

	laser := ix.References("Laser")
	if len(laser) != 1 || laser[0].Start != 16 || laser[0].End != 21 {
		t.Errorf("unexpected Laser reference: %+v", laser)
	}

	// The registry entry after the comment delimiter is not part of the value.
	for _, r := range ix.References("GAPOWR") {
		if r.Start != 2 || r.End != 8 {
			t.Errorf("unexpected GAPOWR span: %+v", r.Location)
		}
	}
}

func TestBuildInheritanceScopedByCategory(t *testing.T) {
	ix := Build(testDocs(), schema.Parse(testSchema))

	if p, ok := ix.Inheritance("rules", "GAWEAP"); !ok || p != "BaseBuilding" {
		t.Errorf("rules parent = %q, %v", p, ok)
	}
	if p, ok := ix.Inheritance("art", "GAWEAP"); !ok || p != "ArtBase" {
		t.Errorf("art parent = %q, %v", p, ok)
	}
	if _, ok := ix.Inheritance("rules", "GAPOWR"); ok {
		t.Error("GAPOWR has no parent")
	}

	refs := ix.InheritanceReferences("BaseBuilding")
	if len(refs) != 1 || refs[0].Start != 10 || refs[0].End != 22 {
		t.Errorf("unexpected inheritance reference: %+v", refs)
	}
}

func TestBuildRegistries(t *testing.T) {
	ix := Build(testDocs(), schema.Parse(testSchema))

	reg, ok := ix.Registry("BuildingTypes")
	if !ok {
		t.Fatal("expected BuildingTypes registry")
	}
	if reg.Type != "BuildingType" {
		t.Errorf("registry type = %q", reg.Type)
	}
	// art.ini is indexed first, then rules.ini; occurrences accumulate.
	if want := []string{"NAHAND", "GAWEAP", "GAPOWR"}; !reflect.DeepEqual(reg.Members, want) {
		t.Errorf("members = %v, want %v", reg.Members, want)
	}
	if len(reg.Occurrences["GAWEAP"]) != 2 {
		t.Errorf("GAWEAP should be listed twice, got %d", len(reg.Occurrences["GAWEAP"]))
	}
	if r, ok := ix.RegistryOf("NAHAND"); !ok || r != "BuildingTypes" {
		t.Errorf("RegistryOf(NAHAND) = %q, %v", r, ok)
	}
}

func TestBuildWithoutSchema(t *testing.T) {
	ix := Build(testDocs(), nil)
	if len(ix.Registries()) != 0 {
		t.Error("no registries should be indexed without a schema")
	}
	if !ix.IsDefined("GAWEAP") {
		t.Error("definitions are indexed without a schema")
	}
}

func TestRebuildIsDeterministic(t *testing.T) {
	s := schema.Parse(testSchema)
	docs := testDocs()
	a := Build(docs, s)
	// Reverse the input order; the result must not change.
	b := Build([]*parser.Document{docs[1], docs[0]}, s)

	for _, name := range []string{"GAWEAP", "GAPOWR", "BuildingTypes"} {
		if !reflect.DeepEqual(a.SectionLocations(name), b.SectionLocations(name)) {
			t.Errorf("SectionLocations(%s) differs between rebuilds", name)
		}
	}
	for _, v := range a.ReferencedValues() {
		if !reflect.DeepEqual(a.References(v), b.References(v)) {
			t.Errorf("References(%s) differs between rebuilds", v)
		}
	}
	ra, _ := a.Registry("BuildingTypes")
	rb, _ := b.Registry("BuildingTypes")
	if !reflect.DeepEqual(ra.Members, rb.Members) {
		t.Error("registry members differ between rebuilds")
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("fingerprint differs between rebuilds")
	}
}
