// Package testutil provides reusable test utilities for iniref integration
// tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TestWorkspace represents a temporary workspace for testing.
type TestWorkspace struct {
	Path     string
	t        *testing.T
	schema   string
	manifest string
	files    map[string]string
}

// NewTestWorkspace creates a new test workspace builder.
// Call Build() to create the actual directory.
func NewTestWorkspace(t *testing.T) *TestWorkspace {
	t.Helper()
	return &TestWorkspace{
		t:     t,
		files: make(map[string]string),
	}
}

// WithSchema sets the schema.ini content. Unless WithManifest is used, a
// manifest pointing at it is generated.
func (w *TestWorkspace) WithSchema(content string) *TestWorkspace {
	w.schema = content
	return w
}

// WithManifest sets the iniref.yaml content.
func (w *TestWorkspace) WithManifest(yaml string) *TestWorkspace {
	w.manifest = yaml
	return w
}

// WithFile adds a file relative to the workspace root.
func (w *TestWorkspace) WithFile(path, content string) *TestWorkspace {
	w.files[path] = content
	return w
}

// Build creates the workspace directory and all configured files.
func (w *TestWorkspace) Build() *TestWorkspace {
	w.t.Helper()

	w.Path = w.t.TempDir()

	manifest := w.manifest
	if manifest == "" {
		manifest = "name: test\n"
		if w.schema != "" {
			manifest += "schema: schema.ini\n"
		}
	}
	w.WriteFile("iniref.yaml", manifest)
	if w.schema != "" {
		w.WriteFile("schema.ini", w.schema)
	}
	for path, content := range w.files {
		w.WriteFile(path, content)
	}
	return w
}

// WriteFile writes a file into the built workspace, creating directories as
// needed.
func (w *TestWorkspace) WriteFile(relPath, content string) {
	w.t.Helper()
	fullPath := filepath.Join(w.Path, relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		w.t.Fatalf("failed to create directory %s: %v", dir, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		w.t.Fatalf("failed to write file %s: %v", relPath, err)
	}
}

// ReadFile reads a file from the workspace.
func (w *TestWorkspace) ReadFile(relPath string) string {
	w.t.Helper()
	content, err := os.ReadFile(filepath.Join(w.Path, relPath))
	if err != nil {
		w.t.Fatalf("failed to read file %s: %v", relPath, err)
	}
	return string(content)
}

// FileExists checks if a file exists in the workspace.
func (w *TestWorkspace) FileExists(relPath string) bool {
	_, err := os.Stat(filepath.Join(w.Path, relPath))
	return err == nil
}

// SampleSchema returns a small type dictionary with a registry, a number
// limit, a string limit and a list.
func SampleSchema() string {
	return `[Registries]
BuildingTypes=BuildingType
WeaponTypes=WeaponType

[ObjectTypes]
TechnoType
BuildingType
WeaponType
WarheadType

[NumberLimits]
Percent
[Percent]
Range=0,100

[StringLimits]
Armor
[Armor]
LimitIn=none,wood,steel,concrete

[Lists]
Pair
[Pair]
Type=int
MinRange=2
MaxRange=2

[TechnoType]
Strength=int
Armor=Armor
Primary=WeaponType

[BuildingType]:[TechnoType]
Power=int
Foundation=Pair

[WeaponType]
Damage=int
ROF=int
Warhead=WarheadType

[WarheadType]
Verses=string
Spread=float
`
}

// SampleRules returns a rules file exercising SampleSchema. It has exactly
// one error: Strength=lots on line 8.
func SampleRules() string {
	return `[BuildingTypes]
0=GAPOWR
1=GAWEAP

[WeaponTypes]
0=Cannon

[GAPOWR]
Strength=lots
Armor=concrete
Power=100
Foundation=2,2
Primary=Cannon

[GAWEAP]:[GAPOWR]
Power=-50

[Cannon]
Damage=90
Warhead=AP

[AP]
Spread=0.5
`
}
