package mcp

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/aidanlsb/iniref/internal/check"
	"github.com/aidanlsb/iniref/internal/engine"
	"github.com/aidanlsb/iniref/internal/testutil"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	e := engine.New(engine.Options{})
	e.LoadSchema(testutil.SampleSchema())
	e.IndexFiles([]engine.File{{Path: "rules.ini", Content: testutil.SampleRules(), Category: "rules"}})
	return NewServer(e)
}

func TestFindSection(t *testing.T) {
	server := newTestServer(t)

	_, output, err := server.handleFindSection(context.Background(), nil, FindSectionInput{Name: "GAWEAP"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Type != "BuildingType" || !output.Defined || len(output.Locations) != 1 {
		t.Fatalf("unexpected output: %+v", output)
	}
	if loc := output.Locations[0]; loc.Path != "rules.ini" || loc.Line != 14 {
		t.Fatalf("unexpected location: %+v", loc)
	}

	_, output, err = server.handleFindSection(context.Background(), nil, FindSectionInput{Name: "Missing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Defined || output.Locations == nil {
		t.Fatalf("undefined sections report an empty, non-nil list: %+v", output)
	}
}

func TestFindSectionRequiresName(t *testing.T) {
	server := newTestServer(t)
	if _, _, err := server.handleFindSection(context.Background(), nil, FindSectionInput{Name: "  "}); err == nil {
		t.Fatal("expected error")
	}
}

func TestFindReferences(t *testing.T) {
	server := newTestServer(t)

	_, output, err := server.handleFindReferences(context.Background(), nil, FindReferencesInput{Value: "GAPOWR"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.References) != 1 || output.References[0].Section != "BuildingTypes" {
		t.Fatalf("unexpected references: %+v", output.References)
	}
	if len(output.Inheritance) != 1 || output.Inheritance[0].Line != 14 {
		t.Fatalf("unexpected inheritance references: %+v", output.Inheritance)
	}
}

func TestTypeForSection(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		section  string
		wantType string
		resolved bool
		registry string
		chain    []string
	}{
		{"GAWEAP", "BuildingType", true, "BuildingTypes", []string{"GAWEAP", "GAPOWR"}},
		{"AP", "WarheadType", true, "", []string{"AP"}},
		{"Nowhere", "Nowhere", false, "", []string{"Nowhere"}},
	}
	for _, tt := range tests {
		t.Run(tt.section, func(t *testing.T) {
			_, out, err := server.handleTypeForSection(context.Background(), nil, TypeForSectionInput{Section: tt.section})
			if err != nil {
				t.Fatal(err)
			}
			if out.Type != tt.wantType || out.Resolved != tt.resolved || out.Registry != tt.registry {
				t.Errorf("got %+v", out)
			}
			if !reflect.DeepEqual(out.Chain, tt.chain) {
				t.Errorf("chain = %v, want %v", out.Chain, tt.chain)
			}
		})
	}
}

func TestKeysForType(t *testing.T) {
	server := newTestServer(t)

	_, out, err := server.handleKeysForType(context.Background(), nil, KeysForTypeInput{Type: "BuildingType"})
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]string{}
	for _, k := range out.Keys {
		got[k.Name] = k.Category
	}
	want := map[string]string{
		"Strength":   "primitive",
		"Armor":      "string-limit",
		"Primary":    "section",
		"Power":      "primitive",
		"Foundation": "list",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("keys = %v, want %v", got, want)
	}
}

func TestKeysForTypeWithoutSchema(t *testing.T) {
	server := NewServer(engine.New(engine.Options{}))
	if _, _, err := server.handleKeysForType(context.Background(), nil, KeysForTypeInput{Type: "BuildingType"}); err == nil {
		t.Fatal("expected error without schema")
	}
}

func TestValidateFile(t *testing.T) {
	server := newTestServer(t)
	line := func(n int) *int { return &n }

	_, out, err := server.handleValidateFile(context.Background(), nil, ValidateFileInput{Path: "rules.ini"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Diagnostics) != 1 || out.Diagnostics[0].Code != check.CodeInvalidInteger || out.Summary.Errors != 1 {
		t.Fatalf("unexpected output: %+v", out)
	}

	_, out, err = server.handleValidateFile(context.Background(), nil, ValidateFileInput{Path: "rules.ini", StartLine: line(9)})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Diagnostics) != 0 {
		t.Fatalf("line 8 is outside the range, got %+v", out.Diagnostics)
	}

	if _, _, err := server.handleValidateFile(context.Background(), nil, ValidateFileInput{Path: "rules.ini", StartLine: line(5), EndLine: line(2)}); err == nil {
		t.Fatal("expected error for inverted range")
	}

	_, _, err = server.handleValidateFile(context.Background(), nil, ValidateFileInput{Path: "nope.ini"})
	if !errors.Is(err, engine.ErrDocumentNotFound) {
		t.Fatalf("err = %v, want ErrDocumentNotFound", err)
	}
}
