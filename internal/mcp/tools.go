package mcp

import (
	"context"
	"fmt"
	"math"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aidanlsb/iniref/internal/check"
	"github.com/aidanlsb/iniref/internal/config"
	"github.com/aidanlsb/iniref/internal/index"
	"github.com/aidanlsb/iniref/internal/schema"
)

type FindSectionInput struct {
	Name string `json:"name" jsonschema:"section name as written between the brackets"`
}

type FindReferencesInput struct {
	Value string `json:"value" jsonschema:"value token to look up, usually a section name"`
}

type TypeForSectionInput struct {
	Section  string `json:"section" jsonschema:"section name"`
	Category string `json:"category,omitempty" jsonschema:"file category used for inline inheritance; defaults to rules"`
}

type KeysForTypeInput struct {
	Type string `json:"type" jsonschema:"schema type name"`
}

type ValidateFileInput struct {
	Path      string `json:"path" jsonschema:"workspace-relative path of an indexed file"`
	StartLine *int   `json:"start_line,omitempty" jsonschema:"first 0-based line to validate"`
	EndLine   *int   `json:"end_line,omitempty" jsonschema:"last 0-based line to validate (inclusive)"`
}

type FindSectionOutput struct {
	Name      string           `json:"name"`
	Type      string           `json:"type"`
	Defined   bool             `json:"defined"`
	Locations []index.Location `json:"locations"`
}

type FindReferencesOutput struct {
	Value       string            `json:"value"`
	References  []index.Reference `json:"references"`
	Inheritance []index.Location  `json:"inheritance"`
}

type TypeForSectionOutput struct {
	Section  string   `json:"section"`
	Type     string   `json:"type"`
	Resolved bool     `json:"resolved"`
	Registry string   `json:"registry,omitempty"`
	Chain    []string `json:"inheritance_chain"`
	Cyclic   bool     `json:"cyclic,omitempty"`
}

type KeyOutput struct {
	Name      string `json:"name"`
	ValueType string `json:"value_type"`
	Category  string `json:"category"`
	Target    string `json:"target,omitempty"`
}

type KeysForTypeOutput struct {
	Type string      `json:"type"`
	Keys []KeyOutput `json:"keys"`
}

type ValidateFileOutput struct {
	Path        string             `json:"path"`
	Diagnostics []check.Diagnostic `json:"diagnostics"`
	Summary     check.Summary      `json:"summary"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "find_section",
		Description: "Find every definition of a section and its resolved schema type",
	}, s.handleFindSection)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "find_references",
		Description: "Find every place a value token is used, including inline parent references",
	}, s.handleFindReferences)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "type_for_section",
		Description: "Resolve the schema type of a section and its inheritance chain",
	}, s.handleTypeForSection)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "keys_for_type",
		Description: "List the merged keys of a schema type, inherited keys included",
	}, s.handleKeysForType)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "validate_file",
		Description: "Validate an indexed file, or a line range of it, and return diagnostics",
	}, s.handleValidateFile)
}

func (s *Server) handleFindSection(ctx context.Context, req *sdk.CallToolRequest, input FindSectionInput) (*sdk.CallToolResult, FindSectionOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, FindSectionOutput{}, fmt.Errorf("name is required")
	}
	locs := s.engine.FindSectionLocations(name)
	if locs == nil {
		locs = []index.Location{}
	}
	return nil, FindSectionOutput{
		Name:      name,
		Type:      s.engine.TypeForSection(name),
		Defined:   len(locs) > 0,
		Locations: locs,
	}, nil
}

func (s *Server) handleFindReferences(ctx context.Context, req *sdk.CallToolRequest, input FindReferencesInput) (*sdk.CallToolResult, FindReferencesOutput, error) {
	value := strings.TrimSpace(input.Value)
	if value == "" {
		return nil, FindReferencesOutput{}, fmt.Errorf("value is required")
	}
	out := FindReferencesOutput{
		Value:       value,
		References:  s.engine.FindReferenceDetails(value),
		Inheritance: s.engine.FindInheritanceReferences(value),
	}
	if out.References == nil {
		out.References = []index.Reference{}
	}
	if out.Inheritance == nil {
		out.Inheritance = []index.Location{}
	}
	return nil, out, nil
}

func (s *Server) handleTypeForSection(ctx context.Context, req *sdk.CallToolRequest, input TypeForSectionInput) (*sdk.CallToolResult, TypeForSectionOutput, error) {
	section := strings.TrimSpace(input.Section)
	if section == "" {
		return nil, TypeForSectionOutput{}, fmt.Errorf("section is required")
	}
	category := input.Category
	if category == "" {
		category = config.DefaultCategory
	}

	typ := s.engine.TypeForSection(section)
	out := TypeForSectionOutput{
		Section:  section,
		Type:     typ,
		Resolved: typ != section || s.engine.AllKeysForType(typ).Len() > 0,
	}
	out.Registry, _ = s.engine.RegistryFor(section)
	out.Chain, out.Cyclic = s.engine.InheritanceChain(section, category)
	return nil, out, nil
}

func (s *Server) handleKeysForType(ctx context.Context, req *sdk.CallToolRequest, input KeysForTypeInput) (*sdk.CallToolResult, KeysForTypeOutput, error) {
	name := strings.TrimSpace(input.Type)
	if name == "" {
		return nil, KeysForTypeOutput{}, fmt.Errorf("type is required")
	}
	if !s.engine.IsSchemaLoaded() {
		return nil, KeysForTypeOutput{}, fmt.Errorf("no schema loaded")
	}

	keys := s.engine.AllKeysForType(name)
	out := KeysForTypeOutput{Type: name, Keys: make([]KeyOutput, 0, keys.Len())}
	for _, key := range keys.Names() {
		vt, _ := keys.Get(key)
		out.Keys = append(out.Keys, keyOutput(key, vt))
	}
	return nil, out, nil
}

func keyOutput(name string, vt schema.ValueType) KeyOutput {
	return KeyOutput{
		Name:      name,
		ValueType: vt.Name,
		Category:  vt.Category.String(),
		Target:    vt.Target,
	}
}

func (s *Server) handleValidateFile(ctx context.Context, req *sdk.CallToolRequest, input ValidateFileInput) (*sdk.CallToolResult, ValidateFileOutput, error) {
	if input.Path == "" {
		return nil, ValidateFileOutput{}, fmt.Errorf("path is required")
	}

	var lr *check.LineRange
	if input.StartLine != nil || input.EndLine != nil {
		lr = &check.LineRange{Start: 0, End: math.MaxInt}
		if input.StartLine != nil {
			lr.Start = *input.StartLine
		}
		if input.EndLine != nil {
			lr.End = *input.EndLine
		}
		if lr.End < lr.Start {
			return nil, ValidateFileOutput{}, fmt.Errorf("end_line %d is before start_line %d", lr.End, lr.Start)
		}
	}

	diags, err := s.engine.Validate(ctx, input.Path, lr)
	if err != nil {
		return nil, ValidateFileOutput{}, err
	}
	if diags == nil {
		diags = []check.Diagnostic{}
	}
	s.log.Debug("validated file", "path", input.Path, "diagnostics", len(diags))
	return nil, ValidateFileOutput{
		Path:        input.Path,
		Diagnostics: diags,
		Summary:     check.Summarize(diags),
	}, nil
}
