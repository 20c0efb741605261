package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"strings"

	"github.com/aidanlsb/iniref/internal/check"
	"github.com/aidanlsb/iniref/internal/engine"
	"github.com/aidanlsb/iniref/internal/index"
	"github.com/aidanlsb/iniref/internal/parser"
)

func (s *Server) handleInitialize(msg jsonRPCMessage) error {
	var params InitializeParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "Invalid params")
	}
	if params.RootURI != "" && uriToPath(params.RootURI) != s.ws.Root {
		s.log.Debug("client root differs from workspace", "client", params.RootURI, "workspace", s.ws.Root)
	}

	return s.sendResult(msg.ID, InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: TextDocumentSyncOptions{
				OpenClose: true,
				Change:    SyncFull,
				Save:      true,
			},
			DefinitionProvider: true,
			ReferencesProvider: true,
		},
		ServerInfo: serverInfo(),
	})
}

func (s *Server) handleDidOpen(ctx context.Context, msg jsonRPCMessage) error {
	var params DidOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	item := params.TextDocument
	rel := s.ws.Rel(uriToPath(item.URI))
	s.documents.Open(item.URI, rel, item.Text, item.Version)
	s.log.Debug("opened", "path", rel)

	s.afterEdit(ctx, item.URI, rel, item.Text)
	return nil
}

func (s *Server) handleDidChange(ctx context.Context, msg jsonRPCMessage) error {
	var params DidChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	if len(params.ContentChanges) == 0 {
		return nil
	}

	// Full sync: the last change carries the whole document.
	content := params.ContentChanges[len(params.ContentChanges)-1].Text
	uri := params.TextDocument.URI
	if !s.documents.Update(uri, content, params.TextDocument.Version) {
		return nil
	}
	doc, _ := s.documents.Get(uri)
	s.afterEdit(ctx, uri, doc.Path, content)
	return nil
}

func (s *Server) handleDidSave(ctx context.Context, msg jsonRPCMessage) error {
	var params DidSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := params.TextDocument.URI
	s.log.Debug("saved", "uri", uri)

	if s.ws.IsSchemaFile(uriToPath(uri)) {
		if err := s.ws.ReloadSchema(); err != nil {
			s.log.Warn("failed to reload schema", "error", err)
			return nil
		}
		s.publishAll()
		return nil
	}
	if doc, ok := s.documents.Get(uri); ok {
		s.publish(ctx, doc)
	}
	return nil
}

func (s *Server) handleDidClose(msg jsonRPCMessage) error {
	var params DidCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := params.TextDocument.URI
	doc, ok := s.documents.Close(uri)
	if !ok {
		return nil
	}
	s.log.Debug("closed", "path", doc.Path)

	// The editor buffer may have differed from the file; fall back to disk.
	changed := false
	if s.ws.Accepts(doc.Path) {
		f, err := s.ws.Load(doc.Path)
		switch {
		case err == nil:
			changed = s.ws.Engine.UpdateFile(f)
		case errors.Is(err, fs.ErrNotExist):
			changed = s.ws.Engine.RemoveFile(doc.Path)
		default:
			s.log.Debug("failed to reload closed file", "path", doc.Path, "error", err)
		}
	}

	if err := s.sendNotification("textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []Diagnostic{},
	}); err != nil {
		return err
	}
	if changed {
		s.publishAll()
	}
	return nil
}

// afterEdit pushes editor content into the engine and republishes
// diagnostics. An edit can change the diagnostics of every other open
// document, so all of them are refreshed when the index changed.
func (s *Server) afterEdit(ctx context.Context, uri, rel, content string) {
	if s.ws.IsSchemaFile(rel) {
		return
	}
	if s.ws.Accepts(rel) {
		changed := s.ws.Engine.UpdateFile(engine.File{
			Path:     rel,
			Content:  content,
			Category: s.ws.Matcher.Category(rel),
		})
		if changed {
			s.publishAll()
			return
		}
	}
	if doc, ok := s.documents.Get(uri); ok {
		s.publish(ctx, doc)
	}
}

func (s *Server) handleDefinition(msg jsonRPCMessage) error {
	var params TextDocumentPositionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "Invalid params")
	}

	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return s.sendResult(msg.ID, nil)
	}

	sym := symbolAt(getLineAt(doc.Content, params.Position.Line), params.Position.Character)
	var locs []index.Location
	switch sym.kind {
	case symbolNone:
		return s.sendResult(msg.ID, nil)
	case symbolKey:
		// A key jumps to where an ancestor defines it.
		parsed := parser.Parse(doc.Path, s.ws.Matcher.Category(doc.Path), doc.Content)
		sec := parsed.SectionAt(params.Position.Line)
		if sec == nil || !sec.HasParent() {
			return s.sendResult(msg.ID, nil)
		}
		if kl, ok := s.ws.Engine.FindKeyLocationRecursive(sec.Parent, sym.text, parsed.Category); ok {
			locs = append(locs, kl.Location)
		}
	default:
		locs = s.ws.Engine.FindSectionLocations(sym.text)
	}

	return s.sendResult(msg.ID, s.toLocations(locs))
}

func (s *Server) handleReferences(msg jsonRPCMessage) error {
	var params ReferenceParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "Invalid params")
	}

	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return s.sendResult(msg.ID, []Location{})
	}
	sym := symbolAt(getLineAt(doc.Content, params.Position.Line), params.Position.Character)
	if sym.kind == symbolNone || sym.kind == symbolKey {
		return s.sendResult(msg.ID, []Location{})
	}

	var locs []index.Location
	if params.Context.IncludeDeclaration {
		locs = append(locs, s.ws.Engine.FindSectionLocations(sym.text)...)
	}
	locs = append(locs, s.ws.Engine.FindReferences(sym.text)...)
	locs = append(locs, s.ws.Engine.FindInheritanceReferences(sym.text)...)

	return s.sendResult(msg.ID, s.toLocations(locs))
}

// Diagnostics

func (s *Server) publishAll() {
	for _, doc := range s.documents.All() {
		s.publish(context.Background(), doc)
	}
}

func (s *Server) publish(ctx context.Context, doc Document) {
	diags, err := s.validate(ctx, doc)
	if err != nil {
		s.log.Debug("validation interrupted", "path", doc.Path, "error", err)
		return
	}

	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, toDiagnostic(d))
	}
	version := doc.Version
	if err := s.sendNotification("textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         doc.URI,
		Version:     &version,
		Diagnostics: out,
	}); err != nil {
		s.log.Debug("failed to publish diagnostics", "error", err)
	}
}

// validate checks the editor buffer against the current index. Files outside
// the corpus are validated too; they just don't contribute to the index.
func (s *Server) validate(ctx context.Context, doc Document) ([]check.Diagnostic, error) {
	if s.ws.IsSchemaFile(doc.Path) {
		return nil, nil
	}
	parsed := parser.Parse(doc.Path, s.ws.Matcher.Category(doc.Path), doc.Content)
	return s.ws.Engine.Snapshot().Validator().Validate(ctx, parsed, nil)
}

func toDiagnostic(d check.Diagnostic) Diagnostic {
	return Diagnostic{
		Range:    toRange(d.Range.Start.Line, d.Range.Start.Character, d.Range.End.Line, d.Range.End.Character),
		Severity: int(d.Severity),
		Code:     string(d.Code),
		Source:   "iniref",
		Message:  d.Message,
	}
}

func toRange(startLine, startChar, endLine, endChar int) Range {
	return Range{
		Start: Position{Line: startLine, Character: startChar},
		End:   Position{Line: endLine, Character: endChar},
	}
}

func (s *Server) toLocations(locs []index.Location) []Location {
	out := make([]Location, 0, len(locs))
	for _, l := range locs {
		out = append(out, Location{
			URI:   s.pathToURI(l.Path),
			Range: toRange(l.Line, l.Start, l.Line, l.End),
		})
	}
	return out
}

// Text helpers

type symbolKind int

const (
	symbolNone symbolKind = iota
	symbolHeader
	symbolParent
	symbolKey
	symbolValue
)

type symbol struct {
	kind symbolKind
	text string
}

func getLineAt(content string, lineNum int) string {
	lines := parser.SplitLines(content)
	if lineNum < 0 || lineNum >= len(lines) {
		return ""
	}
	return lines[lineNum]
}

// symbolAt returns the section name, parent, key or value token under col.
// A cursor just past the end of a token still selects it.
func symbolAt(line string, col int) symbol {
	code, _ := parser.SplitComment(line)
	if col < 0 || col > len(code) {
		return symbol{}
	}
	within := func(start, end int) bool { return col >= start && col <= end }

	if h, ok := parser.ParseHeader(code); ok {
		switch {
		case within(h.NameStart, h.NameEnd):
			return symbol{symbolHeader, h.Name}
		case h.HasParent() && within(h.ParentStart, h.ParentEnd):
			return symbol{symbolParent, h.Parent}
		}
		return symbol{}
	}

	if kv, ok := parser.ParseKeyValue(code); ok {
		if within(kv.KeyStart, kv.KeyEnd) {
			return symbol{symbolKey, kv.Key}
		}
		for _, tok := range parser.SplitValues(kv.Value, kv.ValueStart) {
			if within(tok.Start, tok.End) {
				return symbol{symbolValue, tok.Text}
			}
		}
		return symbol{}
	}

	// Bare registry entry.
	trimmed := strings.TrimSpace(code)
	if trimmed == "" || strings.ContainsAny(trimmed, "[]") {
		return symbol{}
	}
	start := strings.Index(code, trimmed)
	if within(start, start+len(trimmed)) {
		return symbol{symbolValue, trimmed}
	}
	return symbol{}
}
