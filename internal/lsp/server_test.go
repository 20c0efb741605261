package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/aidanlsb/iniref/internal/corpus"
	"github.com/aidanlsb/iniref/internal/testutil"
)

type frame struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	Result json.RawMessage `json:"result"`
	Error  *jsonRPCError   `json:"error"`
}

type session struct {
	t   *testing.T
	in  bytes.Buffer
	ws  *corpus.Workspace
	uri string
}

func newSession(t *testing.T) *session {
	t.Helper()
	tw := testutil.NewTestWorkspace(t).
		WithSchema(testutil.SampleSchema()).
		WithFile("rules.ini", testutil.SampleRules()).
		Build()
	ws, err := corpus.Open(tw.Path)
	if err != nil {
		t.Fatal(err)
	}
	s := &session{t: t, ws: ws}
	s.uri = (&Server{ws: ws}).pathToURI("rules.ini")
	return s
}

func (s *session) send(id int, method string, params interface{}) {
	s.t.Helper()
	msg := map[string]interface{}{"jsonrpc": "2.0", "method": method}
	if id > 0 {
		msg["id"] = id
	}
	if params != nil {
		msg["params"] = params
	}
	data, err := json.Marshal(msg)
	if err != nil {
		s.t.Fatal(err)
	}
	fmt.Fprintf(&s.in, "Content-Length: %d\r\n\r\n%s", len(data), data)
}

func (s *session) run() []frame {
	s.t.Helper()
	var out bytes.Buffer
	srv := NewServer(Config{Workspace: s.ws, Input: &s.in, Output: &out})
	if err := srv.Run(context.Background()); err != nil {
		s.t.Fatalf("Run: %v", err)
	}
	return readFrames(s.t, &out)
}

func readFrames(t *testing.T, r io.Reader) []frame {
	t.Helper()
	br := bufio.NewReader(r)
	var frames []frame
	for {
		header, err := br.ReadString('\n')
		if err == io.EOF {
			return frames
		}
		if err != nil {
			t.Fatal(err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(header, "Content-Length:")))
		if err != nil {
			t.Fatalf("bad header %q", header)
		}
		if _, err := br.ReadString('\n'); err != nil {
			t.Fatal(err)
		}
		body := make([]byte, n)
		if _, err := io.ReadFull(br, body); err != nil {
			t.Fatal(err)
		}
		var f frame
		if err := json.Unmarshal(body, &f); err != nil {
			t.Fatalf("bad frame %s: %v", body, err)
		}
		frames = append(frames, f)
	}
}

func response(t *testing.T, frames []frame, id int) frame {
	t.Helper()
	for _, f := range frames {
		if string(f.ID) == strconv.Itoa(id) && f.Method == "" {
			return f
		}
	}
	t.Fatalf("no response for id %d", id)
	return frame{}
}

func diagnosticsOf(t *testing.T, frames []frame) []PublishDiagnosticsParams {
	t.Helper()
	var out []PublishDiagnosticsParams
	for _, f := range frames {
		if f.Method != "textDocument/publishDiagnostics" {
			continue
		}
		var p PublishDiagnosticsParams
		if err := json.Unmarshal(f.Params, &p); err != nil {
			t.Fatal(err)
		}
		out = append(out, p)
	}
	return out
}

func (s *session) open() {
	s.send(0, "textDocument/didOpen", DidOpenTextDocumentParams{TextDocument: TextDocumentItem{
		URI: s.uri, LanguageID: "ini", Version: 1, Text: testutil.SampleRules(),
	}})
}

func (s *session) position(id int, method string, line, char int) {
	s.send(id, method, ReferenceParams{
		TextDocumentPositionParams: TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: s.uri},
			Position:     Position{Line: line, Character: char},
		},
	})
}

func TestInitializeAndShutdown(t *testing.T) {
	s := newSession(t)
	s.send(1, "initialize", InitializeParams{})
	s.send(0, "initialized", map[string]interface{}{})
	s.send(2, "shutdown", nil)
	s.send(3, "textDocument/definition", nil)
	s.send(0, "exit", nil)

	frames := s.run()

	var init InitializeResult
	if err := json.Unmarshal(response(t, frames, 1).Result, &init); err != nil {
		t.Fatal(err)
	}
	caps := init.Capabilities
	if !caps.DefinitionProvider || !caps.ReferencesProvider || caps.TextDocumentSync.Change != SyncFull {
		t.Errorf("capabilities = %+v", caps)
	}
	if string(response(t, frames, 2).Result) != "null" {
		t.Errorf("shutdown result = %s", response(t, frames, 2).Result)
	}
	if f := response(t, frames, 3); f.Error == nil || f.Error.Code != codeInvalidRequest {
		t.Errorf("requests after shutdown must fail, got %+v", f)
	}
}

func TestDiagnosticsLifecycle(t *testing.T) {
	s := newSession(t)
	s.open()

	fixed := strings.Replace(testutil.SampleRules(), "Strength=lots", "Strength=100", 1)
	s.send(0, "textDocument/didChange", DidChangeTextDocumentParams{
		TextDocument:   VersionedTextDocumentIdentifier{URI: s.uri, Version: 2},
		ContentChanges: []TextDocumentContentChangeEvent{{Text: fixed}},
	})
	s.send(0, "textDocument/didClose", DidCloseTextDocumentParams{TextDocument: TextDocumentIdentifier{URI: s.uri}})
	s.send(0, "exit", nil)

	published := diagnosticsOf(t, s.run())
	if len(published) != 3 {
		t.Fatalf("expected 3 publishes (open, change, close), got %d: %+v", len(published), published)
	}

	opened := published[0].Diagnostics
	if len(opened) != 1 || opened[0].Code != "TYPE_INVALID_INTEGER" || opened[0].Range.Start.Line != 8 {
		t.Errorf("open diagnostics = %+v", opened)
	}
	if opened[0].Severity != 1 || opened[0].Source != "iniref" {
		t.Errorf("diagnostic metadata = %+v", opened[0])
	}
	if len(published[1].Diagnostics) != 0 || *published[1].Version != 2 {
		t.Errorf("change diagnostics = %+v", published[1])
	}
	if len(published[2].Diagnostics) != 0 {
		t.Errorf("close must clear diagnostics, got %+v", published[2])
	}

	// Closing restores the on-disk content in the engine.
	diags, err := s.ws.Engine.Validate(context.Background(), "rules.ini", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(diags) != 1 {
		t.Errorf("engine should hold the disk content again, got %+v", diags)
	}
}

func TestDefinitionAndReferences(t *testing.T) {
	s := newSession(t)
	s.open()
	s.position(1, "textDocument/definition", 18, 9)  // Warhead=AP
	s.position(2, "textDocument/definition", 14, 16) // [GAWEAP]:[GAPOWR]
	s.position(3, "textDocument/definition", 15, 2)  // Power=-50 inherited from GAPOWR
	s.position(4, "textDocument/references", 21, 1)  // [AP]
	s.position(5, "textDocument/definition", 3, 0)   // blank line
	s.send(6, "textDocument/hover", nil)
	s.send(0, "exit", nil)

	frames := s.run()

	locations := func(id int) []Location {
		t.Helper()
		var locs []Location
		if err := json.Unmarshal(response(t, frames, id).Result, &locs); err != nil {
			t.Fatalf("id %d: %v", id, err)
		}
		return locs
	}

	tests := []struct {
		id    int
		line  int
		start int
		end   int
	}{
		{1, 21, 1, 3},
		{2, 7, 1, 7},
		{4, 18, 8, 10},
	}
	for _, tt := range tests {
		locs := locations(tt.id)
		if len(locs) != 1 {
			t.Errorf("id %d: got %d locations", tt.id, len(locs))
			continue
		}
		r := locs[0].Range
		if r.Start.Line != tt.line || r.Start.Character != tt.start || r.End.Character != tt.end {
			t.Errorf("id %d: range = %+v, want line %d [%d,%d)", tt.id, r, tt.line, tt.start, tt.end)
		}
		if locs[0].URI != s.uri {
			t.Errorf("id %d: uri = %s", tt.id, locs[0].URI)
		}
	}

	if locs := locations(3); len(locs) != 1 || locs[0].Range.Start.Line != 10 {
		t.Errorf("inherited key definition = %+v", locs)
	}
	if got := string(response(t, frames, 5).Result); got != "null" {
		t.Errorf("definition on a blank line = %s", got)
	}
	if f := response(t, frames, 6); f.Error == nil || f.Error.Code != codeMethodNotFound {
		t.Errorf("hover should be unsupported, got %+v", f)
	}
}

func TestSymbolAt(t *testing.T) {
	tests := []struct {
		line string
		col  int
		want symbol
	}{
		{"[GAWEAP]:[GAPOWR]", 3, symbol{symbolHeader, "GAWEAP"}},
		{"[GAWEAP]:[GAPOWR]", 12, symbol{symbolParent, "GAPOWR"}},
		{"[GAWEAP]:[GAPOWR]", 8, symbol{}},
		{"Weapons=Laser, Cannon ; main", 16, symbol{symbolValue, "Cannon"}},
		{"Weapons=Laser, Cannon ; main", 25, symbol{}},
		{"Weapons=Laser", 0, symbol{symbolKey, "Weapons"}},
		{"  GAPOWR", 4, symbol{symbolValue, "GAPOWR"}},
		{"", 0, symbol{}},
	}
	for _, tt := range tests {
		if got := symbolAt(tt.line, tt.col); got != tt.want {
			t.Errorf("symbolAt(%q, %d) = %+v, want %+v", tt.line, tt.col, got, tt.want)
		}
	}
}

func TestURIRoundTrip(t *testing.T) {
	s := newSession(t)
	srv := &Server{ws: s.ws}
	uri := srv.pathToURI("art/my art.ini")
	if !strings.HasPrefix(uri, "file://") || !strings.Contains(uri, "my%20art.ini") {
		t.Errorf("pathToURI = %s", uri)
	}
	if got := s.ws.Rel(uriToPath(uri)); got != "art/my art.ini" {
		t.Errorf("round trip = %s", got)
	}
}

func TestMalformedMessage(t *testing.T) {
	s := newSession(t)
	s.in.WriteString("Content-Length: 5\r\n\r\nnope!")
	s.send(0, "exit", nil)

	frames := s.run()
	if len(frames) != 1 || frames[0].Error == nil || frames[0].Error.Code != codeParseError {
		t.Errorf("expected one parse error response, got %+v", frames)
	}
}
