// Package lsp implements a minimal Language Server Protocol server for INI
// rule corpora.
//
// It publishes validation diagnostics for open documents and answers
// go-to-definition and find-references requests from the cross-reference
// index.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/aidanlsb/iniref/internal/buildinfo"
	"github.com/aidanlsb/iniref/internal/corpus"
	"github.com/aidanlsb/iniref/internal/logging"
	"github.com/aidanlsb/iniref/internal/watcher"
)

// Server is the iniref LSP server.
type Server struct {
	ws    *corpus.Workspace
	watch bool

	documents *DocumentManager

	// LSP communication
	input  *bufio.Reader
	output io.Writer
	mu     sync.Mutex // Protects output writes

	shutdown bool
	log      *slog.Logger
}

// Config holds configuration options for the Server.
type Config struct {
	Workspace *corpus.Workspace
	Input     io.Reader
	Output    io.Writer
	// Watch keeps the index in sync with files changed outside the editor.
	Watch bool
}

// NewServer creates a new LSP server.
func NewServer(cfg Config) *Server {
	return &Server{
		ws:        cfg.Workspace,
		watch:     cfg.Watch,
		documents: NewDocumentManager(),
		input:     bufio.NewReader(cfg.Input),
		output:    cfg.Output,
		log:       logging.Component("lsp"),
	}
}

// Run processes messages until the client sends exit, the input closes or
// ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.log.Debug("server started", "root", s.ws.Root)

	if s.watch {
		w, err := watcher.New(watcher.Config{
			Workspace: s.ws,
			OnBatch:   func(watcher.Batch) { s.publishAll() },
		})
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := w.Start(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Warn("watcher stopped", "error", err)
			}
		}()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := s.readMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			var perr *parseError
			if errors.As(err, &perr) {
				s.log.Debug("malformed message", "error", err)
				_ = s.sendError(nil, codeParseError, err.Error())
				continue
			}
			return err
		}

		if msg.Method == "exit" {
			return nil
		}
		if err := s.dispatch(ctx, msg); err != nil {
			s.log.Debug("error handling message", "method", msg.Method, "error", err)
		}
	}
}

type parseError struct {
	err error
}

func (e *parseError) Error() string { return "failed to parse message: " + e.err.Error() }
func (e *parseError) Unwrap() error { return e.err }

// readMessage reads one Content-Length framed JSON-RPC message.
func (s *Server) readMessage() (jsonRPCMessage, error) {
	contentLength := -1
	for {
		line, err := s.input.ReadString('\n')
		if err != nil {
			return jsonRPCMessage{}, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break // Empty line separates header from content
		}
		name, value, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return jsonRPCMessage{}, &parseError{fmt.Errorf("bad Content-Length %q", value)}
			}
			contentLength = n
		}
	}
	if contentLength < 0 {
		return jsonRPCMessage{}, &parseError{errors.New("no Content-Length header")}
	}

	content := make([]byte, contentLength)
	if _, err := io.ReadFull(s.input, content); err != nil {
		return jsonRPCMessage{}, err
	}

	var msg jsonRPCMessage
	if err := json.Unmarshal(content, &msg); err != nil {
		return jsonRPCMessage{}, &parseError{err}
	}
	s.log.Debug("received", "method", msg.Method)
	return msg, nil
}

// dispatch routes a message to the appropriate handler.
func (s *Server) dispatch(ctx context.Context, msg jsonRPCMessage) error {
	if s.shutdown && msg.isRequest() {
		return s.sendError(msg.ID, codeInvalidRequest, "server is shutting down")
	}

	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		s.shutdown = true
		return s.sendResult(msg.ID, nil)
	case "textDocument/didOpen":
		return s.handleDidOpen(ctx, msg)
	case "textDocument/didChange":
		return s.handleDidChange(ctx, msg)
	case "textDocument/didSave":
		return s.handleDidSave(ctx, msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/definition":
		return s.handleDefinition(msg)
	case "textDocument/references":
		return s.handleReferences(msg)
	default:
		if msg.isRequest() {
			return s.sendError(msg.ID, codeMethodNotFound, "method not supported: "+msg.Method)
		}
		s.log.Debug("unhandled notification", "method", msg.Method)
		return nil
	}
}

// sendResult sends a successful response.
func (s *Server) sendResult(id json.RawMessage, result interface{}) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.send(jsonRPCResponse{JSONRPC: "2.0", ID: id, Result: data})
}

// sendError sends an error response.
func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	if id == nil {
		id = json.RawMessage("null")
	}
	return s.send(jsonRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &jsonRPCError{Code: code, Message: message},
	})
}

// sendNotification sends a notification (no response expected).
func (s *Server) sendNotification(method string, params interface{}) error {
	data, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return s.send(jsonRPCMessage{JSONRPC: "2.0", Method: method, Params: data})
}

// send writes a framed JSON-RPC message to the output.
func (s *Server) send(msg interface{}) error {
	content, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.output, "Content-Length: %d\r\n\r\n", len(content)); err != nil {
		return err
	}
	_, err = s.output.Write(content)
	return err
}

func serverInfo() *ServerInfo {
	return &ServerInfo{Name: "iniref", Version: buildinfo.Current().Version}
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return strings.TrimPrefix(uri, "file://")
	}
	path := u.Path
	if runtime.GOOS == "windows" {
		path = strings.TrimPrefix(path, "/")
	}
	return filepath.FromSlash(path)
}

// pathToURI converts a workspace-relative engine key to a file:// URI.
func (s *Server) pathToURI(rel string) string {
	path := filepath.ToSlash(s.ws.Abs(rel))
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return (&url.URL{Scheme: "file", Path: path}).String()
}
