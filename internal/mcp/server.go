// Package mcp exposes the corpus query API to agents over the Model Context
// Protocol.
package mcp

import (
	"context"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aidanlsb/iniref/internal/buildinfo"
	"github.com/aidanlsb/iniref/internal/engine"
	"github.com/aidanlsb/iniref/internal/logging"
)

// Server serves engine queries as MCP tools.
type Server struct {
	engine *engine.Engine
	mcp    *sdk.Server
	log    *slog.Logger
}

// NewServer creates a server over e. The engine may be updated concurrently;
// every tool call reads a consistent snapshot.
func NewServer(e *engine.Engine) *Server {
	s := &Server{
		engine: e,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "iniref",
			Version: buildinfo.Current().Version,
		}, nil),
		log: logging.Component("mcp"),
	}
	s.registerTools()
	return s
}

// Run serves requests on transport until the client disconnects or ctx is
// cancelled.
func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
