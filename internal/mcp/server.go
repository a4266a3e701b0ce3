// Package mcp exposes matter formation over the Model Context Protocol so
// agent tooling can read and advance matters without going through HTTP.
// The stdio transport is local and trusted; calls act with admin scope
// inside the named organization.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/lawdesk/matterflow/internal/actor"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes matter formation tools.
type Server struct {
	actor *actor.Actor
	mcp   *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(a *actor.Actor) *Server {
	s := &Server{actor: a}

	s.mcp = server.NewMCPServer(
		"matterflow",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers.
func (s *Server) registerTools() {
	s.mcp.AddTool(matterStatusTool, s.handleMatterStatus)
	s.mcp.AddTool(matterChecklistTool, s.handleMatterChecklist)
	s.mcp.AddTool(advanceMatterTool, s.handleAdvanceMatter)
	s.mcp.AddTool(matterSummaryTool, s.handleMatterSummary)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
