package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates a new MCP server instance exposing the GitLab tools
func NewServer(tools *Tools, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"gitlab helper",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.AddTools(tools.ServerTools()...)
	return s
}

// Serve starts the MCP server on stdin and stdout
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
