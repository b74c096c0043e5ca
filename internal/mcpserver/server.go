// Package mcpserver exposes stylesheet generation, class explanation and
// theme inspection as MCP tools.
package mcpserver

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/yacobolo/utilgen"
)

// Server implements the MCP server for utilgen.
type Server struct {
	mcpServer *server.MCPServer
	logger    *slog.Logger

	mu       sync.Mutex // builders are not safe for concurrent use
	builder  *utilgen.Builder
	loadedAt time.Time // descriptor mtime of the last load
}

// NewServer creates an MCP server backed by b. b should have no output path
// so generate_stylesheet never writes. The descriptor is reloaded when its
// file changes between tool calls.
func NewServer(b *utilgen.Builder, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{builder: b, logger: logger}
	if info, err := os.Stat(b.Config().DescriptorPath); err == nil {
		s.loadedAt = info.ModTime()
	}

	s.mcpServer = server.NewMCPServer(
		"utilgen",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(s.loggingMiddleware()),
	)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: generateStylesheetTool(), Handler: s.handleGenerateStylesheet},
		server.ServerTool{Tool: explainClassTool(), Handler: s.handleExplainClass},
		server.ServerTool{Tool: listThemeTool(), Handler: s.handleListTheme},
		server.ServerTool{Tool: listVariantsTool(), Handler: s.handleListVariants},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
