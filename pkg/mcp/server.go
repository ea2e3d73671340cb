// Package mcp exposes the icon catalog, renderer, rasterizer and snippet
// generators as MCP tools.
package mcp

import (
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/iconpark/pkg/catalog"
	"github.com/gnana997/iconpark/pkg/extract"
	"github.com/gnana997/iconpark/pkg/mcplog"
	"github.com/gnana997/iconpark/pkg/raster"
	"github.com/gnana997/iconpark/pkg/registry"
	"github.com/gnana997/iconpark/pkg/style"
	"github.com/gnana997/iconpark/pkg/util"
)

const serverVersion = "0.1.0-dev"

// Options configures optional collaborators of a Server.
type Options struct {
	// Style is the base style tool arguments are applied to.
	// The zero value means style.Default().
	Style style.Config

	Rasterizer *raster.Rasterizer

	// CallLog, when non-nil, receives one entry per tool call.
	CallLog *mcplog.Logger

	Logger *slog.Logger
}

// Server implements the iconpark MCP server.
type Server struct {
	mcpServer *server.MCPServer

	mu       sync.RWMutex
	query    *catalog.QueryService
	registry *registry.Registry

	base       style.Config
	rasterizer *raster.Rasterizer
	callLog    *mcplog.Logger
	logger     *slog.Logger
}

// NewServer creates a Server answering from qs and reg.
func NewServer(qs *catalog.QueryService, reg *registry.Registry, opts Options) *Server {
	logger := util.OrDefault(opts.Logger)
	s := &Server{
		query:      qs,
		registry:   reg,
		base:       opts.Style,
		rasterizer: opts.Rasterizer,
		callLog:    opts.CallLog,
		logger:     logger,
	}
	if s.base == (style.Config{}) {
		s.base = style.Default()
	}
	if s.rasterizer == nil {
		s.rasterizer = raster.New(logger)
	}

	serverOpts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if s.callLog != nil {
		serverOpts = append(serverOpts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}
	s.mcpServer = server.NewMCPServer("iconpark", serverVersion, serverOpts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: listCategoriesTool(), Handler: s.handleListCategories},
		server.ServerTool{Tool: searchIconsTool(), Handler: s.handleSearchIcons},
		server.ServerTool{Tool: getIconTool(), Handler: s.handleGetIcon},
		server.ServerTool{Tool: getSVGTool(), Handler: s.handleGetSVG},
		server.ServerTool{Tool: getPNGTool(), Handler: s.handleGetPNG},
		server.ServerTool{Tool: getSnippetTool(), Handler: s.handleGetSnippet},
	)

	return s
}

// Swap replaces the catalog and icon sources. Nil arguments keep the
// current value.
func (s *Server) Swap(qs *catalog.QueryService, reg *registry.Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if qs != nil {
		s.query = qs
	}
	if reg != nil {
		s.registry = reg
	}
}

func (s *Server) sources() (*catalog.QueryService, *registry.Registry) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query, s.registry
}

func (s *Server) extractor() *extract.Extractor {
	_, reg := s.sources()
	return extract.New(extract.RegistrySource(reg), s.logger)
}

// ServeStdio serves MCP on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
