// Package mcpserver exposes the Tool & Prompt Server: four MCP tools,
// one dynamic system prompt, and a handful of plain HTTP
// side-endpoints for health, metrics, skills, and artifacts.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcpexec/backend/internal/containers"
	"github.com/mcpexec/backend/internal/execengine"
	"github.com/mcpexec/backend/internal/fileio"
	"github.com/mcpexec/backend/internal/observability"
	"github.com/mcpexec/backend/internal/skills"
)

const userIDHeader = "x-user-id"

// Config configures the Tool & Prompt Server's HTTP listener.
type Config struct {
	Addr string
}

// Server wires the MCP tool/prompt surface together with its HTTP
// side-endpoints and serves both over a single Streamable HTTP
// listener.
type Server struct {
	cfg      Config
	exec     *execengine.Engine
	io       *fileio.IO
	registry *skills.Registry
	manager  *containers.Manager
	metrics  *observability.Metrics
	logger   *slog.Logger

	httpServer *http.Server

	mu      sync.Mutex
	running bool
}

// New returns a Server ready to Start.
func New(cfg Config, manager *containers.Manager, exec *execengine.Engine, io *fileio.IO, registry *skills.Registry, metrics *observability.Metrics, logger *slog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		exec:     exec,
		io:       io,
		registry: registry,
		manager:  manager,
		metrics:  metrics,
		logger:   logger,
	}
}

// Start builds the MCP server, registers tools and the prompt, mounts
// the HTTP side-endpoints alongside the /mcp transport, and begins
// serving. It returns once the listener is ready.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("tool server already running")
	}
	s.mu.Unlock()

	mcpServer := server.NewMCPServer("mcpexec-tool-server", "1.0.0", server.WithToolCapabilities(true))
	registerTools(mcpServer, s)
	registerPrompt(mcpServer, s)

	streamable := server.NewStreamableHTTPServer(
		mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return withUserID(ctx, r.Header.Get(userIDHeader))
		}),
	)

	mux := http.NewServeMux()
	mux.Handle("/mcp", streamable)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/skills", s.handleListSkills)
	mux.HandleFunc("/skills/", s.handleGetSkill)
	mux.HandleFunc("/", s.handleArtifactRoutes)

	s.httpServer = &http.Server{Addr: s.cfg.Addr, Handler: s.rejectPathTraversal(mux)}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("tool server stopped", "error", err)
		}
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.Info("tool & prompt server listening", "addr", s.cfg.Addr)
	return nil
}

// Stop gracefully shuts down the HTTP listener.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	running := s.running
	srv := s.httpServer
	s.mu.Unlock()
	if !running || srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
