// Package bridge implements the Agent Bridge: a per-user agent runtime
// over the frozen MCP tool surface, exposed as an OpenAI-compatible
// streaming chat completions API.
package bridge

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
)

// Config configures the Agent Bridge's HTTP listener.
type Config struct {
	Addr  string
	Model string
}

// Server wraps a Bridge with its own HTTP listener, mirroring the Tool
// & Prompt Server's Start/Stop lifecycle.
type Server struct {
	cfg    Config
	bridge *Bridge

	httpServer *http.Server

	mu      sync.Mutex
	running bool
}

// NewServer returns a Server ready to Start.
func NewServer(cfg Config, b *Bridge) *Server {
	return &Server{cfg: cfg, bridge: b}
}

// Start mounts the chat completions endpoint alongside health and
// model-listing routes and begins serving. It returns once the
// listener is ready.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("agent bridge already running")
	}
	s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.bridge.handleHealth)
	mux.HandleFunc("/v1/models", s.bridge.handleModels(s.cfg.Model))
	mux.HandleFunc("/v1/chat/completions", s.bridge.handleChatCompletions)

	s.httpServer = &http.Server{Addr: s.cfg.Addr, Handler: mux}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			if s.bridge.logger != nil {
				s.bridge.logger.Error("agent bridge stopped", "error", err)
			}
		}
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if s.bridge.logger != nil {
		s.bridge.logger.Info("agent bridge listening", "addr", s.cfg.Addr)
	}
	return nil
}

// Stop gracefully shuts down the HTTP listener and closes every
// cached per-user runtime.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	running := s.running
	srv := s.httpServer
	s.mu.Unlock()

	s.bridge.Close()

	if !running || srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
