package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/brianwhu/xillium-sub000/internal/crud"
)

// Server exposes the action compiler to MCP clients over stdio.
type Server struct {
	mcp    *server.MCPServer
	logger *slog.Logger
}

// NewServer creates an MCP server with the crud_compile tool and, when a
// registry is given, the crud_action tool.
func NewServer(version string, compiler *crud.Compiler, registry *crud.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		"crudc",
		version,
		server.WithToolCapabilities(true),
	)

	AddCrudCompileTool(mcpServer, compiler)
	if registry != nil {
		AddCrudActionTool(mcpServer, registry)
	}

	return &Server{mcp: mcpServer, logger: logger}
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting MCP server on stdio")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		s.logger.Info("received shutdown signal, stopping")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
