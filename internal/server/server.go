// Package server serves the tool registry over the Model Context Protocol
// using mcp-go. The stdio transport is the default; SSE is available for
// clients that connect over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/asynkron/textedit/internal/config"
	"github.com/asynkron/textedit/internal/logging"
	"github.com/asynkron/textedit/internal/tools"
)

// Name is advertised to MCP clients during initialisation.
const Name = "textedit"

// Server wraps an mcp-go server bound to a tool registry.
type Server struct {
	registry *tools.Registry
	logger   logging.Logger
	mcp      *mcpserver.MCPServer
	version  string
}

// New registers every tool the registry advertises.
func New(registry *tools.Registry, logger logging.Logger, version string) *Server {
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	s := &Server{
		registry: registry,
		logger:   logger,
		version:  version,
		mcp: mcpserver.NewMCPServer(Name, version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithRecovery(),
		),
	}
	for _, def := range registry.Definitions() {
		tool := mcp.NewToolWithRawSchema(def.Name, def.Description, def.InputSchema)
		s.mcp.AddTool(tool, s.handle)
	}
	return s
}

// MCPServer exposes the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// handle adapts a registry call to an MCP tool result. Problems with the call
// itself become tool errors so the client sees them instead of a protocol
// failure.
func (s *Server) handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.Params.Name
	result, err := s.registry.Call(ctx, name, request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(errorText(err)), nil
	}
	body, err := result.JSON()
	if err != nil {
		s.logger.Error(ctx, "failed to encode tool result", err, logging.Field("tool", name))
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

func errorText(err error) string {
	var pathErr *tools.PathError
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		return err.Error()
	case errors.As(err, &pathErr):
		return pathErr.Error()
	}
	return "Error processing request: " + err.Error()
}

// ServeStdio serves JSON-RPC over in and out until ctx is cancelled or in is
// closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := mcpserver.NewStdioServer(s.mcp)
	if lr, ok := s.logger.(*logging.LogrusLogger); ok {
		stdio.SetErrorLogger(lr.StdLogger())
	}
	s.logger.Info(ctx, "serving MCP over stdio", logging.Field("version", s.version), logging.Field("mode", s.registry.Mode()))
	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "http://localhost" + addr
		if !strings.HasPrefix(addr, ":") {
			baseURL = "http://" + addr
		}
	}
	sse := mcpserver.NewSSEServer(s.mcp, mcpserver.WithBaseURL(baseURL))

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "serving MCP over SSE", logging.Field("addr", addr), logging.Field("base_url", baseURL))
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("sse server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("sse shutdown: %w", err)
		}
		return nil
	}
}

// Serve picks the transport named by cfg.
func (s *Server) Serve(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	switch cfg.Transport {
	case config.TransportSSE:
		return s.ServeSSE(ctx, cfg.Addr, cfg.BaseURL)
	default:
		return s.ServeStdio(ctx, in, out)
	}
}
