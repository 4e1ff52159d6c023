package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/gocalc-mcp/internal/evaluator"
)

const (
	// ServerName is the MCP server name
	ServerName = "gocalc-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	service *evaluator.Service
}

// NewServer creates a new MCP server exposing svc as tools
func NewServer(svc *evaluator.Service) (*Server, error) {
	if svc == nil {
		return nil, errors.New("evaluator service is required")
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcp:     mcpServer,
		service: svc,
	}

	s.registerTools()

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until stdin closes.
// Cancelling ctx does not interrupt a blocked read; callers exit the process instead.
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(evaluateTool(), s.handleEvaluate)
	s.mcp.AddTool(evaluateBatchTool(), s.handleEvaluateBatch)
	s.mcp.AddTool(getHistoryTool(), s.handleGetHistory)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
