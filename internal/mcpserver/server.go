// Package mcpserver exposes the tool catalog over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/tools"
)

const serverName = "academic-hub"

// Catalog is the subset of the tool registry served over MCP.
type Catalog interface {
	Specs() []tools.Spec
	Invoke(ctx context.Context, actor *models.JWTClaims, name string, raw json.RawMessage) tools.Result
}

// New registers every catalog tool on an MCP server acting for studentID.
func New(catalog Catalog, studentID, version string, logger *zap.Logger) (*server.MCPServer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := server.NewMCPServer(serverName, version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	actor := models.StudentActor(studentID)
	for _, spec := range catalog.Specs() {
		schema, err := json.Marshal(spec.Parameters)
		if err != nil {
			return nil, err
		}
		s.AddTool(mcp.NewToolWithRawSchema(spec.Name, spec.Description, schema), handler(catalog, actor, spec.Name, logger))
	}
	return s, nil
}

func handler(catalog Catalog, actor *models.JWTClaims, name string, logger *zap.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := json.Marshal(request.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError("arguments could not be read"), nil
		}
		result := catalog.Invoke(ctx, actor, name, raw)
		if result.Failed() {
			logger.Debug("mcp tool failed", zap.String("tool", name), zap.String("error", result.Error))
			return mcp.NewToolResultError(result.JSON()), nil
		}
		return mcp.NewToolResultText(result.JSON()), nil
	}
}

// Serve blocks serving the catalog over stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
