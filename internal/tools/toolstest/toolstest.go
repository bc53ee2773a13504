// Package toolstest holds helpers shared by the tool package tests.
package toolstest

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/roombook/internal/config"
	"github.com/teemow/roombook/internal/server"
)

// ServerContext returns a server context whose token cache lives in a temp
// dir and whose proxy points at proxyURL (empty for the default).
func ServerContext(t *testing.T, proxyURL string) *server.ServerContext {
	t.Helper()
	cfg := config.Default()
	cfg.TokenCachePath = filepath.Join(t.TempDir(), "token.json")
	if proxyURL != "" {
		cfg.ProxyURL = proxyURL
	}
	sc, err := server.NewServerContext(context.Background(), server.Options{Config: cfg})
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

// NewMCPServer returns an empty MCP server with tool capabilities.
func NewMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("roombook-test", "0.0.0", mcpserver.WithToolCapabilities(true))
}

// ToolNames lists the registered tools, sorted.
func ToolNames(t *testing.T, s *mcpserver.MCPServer) []string {
	t.Helper()
	tools := s.ListTools()
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Request builds a tool call request with the given arguments.
func Request(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// Decode returns the JSON object in a text result.
func Decode(t *testing.T, r *mcp.CallToolResult) map[string]any {
	t.Helper()
	if r == nil || len(r.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := r.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", r.Content[0])
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(tc.Text), &out); err != nil {
		t.Fatalf("result is not a JSON object: %v\n%s", err, tc.Text)
	}
	return out
}
