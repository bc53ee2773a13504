package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/roombook/internal/instrumentation"
)

type stubInstrumentation struct {
	audit *instrumentation.AuditLogger
}

func (s stubInstrumentation) Metrics() *instrumentation.Metrics             { return nil }
func (s stubInstrumentation) AuditLogger() *instrumentation.AuditLogger { return s.audit }

func newStub(buf *bytes.Buffer) stubInstrumentation {
	logger := slog.New(slog.NewTextHandler(buf, nil))
	return stubInstrumentation{audit: instrumentation.NewAuditLogger(logger, instrumentation.AuditLoggingConfig{
		Enabled:    true,
		IncludePII: true,
	})}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestInstrumentedToolHandler_Success(t *testing.T) {
	var buf bytes.Buffer
	called := false
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("ok"), nil
	}

	wrapped := InstrumentedToolHandler("test_tool", newStub(&buf), handler)
	result, err := wrapped(context.Background(), callRequest(nil))

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if !called {
		t.Error("expected handler to be called")
	}
	if result == nil {
		t.Fatal("expected result, got nil")
	}
	if !strings.Contains(buf.String(), "msg=tool_executed") || !strings.Contains(buf.String(), "tool=test_tool") {
		t.Errorf("audit log missing success record: %s", buf.String())
	}
}

func TestInstrumentedToolHandler_Error(t *testing.T) {
	var buf bytes.Buffer
	expectedErr := errors.New("test error")
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, expectedErr
	}

	wrapped := InstrumentedToolHandler("test_tool", newStub(&buf), handler)
	_, err := wrapped(context.Background(), callRequest(nil))

	if !errors.Is(err, expectedErr) {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
	if !strings.Contains(buf.String(), "msg=tool_failed") || !strings.Contains(buf.String(), "error=\"test error\"") {
		t.Errorf("audit log missing failure record: %s", buf.String())
	}
}

func TestInstrumentedToolHandler_ErrorResult(t *testing.T) {
	var buf bytes.Buffer
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("bad"), nil
	}

	wrapped := InstrumentedToolHandler("test_tool", newStub(&buf), handler)
	result, err := wrapped(context.Background(), callRequest(nil))

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result == nil || !result.IsError {
		t.Error("expected error result to pass through")
	}
	if !strings.Contains(buf.String(), "msg=tool_failed") {
		t.Errorf("error result should be audited as failure: %s", buf.String())
	}
}

func TestInstrumentedToolHandlerWithTarget_RecordsRoom(t *testing.T) {
	var buf bytes.Buffer
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	}

	wrapped := InstrumentedToolHandlerWithTarget("book_room", instrumentation.TargetProxy, "book", newStub(&buf), handler)
	_, _ = wrapped(context.Background(), callRequest(map[string]any{"room_id": "boardroom@example.com"}))

	out := buf.String()
	for _, want := range []string{"room_id=boardroom@example.com", "target=proxy", "operation=book"} {
		if !strings.Contains(out, want) {
			t.Errorf("audit log missing %q: %s", want, out)
		}
	}
}

func TestInstrumentedToolHandler_NilInstrumentation(t *testing.T) {
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	}

	wrapped := InstrumentedToolHandler("test_tool", nil, handler)
	if _, err := wrapped(context.Background(), callRequest(nil)); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestInstrumentedToolHandler_RegistersWithServer(t *testing.T) {
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	}

	var wrapped mcpserver.ToolHandlerFunc = InstrumentedToolHandlerWithTarget("book_room", instrumentation.TargetProxy, "book", nil, handler)

	s := mcpserver.NewMCPServer("roombook-test", "0.0.0", mcpserver.WithToolCapabilities(true))
	s.AddTool(mcp.NewTool("book_room"), wrapped)
	if _, ok := s.ListTools()["book_room"]; !ok {
		t.Fatal("book_room not registered")
	}
}
