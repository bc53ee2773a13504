package common

import (
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/roombook/internal/envelope"
)

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	if len(r.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(r.Content))
	}
	tc, ok := r.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", r.Content[0])
	}
	return tc.Text
}

func TestResult(t *testing.T) {
	ok := Result(envelope.Success(map[string]any{"count": 2}))
	if ok.IsError {
		t.Error("success envelope should not set IsError")
	}
	if text := resultText(t, ok); !strings.Contains(text, `"status": "success"`) {
		t.Errorf("unexpected content: %s", text)
	}

	bad := Result(envelope.Error("boom"))
	if !bad.IsError {
		t.Error("error envelope should set IsError")
	}
	if text := resultText(t, bad); !strings.Contains(text, `"error_message": "boom"`) {
		t.Errorf("unexpected content: %s", text)
	}
}

func TestMissingArgument(t *testing.T) {
	r := MissingArgument("room_id")
	if !r.IsError {
		t.Error("expected IsError")
	}
	if text := resultText(t, r); !strings.Contains(text, "room_id is required") {
		t.Errorf("unexpected content: %s", text)
	}
}
