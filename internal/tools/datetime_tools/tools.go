package datetime_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/roombook/internal/datetime"
	"github.com/teemow/roombook/internal/envelope"
	"github.com/teemow/roombook/internal/server"
	"github.com/teemow/roombook/internal/tools/common"
)

// RegisterDateTimeTools registers get_current_datetime and resolve_datetime.
func RegisterDateTimeTools(s *mcpserver.MCPServer, sc *server.ServerContext, _ bool) error {
	if sc == nil {
		return fmt.Errorf("server context is required")
	}

	currentTool := mcp.NewTool("get_current_datetime",
		mcp.WithDescription("Get the current date and time of the booking server, to anchor relative times like \"tomorrow\""),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(currentTool, common.InstrumentedToolHandler("get_current_datetime", sc, handleCurrentDateTime(sc.Now)))

	resolveTool := mcp.NewTool("resolve_datetime",
		mcp.WithDescription("Show the absolute time a phrase such as \"tomorrow at 2pm\" or \"in 3 hours\" resolves to"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Time phrase or ISO 8601 timestamp"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(resolveTool, common.InstrumentedToolHandler("resolve_datetime", sc, handleResolveDateTime(sc.Now)))

	return nil
}

// CurrentDateTime is the envelope returned by get_current_datetime.
func CurrentDateTime(now time.Time) envelope.Envelope {
	snap := datetime.Describe(now)
	return envelope.Success(map[string]any{
		"iso":         snap.ISO,
		"date":        snap.Date,
		"time":        snap.Time,
		"day_of_week": snap.DayOfWeek,
		"formatted":   snap.Formatted,
		"timestamp":   snap.Timestamp,
		"year":        snap.Year,
		"month":       snap.Month,
		"day":         snap.Day,
		"hour":        snap.Hour,
		"minute":      snap.Minute,
		"second":      snap.Second,
	})
}

func handleCurrentDateTime(now func() time.Time) common.ToolHandler {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return common.Result(CurrentDateTime(now())), nil
	}
}

func handleResolveDateTime(now func() time.Time) common.ToolHandler {
	return func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text := common.StringArg(request.GetArguments(), "text")
		if text == "" {
			return common.MissingArgument("text"), nil
		}

		t, rule := datetime.ResolveRule(text, now())
		return common.Result(envelope.Success(map[string]any{
			"input":    text,
			"resolved": t.Format(datetime.ISOLayout),
			"rule":     rule,
		})), nil
	}
}
