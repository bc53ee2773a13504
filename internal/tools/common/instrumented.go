package common

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/codes"

	"github.com/teemow/roombook/internal/instrumentation"
)

// ToolHandler is the mcp-go tool handler signature.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Instrumentation is the part of the server context the wrappers read.
// Both values may be nil.
type Instrumentation interface {
	Metrics() *instrumentation.Metrics
	AuditLogger() *instrumentation.AuditLogger
}

// InstrumentedToolHandler wraps a tool handler with a span, metrics and
// audit logging. A result with IsError set counts as a failure.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc Instrumentation, handler ToolHandler) ToolHandler {
	return InstrumentedToolHandlerWithTarget(toolName, "", "", sc, handler)
}

// InstrumentedToolHandlerWithTarget is like InstrumentedToolHandler but also
// records the upstream target (graph or proxy) and operation on the audit
// record and span.
func InstrumentedToolHandlerWithTarget(toolName, target, operation string, sc Instrumentation, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		roomID := RoomIDFromArgs(request.GetArguments())
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, operation, roomID)
		defer span.End()

		invocation := instrumentation.StartToolInvocation(ctx, toolName, target, operation, roomID)
		result, err := handler(ctx, request)

		errorResult := err == nil && result != nil && result.IsError
		invocation.Finish(errorResult, err)
		if errorResult {
			span.SetStatus(codes.Error, "tool returned an error result")
		} else {
			instrumentation.RecordSpanResult(span, err)
		}
		span.SetAttributes(instrumentation.AttrStatus.String(invocation.Status()))

		if sc != nil {
			sc.Metrics().RecordToolInvocation(ctx, toolName, invocation.Status(), invocation.Duration)
			sc.AuditLogger().Log(ctx, invocation)
		}
		return result, err
	}
}
