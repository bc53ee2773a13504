package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/teemow/roombook"

// Span attribute keys.
const (
	AttrTool      = attribute.Key("mcp.tool")
	AttrStatus    = attribute.Key("mcp.status")
	AttrTarget    = attribute.Key("upstream.target")
	AttrStrategy  = attribute.Key("upstream.strategy")
	AttrMethod    = attribute.Key("http.request.method")
	AttrEndpoint  = attribute.Key("upstream.endpoint")
	AttrOperation = attribute.Key("exchange.operation")
	AttrRoomID    = attribute.Key("exchange.room_id")
)

// The global provider is read on every call so a Provider installed after
// package init is picked up.
func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(tracerName)
}

// nonEmpty appends key=value only when value is set.
func nonEmpty(attrs []attribute.KeyValue, key attribute.Key, value string) []attribute.KeyValue {
	if value == "" {
		return attrs
	}
	return append(attrs, key.String(value))
}

// StartToolSpan starts the server span for one MCP tool call, named
// "tool.<name>". Empty operation and room id are left off the span.
func StartToolSpan(ctx context.Context, tool, operation, roomID string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{AttrTool.String(tool)}
	attrs = nonEmpty(attrs, AttrOperation, operation)
	attrs = nonEmpty(attrs, AttrRoomID, roomID)

	return tracer().Start(ctx, "tool."+tool,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartUpstreamSpan starts a client span for one upstream request attempt,
// named "<target>.<strategy>", e.g. "graph.sdk" or "proxy.proxy".
func StartUpstreamSpan(ctx context.Context, target, strategy, method, endpoint string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		AttrTarget.String(target),
		AttrStrategy.String(strategy),
	}
	attrs = nonEmpty(attrs, AttrMethod, method)
	attrs = nonEmpty(attrs, AttrEndpoint, endpoint)

	return tracer().Start(ctx, target+"."+strategy,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// RecordSpanResult sets the span status from err. It does not end the span.
func RecordSpanResult(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// TraceContext returns the trace and span ids of the span in ctx, or two
// empty strings when there is no valid span.
func TraceContext(ctx context.Context) (traceID, spanID string) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return "", ""
	}
	return sc.TraceID().String(), sc.SpanID().String()
}
