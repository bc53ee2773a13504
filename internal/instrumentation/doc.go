// Package instrumentation provides OpenTelemetry instrumentation for the
// roombook MCP server.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - active_sessions: Gauge of active MCP sessions
//
// Upstream Metrics:
//   - upstream_requests_total: Counter of Graph and local proxy requests by target, strategy, status
//   - upstream_request_duration_seconds: Histogram of upstream request durations
//   - dispatch_strategy_fallbacks_total: Counter of strategy failures that fell through to the next strategy
//
// OAuth Metrics:
//   - oauth_auth_total: Counter of code and form-data exchanges by result
//   - oauth_token_refresh_total: Counter of refresh-token grants by result
//
// Booking Metrics:
//   - room_bookings_total: Counter of booking attempts by status
//   - room_booking_adjustments_total: Counter of end time corrections by reason
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>) and for every
// upstream attempt (graph.sdk, graph.raw, proxy.proxy).
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: roombook)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordUpstreamRequest(ctx, instrumentation.TargetGraph,
//		instrumentation.StrategyRaw, instrumentation.StatusSuccess, time.Since(start))
package instrumentation
