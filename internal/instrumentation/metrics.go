package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric label keys.
const (
	labelMethod   = attribute.Key("method")
	labelPath     = attribute.Key("path")
	labelStatus   = attribute.Key("status")
	labelTarget   = attribute.Key("target")
	labelStrategy = attribute.Key("strategy")
	labelResult   = attribute.Key("result")
	labelTool     = attribute.Key("tool")
	labelRoom     = attribute.Key("room")
	labelReason   = attribute.Key("reason")
)

var (
	fastBuckets     = []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10}
	upstreamBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
)

// Metrics records roombook metrics. All methods are safe on a nil *Metrics
// and on a zero Metrics, which is what a disabled Provider hands out.
type Metrics struct {
	httpRequests   metric.Int64Counter
	httpDuration   metric.Float64Histogram
	activeSessions metric.Int64UpDownCounter

	upstreamRequests  metric.Int64Counter
	upstreamDuration  metric.Float64Histogram
	strategyFallbacks metric.Int64Counter

	oauthAuth    metric.Int64Counter
	oauthRefresh metric.Int64Counter

	bookings           metric.Int64Counter
	bookingAdjustments metric.Int64Counter

	toolInvocations metric.Int64Counter
	toolDuration    metric.Float64Histogram

	// detailedLabels adds room ids to booking metrics.
	detailedLabels bool
}

// instruments creates instruments on a meter and keeps the first error.
type instruments struct {
	meter metric.Meter
	err   error
}

func (b *instruments) counter(name, desc, unit string) metric.Int64Counter {
	if b.err != nil {
		return nil
	}
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		b.err = fmt.Errorf("failed to create %s: %w", name, err)
	}
	return c
}

func (b *instruments) gauge(name, desc, unit string) metric.Int64UpDownCounter {
	if b.err != nil {
		return nil
	}
	g, err := b.meter.Int64UpDownCounter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		b.err = fmt.Errorf("failed to create %s: %w", name, err)
	}
	return g
}

func (b *instruments) seconds(name, desc string, buckets []float64) metric.Float64Histogram {
	if b.err != nil {
		return nil
	}
	h, err := b.meter.Float64Histogram(name,
		metric.WithDescription(desc),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(buckets...),
	)
	if err != nil {
		b.err = fmt.Errorf("failed to create %s: %w", name, err)
	}
	return h
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	b := &instruments{meter: meter}
	m := &Metrics{
		httpRequests:   b.counter("http_requests_total", "HTTP requests served", "{request}"),
		httpDuration:   b.seconds("http_request_duration_seconds", "HTTP request duration", fastBuckets),
		activeSessions: b.gauge("active_sessions", "Open MCP sessions", "{session}"),

		upstreamRequests: b.counter("upstream_requests_total",
			"Requests issued to Microsoft Graph or the Exchange proxy", "{request}"),
		upstreamDuration: b.seconds("upstream_request_duration_seconds",
			"Upstream request duration", upstreamBuckets),
		strategyFallbacks: b.counter("dispatch_strategy_fallbacks_total",
			"Dispatch strategies that failed before the next one was tried", "{fallback}"),

		oauthAuth:    b.counter("oauth_auth_total", "OAuth authorization attempts", "{attempt}"),
		oauthRefresh: b.counter("oauth_token_refresh_total", "OAuth token refresh attempts", "{attempt}"),

		bookings: b.counter("room_bookings_total", "Room booking attempts", "{booking}"),
		bookingAdjustments: b.counter("room_booking_adjustments_total",
			"Bookings whose end time was corrected", "{booking}"),

		toolInvocations: b.counter("mcp_tool_invocations_total", "MCP tool invocations", "{invocation}"),
		toolDuration:    b.seconds("mcp_tool_duration_seconds", "MCP tool duration", upstreamBuckets),

		detailedLabels: detailedLabels,
	}
	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

func count(ctx context.Context, c metric.Int64Counter, attrs ...attribute.KeyValue) {
	if c != nil {
		c.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func observe(ctx context.Context, h metric.Float64Histogram, d time.Duration, attrs ...attribute.KeyValue) {
	if h != nil {
		h.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
	}
}

// RecordHTTPRequest records one request served by the HTTP transport.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		labelMethod.String(method),
		labelPath.String(path),
		labelStatus.String(strconv.Itoa(statusCode)),
	}
	count(ctx, m.httpRequests, attrs...)
	observe(ctx, m.httpDuration, duration, attrs...)
}

// RecordUpstreamRequest records one attempt against TargetGraph or
// TargetProxy with the strategy that issued it.
func (m *Metrics) RecordUpstreamRequest(ctx context.Context, target, strategy, status string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		labelTarget.String(target),
		labelStrategy.String(strategy),
		labelStatus.String(status),
	}
	count(ctx, m.upstreamRequests, attrs...)
	observe(ctx, m.upstreamDuration, duration, attrs...)
}

// RecordStrategyFallback records that strategy failed and dispatch moved on.
func (m *Metrics) RecordStrategyFallback(ctx context.Context, strategy string) {
	if m == nil {
		return
	}
	count(ctx, m.strategyFallbacks, labelStrategy.String(strategy))
}

// RecordOAuthAuth records an authorization step with an OAuthResult* value.
func (m *Metrics) RecordOAuthAuth(ctx context.Context, result string) {
	if m == nil {
		return
	}
	count(ctx, m.oauthAuth, labelResult.String(result))
}

// RecordOAuthTokenRefresh records a refresh with an OAuthResult* value.
func (m *Metrics) RecordOAuthTokenRefresh(ctx context.Context, result string) {
	if m == nil {
		return
	}
	count(ctx, m.oauthRefresh, labelResult.String(result))
}

// RecordBooking records a booking attempt. The room label is only attached
// with detailed labels.
func (m *Metrics) RecordBooking(ctx context.Context, roomID, status string) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{labelStatus.String(status)}
	if m.detailedLabels && roomID != "" {
		attrs = append(attrs, labelRoom.String(roomID))
	}
	count(ctx, m.bookings, attrs...)
}

// RecordBookingAdjustment records an end time correction.
func (m *Metrics) RecordBookingAdjustment(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	count(ctx, m.bookingAdjustments, labelReason.String(reason))
}

// RecordToolInvocation records one MCP tool call.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		labelTool.String(toolName),
		labelStatus.String(status),
	}
	count(ctx, m.toolInvocations, attrs...)
	observe(ctx, m.toolDuration, duration, attrs...)
}

// IncrementActiveSessions is called when an MCP session registers.
func (m *Metrics) IncrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, 1)
}

// DecrementActiveSessions is called when an MCP session ends.
func (m *Metrics) DecrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, -1)
}
