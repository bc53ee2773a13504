package instrumentation

import (
	"context"
	"log/slog"
	"time"
)

// ToolInvocation is the audit record of one MCP tool call.
//
// Exchange room ids are usually room mailbox addresses, so unless the audit
// logger includes PII only the mailbox domain is written.
type ToolInvocation struct {
	Tool      string
	Target    string // graph or proxy, empty for local tools
	Operation string
	RoomID    string

	Start    time.Time
	Duration time.Duration
	Success  bool
	Error    string

	TraceID string
	SpanID  string
}

// StartToolInvocation opens a record for tool and picks up the trace
// context of ctx.
func StartToolInvocation(ctx context.Context, tool, target, operation, roomID string) *ToolInvocation {
	ti := &ToolInvocation{
		Tool:      tool,
		Target:    target,
		Operation: operation,
		RoomID:    roomID,
		Start:     time.Now(),
	}
	ti.TraceID, ti.SpanID = TraceContext(ctx)
	return ti
}

// Finish closes the record. A nil err with failed set covers tools that
// report failure in their result rather than as a Go error.
func (ti *ToolInvocation) Finish(failed bool, err error) {
	ti.Duration = time.Since(ti.Start)
	ti.Success = !failed && err == nil
	if err != nil {
		ti.Error = err.Error()
	}
}

// Status returns the metric status label for the record.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// RoomDomain returns the domain of the room mailbox.
func (ti *ToolInvocation) RoomDomain() string {
	return ExtractDomain(ti.RoomID)
}

// attrs renders the record. Without full, the room id is reduced to its
// domain and the span id is dropped.
func (ti *ToolInvocation) attrs(full bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	add := func(key, value string) {
		if value != "" {
			attrs = append(attrs, slog.String(key, value))
		}
	}

	if ti.RoomID != "" {
		if full {
			add("room_id", ti.RoomID)
		} else {
			add("room_domain", ti.RoomDomain())
		}
	}
	add("target", ti.Target)
	add("operation", ti.Operation)
	add("trace_id", ti.TraceID)
	if full {
		add("span_id", ti.SpanID)
	}
	add("error", ti.Error)
	return attrs
}

// AuditLogger writes tool invocations to a slog.Logger. A nil *AuditLogger
// is valid and logs nothing.
type AuditLogger struct {
	logger     *slog.Logger
	level      slog.Level
	includePII bool
	enabled    bool
}

// NewAuditLogger builds an audit logger from config. Successful calls are
// logged at config.LogLevel (info when unset or unknown); failures are
// never logged below warn.
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(config.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	return &AuditLogger{
		logger:     logger,
		level:      level,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// Log writes one record: "tool_executed" on success, "tool_failed" on
// failure.
func (al *AuditLogger) Log(ctx context.Context, ti *ToolInvocation) {
	if al == nil || !al.enabled || ti == nil {
		return
	}

	msg, level := "tool_executed", al.level
	if !ti.Success {
		msg, level = "tool_failed", max(al.level, slog.LevelWarn)
	}
	al.logger.LogAttrs(ctx, level, msg, ti.attrs(al.includePII)...)
}
