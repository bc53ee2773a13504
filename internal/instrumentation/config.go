package instrumentation

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	// ServiceName is the otel service name (default: roombook).
	ServiceName    string
	ServiceVersion string

	// ServiceInstanceID defaults to the hostname, which is the pod name in
	// Kubernetes.
	ServiceInstanceID string
	K8sNamespace      string
	K8sPodName        string

	// Enabled turns metrics and tracing on (INSTRUMENTATION_ENABLED).
	Enabled bool

	// MetricsExporter is prometheus, otlp or stdout.
	MetricsExporter string

	// TracingExporter is otlp, stdout or none.
	TracingExporter string

	// OTLPEndpoint is host:port without a scheme, e.g. "localhost:4318".
	OTLPEndpoint string

	// OTLPInsecure disables TLS towards the collector. Development only.
	OTLPInsecure bool

	// TraceSamplingRate is the parent-based ratio, 0.0 to 1.0.
	TraceSamplingRate float64

	// PrometheusEndpoint is the scrape path on the metrics server.
	PrometheusEndpoint string

	// DetailedLabels controls whether high-cardinality labels such as room
	// ids are attached to metrics. Keep it off in production.
	DetailedLabels bool

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludePII logs full room ids instead of their domain only. Route the
	// audit log to restricted storage when this is on.
	IncludePII bool

	// LogLevel is the slog level name used for audit records.
	LogLevel string
}

// Environment variables read by ConfigFromEnv.
const (
	EnvServiceName       = "OTEL_SERVICE_NAME"
	EnvServiceInstanceID = "OTEL_SERVICE_INSTANCE_ID"
	EnvEnabled           = "INSTRUMENTATION_ENABLED"
	EnvMetricsExporter   = "METRICS_EXPORTER"
	EnvTracingExporter   = "TRACING_EXPORTER"
	EnvOTLPEndpoint      = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPInsecure      = "OTEL_EXPORTER_OTLP_INSECURE"
	EnvSamplingRate      = "OTEL_TRACES_SAMPLER_ARG"
	EnvPrometheusPath    = "PROMETHEUS_ENDPOINT"
	EnvDetailedLabels    = "METRICS_DETAILED_LABELS"
	EnvAuditEnabled      = "AUDIT_LOGGING_ENABLED"
	EnvAuditIncludePII   = "AUDIT_LOGGING_INCLUDE_PII"
	EnvAuditLevel        = "AUDIT_LOGGING_LEVEL"
)

// DefaultConfig reads the configuration from the process environment.
func DefaultConfig() Config {
	return ConfigFromEnv(os.Getenv)
}

// ConfigFromEnv builds a Config from getenv, falling back to defaults for
// unset or unparsable values. ServiceVersion is left as "unknown" for the
// caller to fill in.
func ConfigFromEnv(getenv func(string) string) Config {
	env := envSource(getenv)
	return Config{
		ServiceName:        env.str(EnvServiceName, "roombook"),
		ServiceVersion:     "unknown",
		ServiceInstanceID:  env.str(EnvServiceInstanceID, ""),
		K8sNamespace:       env.str("K8S_NAMESPACE", env.str("POD_NAMESPACE", "")),
		K8sPodName:         env.str("K8S_POD_NAME", env.str("HOSTNAME", "")),
		Enabled:            env.boolean(EnvEnabled, true),
		MetricsExporter:    env.str(EnvMetricsExporter, ExporterPrometheus),
		TracingExporter:    env.str(EnvTracingExporter, ExporterNone),
		OTLPEndpoint:       env.str(EnvOTLPEndpoint, ""),
		OTLPInsecure:       env.boolean(EnvOTLPInsecure, false),
		TraceSamplingRate:  env.float(EnvSamplingRate, 0.1),
		PrometheusEndpoint: env.str(EnvPrometheusPath, "/metrics"),
		DetailedLabels:     env.boolean(EnvDetailedLabels, false),
		AuditLogging: AuditLoggingConfig{
			Enabled:    env.boolean(EnvAuditEnabled, true),
			IncludePII: env.boolean(EnvAuditIncludePII, false),
			LogLevel:   env.str(EnvAuditLevel, "info"),
		},
	}
}

// Validate checks exporter names, the sampling rate and that OTLP exporters
// have an endpoint.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}
	switch c.TracingExporter {
	case "", ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	if c.OTLPEndpoint == "" {
		if c.TracingExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required when using OTLP tracing exporter")
		}
		if c.MetricsExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required when using OTLP metrics exporter")
		}
	}
	return nil
}

// envSource reads typed values with defaults.
type envSource func(string) string

func (e envSource) str(key, def string) string {
	if v := e(key); v != "" {
		return v
	}
	return def
}

func (e envSource) boolean(key string, def bool) bool {
	b, err := strconv.ParseBool(e(key))
	if err != nil {
		return def
	}
	return b
}

func (e envSource) float(key string, def float64) float64 {
	f, err := strconv.ParseFloat(e(key), 64)
	if err != nil {
		return def
	}
	return f
}

// Constants for metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	OAuthResultSuccess = "success"
	OAuthResultFailure = "failure"
	OAuthResultExpired = "expired"

	// Upstream targets
	TargetGraph = "graph"
	TargetProxy = "proxy"

	// Dispatch strategies
	StrategySDK   = "sdk"
	StrategyRaw   = "raw"
	StrategyProxy = "proxy"

	// Booking adjustment reasons
	AdjustmentEndBeforeStart = "end_before_start"

	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)
