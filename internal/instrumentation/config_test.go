package instrumentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapEnv(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	config := ConfigFromEnv(mapEnv(nil))

	assert.Equal(t, "roombook", config.ServiceName)
	assert.Equal(t, "unknown", config.ServiceVersion)
	assert.True(t, config.Enabled)
	assert.Equal(t, ExporterPrometheus, config.MetricsExporter)
	assert.Equal(t, ExporterNone, config.TracingExporter)
	assert.Equal(t, 0.1, config.TraceSamplingRate)
	assert.Equal(t, "/metrics", config.PrometheusEndpoint)
	assert.False(t, config.DetailedLabels)
	assert.True(t, config.AuditLogging.Enabled)
	assert.False(t, config.AuditLogging.IncludePII)
	assert.NoError(t, config.Validate())
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	config := ConfigFromEnv(mapEnv(map[string]string{
		EnvServiceName:     "roombook-staging",
		EnvEnabled:         "false",
		EnvMetricsExporter: ExporterStdout,
		EnvTracingExporter: ExporterOTLP,
		EnvOTLPEndpoint:    "collector:4318",
		EnvSamplingRate:    "0.5",
		EnvDetailedLabels:  "true",
		EnvAuditIncludePII: "1",
		"POD_NAMESPACE":    "rooms",
		"HOSTNAME":         "roombook-7d9f",
		EnvPrometheusPath:  "/internal/metrics",
		EnvAuditLevel:      "debug",
	}))

	assert.Equal(t, "roombook-staging", config.ServiceName)
	assert.False(t, config.Enabled)
	assert.Equal(t, ExporterStdout, config.MetricsExporter)
	assert.Equal(t, ExporterOTLP, config.TracingExporter)
	assert.Equal(t, "collector:4318", config.OTLPEndpoint)
	assert.Equal(t, 0.5, config.TraceSamplingRate)
	assert.True(t, config.DetailedLabels)
	assert.True(t, config.AuditLogging.IncludePII)
	assert.Equal(t, "debug", config.AuditLogging.LogLevel)
	assert.Equal(t, "rooms", config.K8sNamespace)
	assert.Equal(t, "roombook-7d9f", config.K8sPodName)
	assert.Equal(t, "/internal/metrics", config.PrometheusEndpoint)
}

func TestConfigFromEnv_UnparsableValuesUseDefaults(t *testing.T) {
	config := ConfigFromEnv(mapEnv(map[string]string{
		EnvEnabled:      "sometimes",
		EnvSamplingRate: "half",
	}))

	assert.True(t, config.Enabled)
	assert.Equal(t, 0.1, config.TraceSamplingRate)
}

func TestDefaultConfig_ReadsProcessEnv(t *testing.T) {
	t.Setenv(EnvServiceName, "from-process-env")
	assert.Equal(t, "from-process-env", DefaultConfig().ServiceName)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		errContains string
	}{
		{
			name:   "prometheus without tracing",
			config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone},
		},
		{
			name:   "otlp tracing with endpoint",
			config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterOTLP, OTLPEndpoint: "localhost:4318"},
		},
		{
			name:   "empty exporters",
			config: Config{},
		},
		{
			name:        "negative sampling rate",
			config:      Config{TraceSamplingRate: -0.5},
			errContains: "sampling rate",
		},
		{
			name:        "sampling rate above one",
			config:      Config{TraceSamplingRate: 1.5},
			errContains: "sampling rate",
		},
		{
			name:        "unknown metrics exporter",
			config:      Config{MetricsExporter: "graphite"},
			errContains: "invalid metrics exporter",
		},
		{
			name:        "unknown tracing exporter",
			config:      Config{TracingExporter: "jaeger"},
			errContains: "invalid tracing exporter",
		},
		{
			name:        "otlp tracing without endpoint",
			config:      Config{TracingExporter: ExporterOTLP},
			errContains: "OTLP tracing exporter",
		},
		{
			name:        "otlp metrics without endpoint",
			config:      Config{MetricsExporter: ExporterOTLP},
			errContains: "OTLP metrics exporter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}
