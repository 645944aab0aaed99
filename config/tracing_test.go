package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestParseOTLPEndpoint(t *testing.T) {
	tests := []struct {
		raw      string
		hostport string
		path     string
		insecure bool
	}{
		{"http://collector:4318", "collector:4318", "/v1/traces", true},
		{"https://otel.example.com/custom/traces", "otel.example.com", "/custom/traces", false},
		{"collector:4318", "collector:4318", "/v1/traces", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			hostport, path, insecure, err := parseOTLPEndpoint(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.hostport, hostport)
			assert.Equal(t, tt.path, path)
			assert.Equal(t, tt.insecure, insecure)
		})
	}
}

func TestParseOTLPEndpoint_Rejects(t *testing.T) {
	for _, raw := range []string{"", "collector:4318/v1/traces", "grpc://collector:4317", "http://"} {
		_, _, _, err := parseOTLPEndpoint(raw)
		assert.Error(t, err, raw)
	}
}

func TestSetupTracing_DisabledByDefault(t *testing.T) {
	t.Setenv("OTEL_TRACES_ENABLED", "")

	shutdown, err := SetupTracing(quietLogger())
	require.NoError(t, err)
	assert.Nil(t, shutdown)
}

func TestNewTracingConfig(t *testing.T) {
	t.Setenv("OTEL_TRACES_ENABLED", "true")
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")
	t.Setenv(AppEnvKey, "Staging")

	cfg := NewTracingConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "archive-waitlist", cfg.ServiceName)
	assert.Equal(t, 0.25, cfg.SampleRatio)
	assert.Contains(t, cfg.resourceAttributes(), attribute.String("deployment.environment", "staging"))
}
