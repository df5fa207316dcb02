package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitialize_Disabled(t *testing.T) {
	cfg := DefaultConfig("scheduler-test")
	cfg.Enabled = false

	tp, err := Initialize(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, tp.Tracer())
	assert.NoError(t, tp.Shutdown(context.Background()))

	fields := otel.GetTextMapPropagator().Fields()
	assert.Contains(t, fields, "traceparent")
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}

var _ propagation.TextMapPropagator = otel.GetTextMapPropagator()

func TestServiceAttributes(t *testing.T) {
	cfg := DefaultConfig("scheduler-test")
	cfg.Environment = "staging"

	got := map[string]string{}
	for _, kv := range serviceAttributes(cfg) {
		got[string(kv.Key)] = kv.Value.AsString()
	}

	assert.Equal(t, "scheduler-test", got["service.name"])
	assert.Equal(t, "wms", got["service.namespace"])
	assert.Equal(t, "staging", got["deployment.environment"])
}
