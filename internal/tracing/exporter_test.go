package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderNone(t *testing.T) {
	for _, exporter := range []string{"", ExporterNone} {
		tp, err := NewProvider(context.Background(), ExporterConfig{Exporter: exporter})
		require.NoError(t, err)
		assert.Nil(t, tp)
	}
}

func TestNewProviderOTLP(t *testing.T) {
	tp, err := NewProvider(context.Background(), ExporterConfig{
		Exporter:    ExporterOTLP,
		Endpoint:    "127.0.0.1:4318",
		Insecure:    true,
		Compression: "gzip",
		Headers:     map[string]string{"x-team": "core"},
		SampleRatio: 0.5,
	})
	require.NoError(t, err)
	require.NotNil(t, tp)

	assert.NotNil(t, NewTracer(tp))

	// Nothing was recorded, so shutdown has nothing to send.
	require.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewProviderErrors(t *testing.T) {
	_, err := NewProvider(context.Background(), ExporterConfig{Exporter: "zipkin"})
	assert.ErrorContains(t, err, "unsupported exporter type")

	_, err = NewProvider(context.Background(), ExporterConfig{Exporter: ExporterOTLP})
	assert.ErrorContains(t, err, "endpoint is required")
}
