package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pokeerrors "github.com/xraph/poke/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "inject", cfg.Marker)
	assert.Equal(t, SearchFirstMatch, cfg.SearchPolicy)
	assert.Equal(t, "poke", cfg.Metrics.Namespace)
	assert.False(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.Tracing.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestParse(t *testing.T) {
	data := []byte(`
marker: wire
search_policy: strict
logging:
  level: debug
  format: json
metrics:
  enabled: true
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "wire", cfg.Marker)
	assert.Equal(t, SearchStrict, cfg.SearchPolicy)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "development", cfg.Logging.Environment)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "poke", cfg.Metrics.Namespace)
}

func TestParseTracing(t *testing.T) {
	cfg, err := Parse([]byte(`
tracing:
  exporter: otlp
  endpoint: collector:4318
  insecure: true
  headers:
    x-team: core
  sample_ratio: 0.25
`))
	require.NoError(t, err)

	assert.True(t, cfg.Tracing.Exports())
	assert.Equal(t, "poke", cfg.Tracing.ServiceName)

	exp := cfg.Tracing.ExporterConfig()
	assert.Equal(t, "collector:4318", exp.Endpoint)
	assert.True(t, exp.Insecure)
	assert.Equal(t, map[string]string{"x-team": "core"}, exp.Headers)
	assert.InDelta(t, 0.25, exp.SampleRatio, 1e-9)

	cfg.Tracing.Enabled = false
	assert.False(t, cfg.Tracing.Exports())
	assert.False(t, Default().Tracing.Exports())
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse([]byte("  \n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown key", "markr: inject\n"},
		{"malformed", "marker: [unterminated\n"},
		{"empty marker", "marker: \"\"\n"},
		{"unknown policy", "search_policy: last-match\n"},
		{"unknown level", "logging:\n  level: trace\n"},
		{"unknown format", "logging:\n  format: xml\n"},
		{"metrics without namespace", "metrics:\n  enabled: true\n  namespace: \"\"\n"},
		{"unknown exporter", "tracing:\n  exporter: zipkin\n"},
		{"otlp without endpoint", "tracing:\n  exporter: otlp\n"},
		{"unknown compression", "tracing:\n  compression: zstd\n"},
		{"sample ratio", "tracing:\n  sample_ratio: 1.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, pokeerrors.IsInvalidConfig(err))
		})
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.yaml")
	local := filepath.Join(dir, "local.yaml")

	require.NoError(t, os.WriteFile(base, []byte("marker: wire\nsearch_policy: strict\n"), 0o600))
	require.NoError(t, os.WriteFile(local, []byte("search_policy: first-match\n"), 0o600))

	cfg, err := Load(base, local)
	require.NoError(t, err)

	assert.Equal(t, "wire", cfg.Marker)
	assert.Equal(t, SearchFirstMatch, cfg.SearchPolicy)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, pokeerrors.IsInvalidConfig(err))
}

func TestDiscover(t *testing.T) {
	t.Run("NoFiles", func(t *testing.T) {
		cfg, err := Discover(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("LocalOverridesBase", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("marker: wire\n"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, LocalFileName), []byte("marker: local\n"), 0o600))

		cfg, err := Discover(dir)
		require.NoError(t, err)
		assert.Equal(t, "local", cfg.Marker)
	})

	t.Run("LocalOnly", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, LocalFileName), []byte("search_policy: strict\n"), 0o600))

		cfg, err := Discover(dir)
		require.NoError(t, err)
		assert.Equal(t, SearchStrict, cfg.SearchPolicy)
		assert.Equal(t, "inject", cfg.Marker)
	})
}
