package poke_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/poke"
)

func TestRuntime_Lifecycle(t *testing.T) {
	app := poke.NewComponent("app", poke.WithScopeCache(poke.NewScopeCache("app")))
	repo, err := poke.RegisterType[*Repo](app, "")
	require.NoError(t, err)
	_, err = poke.RegisterType[*Service](app, "")
	require.NoError(t, err)

	rt := poke.NewRuntime(poke.WithComponents(app), quiet())

	_, err = rt.Graph()
	assert.ErrorIs(t, err, poke.ErrRuntimeClosedSentinel)
	assert.Error(t, rt.Inject(&Handler{}))

	require.NoError(t, rt.Init())
	first, err := rt.Graph()
	require.NoError(t, err)

	require.NoError(t, rt.Init())
	second, err := rt.Graph()
	require.NoError(t, err)
	assert.Same(t, first, second)

	a, b := &Handler{}, &Handler{}
	require.NoError(t, rt.Inject(a))
	require.NoError(t, rt.Inject(b))
	require.NoError(t, rt.Inject(b))
	assert.Equal(t, 3, repo.RefCount())

	require.NoError(t, rt.Release(b))
	assert.Equal(t, 2, repo.RefCount())

	require.NoError(t, rt.Close())
	assert.Equal(t, 0, repo.RefCount())
	assert.Equal(t, 0, app.ScopeCache().Len())

	_, err = rt.Graph()
	assert.ErrorIs(t, err, poke.ErrRuntimeClosedSentinel)
	assert.ErrorIs(t, rt.Init(), poke.ErrRuntimeClosedSentinel)
	assert.Error(t, rt.Release(a))
	assert.NoError(t, rt.Close())
}

func TestRuntime_InitError(t *testing.T) {
	rt := poke.NewRuntime(poke.WithConfigFile(filepath.Join(t.TempDir(), "nope.yaml")))

	err := rt.Init()
	assert.True(t, poke.IsInvalidConfig(err))

	_, err = rt.Graph()
	assert.Error(t, err)
	assert.NoError(t, rt.Close())
}

func exportingConfig() poke.Config {
	cfg := poke.DefaultConfig()
	cfg.Tracing.Exporter = "otlp"
	cfg.Tracing.Endpoint = "127.0.0.1:4318"
	cfg.Tracing.Insecure = true

	return cfg
}

func TestNew_RejectsSpanExporter(t *testing.T) {
	_, err := poke.New(poke.WithConfig(exportingConfig()), quiet())
	assert.True(t, poke.IsInvalidConfig(err))
}

func TestRuntime_OwnsSpanExporter(t *testing.T) {
	rt := poke.NewRuntime(poke.WithConfig(exportingConfig()), quiet())

	require.NoError(t, rt.Init())
	_, err := rt.Graph()
	require.NoError(t, err)

	// No spans were recorded, so the exporter shuts down without sending.
	assert.NoError(t, rt.Close())
}
