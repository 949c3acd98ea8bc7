package testing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xraph/poke"
	poketesting "github.com/xraph/poke/testing"
)

type Repo struct{}

type Handler struct {
	Repo *Repo `inject:""`
}

func newApp(t *testing.T) (*poke.Component, *poke.Provider) {
	t.Helper()

	app := poke.NewComponent("app", poke.WithScopeCache(poke.NewScopeCache("app")))
	repo, err := poke.RegisterType[*Repo](app, "")
	require.NoError(t, err)

	return app, repo
}

func TestMustGraphReleasesOnCleanup(t *testing.T) {
	app, repo := newApp(t)

	t.Run("inner", func(t *testing.T) {
		g := poketesting.MustGraph(t, poke.WithComponents(app))
		require.NoError(t, poke.Inject(g, &Handler{}))
		assert.Equal(t, 1, repo.RefCount())
	})

	poketesting.AssertReleased(t, repo)
}

func TestMustInject(t *testing.T) {
	app, repo := newApp(t)
	g := poketesting.MustGraph(t, poke.WithComponents(app))

	t.Run("inner", func(t *testing.T) {
		h := &Handler{}
		poketesting.MustInject(t, g, h)
		assert.NotNil(t, h.Repo)
	})

	assert.True(t, poketesting.AssertReleased(t, repo))
	assert.Equal(t, 0, g.Roots())
}

func TestNewTestGraphWithLogs(t *testing.T) {
	g, logs, err := poketesting.NewTestGraphWithLogs(zapcore.WarnLevel)
	require.NoError(t, err)

	require.NoError(t, poke.Release(g, &Handler{}))
	assert.Equal(t, 1, logs.FilterMessage("release of unknown root").Len())
}

func TestNewTestGraphError(t *testing.T) {
	cfg := poke.DefaultConfig()
	cfg.Marker = ""

	_, err := poketesting.NewTestGraph(poke.WithConfig(cfg))
	assert.True(t, poke.IsInvalidConfig(err))
}
