package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()

	ConfigureColors(ColorConfig{NoColor: true})

	var out bytes.Buffer
	app := New(Config{Name: "poke", Version: "1.0.0", Description: "test tool", Output: &out, ErrOutput: &out})

	return app, &out
}

func TestAddCommand(t *testing.T) {
	app, _ := newTestApp(t)

	require.NoError(t, app.AddCommand(&Command{Name: "check"}))
	assert.Error(t, app.AddCommand(&Command{Name: "check"}))
	assert.Len(t, app.Commands(), 1)
}

func TestRunSubcommandWithFlags(t *testing.T) {
	app, out := newTestApp(t)

	var file string
	var args []string
	require.NoError(t, app.AddCommand(&Command{
		Name: "config",
		Subcommands: []*Command{{
			Name:    "check",
			Aliases: []string{"validate"},
			Flags: func(fs *pflag.FlagSet) {
				fs.StringVarP(&file, "file", "f", "", "config file")
			},
			Run: func(ctx *Context) error {
				args = ctx.Args
				ctx.Success("checked %s", file)

				return nil
			},
		}},
	}))

	require.NoError(t, app.Run(context.Background(), []string{"config", "validate", "-f", "poke.yaml", "extra"}))
	assert.Equal(t, "poke.yaml", file)
	assert.Equal(t, []string{"extra"}, args)
	assert.Contains(t, out.String(), "✓ checked poke.yaml")
}

func TestRunErrors(t *testing.T) {
	app, _ := newTestApp(t)
	require.NoError(t, app.AddCommand(&Command{
		Name: "fail",
		Run:  func(*Context) error { return errors.New("boom") },
	}))

	err := app.Run(context.Background(), []string{"nope"})
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	err = app.Run(context.Background(), []string{"fail", "--unknown"})
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	err = app.Run(context.Background(), []string{"fail"})
	require.Error(t, err)
	assert.Equal(t, ExitGeneralError, GetExitCode(err))
	assert.Equal(t, "Error: boom", FormatError(err))

	assert.Equal(t, ExitSuccess, GetExitCode(nil))
}

func TestHelpAndVersion(t *testing.T) {
	app, out := newTestApp(t)
	require.NoError(t, app.AddCommand(&Command{Name: "providers", Description: "List providers"}))

	require.NoError(t, app.Run(context.Background(), nil))
	assert.Contains(t, out.String(), "test tool")
	assert.Contains(t, out.String(), "providers")
	assert.Contains(t, out.String(), "List providers")

	out.Reset()
	require.NoError(t, app.Run(context.Background(), []string{"--version"}))
	assert.Equal(t, "poke version 1.0.0\n", out.String())
}

func TestTable(t *testing.T) {
	ConfigureColors(ColorConfig{NoColor: true})

	var out bytes.Buffer
	tbl := NewTable(&out)
	tbl.SetStyle(StyleSimple)
	tbl.SetHeader("KEY", "REFS")
	tbl.SetColumnAlignment(1, AlignRight)
	tbl.AppendRow("*app.Repo", "2")
	tbl.AppendRow("*app.Service@primary", "10")
	tbl.Render()

	expected := "" +
		"+----------------------+------+\n" +
		"| KEY                  | REFS |\n" +
		"+----------------------+------+\n" +
		"| *app.Repo            |    2 |\n" +
		"| *app.Service@primary |   10 |\n" +
		"+----------------------+------+\n"
	assert.Equal(t, expected, out.String())
}

func TestTableTruncates(t *testing.T) {
	var out bytes.Buffer
	tbl := NewTable(&out)
	tbl.SetStyle(StyleCompact)
	tbl.SetMaxColumnWidth(8)
	tbl.AppendRow("abcdefghijklmnop")
	tbl.Render()

	assert.Equal(t, " abcde...\n", out.String())
}

func TestColorize(t *testing.T) {
	ConfigureColors(ColorConfig{ForceColor: true})
	t.Cleanup(func() { color.NoColor = true })

	assert.NotEqual(t, "ok", Colorize(Green, "ok"))
	assert.Equal(t, 2, visualLength(Colorize(Green, "ok")))

	ConfigureColors(ColorConfig{NoColor: true, ForceColor: true})
	assert.Equal(t, "ok", Colorize(Green, "ok"))
}
