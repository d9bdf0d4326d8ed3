package cliconfig

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

type testConfig struct {
	Tool    string   `cli:"arg:0" label:"tool name" validate:"required"`
	Rest    []string `cli:"arg:*"`
	Debug   bool     `cli:"debug"`
	Session string   `cli:"session-path"`
}

func testContext(t *testing.T, args []string) *cli.Context {
	t.Helper()

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.Bool("debug", false, "")
	set.String("session-path", "", "")
	require.NoError(t, set.Parse(args))

	app := cli.NewApp()
	app.Name = "vaultrun"
	ctx := cli.NewContext(app, set, nil)
	ctx.Command = cli.Command{Name: "test"}
	return ctx
}

func TestLoaderLoadsFlagsAndArgs(t *testing.T) {
	ctx := testContext(t, []string{"-debug", "-session-path", "/tmp/s.json", "git", "push", "origin"})

	var cfg testConfig
	require.NoError(t, Loader{CLI: ctx, Config: &cfg}.Load())

	assert.Equal(t, "git", cfg.Tool)
	assert.Equal(t, []string{"git", "push", "origin"}, cfg.Rest)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "/tmp/s.json", cfg.Session)
}

func TestLoaderEnforcesRequired(t *testing.T) {
	ctx := testContext(t, nil)

	var cfg testConfig
	err := Loader{CLI: ctx, Config: &cfg}.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing tool name")
	assert.Contains(t, err.Error(), "`vaultrun test --help`")
}
