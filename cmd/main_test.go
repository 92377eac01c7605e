package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	fossil "github.com/fossillogic/fossil-test"
	"github.com/fossillogic/fossil-test/exitcodes"
	"github.com/fossillogic/fossil-test/registry"
	"github.com/fossillogic/fossil-test/types"
)

func TestBundledGroupsRegistered(t *testing.T) {
	assert.Equal(t, []string{"basic", "bench", "fixtures", "marks"}, registry.Default().Names())
}

// TestBundledGroupsPass runs every bundled group through the app and
// expects a clean run.
func TestBundledGroupsPass(t *testing.T) {
	for _, name := range registry.Default().Names() {
		t.Run(name, func(t *testing.T) {
			opts := types.DefaultOptions()
			opts.Color = types.ColorOff
			opts.Repeat = true
			opts.RepeatCount = 3
			cfg := &fossil.Config{
				Options: opts,
				Groups:  []string{name},
				Log:     log.NewLogger(log.DiscardHandler()),
			}

			var out bytes.Buffer
			app, err := fossil.New(cfg, Version, fossil.Deps{Out: &out}, nil)
			require.NoError(t, err)
			require.NoError(t, app.Start(context.Background()), out.String())

			c := app.Environment().Counters
			assert.Zero(t, c.Fail)
			assert.Zero(t, c.Timeout)
			assert.Positive(t, c.Total)
			require.NoError(t, app.Stop(context.Background()))
		})
	}
}

func TestMarksGroupOutcomes(t *testing.T) {
	cfg := &fossil.Config{
		Options: types.DefaultOptions(),
		Groups:  []string{"marks"},
		Log:     log.NewLogger(log.DiscardHandler()),
	}
	cfg.Options.Color = types.ColorOff

	app, err := fossil.New(cfg, Version, fossil.Deps{Out: &bytes.Buffer{}}, nil)
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background()))

	c := app.Environment().Counters
	assert.Equal(t, 2, c.Pass, "expected failure and expected panic pass")
	assert.Equal(t, 2, c.Skip, "skip mark and runtime skip")
}

// runCLI runs the cli app without exiting the process and returns the
// exit code the process would have used.
func runCLI(t *testing.T, args ...string) (int, string) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := runApp(context.Background(), app, append([]string{"fossil-test", "--log.level", "error"}, args...))
	return fossil.ExitCode(err), out.String()
}

func TestCLIExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown group", []string{"--group", "nope"}, exitcodes.RuntimeErr},
		{"invalid repeat", []string{"--repeat", "101"}, exitcodes.RuntimeErr},
		{"unknown format", []string{"--format", "html"}, exitcodes.RuntimeErr},
		{"unknown command", []string{"explode"}, exitcodes.RuntimeErr},
		{"missing config file", []string{"--config", "/nonexistent/fossil.yaml"}, exitcodes.RuntimeErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := runCLI(t, tt.args...)
			assert.Equal(t, tt.want, code, out)
		})
	}
}

func TestCLIHelp(t *testing.T) {
	code, out := runCLI(t, "--help")
	assert.Equal(t, exitcodes.Success, code)
	for _, flag := range []string{"--shuffle", "--repeat", "--format", "--group", "--metrics.enabled", "--log.level"} {
		assert.Contains(t, out, flag)
	}
}

func TestCLIHelpAfterCommands(t *testing.T) {
	code, out := runCLI(t, "reverse", "enable", "--help")
	assert.Equal(t, exitcodes.Success, code)
	assert.Contains(t, out, "--shuffle")
}
