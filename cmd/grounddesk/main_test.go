package main

import (
	"flag"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestDeskFlags(t *testing.T) {
	flags := deskFlags()

	find := func(name string) cli.Flag {
		for _, f := range flags {
			for _, n := range f.Names() {
				if n == name {
					return f
				}
			}
		}
		return nil
	}

	t.Run("db has default and alias", func(t *testing.T) {
		f, ok := find("db").(*cli.StringFlag)
		require.True(t, ok)
		assert.Equal(t, "grounddesk.db", f.Value)
		assert.Contains(t, f.Aliases, "d")
	})

	t.Run("documents has default", func(t *testing.T) {
		f, ok := find("documents").(*cli.StringFlag)
		require.True(t, ok)
		assert.Equal(t, "documents", f.Value)
	})

	t.Run("vector-dsn reads environment", func(t *testing.T) {
		f, ok := find("vector-dsn").(*cli.StringFlag)
		require.True(t, ok)
		assert.Contains(t, f.EnvVars, "GROUNDDESK_VECTOR_DSN")
	})

	t.Run("api-key reads OPENAI_API_KEY", func(t *testing.T) {
		f, ok := find("api-key").(*cli.StringFlag)
		require.True(t, ok)
		assert.Contains(t, f.EnvVars, "OPENAI_API_KEY")
	})

	t.Run("workers has default", func(t *testing.T) {
		f, ok := find("workers").(*cli.IntFlag)
		require.True(t, ok)
		assert.Equal(t, 4, f.Value)
	})

	t.Run("each call returns fresh flags", func(t *testing.T) {
		other := deskFlags()
		require.Equal(t, len(flags), len(other))
		for i := range flags {
			assert.NotSame(t, flags[i], other[i])
		}
	})
}

func TestParseID(t *testing.T) {
	newContext := func(value string) *cli.Context {
		set := flag.NewFlagSet("test", flag.ContinueOnError)
		set.String("project", "", "")
		require.NoError(t, set.Set("project", value))
		return cli.NewContext(cli.NewApp(), set, nil)
	}

	t.Run("valid UUID", func(t *testing.T) {
		want := uuid.New()
		got, err := parseID(newContext(want.String()), "project")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("invalid UUID", func(t *testing.T) {
		_, err := parseID(newContext("not-a-uuid"), "project")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "project")
	})

	t.Run("empty value", func(t *testing.T) {
		_, err := parseID(newContext(""), "project")
		require.Error(t, err)
	})
}

func TestSetupLogger(t *testing.T) {
	newApp := func() *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}
	}

	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				err := newApp().Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				err := newApp().Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newApp().Run([]string{"test", "--log-level", "loud"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
		assert.Contains(t, err.Error(), "loud")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		err := newApp().Run([]string{"test", "-l", "debug"})
		require.NoError(t, err)
	})
}
