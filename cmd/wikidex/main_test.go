package main

import (
	"context"
	"flag"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestSetupLogger(t *testing.T) {
	runWithLevel := func(level string) error {
		set := flag.NewFlagSet("test", 0)
		set.String("log-level", "", "")
		require.NoError(t, set.Set("log-level", level))
		return setupLogger(cli.NewContext(nil, set, nil))
	}

	t.Run("valid levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "INFO", "Debug"} {
			assert.NoError(t, runWithLevel(level), level)
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		err := runWithLevel("verbose")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("debug enables debug logging", func(t *testing.T) {
		require.NoError(t, runWithLevel("debug"))
		assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
	})
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("short"))
	assert.Equal(t, "a b", snippet("a\nb"))

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}
	got := snippet(string(long))
	assert.Len(t, got, 123)
	assert.Contains(t, got, "...")
}
