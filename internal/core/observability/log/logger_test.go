package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLoggerFieldsAndLevel(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core), LevelInfo)

	l.Debug("dropped")
	l.Info("tick",
		Int("ticks", 3),
		Float64("elapsed", 0.15),
		Duration("budget", time.Minute),
		Bool("done", false),
		Error(errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "tick", entry.Message)
	ctx := entry.ContextMap()
	assert.EqualValues(t, 3, ctx["ticks"])
	assert.Equal(t, 0.15, ctx["elapsed"])
	assert.Equal(t, "boom", ctx["error"])

	l.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, l.GetLevel())
	l.Debug("kept")
	assert.Equal(t, 2, logs.Len())
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := FromZap(zap.New(core), LevelInfo).With(String("vehicle", "a"))
	l.Warn("off track")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "a", logs.All()[0].ContextMap()["vehicle"])
}
