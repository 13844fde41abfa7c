package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestFromConfig(t *testing.T) {
	l := FromConfig("debug", "json")
	assert.True(t, l.Enabled(context.Background(), slog.LevelDebug))
	_, isJSON := l.Handler().(*slog.JSONHandler)
	assert.True(t, isJSON)

	l = FromConfig("warn", "text")
	assert.False(t, l.Enabled(context.Background(), slog.LevelInfo))
	_, isText := l.Handler().(*slog.TextHandler)
	assert.True(t, isText)
}
