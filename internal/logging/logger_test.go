package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel, format string) (*TwigLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(&LoggerConfig{Level: level, Format: format, Output: &buf}), &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
		wantErr  bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestTwigLogger_LevelFiltering(t *testing.T) {
	ctx := context.Background()
	logger, buf := newBufferLogger(LevelWarn, "text")

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, nil, "warn message")
	logger.Error(ctx, errors.New("boom"), "error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
	assert.Contains(t, out, "error=boom")
}

func TestTwigLogger_JSONFields(t *testing.T) {
	ctx := context.Background()
	logger, buf := newBufferLogger(LevelDebug, "json")

	logger.WithComponent("render").
		With("template", "greeting.txt").
		Info(ctx, "rendered", "bytes", 42, 7, "dropped")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "rendered", record["msg"])
	assert.Equal(t, "render", record["component"])
	assert.Equal(t, "greeting.txt", record["template"])
	assert.Equal(t, float64(42), record["bytes"])
	assert.NotContains(t, record, "7")
}

func TestTwigLogger_WithDoesNotMutateParent(t *testing.T) {
	ctx := context.Background()
	logger, buf := newBufferLogger(LevelInfo, "text")

	_ = logger.With("child", true)
	logger.Info(ctx, "parent")

	assert.NotContains(t, buf.String(), "child")
}

func TestTwigLogger_Slog(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo, "text")

	child := logger.WithComponent("cache").With("backend", "memory").(*TwigLogger)
	child.Slog().Warn("cache read failed")

	out := buf.String()
	assert.Contains(t, out, "component=cache")
	assert.Contains(t, out, "backend=memory")
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.Error(context.Background(), errors.New("ignored"), "nothing")
	logger.Slog().Error("still nothing")
}

func TestPerfLogger(t *testing.T) {
	ctx := context.Background()
	logger, buf := newBufferLogger(LevelDebug, "text")

	logger.StartOperation("render").End(ctx, "template", "a.txt")
	logger.StartOperation("flatten").EndWithError(ctx, errors.New("too deep"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "operation=render")
	assert.Contains(t, lines[0], "duration_ms=")
	assert.Contains(t, lines[0], "template=a.txt")
	assert.Contains(t, lines[1], "Operation failed")
	assert.Contains(t, lines[1], `error="too deep"`)
}
