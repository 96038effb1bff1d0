package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwigError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *TwigError
		expected string
	}{
		{
			name:     "message only",
			err:      &TwigError{Message: "boom"},
			expected: "boom",
		},
		{
			name:     "code and message",
			err:      NewValidationError(ErrCodeInvalidValue, "bad value"),
			expected: "[ERR_INVALID_VALUE] bad value",
		},
		{
			name:     "file and line",
			err:      NewValidationError(ErrCodeDecodeFailed, "unexpected key").WithFile("values.yml", 3),
			expected: "[ERR_DECODE_FAILED] values.yml:3 unexpected key",
		},
		{
			name:     "with cause",
			err:      NewIOError(ErrCodeFileNotFound, "file not found", errors.New("no such file")),
			expected: "[ERR_FILE_NOT_FOUND] file not found: no such file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestTwigError_WrappingAndIs(t *testing.T) {
	cause := errors.New("permission denied")
	err := fmt.Errorf("loading values: %w", NewIOError(ErrCodeFileNotFound, "file not found", cause))

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, &TwigError{Type: ErrorTypeIO, Code: ErrCodeFileNotFound})
	assert.NotErrorIs(t, err, &TwigError{Type: ErrorTypeIO, Code: ErrCodeDecodeFailed})

	assert.True(t, IsType(err, ErrorTypeIO))
	assert.False(t, IsType(err, ErrorTypeConfig))
	assert.False(t, IsType(cause, ErrorTypeIO))
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(NewValidationError("X", "x")))
	assert.True(t, IsRecoverable(NewRenderError("X", "x", nil)))
	assert.False(t, IsRecoverable(NewSecurityError("X", "x")))
	assert.False(t, IsRecoverable(NewConfigError("X", "x")))
	assert.False(t, IsRecoverable(NewInternalError("X", "x", nil)))
	assert.False(t, IsRecoverable(errors.New("plain")))
}

func TestErrUnresolved(t *testing.T) {
	err := ErrUnresolved([]string{"a", "b.c"})

	assert.Equal(t, ErrorTypeRender, err.Type)
	assert.Equal(t, "[ERR_UNRESOLVED_PLACEHOLDER] 2 unresolved placeholder(s): a, b.c", err.Error())
	assert.Equal(t, []string{"a", "b.c"}, err.Context["placeholders"])
}

func TestErrPathTraversal(t *testing.T) {
	err := ErrPathTraversal("../etc/passwd")
	assert.Equal(t, ErrorTypeSecurity, err.Type)
	assert.Contains(t, err.Error(), "../etc/passwd")
}

type capturingLogger struct {
	level  string
	msg    string
	fields []interface{}
}

func (l *capturingLogger) Error(_ context.Context, _ error, msg string, fields ...interface{}) {
	l.level, l.msg, l.fields = "error", msg, fields
}

func (l *capturingLogger) Warn(_ context.Context, _ error, msg string, fields ...interface{}) {
	l.level, l.msg, l.fields = "warn", msg, fields
}

func TestErrorHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("recoverable errors are warnings", func(t *testing.T) {
		logger := &capturingLogger{}
		NewErrorHandler(logger).Handle(ctx, NewValidationError(ErrCodeInvalidValue, "bad").WithFile("v.yml", 0))

		assert.Equal(t, "warn", logger.level)
		assert.Contains(t, logger.fields, "file")
		assert.Contains(t, logger.fields, "v.yml")
	})

	t.Run("fatal errors are errors", func(t *testing.T) {
		logger := &capturingLogger{}
		NewErrorHandler(logger).Handle(ctx, NewConfigError(ErrCodeConfigInvalid, "bad config"))
		assert.Equal(t, "error", logger.level)
	})

	t.Run("plain errors", func(t *testing.T) {
		logger := &capturingLogger{}
		NewErrorHandler(logger).Handle(ctx, errors.New("plain"))
		assert.Equal(t, "Unhandled error occurred", logger.msg)
	})

	t.Run("nil error is ignored", func(t *testing.T) {
		logger := &capturingLogger{}
		NewErrorHandler(logger).Handle(ctx, nil)
		require.Empty(t, logger.level)
	})
}
