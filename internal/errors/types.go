// Package errors provides the structured error type used across twiglight's
// command line and supporting packages.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeSecurity   ErrorType = "security"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeRender     ErrorType = "render"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeInvalidPath      = "ERR_INVALID_PATH"
	ErrCodePathTraversal    = "ERR_PATH_TRAVERSAL"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeDecodeFailed     = "ERR_DECODE_FAILED"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeInvalidValue     = "ERR_INVALID_VALUE"
	ErrCodeUnresolved       = "ERR_UNRESOLVED_PLACEHOLDER"
	ErrCodeDepthExceeded    = "ERR_DEPTH_EXCEEDED"
	ErrCodeInvalidOrigin    = "ERR_INVALID_ORIGIN"
	ErrCodeInternalError    = "ERR_INTERNAL"
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
)

// TwigError is a structured error type with context.
type TwigError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	FilePath    string
	Line        int
	Recoverable bool
}

// Error implements the error interface.
func (e *TwigError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *TwigError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *TwigError) Is(target error) bool {
	var t *TwigError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *TwigError) WithContext(key string, value interface{}) *TwigError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithFile adds file location information. A line of zero is omitted.
func (e *TwigError) WithFile(filePath string, line int) *TwigError {
	e.FilePath = filePath
	e.Line = line

	return e
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *TwigError {
	return &TwigError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewSecurityError creates a security error.
func NewSecurityError(code, message string) *TwigError {
	return &TwigError{
		Type:        ErrorTypeSecurity,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *TwigError {
	return &TwigError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *TwigError {
	return &TwigError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewRenderError creates a render error.
func NewRenderError(code, message string, cause error) *TwigError {
	return &TwigError{
		Type:        ErrorTypeRender,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *TwigError {
	return &TwigError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// Error recovery and handling utilities

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var te *TwigError
	if errors.As(err, &te) {
		return te.Recoverable
	}

	return false
}

// IsType checks if an error, or any error it wraps, is a TwigError of the
// given type.
func IsType(err error, t ErrorType) bool {
	var te *TwigError
	if errors.As(err, &te) {
		return te.Type == t
	}

	return false
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// ErrorHandler provides centralized error reporting for commands.
type ErrorHandler struct {
	logger Logger
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err at a level matching its type. Recoverable errors are
// warnings.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var te *TwigError
	if !errors.As(err, &te) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	fields := []interface{}{"type", te.Type, "code", te.Code}
	if te.FilePath != "" {
		fields = append(fields, "file", te.FilePath)
	}
	for k, v := range te.Context {
		fields = append(fields, k, v)
	}

	if te.Recoverable {
		h.logger.Warn(ctx, err, "Recoverable error occurred", fields...)
		return
	}
	h.logger.Error(ctx, err, "Error occurred", fields...)
}

// Helper functions for common errors

// ErrPathTraversal creates a path traversal security error.
func ErrPathTraversal(path string) *TwigError {
	return NewSecurityError(ErrCodePathTraversal, "path traversal attempt: "+path)
}

// ErrFileNotFound creates a missing file error.
func ErrFileNotFound(path string, cause error) *TwigError {
	return NewIOError(ErrCodeFileNotFound, "file not found", cause).WithFile(path, 0)
}

// ErrUnresolved creates an error listing placeholders that did not resolve.
func ErrUnresolved(paths []string) *TwigError {
	return NewRenderError(
		ErrCodeUnresolved,
		fmt.Sprintf("%d unresolved placeholder(s): %s", len(paths), strings.Join(paths, ", ")),
		nil,
	).WithContext("placeholders", paths)
}
