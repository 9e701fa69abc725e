// Package errors provides typed error definitions for chatdock.
// Every failure of the launch sequence is reported as a ChatdockError so
// callers can tell a transient port problem from a broken engine install.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique identifier for different error types
type ErrorCode string

const (
	// Launch sequence errors
	ErrPortUnavailable     ErrorCode = "PORT_UNAVAILABLE"
	ErrEngineUnavailable   ErrorCode = "ENGINE_UNAVAILABLE"
	ErrArtifactWriteFailed ErrorCode = "ARTIFACT_WRITE_FAILED"
	ErrBuildOrRunFailed    ErrorCode = "BUILD_OR_RUN_FAILED"
	ErrReadinessTimeout    ErrorCode = "READINESS_TIMEOUT"
	ErrLaunchInProgress    ErrorCode = "LAUNCH_IN_PROGRESS"
	ErrNotBuilt            ErrorCode = "NOT_BUILT"

	// Configuration errors
	ErrConfigParse      ErrorCode = "CONFIG_PARSE"
	ErrValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrInvalidPort      ErrorCode = "INVALID_PORT"

	// Database errors
	ErrDatabaseQuery ErrorCode = "DATABASE_QUERY"

	// Internal errors
	ErrInternal  ErrorCode = "INTERNAL_ERROR"
	ErrCancelled ErrorCode = "CANCELLED"
)

// ChatdockError represents a structured error with additional context
type ChatdockError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Output  string                 `json:"output,omitempty"` // captured engine output of the failing step
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *ChatdockError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause error
func (e *ChatdockError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *ChatdockError) WithContext(key string, value interface{}) *ChatdockError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithOutput attaches captured command output
func (e *ChatdockError) WithOutput(output string) *ChatdockError {
	e.Output = output
	return e
}

// Retryable reports whether the launch sequence retries this error on its own.
// Only port allocation problems are; everything else needs the user.
func (e *ChatdockError) Retryable() bool {
	return e.Code == ErrPortUnavailable
}

// GetHTTPStatus returns the appropriate HTTP status code for this error
func (e *ChatdockError) GetHTTPStatus() int {
	switch e.Code {
	case ErrValidationFailed, ErrInvalidPort, ErrConfigParse:
		return http.StatusBadRequest
	case ErrLaunchInProgress, ErrNotBuilt:
		return http.StatusConflict
	case ErrEngineUnavailable, ErrPortUnavailable:
		return http.StatusServiceUnavailable
	case ErrReadinessTimeout:
		return http.StatusGatewayTimeout
	case ErrBuildOrRunFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new ChatdockError
func New(code ErrorCode, message string) *ChatdockError {
	return &ChatdockError{
		Code:    code,
		Message: message,
	}
}

// NewWithDetails creates a new ChatdockError with details
func NewWithDetails(code ErrorCode, message, details string) *ChatdockError {
	return &ChatdockError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Wrap creates a new ChatdockError that wraps an existing error
func Wrap(code ErrorCode, message string, cause error) *ChatdockError {
	return &ChatdockError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// As finds the first ChatdockError in err's chain
func As(err error) (*ChatdockError, bool) {
	var ce *ChatdockError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// GetCode extracts the error code from an error chain, if it carries one
func GetCode(err error) ErrorCode {
	if ce, ok := As(err); ok {
		return ce.Code
	}
	return ""
}

// HasCode checks if an error has a specific error code
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}
