package container

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"chatdock/internal/constants"
)

// ErrorType represents the type of container error
type ErrorType string

const (
	// ErrorTypeRuntimeNotFound indicates the engine CLI or its daemon is not available
	ErrorTypeRuntimeNotFound ErrorType = "runtime_not_found"
	// ErrorTypeContainerNotFound indicates the container was not found
	ErrorTypeContainerNotFound ErrorType = "container_not_found"
	// ErrorTypeImageNotFound indicates the image was not found
	ErrorTypeImageNotFound ErrorType = "image_not_found"
	// ErrorTypePermissionDenied indicates the engine refused the caller
	ErrorTypePermissionDenied ErrorType = "permission_denied"
	// ErrorTypePortConflict indicates the published host port is taken
	ErrorTypePortConflict ErrorType = "port_conflict"
	// ErrorTypeNameConflict indicates another container already uses the name
	ErrorTypeNameConflict ErrorType = "name_conflict"
	// ErrorTypeBuildError indicates the image build itself failed
	ErrorTypeBuildError ErrorType = "build_error"
	// ErrorTypeUnknown indicates an unknown error
	ErrorTypeUnknown ErrorType = "unknown"
)

// ContainerError represents a detailed container operation error
type ContainerError struct {
	Type        ErrorType
	Operation   string
	ContainerID string
	Message     string
	Underlying  error
	Output      string // combined stdout/stderr from the command
}

// Error implements the error interface
func (e *ContainerError) Error() string {
	parts := []string{e.Message}

	if e.ContainerID != "" {
		parts = append(parts, fmt.Sprintf("container=%s", e.ContainerID))
	}

	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("operation=%s", e.Operation))
	}

	if e.Output != "" {
		output := lastLine(e.Output)
		if len(output) > constants.MaxOutputLength {
			output = output[:constants.MaxOutputLength] + "..."
		}
		parts = append(parts, fmt.Sprintf("output=%s", output))
	}

	if e.Underlying != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Underlying))
	}

	return strings.Join(parts, ", ")
}

// Unwrap returns the underlying error
func (e *ContainerError) Unwrap() error {
	return e.Underlying
}

// IsRetryable returns true if the operation might succeed when repeated
// with different parameters
func (e *ContainerError) IsRetryable() bool {
	return e.Type == ErrorTypePortConflict
}

// NewContainerError creates a new ContainerError
func NewContainerError(errType ErrorType, operation string, message string, underlying error) *ContainerError {
	return &ContainerError{
		Type:       errType,
		Operation:  operation,
		Message:    message,
		Underlying: underlying,
	}
}

// TypeOf returns the ContainerError type anywhere in err's chain
func TypeOf(err error) ErrorType {
	var cerr *ContainerError
	if errors.As(err, &cerr) {
		return cerr.Type
	}
	return ""
}

// IsPortConflict reports whether err means the host port could not be published
func IsPortConflict(err error) bool {
	return TypeOf(err) == ErrorTypePortConflict
}

// IsNotFound reports whether err means the container or image does not exist
func IsNotFound(err error) bool {
	t := TypeOf(err)
	return t == ErrorTypeContainerNotFound || t == ErrorTypeImageNotFound
}

// parseEngineError determines the error type from engine output. Both
// docker and podman wordings are recognized.
func parseEngineError(output string, err error) ErrorType {
	if errors.Is(err, exec.ErrNotFound) {
		return ErrorTypeRuntimeNotFound
	}

	outputLower := strings.ToLower(output)
	errStr := ""
	if err != nil {
		errStr = strings.ToLower(err.Error())
	}

	combined := outputLower + " " + errStr

	switch {
	case strings.Contains(combined, "port is already allocated") ||
		strings.Contains(combined, "address already in use"):
		return ErrorTypePortConflict
	case strings.Contains(combined, "is already in use by container") ||
		strings.Contains(combined, "name is already in use"):
		return ErrorTypeNameConflict
	case strings.Contains(combined, "no such container") ||
		strings.Contains(combined, "no container with name or id"):
		return ErrorTypeContainerNotFound
	case strings.Contains(combined, "no such image") ||
		strings.Contains(combined, "image not known") ||
		strings.Contains(combined, "unable to find image") ||
		strings.Contains(combined, "pull access denied"):
		return ErrorTypeImageNotFound
	case strings.Contains(combined, "permission denied"):
		return ErrorTypePermissionDenied
	case strings.Contains(combined, "cannot connect to the docker daemon") ||
		strings.Contains(combined, "is the docker daemon running") ||
		strings.Contains(combined, "command not found"):
		return ErrorTypeRuntimeNotFound
	default:
		return ErrorTypeUnknown
	}
}

func lastLine(output string) string {
	trimmed := strings.TrimSpace(output)
	if i := strings.LastIndex(trimmed, "\n"); i >= 0 {
		return strings.TrimSpace(trimmed[i+1:])
	}
	return trimmed
}
