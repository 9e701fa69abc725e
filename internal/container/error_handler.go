package container

import (
	"errors"
	"strings"

	"chatdock/internal/constants"
)

// ErrorHandler provides user-friendly error messages and recovery suggestions
type ErrorHandler struct {
	binary string
}

// NewErrorHandler creates a new error handler for the given engine binary
func NewErrorHandler(binary string) *ErrorHandler {
	if binary == "" {
		binary = constants.DefaultEngineBinary
	}
	return &ErrorHandler{binary: binary}
}

// GetUserMessage returns a user-friendly error message with recovery suggestions
func (h *ErrorHandler) GetUserMessage(err error) string {
	var containerErr *ContainerError
	if !errors.As(err, &containerErr) {
		return err.Error()
	}

	var message strings.Builder
	message.WriteString(containerErr.Message)

	switch containerErr.Type {
	case ErrorTypeRuntimeNotFound:
		message.WriteString("\n\nPossible solutions:")
		message.WriteString("\n• Ensure Docker is installed: https://docs.docker.com/get-docker/")
		message.WriteString("\n• Check if the daemon is running: '" + h.binary + " ps'")
		message.WriteString("\n• On macOS, ensure Docker Desktop is running")

	case ErrorTypeImageNotFound:
		message.WriteString("\n\nThe service image is missing. Possible solutions:")
		message.WriteString("\n• Run a full launch to build it: 'chatdock launch'")
		message.WriteString("\n• Check the base image name in your settings")

	case ErrorTypePermissionDenied:
		message.WriteString("\n\nPossible solutions:")
		message.WriteString("\n• Add your user to the docker group: 'sudo usermod -aG docker $USER'")
		message.WriteString("\n• Log out and back in for group changes to take effect")

	case ErrorTypePortConflict:
		message.WriteString("\n\nPort conflict detected. Possible solutions:")
		message.WriteString("\n• Find the container using the port: '" + h.binary + " ps'")
		message.WriteString("\n• Launch again without --port to pick a free one")

	case ErrorTypeNameConflict:
		message.WriteString("\n\nA container with the same name exists. Possible solutions:")
		message.WriteString("\n• Remove it: 'chatdock stop' or 'chatdock reset'")

	case ErrorTypeBuildError:
		message.WriteString("\n\nThe image build failed. Possible solutions:")
		message.WriteString("\n• Check network access to the upstream repository and package index")
		message.WriteString("\n• Set a pip mirror in config.toml under [upstream]")

	case ErrorTypeContainerNotFound:
		message.WriteString("\n\nContainer not found. It may have exited or been removed")
		message.WriteString("\n• List all containers: '" + h.binary + " ps -a'")
	}

	if containerErr.Output != "" && containerErr.Type != ErrorTypeUnknown {
		cleaned := strings.TrimSpace(containerErr.Output)
		if len(cleaned) > 0 && len(cleaned) < constants.MaxErrorMessageLength {
			message.WriteString("\n\nEngine output:\n")
			message.WriteString(cleaned)
		}
	}

	return message.String()
}

// IsRecoverable returns true if the error might be resolved by user action
func (h *ErrorHandler) IsRecoverable(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeRuntimeNotFound, ErrorTypeImageNotFound,
		ErrorTypePermissionDenied, ErrorTypePortConflict,
		ErrorTypeNameConflict:
		return true
	default:
		return false
	}
}
