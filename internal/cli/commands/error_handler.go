package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"chatdock/internal/constants"
	"chatdock/internal/container"
	"chatdock/internal/errors"
	"chatdock/internal/logger"
)

// outputTailLines is how much engine output a failed build shows
const outputTailLines = 15

// HandleError turns err into the message shown to the user, with recovery
// suggestions for engine failures
func HandleError(err error, binary string) error {
	if err == nil {
		return nil
	}

	logger.WithError(err).Debug("Command failed")

	var containerErr *container.ContainerError
	if stderrors.As(err, &containerErr) {
		var b strings.Builder
		if ce, ok := errors.As(err); ok && ce.Code != errors.ErrBuildOrRunFailed {
			b.WriteString(ce.Message + ": ")
		}
		b.WriteString(container.NewErrorHandler(binary).GetUserMessage(containerErr))

		// long output is left out of the user message above
		if len(strings.TrimSpace(containerErr.Output)) >= constants.MaxErrorMessageLength {
			b.WriteString("\n\nEngine output (last lines):\n")
			b.WriteString(tail(containerErr.Output, outputTailLines))
		}
		return fmt.Errorf("%s", b.String())
	}

	ce, ok := errors.As(err)
	if !ok {
		return err
	}

	var b strings.Builder
	b.WriteString(ce.Message)
	if ce.Details != "" {
		b.WriteString(": " + ce.Details)
	} else if ce.Cause != nil {
		b.WriteString(": " + ce.Cause.Error())
	}
	if ce.Output != "" {
		b.WriteString("\n\nEngine output (last lines):\n")
		b.WriteString(tail(ce.Output, outputTailLines))
	}

	switch ce.Code {
	case errors.ErrValidationFailed:
		b.WriteString("\n\nTip: Pass --api-key or set api_key in the file given to --config.")
	case errors.ErrNotBuilt:
		b.WriteString("\n\nTip: Run 'chatdock launch' first.")
	case errors.ErrLaunchInProgress:
		b.WriteString("\n\nTip: Wait for the running launch, or check it with 'chatdock status'.")
	case errors.ErrReadinessTimeout:
		b.WriteString("\n\nTip: Inspect the container with '" + binaryOrDefault(binary) + " logs " + constants.DefaultContainerName + "'.")
	case errors.ErrPortUnavailable:
		b.WriteString("\n\nTip: Pick another start port with --port or in the settings file.")
	}

	return fmt.Errorf("%s", b.String())
}

// ExitCode maps err to the process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	if stderrors.Is(err, context.Canceled) {
		return 130
	}

	var containerErr *container.ContainerError
	if stderrors.As(err, &containerErr) {
		switch containerErr.Type {
		case container.ErrorTypeRuntimeNotFound:
			return 127
		case container.ErrorTypePermissionDenied:
			return 126
		case container.ErrorTypeContainerNotFound, container.ErrorTypeImageNotFound:
			return 2
		}
	}

	switch errors.GetCode(err) {
	case errors.ErrValidationFailed, errors.ErrInvalidPort, errors.ErrConfigParse:
		return 2
	case errors.ErrLaunchInProgress, errors.ErrNotBuilt:
		return 3
	case errors.ErrReadinessTimeout:
		return 4
	case errors.ErrCancelled:
		return 130
	}
	return 1
}

// ExitOnError prints err and exits with the matching status
func ExitOnError(err error, binary string) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", HandleError(err, binary))
	os.Exit(ExitCode(err))
}

func tail(output string, n int) string {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func binaryOrDefault(binary string) string {
	if binary == "" {
		return constants.DefaultEngineBinary
	}
	return binary
}
