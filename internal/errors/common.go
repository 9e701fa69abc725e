package errors

import "fmt"

// ValidationFailed reports a rejected input field
func ValidationFailed(field string, value interface{}, reason string) *ChatdockError {
	return NewWithDetails(ErrValidationFailed, "Validation failed",
		fmt.Sprintf("Field: %s, Value: %v, Reason: %s", field, value, reason))
}

// InvalidPort reports a port outside the TCP range
func InvalidPort(port interface{}, reason string) *ChatdockError {
	return NewWithDetails(ErrInvalidPort, "Invalid port",
		fmt.Sprintf("Port: %v, Reason: %s", port, reason))
}

// ConfigParseError wraps a decoding failure of a settings or launch file
func ConfigParseError(path string, cause error) *ChatdockError {
	e := Wrap(ErrConfigParse, "Failed to parse configuration", cause)
	e.Details = fmt.Sprintf("Path: %s", path)
	return e
}

// PortUnavailable reports a port that could not be probed or published
func PortUnavailable(port int, cause error) *ChatdockError {
	e := Wrap(ErrPortUnavailable, "No usable port", cause)
	e.Details = fmt.Sprintf("Port: %d", port)
	return e
}

// EngineUnavailable reports a missing or unresponsive container engine
func EngineUnavailable(binary string, cause error) *ChatdockError {
	e := Wrap(ErrEngineUnavailable, "Container engine unavailable", cause)
	e.Details = fmt.Sprintf("Engine: %s. Check that it is installed and its daemon is running", binary)
	return e
}

// ArtifactWriteFailed reports a generated file that could not be written
func ArtifactWriteFailed(path string, cause error) *ChatdockError {
	e := Wrap(ErrArtifactWriteFailed, "Failed to write launch artifact", cause)
	e.Details = fmt.Sprintf("Path: %s", path)
	return e
}

// BuildOrRunFailed reports a failed engine step and keeps its output verbatim
func BuildOrRunFailed(step, output string, cause error) *ChatdockError {
	e := Wrap(ErrBuildOrRunFailed, "Container "+step+" failed", cause)
	e.Output = output
	return e
}

// ReadinessTimeout reports a container that never reported running in time
func ReadinessTimeout(name string, polls int, cause error) *ChatdockError {
	e := Wrap(ErrReadinessTimeout, "Service did not become ready", cause)
	e.Details = fmt.Sprintf("Container: %s, Polls: %d. The container was left running for inspection", name, polls)
	return e
}

// Common pre-defined errors
var (
	ErrLaunchInProgressError = New(ErrLaunchInProgress, "a launch is already in progress")
	ErrNotBuiltError         = New(ErrNotBuilt, "no image has been built in this session; run a full launch first")
)
