// Package constants defines application-wide constants to avoid magic numbers
package constants

import "time"

// Container identity
const (
	// DefaultContainerName is the well-known name of the single managed container
	DefaultContainerName = "chatgpt_academic"

	// DefaultImageTag is the tag the service image is built under
	DefaultImageTag = "chatgpt_academic"

	// DefaultEngineBinary is the container engine CLI that is shelled out to
	DefaultEngineBinary = "docker"

	// RunningStatusMarker is the substring of a process-list status that means running
	RunningStatusMarker = "Up"
)

// Upstream application
const (
	// DefaultUpstreamRepository is cloned into the image at build time
	DefaultUpstreamRepository = "https://github.com/binary-husky/chatgpt_academic.git"

	// DefaultBaseImage is the runtime image the Dockerfile starts from
	DefaultBaseImage = "python:3.11"

	// ConfigFileName is the generated runtime configuration artifact
	ConfigFileName = "config.py"

	// BuildFileName is the generated container build descriptor
	BuildFileName = "Dockerfile"
)

// Network and Port Constants
const (
	// DefaultStartPort is where the free port scan begins
	DefaultStartPort = 30000

	// DefaultServerPort is the default port for the chatdock API server
	DefaultServerPort = 8090

	// MinPortNumber is the minimum valid TCP port number
	MinPortNumber = 1

	// MaxPortNumber is the maximum valid TCP port number
	MaxPortNumber = 65535

	// MaxPortReallocations bounds how often a launch re-allocates a port after
	// the engine reports the published port is taken
	MaxPortReallocations = 3
)

// File System Permissions
const (
	// DirPermissions is the standard directory permissions for chatdock directories
	DirPermissions = 0755

	// FilePermissions is the standard file permissions for generated artifacts
	FilePermissions = 0644

	// SecureFilePermissions is used for files containing credentials
	SecureFilePermissions = 0600
)

// Timing and Delays
const (
	// DefaultPollInterval is the delay between readiness queries
	DefaultPollInterval = 5 * time.Second

	// DefaultReadyTimeout bounds how long a launch waits for the container
	DefaultReadyTimeout = 10 * time.Minute

	// DefaultSettleDelay lets the served application finish starting after
	// the engine already reports the container as running
	DefaultSettleDelay = 2 * time.Second

	// DefaultUpstreamLookupTimeout bounds the remote HEAD lookup
	DefaultUpstreamLookupTimeout = 10 * time.Second

	// DefaultUpstreamCacheTTL is how long a resolved upstream HEAD is reused
	DefaultUpstreamCacheTTL = time.Minute
)

// HTTP Configuration
const (
	// DefaultServerReadTimeout is the default server read timeout
	DefaultServerReadTimeout = 10 * time.Second

	// DefaultServerWriteTimeout is the default server write timeout.
	// Launch requests block for the whole build, so this is generous.
	DefaultServerWriteTimeout = 30 * time.Minute

	// DefaultServerShutdownTimeout is the default server graceful shutdown timeout
	DefaultServerShutdownTimeout = 30 * time.Second
)

// Logging and Output Limits
const (
	// MaxErrorMessageLength is the maximum length for error messages before truncation
	MaxErrorMessageLength = 500

	// MaxOutputLength is the maximum length for command output in one-line error strings
	MaxOutputLength = 200

	// DefaultHistoryLimit is how many launches `history` shows by default
	DefaultHistoryLimit = 20
)
