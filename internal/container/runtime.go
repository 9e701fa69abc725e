package container

import (
	"context"
	"strings"

	"chatdock/internal/constants"
)

// ProcessInfo is one line of the engine's process list
type ProcessInfo struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Ports  string `json:"ports"`
}

// Running reports whether the status reads as running
func (p ProcessInfo) Running() bool {
	return strings.Contains(p.Status, constants.RunningStatusMarker)
}

// Runtime is the set of engine operations the launch sequence drives.
// *Launcher implements it; tests substitute a mock.
type Runtime interface {
	// CheckEngine verifies the engine answers a version query and returns it
	CheckEngine(ctx context.Context) (string, error)

	// BuildImage builds the service image from the artifacts in dir
	BuildImage(ctx context.Context, dir string) error

	// Run replaces any existing container and starts a new one
	Run(ctx context.Context, binding PortBinding) error

	// Stop stops the container; a missing container is not an error
	Stop(ctx context.Context) error

	// Reset stops and removes the container and removes the image
	Reset(ctx context.Context) error

	// List returns the engine's process list
	List(ctx context.Context) ([]ProcessInfo, error)
}

// ParseProcessList parses `ps --format` output written with PSFormat.
// Lines without a status column are skipped.
func ParseProcessList(output string) []ProcessInfo {
	var infos []ProcessInfo
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "::", 3)
		if len(parts) < 2 {
			continue
		}
		info := ProcessInfo{Name: parts[0], Status: parts[1]}
		if len(parts) == 3 {
			info.Ports = parts[2]
		}
		infos = append(infos, info)
	}
	return infos
}

// Find returns the entry for the named container
func Find(infos []ProcessInfo, name string) (ProcessInfo, bool) {
	for _, info := range infos {
		if info.Name == name {
			return info, true
		}
	}
	return ProcessInfo{}, false
}
