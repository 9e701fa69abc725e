// Package xdg provides XDG Base Directory Specification compliant paths
package xdg

import (
	"os"
	"path/filepath"
)

const appDir = "chatdock"

// ConfigDir returns the XDG config directory for chatdock
// Priority: XDG_CONFIG_HOME > ~/.config/chatdock
func ConfigDir() (string, error) {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appDir), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", appDir), nil
}

// DataDir returns the XDG data directory for chatdock
// Priority: XDG_DATA_HOME > ~/.local/share/chatdock
func DataDir() (string, error) {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, appDir), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "share", appDir), nil
}

// StateDir returns the XDG state directory for chatdock
// Priority: XDG_STATE_HOME > ~/.local/state/chatdock
func StateDir() (string, error) {
	if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
		return filepath.Join(xdgState, appDir), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "state", appDir), nil
}

// BuildDir returns the directory the generated config.py and Dockerfile are
// written to. It lives under the data directory so it survives restarts.
func BuildDir() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "build"), nil
}
