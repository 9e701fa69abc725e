package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chatdock/internal/artifact"
	"chatdock/internal/constants"
	"chatdock/internal/errors"
	"chatdock/internal/validation"
	"chatdock/internal/xdg"

	"github.com/pelletier/go-toml/v2"
)

// GlobalConfig represents the launcher settings stored in config.toml
type GlobalConfig struct {
	Engine   EngineConfig   `toml:"engine"`
	Launch   LaunchSettings `toml:"launch"`
	Upstream UpstreamConfig `toml:"upstream"`
	Storage  StorageConfig  `toml:"storage"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// EngineConfig selects the container engine CLI and the managed names
type EngineConfig struct {
	Binary        string `toml:"binary"`         // docker or a compatible CLI such as podman
	ContainerName string `toml:"container_name"` // single well-known container
	Image         string `toml:"image"`          // tag the service image is built as
}

// LaunchSettings tunes the bootstrap sequence
type LaunchSettings struct {
	StartPort           int  `toml:"start_port"`
	PollIntervalMs      int  `toml:"poll_interval_ms"`
	ReadyTimeoutSeconds int  `toml:"ready_timeout_seconds"` // 0 waits forever
	SettleDelayMs       int  `toml:"settle_delay_ms"`
	StopOnExit          bool `toml:"stop_on_exit"`
}

// UpstreamConfig describes what the Dockerfile clones and builds on
type UpstreamConfig struct {
	Repository  string `toml:"repository"`
	BaseImage   string `toml:"base_image"`
	PipIndexURL string `toml:"pip_index_url"`
	Track       bool   `toml:"track"` // record and compare the upstream HEAD
}

// StorageConfig locates generated artifacts and the state database
type StorageConfig struct {
	BuildDir string `toml:"build_dir"`
	Database string `toml:"database"`
}

// ServerConfig configures `chatdock serve`
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig configures logrus
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultGlobalConfig returns the default launcher settings
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Engine: EngineConfig{
			Binary:        constants.DefaultEngineBinary,
			ContainerName: constants.DefaultContainerName,
			Image:         constants.DefaultImageTag,
		},
		Launch: LaunchSettings{
			StartPort:           constants.DefaultStartPort,
			PollIntervalMs:      int(constants.DefaultPollInterval / time.Millisecond),
			ReadyTimeoutSeconds: int(constants.DefaultReadyTimeout / time.Second),
			SettleDelayMs:       int(constants.DefaultSettleDelay / time.Millisecond),
			StopOnExit:          true,
		},
		Upstream: UpstreamConfig{
			Repository: constants.DefaultUpstreamRepository,
			BaseImage:  constants.DefaultBaseImage,
			Track:      true,
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: constants.DefaultServerPort,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// PollInterval returns the readiness poll interval
func (l LaunchSettings) PollInterval() time.Duration {
	return time.Duration(l.PollIntervalMs) * time.Millisecond
}

// ReadyTimeout returns the readiness deadline, zero meaning none
func (l LaunchSettings) ReadyTimeout() time.Duration {
	return time.Duration(l.ReadyTimeoutSeconds) * time.Second
}

// SettleDelay returns the pause between readiness and navigation
func (l LaunchSettings) SettleDelay() time.Duration {
	return time.Duration(l.SettleDelayMs) * time.Millisecond
}

// BuildTemplate returns the Dockerfile settings, falling back to the
// defaults for anything left empty
func (g *GlobalConfig) BuildTemplate() artifact.BuildTemplate {
	tmpl := artifact.DefaultBuildTemplate()
	if g.Upstream.Repository != "" {
		tmpl.Repository = g.Upstream.Repository
	}
	if g.Upstream.BaseImage != "" {
		tmpl.BaseImage = g.Upstream.BaseImage
	}
	tmpl.PipIndexURL = g.Upstream.PipIndexURL
	return tmpl
}

// GetConfigPath returns the path of config.toml in the XDG config directory
func GetConfigPath() (string, error) {
	configDir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadGlobalConfig loads the settings from the XDG config directory
func LoadGlobalConfig() (*GlobalConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadGlobalConfigFrom(configPath)
}

// LoadGlobalConfigFrom loads settings from path. A missing file yields the
// defaults; keys absent from the file keep their default values.
func LoadGlobalConfigFrom(path string) (*GlobalConfig, error) {
	config := DefaultGlobalConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, errors.ConfigParseError(path, err)
		}
	}

	if err := applyStorageDefaults(config); err != nil {
		return nil, err
	}
	if err := ValidateGlobalConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves the settings to the specified path
func (g *GlobalConfig) Save(path string) error {
	data, err := toml.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return os.WriteFile(path, data, constants.FilePermissions)
}

// ValidateGlobalConfig validates the launcher settings
func ValidateGlobalConfig(config *GlobalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if config.Engine.Binary == "" {
		return errors.ValidationFailed("engine.binary", config.Engine.Binary, "cannot be empty")
	}
	if err := validation.ContainerName(config.Engine.ContainerName); err != nil {
		return err
	}
	if err := validation.ImageTag(config.Engine.Image); err != nil {
		return err
	}
	if err := validation.Port(config.Launch.StartPort); err != nil {
		return err
	}
	if err := validation.Port(config.Server.Port); err != nil {
		return err
	}
	if err := validation.Positive("launch.poll_interval_ms", config.Launch.PollIntervalMs); err != nil {
		return err
	}
	if config.Launch.ReadyTimeoutSeconds < 0 {
		return errors.ValidationFailed("launch.ready_timeout_seconds", config.Launch.ReadyTimeoutSeconds, "cannot be negative")
	}
	if config.Launch.SettleDelayMs < 0 {
		return errors.ValidationFailed("launch.settle_delay_ms", config.Launch.SettleDelayMs, "cannot be negative")
	}

	return nil
}

// applyStorageDefaults fills in XDG locations and expands tilde paths
func applyStorageDefaults(config *GlobalConfig) error {
	if config.Storage.BuildDir == "" {
		dir, err := xdg.BuildDir()
		if err != nil {
			return err
		}
		config.Storage.BuildDir = dir
	}
	if config.Storage.Database == "" {
		dir, err := xdg.DataDir()
		if err != nil {
			return err
		}
		config.Storage.Database = filepath.Join(dir, "chatdock.db")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	for _, p := range []*string{&config.Storage.BuildDir, &config.Storage.Database} {
		if strings.HasPrefix(*p, "~/") {
			*p = filepath.Join(homeDir, (*p)[2:])
		}
	}

	return nil
}
