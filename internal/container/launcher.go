package container

import (
	"context"
	"io"
	"strings"
	"sync"

	"chatdock/internal/errors"
	"chatdock/internal/logger"
)

// Launcher drives the single service container through the engine CLI
type Launcher struct {
	engine *Engine
	name   string
	image  string

	mu     sync.RWMutex
	output io.Writer
}

// NewLauncher creates a launcher managing the container name built from image
func NewLauncher(engine *Engine, name, image string) (*Launcher, error) {
	if err := validateIdentity(name, image); err != nil {
		return nil, err
	}
	return &Launcher{engine: engine, name: name, image: image}, nil
}

// Name returns the managed container name
func (l *Launcher) Name() string {
	return l.name
}

// SetOutput sets where build and run output is streamed while it is produced
func (l *Launcher) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

func (l *Launcher) live() io.Writer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.output
}

// CheckEngine verifies the engine answers a version query
func (l *Launcher) CheckEngine(ctx context.Context) (string, error) {
	output, err := l.engine.Exec(ctx, "query engine version", nil, VersionArgs()...)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		LogContainerError(err, "version")
		return "", errors.EngineUnavailable(l.engine.Binary(), err).WithOutput(output)
	}

	version := strings.TrimSpace(output)
	logger.WithField("version", version).Debug("Container engine available")
	return version, nil
}

// BuildImage builds the service image from the artifacts in dir
func (l *Launcher) BuildImage(ctx context.Context, dir string) error {
	logger.WithFields(logger.Fields{
		"image": l.image,
		"dir":   dir,
	}).Info("Building image")

	output, err := l.engine.Exec(ctx, "build image", l.live(), BuildArgs(l.image, dir)...)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		if cerr, ok := err.(*ContainerError); ok && cerr.Type == ErrorTypeUnknown {
			cerr.Type = ErrorTypeBuildError
		}
		LogContainerError(err, "build")
		return errors.BuildOrRunFailed("build", output, err)
	}
	return nil
}

// Run replaces any existing container of the same name and starts a new
// detached one publishing binding
func (l *Launcher) Run(ctx context.Context, binding PortBinding) error {
	if err := validateBinding(binding); err != nil {
		return err
	}

	if err := l.remove(ctx); err != nil {
		return errors.BuildOrRunFailed("run", "", err)
	}

	logger.WithFields(logger.Fields{
		"container": l.name,
		"image":     l.image,
		"publish":   binding.String(),
	}).Info("Starting container")

	output, err := l.engine.Exec(ctx, "run container", l.live(), RunArgs(l.name, l.image, binding)...)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		if cerr, ok := err.(*ContainerError); ok {
			cerr.ContainerID = l.name
		}
		LogContainerError(err, "run")
		return errors.BuildOrRunFailed("run", output, err)
	}
	return nil
}

// Stop stops the container. With --rm on run, stopping also removes it.
func (l *Launcher) Stop(ctx context.Context) error {
	_, err := l.engine.Exec(ctx, "stop container", nil, StopArgs(l.name)...)
	return l.ignoreMissing(err, "stop")
}

// Reset stops and removes the container and removes the image. Missing
// resources are skipped; every step runs and the first real failure is
// returned.
func (l *Launcher) Reset(ctx context.Context) error {
	steps := []struct {
		operation string
		args      []string
	}{
		{"stop container", StopArgs(l.name)},
		{"remove container", RemoveArgs(l.name)},
		{"remove image", RemoveImageArgs(l.image)},
	}

	var first error
	for _, step := range steps {
		_, err := l.engine.Exec(ctx, step.operation, nil, step.args...)
		if err = l.ignoreMissing(err, step.operation); err != nil && first == nil {
			first = err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if first == nil {
		logger.WithFields(logger.Fields{
			"container": l.name,
			"image":     l.image,
		}).Info("Container and image removed")
	}
	return first
}

// List returns the engine's process list
func (l *Launcher) List(ctx context.Context) ([]ProcessInfo, error) {
	output, err := l.engine.Exec(ctx, "list containers", nil, PSArgs()...)
	if err != nil {
		return nil, err
	}
	return ParseProcessList(output), nil
}

func (l *Launcher) remove(ctx context.Context) error {
	_, err := l.engine.Exec(ctx, "remove container", nil, RemoveArgs(l.name)...)
	return l.ignoreMissing(err, "remove")
}

func (l *Launcher) ignoreMissing(err error, operation string) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) {
		logger.WithFields(logger.Fields{
			"container": l.name,
			"operation": operation,
		}).Debug("Nothing to do, resource does not exist")
		return nil
	}
	LogContainerWarning(err, operation)
	return err
}
