package container

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"

	"chatdock/internal/constants"
	"chatdock/internal/logger"
)

// CommandExecutor interface for mocking command execution
type CommandExecutor interface {
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// DefaultCommandExecutor implements CommandExecutor using standard exec
type DefaultCommandExecutor struct{}

func (e *DefaultCommandExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// Engine runs a docker-compatible CLI
type Engine struct {
	binary   string
	executor CommandExecutor
}

// NewEngine creates an engine for binary. Empty binary means docker, a nil
// executor means os/exec.
func NewEngine(binary string, executor CommandExecutor) *Engine {
	if binary == "" {
		binary = constants.DefaultEngineBinary
	}
	if executor == nil {
		executor = &DefaultCommandExecutor{}
	}
	return &Engine{binary: binary, executor: executor}
}

// Binary returns the engine CLI name
func (e *Engine) Binary() string {
	return e.binary
}

// Exec runs the engine with args. Combined output is always captured and
// returned; when live is non-nil it also receives the output as it is
// produced. A failure is returned as a *ContainerError classified from the
// output.
func (e *Engine) Exec(ctx context.Context, operation string, live io.Writer, args ...string) (string, error) {
	var captured bytes.Buffer
	var sink io.Writer = &captured
	if live != nil {
		sink = io.MultiWriter(&captured, live)
	}

	// one writer for both streams keeps them in a single ordered pipe
	cmd := e.executor.CommandContext(ctx, e.binary, args...)
	cmd.Stdout = sink
	cmd.Stderr = sink

	logger.WithFields(logger.Fields{
		"operation": operation,
		"command":   e.binary + " " + strings.Join(args, " "),
	}).Debug("Running engine command")

	err := cmd.Run()
	output := captured.String()
	if err != nil {
		if ctx.Err() != nil {
			return output, ctx.Err()
		}
		return output, &ContainerError{
			Type:       parseEngineError(output, err),
			Operation:  operation,
			Message:    "failed to " + operation,
			Output:     output,
			Underlying: err,
		}
	}
	return output, nil
}
