package cli

import (
	"context"
	"io"

	"chatdock/internal/cli/commands"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Manager handles CLI operations
type Manager struct {
	deps    *commands.Deps
	fs      afero.Fs
	rootCmd *cobra.Command
}

// New creates a CLI manager over deps. A nil fs means the OS filesystem.
func New(deps *commands.Deps, fs afero.Fs) *Manager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	m := &Manager{
		deps:    deps,
		fs:      fs,
		rootCmd: createRootCommand(),
	}
	m.setupCommands()
	return m
}

// SetOutput redirects command output and errors
func (m *Manager) SetOutput(w io.Writer) {
	m.rootCmd.SetOut(w)
	m.rootCmd.SetErr(w)
}

// Root returns the root command
func (m *Manager) Root() *cobra.Command {
	return m.rootCmd
}

// Execute executes the CLI with the given arguments
func (m *Manager) Execute(args []string) error {
	return m.ExecuteWithContext(context.Background(), args)
}

// ExecuteWithContext executes the CLI with the given arguments and context
func (m *Manager) ExecuteWithContext(ctx context.Context, args []string) error {
	m.rootCmd.SetArgs(args)
	return m.rootCmd.ExecuteContext(ctx)
}

func (m *Manager) setupCommands() {
	for _, cmd := range commands.LaunchCommands(m.deps) {
		m.rootCmd.AddCommand(cmd)
	}
	for _, cmd := range commands.StatusCommands(m.deps) {
		m.rootCmd.AddCommand(cmd)
	}
	m.rootCmd.AddCommand(commands.RenderCommand(m.deps, m.fs))
	m.rootCmd.AddCommand(commands.ServeCommand(m.deps))

	configCmd := &cobra.Command{
		Use:     "config",
		Short:   "Configuration management commands",
		Aliases: []string{"cfg"},
	}
	for _, cmd := range commands.ConfigCommands(m.deps, m.fs) {
		configCmd.AddCommand(cmd)
	}
	m.rootCmd.AddCommand(configCmd)
}
