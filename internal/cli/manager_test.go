package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"chatdock/internal/cli/commands"
	"chatdock/internal/config"
	"chatdock/internal/testutil"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *bytes.Buffer) {
	t.Helper()
	deps := &commands.Deps{
		Settings:     config.DefaultGlobalConfig(),
		SettingsPath: filepath.Join(t.TempDir(), "config.toml"),
		Ports:        &testutil.PortSequence{},
	}
	m := New(deps, afero.NewMemMapFs())
	var out bytes.Buffer
	m.SetOutput(&out)
	return m, &out
}

func TestManager_CommandTree(t *testing.T) {
	m, _ := newTestManager(t)

	want := []string{
		"launch", "start", "restart", "stop", "reset",
		"status", "history", "port", "render", "serve", "config",
	}
	for _, name := range want {
		cmd, _, err := m.Root().Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	for _, sub := range []string{"show", "init", "path"} {
		cmd, _, err := m.Root().Find([]string{"config", sub})
		require.NoError(t, err, sub)
		assert.Equal(t, sub, cmd.Name())
	}
}

func TestManager_HelpByDefault(t *testing.T) {
	m, out := newTestManager(t)

	require.NoError(t, m.Execute([]string{}))
	assert.Contains(t, out.String(), "chatdock builds and runs the chatgpt_academic")
	assert.Contains(t, out.String(), "launch")
}

func TestManager_PortWithoutEngine(t *testing.T) {
	m, out := newTestManager(t)

	require.NoError(t, m.Execute([]string{"port"}))
	assert.Equal(t, "30000\n", out.String())
}

func TestManager_LaunchWithoutService(t *testing.T) {
	m, _ := newTestManager(t)

	err := m.Execute([]string{"launch", "--api-key", "sk-test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "launch service is not available")
}

func TestManager_UnknownCommand(t *testing.T) {
	m, _ := newTestManager(t)

	err := m.Execute([]string{"frobnicate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}
