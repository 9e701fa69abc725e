package container

import (
	"bytes"
	"context"
	"testing"

	"chatdock/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLauncher(t *testing.T, respond func(args []string) fakeResponse) (*Launcher, *fakeExecutor) {
	t.Helper()
	fake := newFakeExecutor(respond)
	l, err := NewLauncher(NewEngine("docker", fake), "chatgpt_academic", "chatgpt_academic")
	require.NoError(t, err)
	return l, fake
}

func TestNewLauncher_RejectsBadNames(t *testing.T) {
	engine := NewEngine("docker", newFakeExecutor(nil))

	_, err := NewLauncher(engine, "bad name; rm -rf /", "chatgpt_academic")
	assert.True(t, errors.HasCode(err, errors.ErrValidationFailed))

	_, err = NewLauncher(engine, "chatgpt_academic", "Upper:Case")
	assert.True(t, errors.HasCode(err, errors.ErrValidationFailed))
}

func TestLauncher_CheckBuildRun(t *testing.T) {
	l, fake := newTestLauncher(t, func(args []string) fakeResponse {
		switch args[0] {
		case "--version":
			return fakeResponse{output: "Docker version 24.0.7, build afdd53b\n"}
		case "build":
			return fakeResponse{output: "#5 DONE 2.1s\n"}
		case "rm":
			return fakeResponse{output: "Error response from daemon: No such container: chatgpt_academic\n", exit: 1}
		case "run":
			return fakeResponse{output: "3f2a9c\n"}
		}
		return fakeResponse{exit: 2}
	})

	var live bytes.Buffer
	l.SetOutput(&live)

	ctx := context.Background()
	version, err := l.CheckEngine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Docker version 24.0.7, build afdd53b", version)
	require.NoError(t, l.BuildImage(ctx, "/tmp/build"))
	require.NoError(t, l.Run(ctx, Bind(30000)))

	assert.Equal(t, []string{"--version", "build", "rm", "run"}, fake.subcommands())
	assert.Equal(t, "docker build -t chatgpt_academic --progress=plain /tmp/build", joinArgs(fake.callsTo("build")[0]))
	assert.Equal(t, "docker run -d --name chatgpt_academic --rm -p 30000:30000 chatgpt_academic", joinArgs(fake.callsTo("run")[0]))
	assert.Equal(t, "#5 DONE 2.1s\n3f2a9c\n", live.String())
}

func TestLauncher_CheckEngineUnavailable(t *testing.T) {
	l, fake := newTestLauncher(t, func(args []string) fakeResponse {
		return fakeResponse{missing: true}
	})

	_, err := l.CheckEngine(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrEngineUnavailable))
	assert.Equal(t, []string{"--version"}, fake.subcommands())
}

func TestLauncher_BuildFailureKeepsOutput(t *testing.T) {
	l, fake := newTestLauncher(t, func(args []string) fakeResponse {
		if args[0] == "build" {
			return fakeResponse{output: "#7 ERROR: git clone failed\n", exit: 1}
		}
		return fakeResponse{}
	})

	err := l.BuildImage(context.Background(), "/tmp/build")
	require.Error(t, err)

	assert.True(t, errors.HasCode(err, errors.ErrBuildOrRunFailed))
	cerr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, "#7 ERROR: git clone failed\n", cerr.Output)
	assert.Equal(t, ErrorTypeBuildError, TypeOf(err))
	assert.Equal(t, []string{"build"}, fake.subcommands())
}

func TestLauncher_RunReplacesContainer(t *testing.T) {
	l, fake := newTestLauncher(t, nil)

	require.NoError(t, l.Run(context.Background(), PortBinding{Host: 30005, Container: 30000}))

	assert.Equal(t, []string{"rm", "run"}, fake.subcommands())
	assert.Empty(t, fake.callsTo("build"))
	assert.Contains(t, fake.callsTo("run")[0], "30005:30000")
}

func TestLauncher_RunPortConflict(t *testing.T) {
	l, _ := newTestLauncher(t, func(args []string) fakeResponse {
		if args[0] == "run" {
			return fakeResponse{output: "Bind for 0.0.0.0:30000 failed: port is already allocated\n", exit: 125}
		}
		return fakeResponse{}
	})

	err := l.Run(context.Background(), Bind(30000))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrBuildOrRunFailed))
	assert.True(t, IsPortConflict(err))
}

func TestLauncher_RunRejectsInvalidPort(t *testing.T) {
	l, fake := newTestLauncher(t, nil)

	err := l.Run(context.Background(), Bind(70000))
	assert.True(t, errors.HasCode(err, errors.ErrInvalidPort))
	assert.Empty(t, fake.subcommands())
}

func TestLauncher_StopIgnoresMissing(t *testing.T) {
	l, _ := newTestLauncher(t, func(args []string) fakeResponse {
		return fakeResponse{output: "Error response from daemon: No such container: chatgpt_academic\n", exit: 1}
	})

	assert.NoError(t, l.Stop(context.Background()))
}

func TestLauncher_Reset(t *testing.T) {
	t.Run("missing resources are skipped", func(t *testing.T) {
		l, fake := newTestLauncher(t, func(args []string) fakeResponse {
			switch args[0] {
			case "stop", "rm":
				return fakeResponse{output: "Error: No such container: chatgpt_academic\n", exit: 1}
			case "rmi":
				return fakeResponse{output: "Error: No such image: chatgpt_academic\n", exit: 1}
			}
			return fakeResponse{}
		})

		assert.NoError(t, l.Reset(context.Background()))
		assert.Equal(t, []string{"stop", "rm", "rmi"}, fake.subcommands())
	})

	t.Run("first real failure is returned after all steps", func(t *testing.T) {
		l, fake := newTestLauncher(t, func(args []string) fakeResponse {
			if args[0] == "stop" {
				return fakeResponse{output: "permission denied\n", exit: 1}
			}
			return fakeResponse{}
		})

		err := l.Reset(context.Background())
		require.Error(t, err)
		assert.Equal(t, ErrorTypePermissionDenied, TypeOf(err))
		assert.Equal(t, []string{"stop", "rm", "rmi"}, fake.subcommands())
	})
}

func TestLauncher_List(t *testing.T) {
	l, fake := newTestLauncher(t, func(args []string) fakeResponse {
		return fakeResponse{output: "chatgpt_academic::Up 2 seconds::0.0.0.0:30000->30000/tcp\n"}
	})

	infos, err := l.List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "chatgpt_academic", infos[0].Name)
	assert.True(t, infos[0].Running())
	assert.Equal(t, "docker ps --format {{.Names}}::{{.Status}}::{{.Ports}}", joinArgs(fake.calls[0]))
}
