package testutil

import (
	"context"
	"sync"

	"chatdock/internal/container"

	"github.com/stretchr/testify/mock"
)

// MockRuntime is a testify mock of container.Runtime
type MockRuntime struct {
	mock.Mock
}

// NewMockRuntime creates a new mock runtime
func NewMockRuntime() *MockRuntime {
	return &MockRuntime{}
}

func (m *MockRuntime) CheckEngine(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockRuntime) BuildImage(ctx context.Context, dir string) error {
	args := m.Called(ctx, dir)
	return args.Error(0)
}

func (m *MockRuntime) Run(ctx context.Context, binding container.PortBinding) error {
	args := m.Called(ctx, binding)
	return args.Error(0)
}

func (m *MockRuntime) Stop(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRuntime) Reset(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRuntime) List(ctx context.Context) ([]container.ProcessInfo, error) {
	args := m.Called(ctx)
	infos, _ := args.Get(0).([]container.ProcessInfo)
	return infos, args.Error(1)
}

// Running returns a process list with name reported as running
func Running(name string) []container.ProcessInfo {
	return []container.ProcessInfo{{Name: name, Status: "Up 2 seconds", Ports: "0.0.0.0:30000->30000/tcp"}}
}

// MockUpstream is a testify mock of the upstream tracker
type MockUpstream struct {
	mock.Mock
}

func (m *MockUpstream) RemoteHead(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}

// PortSequence is a port finder returning start plus a fixed offset and
// recording every start it was asked for
type PortSequence struct {
	mu     sync.Mutex
	Offset int
	Starts []int
	Err    error
}

// FindFreePort implements the bootstrap port finder
func (p *PortSequence) FindFreePort(start int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Starts = append(p.Starts, start)
	if p.Err != nil {
		return 0, p.Err
	}
	return start + p.Offset, nil
}

// Calls returns the recorded starts
func (p *PortSequence) Calls() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.Starts...)
}
