package bootstrap

import (
	"context"
	"testing"

	"chatdock/internal/db"
	"chatdock/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLaunch_PersistsSessionAndHistory(t *testing.T) {
	database := testutil.SetupTestDB(t)
	sessions := db.NewSessionRepository(database)
	launches := db.NewLaunchRepository(database)
	upstream := &testutil.MockUpstream{}
	upstream.On("RemoteHead", mock.Anything, "https://example.com/app.git").Return("3f2a9c0", nil)

	withStores := func(d *Deps, o *Options) {
		d.Sessions = sessions
		d.Launches = launches
		d.Upstream = upstream
		o.UpstreamURL = "https://example.com/app.git"
		o.TrackUpstream = true
	}

	h := newHarness(t, nil, withStores)
	h.expectHealthyEngine()
	require.NoError(t, h.svc.Restore(context.Background()))

	result, err := h.svc.Launch(context.Background(), launchConfig(), 0)
	require.NoError(t, err)
	assert.NotEmpty(t, result.ID)

	stored, err := sessions.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, stored.Built)
	assert.Equal(t, 30000, stored.Port)
	assert.Equal(t, "3f2a9c0", stored.UpstreamRevision)

	history, total, err := launches.List(context.Background(), db.DefaultPaginationOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, db.LaunchStatusReady, history[0].Status)
	assert.Equal(t, "http://localhost:30000", history[0].URL)

	// a new process restores the session and restarts without building
	next := newHarness(t, nil, withStores)
	next.rt.On("Run", mock.Anything, mock.Anything).Return(nil)
	next.rt.On("List", mock.Anything).Return(testutil.Running(name), nil)
	require.NoError(t, next.svc.Restore(context.Background()))

	again, err := next.svc.Start(context.Background(), launchConfig())
	require.NoError(t, err)
	assert.Equal(t, db.LaunchModeRestart, again.Mode)
	next.rt.AssertNotCalled(t, "BuildImage", mock.Anything, mock.Anything)
	next.rt.AssertNotCalled(t, "CheckEngine", mock.Anything)
}

func TestLaunch_RecordsFailure(t *testing.T) {
	database := testutil.SetupTestDB(t)
	launches := db.NewLaunchRepository(database)

	h := newHarness(t, nil, func(d *Deps, _ *Options) { d.Launches = launches })
	h.rt.On("CheckEngine", mock.Anything).Return("", assert.AnError)

	_, err := h.svc.Launch(context.Background(), launchConfig(), 0)
	require.Error(t, err)

	history, _, err := launches.List(context.Background(), db.DefaultPaginationOptions())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, db.LaunchStatusFailed, history[0].Status)
	assert.Equal(t, "INTERNAL_ERROR", history[0].ErrorCode)
	assert.NotNil(t, history[0].FinishedAt)
}

func TestStatus(t *testing.T) {
	upstream := &testutil.MockUpstream{}
	upstream.On("RemoteHead", mock.Anything, "https://example.com/app.git").Return("aaaa", nil).Once()
	upstream.On("RemoteHead", mock.Anything, "https://example.com/app.git").Return("bbbb", nil)

	h := newHarness(t, nil, func(d *Deps, o *Options) {
		d.Upstream = upstream
		o.UpstreamURL = "https://example.com/app.git"
		o.TrackUpstream = true
	})
	h.expectHealthyEngine()

	_, err := h.svc.Launch(context.Background(), launchConfig(), 0)
	require.NoError(t, err)

	st := h.svc.Status(context.Background(), true)
	assert.Equal(t, StateReady, st.State)
	require.NotNil(t, st.Container)
	assert.True(t, st.Container.Running())
	assert.Equal(t, "http://localhost:30000", st.URL)
	assert.True(t, st.UpstreamChanged)
	assert.Equal(t, "bbbb", st.UpstreamHead)
}

func TestStatus_EngineDown(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.rt.On("List", mock.Anything).Return(nil, assert.AnError)

	st := h.svc.Status(context.Background(), false)
	assert.Equal(t, StateIdle, st.State)
	assert.Nil(t, st.Container)
	assert.NotEmpty(t, st.EngineError)
}

func TestLaunch_CancelledBuildStillPersistsSession(t *testing.T) {
	database := testutil.SetupTestDB(t)
	sessions := db.NewSessionRepository(database)

	h := newHarness(t, nil, func(d *Deps, _ *Options) { d.Sessions = sessions })
	h.rt.On("CheckEngine", mock.Anything).Return("Docker version 24.0.7", nil)
	h.rt.On("BuildImage", mock.Anything, buildDir).Return(nil).Once()
	h.rt.On("Run", mock.Anything, mock.Anything).Return(nil)
	h.rt.On("List", mock.Anything).Return(testutil.Running(name), nil)

	_, err := h.svc.Launch(context.Background(), launchConfig(), 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.rt.On("BuildImage", mock.Anything, buildDir).Run(func(mock.Arguments) {
		cancel()
	}).Return(context.Canceled).Once()

	changed := launchConfig()
	changed.Model = "gpt-4"
	_, err = h.svc.Launch(ctx, changed, 0)
	require.ErrorIs(t, err, context.Canceled)

	assert.False(t, h.svc.Session().Built)
	stored, err := sessions.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, stored.Built)
	assert.Empty(t, stored.Fingerprint)
}

func TestLaunch_UpstreamResolvedBeforeBuild(t *testing.T) {
	var order []string
	upstream := &testutil.MockUpstream{}
	upstream.On("RemoteHead", mock.Anything, "https://example.com/app.git").Run(func(mock.Arguments) {
		order = append(order, "head")
	}).Return("3f2a9c0", nil)

	h := newHarness(t, nil, func(d *Deps, o *Options) {
		d.Upstream = upstream
		o.UpstreamURL = "https://example.com/app.git"
		o.TrackUpstream = true
	})
	h.rt.On("CheckEngine", mock.Anything).Return("Docker version 24.0.7", nil)
	h.rt.On("BuildImage", mock.Anything, buildDir).Run(func(mock.Arguments) {
		order = append(order, "build")
	}).Return(nil)
	h.rt.On("Run", mock.Anything, mock.Anything).Return(nil)
	h.rt.On("List", mock.Anything).Return(testutil.Running(name), nil)

	_, err := h.svc.Launch(context.Background(), launchConfig(), 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"head", "build"}, order)
	assert.Equal(t, "3f2a9c0", h.svc.Session().UpstreamRevision)
}
