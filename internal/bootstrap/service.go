// Package bootstrap runs the launch sequence: acquire a port, write the
// artifacts, build and run the container, wait until it is running and hand
// the local URL to whoever is observing.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"chatdock/internal/artifact"
	"chatdock/internal/config"
	"chatdock/internal/constants"
	"chatdock/internal/container"
	"chatdock/internal/db"
	"chatdock/internal/errors"
	"chatdock/internal/logger"
	"chatdock/internal/readiness"
	"chatdock/internal/validation"
)

// PortFinder picks a free host port at or above start
type PortFinder interface {
	FindFreePort(start int) (int, error)
}

// ArtifactWriter materializes config.py and the Dockerfile
type ArtifactWriter interface {
	Write(dir string, doc artifact.Document) (*artifact.Paths, error)
}

// SessionStore persists the session between processes
type SessionStore interface {
	Load(ctx context.Context) (*db.Session, error)
	Save(ctx context.Context, session *db.Session) error
}

// LaunchRecorder keeps the launch history
type LaunchRecorder interface {
	Create(ctx context.Context, launch *db.Launch) error
	Finish(ctx context.Context, launch *db.Launch) error
}

// UpstreamTracker resolves the upstream repository's current commit
type UpstreamTracker interface {
	RemoteHead(ctx context.Context, url string) (string, error)
}

// Deps are the collaborators of a Service. Sessions, Launches and Upstream
// are optional.
type Deps struct {
	Runtime  container.Runtime
	Ports    PortFinder
	Writer   ArtifactWriter
	Sessions SessionStore
	Launches LaunchRecorder
	Upstream UpstreamTracker
}

// Options tune the launch sequence
type Options struct {
	BuildDir      string
	ContainerName string
	StartPort     int
	UpstreamURL   string
	TrackUpstream bool
	PollInterval  time.Duration
	ReadyTimeout  time.Duration // zero waits until the context ends
	SettleDelay   time.Duration
	StopOnExit    bool
}

// OptionsFromSettings maps launcher settings onto Options
func OptionsFromSettings(cfg *config.GlobalConfig) Options {
	return Options{
		BuildDir:      cfg.Storage.BuildDir,
		ContainerName: cfg.Engine.ContainerName,
		StartPort:     cfg.Launch.StartPort,
		UpstreamURL:   cfg.Upstream.Repository,
		TrackUpstream: cfg.Upstream.Track,
		PollInterval:  cfg.Launch.PollInterval(),
		ReadyTimeout:  cfg.Launch.ReadyTimeout(),
		SettleDelay:   cfg.Launch.SettleDelay(),
		StopOnExit:    cfg.Launch.StopOnExit,
	}
}

// Result describes a launch that reached the ready state
type Result struct {
	ID   string        `json:"id,omitempty"`
	Mode db.LaunchMode `json:"mode"`
	URL  string        `json:"url"`
	Port int           `json:"port"`
}

// Service owns the session and runs launches one at a time
type Service struct {
	deps Deps
	opts Options

	// launchMu is held for the whole of a launch, restart or reset
	launchMu sync.Mutex

	mu      sync.RWMutex
	session Session
	state   State
	lastURL string

	events *emitter
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewService creates a launch service
func NewService(deps Deps, opts Options) *Service {
	if opts.ContainerName == "" {
		opts.ContainerName = constants.DefaultContainerName
	}
	if opts.StartPort == 0 {
		opts.StartPort = constants.DefaultStartPort
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = constants.DefaultPollInterval
	}

	return &Service{
		deps:   deps,
		opts:   opts,
		state:  StateIdle,
		events: newEmitter(),
		sleep:  sleepContext,
	}
}

// Subscribe registers an observer for launch events. The returned function
// removes it.
func (s *Service) Subscribe(o Observer) func() {
	return s.events.subscribe(o)
}

// OutputWriter returns a writer whose writes become output events
func (s *Service) OutputWriter() io.Writer {
	return outputWriter{events: s.events}
}

// Restore loads the persisted session
func (s *Service) Restore(ctx context.Context) error {
	if s.deps.Sessions == nil {
		return nil
	}

	record, err := s.deps.Sessions.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.session = sessionFromRecord(record)
	s.mu.Unlock()

	logger.WithFields(logger.Fields{
		"port":  record.Port,
		"built": record.Built,
	}).Debug("Session restored")
	return nil
}

// Session returns a copy of the current session
func (s *Service) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// State returns the current launch state
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Launch runs the full sequence: engine check, port, artifacts, build, run,
// readiness, settle, navigate. A zero port means the session port or, when
// there is none, the first free port from the configured start.
func (s *Service) Launch(ctx context.Context, cfg *config.LaunchConfig, port int) (*Result, error) {
	if !s.launchMu.TryLock() {
		return nil, errors.ErrLaunchInProgressError
	}
	defer s.launchMu.Unlock()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if port != 0 {
		if err := validation.Port(port); err != nil {
			return nil, err
		}
	}

	fingerprint := cfg.Fingerprint()
	rec := &db.Launch{Mode: db.LaunchModeBuild, Fingerprint: fingerprint, Port: port}
	s.begin(ctx, rec)

	s.setState(StateCheckingEngine, "")
	version, err := s.deps.Runtime.CheckEngine(ctx)
	if err != nil {
		return nil, s.fail(ctx, rec, err)
	}
	s.setState(StateCheckingEngine, version)

	s.setState(StateAllocatingPort, "")
	port, err = s.choosePort(port)
	if err != nil {
		return nil, s.fail(ctx, rec, err)
	}
	rec.Port = port

	s.setState(StateWritingArtifacts, "")
	paths, err := s.deps.Writer.Write(s.opts.BuildDir, cfg.WithPort(port).Document())
	if err != nil {
		return nil, s.fail(ctx, rec, err)
	}

	// read before the build clones it, so the record never runs ahead
	revision := s.upstreamRevision(ctx, true)

	s.setState(StateBuilding, paths.Dir)
	if err := s.deps.Runtime.BuildImage(ctx, paths.Dir); err != nil {
		s.updateSession(ctx, func(sess *Session) {
			sess.Built = false
			sess.Fingerprint = ""
		})
		return nil, s.fail(ctx, rec, err)
	}

	s.updateSession(ctx, func(sess *Session) {
		sess.Built = true
		sess.Fingerprint = fingerprint
		sess.ContainerPort = port
		sess.UpstreamRevision = revision
	})

	return s.serve(ctx, rec, container.Bind(port))
}

// Restart runs the image built by an earlier launch without rebuilding it.
// A zero port reuses the session port.
func (s *Service) Restart(ctx context.Context, port int) (*Result, error) {
	if !s.launchMu.TryLock() {
		return nil, errors.ErrLaunchInProgressError
	}
	defer s.launchMu.Unlock()

	if port != 0 {
		if err := validation.Port(port); err != nil {
			return nil, err
		}
	}

	session := s.Session()
	if !session.Built {
		return nil, errors.ErrNotBuiltError
	}

	rec := &db.Launch{Mode: db.LaunchModeRestart, Fingerprint: session.Fingerprint, Port: port}
	s.begin(ctx, rec)

	s.setState(StateAllocatingPort, "")
	port, err := s.choosePort(port)
	if err != nil {
		return nil, s.fail(ctx, rec, err)
	}
	rec.Port = port

	containerPort := session.ContainerPort
	if containerPort == 0 {
		containerPort = port
	}

	return s.serve(ctx, rec, container.PortBinding{Host: port, Container: containerPort})
}

// Start restarts the existing image when cfg matches what it was built
// from and runs a full launch otherwise
func (s *Service) Start(ctx context.Context, cfg *config.LaunchConfig) (*Result, error) {
	if s.Session().Dirty(cfg) {
		return s.Launch(ctx, cfg, 0)
	}
	logger.Debugf("Configuration unchanged, restarting existing image")
	return s.Restart(ctx, 0)
}

// Stop stops the container, leaving the image in place. It fails with
// LAUNCH_IN_PROGRESS while a launch is waiting on the container.
func (s *Service) Stop(ctx context.Context) error {
	if !s.launchMu.TryLock() {
		return errors.ErrLaunchInProgressError
	}
	defer s.launchMu.Unlock()

	if err := s.deps.Runtime.Stop(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.lastURL = ""
	s.mu.Unlock()
	s.setState(StateStopped, "")
	return nil
}

// Reset removes the container and the image and forgets the build
func (s *Service) Reset(ctx context.Context) error {
	if !s.launchMu.TryLock() {
		return errors.ErrLaunchInProgressError
	}
	defer s.launchMu.Unlock()

	if err := s.deps.Runtime.Reset(ctx); err != nil {
		return err
	}

	s.updateSession(ctx, func(sess *Session) {
		sess.Built = false
		sess.Fingerprint = ""
		sess.ContainerPort = 0
		sess.UpstreamRevision = ""
	})
	s.mu.Lock()
	s.lastURL = ""
	s.mu.Unlock()
	s.setState(StateIdle, "reset")
	return nil
}

// Shutdown is called when the launcher exits. The container is stopped
// when StopOnExit is set.
func (s *Service) Shutdown(ctx context.Context) error {
	if !s.opts.StopOnExit {
		return nil
	}
	logger.WithField("container", s.opts.ContainerName).Info("Stopping container on exit")
	return s.Stop(ctx)
}

// serve runs the container, re-allocating the host port on conflicts, then
// waits for readiness and navigates
func (s *Service) serve(ctx context.Context, rec *db.Launch, binding container.PortBinding) (*Result, error) {
	s.setState(StateStarting, binding.String())
	binding, err := s.runWithReallocation(ctx, binding)
	rec.Port = binding.Host
	if err != nil {
		return nil, s.fail(ctx, rec, err)
	}

	s.updateSession(ctx, func(sess *Session) {
		sess.Port = binding.Host
	})

	s.setState(StateWaiting, "")
	poller := &readiness.Poller{
		Lister:   s.deps.Runtime,
		Name:     s.opts.ContainerName,
		Interval: s.opts.PollInterval,
		Timeout:  s.opts.ReadyTimeout,
	}
	obs, err := poller.Await(ctx)
	if err != nil {
		return nil, s.fail(ctx, rec, err)
	}
	s.events.emit(Event{Type: EventReady, Message: obs.Info.Status, Port: binding.Host})

	s.setState(StateSettling, "")
	if err := s.sleep(ctx, s.opts.SettleDelay); err != nil {
		return nil, s.fail(ctx, rec, err)
	}

	url := container.LocalURL(binding.Host)
	s.mu.Lock()
	s.lastURL = url
	s.mu.Unlock()

	s.events.emit(Event{Type: EventNavigate, URL: url, Port: binding.Host})
	s.setState(StateReady, url)

	rec.Status = db.LaunchStatusReady
	rec.URL = url
	s.finish(ctx, rec)

	logger.WithFields(logger.Fields{
		"url":  url,
		"mode": rec.Mode,
	}).Info("Service ready")

	return &Result{ID: rec.ID, Mode: rec.Mode, URL: url, Port: binding.Host}, nil
}

func (s *Service) runWithReallocation(ctx context.Context, binding container.PortBinding) (container.PortBinding, error) {
	for attempt := 0; ; attempt++ {
		err := s.deps.Runtime.Run(ctx, binding)
		if err == nil {
			return binding, nil
		}
		if !container.IsPortConflict(err) || attempt >= constants.MaxPortReallocations {
			return binding, err
		}

		next, ferr := s.deps.Ports.FindFreePort(binding.Host + 1)
		if ferr != nil {
			return binding, ferr
		}

		logger.WithFields(logger.Fields{
			"taken": binding.Host,
			"next":  next,
		}).Warn("Host port taken, publishing on another port")
		s.setState(StateStarting, fmt.Sprintf("port %d taken, retrying on %d", binding.Host, next))
		binding.Host = next
	}
}

// choosePort prefers the explicit port, then the session port, then a scan
func (s *Service) choosePort(explicit int) (int, error) {
	if explicit != 0 {
		return explicit, nil
	}
	if port := s.Session().Port; port != 0 {
		return port, nil
	}
	return s.deps.Ports.FindFreePort(s.opts.StartPort)
}

func (s *Service) upstreamRevision(ctx context.Context, fresh bool) string {
	if !s.opts.TrackUpstream || s.deps.Upstream == nil || s.opts.UpstreamURL == "" {
		return ""
	}
	// a build clones the current head, so a cached answer would be stale
	if f, ok := s.deps.Upstream.(interface{ Forget(url string) }); ok && fresh {
		f.Forget(s.opts.UpstreamURL)
	}
	rev, err := s.deps.Upstream.RemoteHead(ctx, s.opts.UpstreamURL)
	if err != nil {
		logger.WithError(err).Warn("Could not resolve upstream revision")
		return ""
	}
	return rev
}

// UpstreamChanged reports whether the upstream has moved since the image
// was built. It is false when nothing was recorded or the lookup fails.
func (s *Service) UpstreamChanged(ctx context.Context) (bool, string) {
	built := s.Session().UpstreamRevision
	if built == "" {
		return false, ""
	}
	current := s.upstreamRevision(ctx, false)
	if current == "" {
		return false, ""
	}
	return current != built, current
}

func (s *Service) updateSession(ctx context.Context, fn func(*Session)) {
	s.mu.Lock()
	fn(&s.session)
	snapshot := s.session
	s.mu.Unlock()

	if s.deps.Sessions == nil {
		return
	}
	// the stored row must follow the in-memory session even when the
	// launch context is already cancelled
	ctx = context.WithoutCancel(ctx)
	if err := s.deps.Sessions.Save(ctx, snapshot.record()); err != nil {
		logger.WithError(err).Warn("Failed to persist session")
	}
}

func (s *Service) setState(state State, message string) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.events.emit(Event{Type: EventState, State: state, Message: message})
}

func (s *Service) begin(ctx context.Context, rec *db.Launch) {
	if s.deps.Launches == nil {
		return
	}
	if err := s.deps.Launches.Create(ctx, rec); err != nil {
		logger.WithError(err).Warn("Failed to record launch")
	}
}

func (s *Service) finish(ctx context.Context, rec *db.Launch) {
	if s.deps.Launches == nil || rec.ID == "" {
		return
	}
	// the launch context may already be cancelled
	ctx = context.WithoutCancel(ctx)
	if err := s.deps.Launches.Finish(ctx, rec); err != nil {
		logger.WithError(err).Warn("Failed to record launch result")
	}
}

// fail records and reports err and returns it unchanged
func (s *Service) fail(ctx context.Context, rec *db.Launch, err error) error {
	code := string(errors.GetCode(err))
	switch {
	case ctx.Err() != nil:
		code = string(errors.ErrCancelled)
	case code == "":
		code = string(errors.ErrInternal)
	}

	var output string
	if ce, ok := errors.As(err); ok {
		output = ce.Output
	}

	s.setState(StateFailed, "")
	s.events.emit(Event{Type: EventError, Code: code, Message: err.Error(), Output: output, Port: rec.Port})

	rec.Status = db.LaunchStatusFailed
	rec.ErrorCode = code
	rec.ErrorOutput = output
	s.finish(ctx, rec)

	logger.WithFields(logger.Fields{
		"mode": rec.Mode,
		"code": code,
	}).WithError(err).Error("Launch failed")
	return err
}

// LastURL returns the URL of the last successful launch, if the container
// has not been stopped since
func (s *Service) LastURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastURL
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
