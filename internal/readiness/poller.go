// Package readiness waits for the service container to report running.
package readiness

import (
	"context"
	"sync"
	"time"

	"chatdock/internal/constants"
	"chatdock/internal/container"
	"chatdock/internal/errors"
	"chatdock/internal/logger"
)

// Lister returns the engine's process list
type Lister interface {
	List(ctx context.Context) ([]container.ProcessInfo, error)
}

// Observation is the process list entry that satisfied the poller
type Observation struct {
	Info  container.ProcessInfo
	Polls int
}

// Poller queries the process list until the named container is running.
// A failed query counts as "not ready yet".
type Poller struct {
	Lister   Lister
	Name     string
	Interval time.Duration
	Timeout  time.Duration // zero waits until ctx is done

	once      sync.Once
	readyOnce sync.Once
	ready     chan struct{}
}

// NewPoller creates a poller with the default interval
func NewPoller(lister Lister, name string, timeout time.Duration) *Poller {
	return &Poller{
		Lister:   lister,
		Name:     name,
		Interval: constants.DefaultPollInterval,
		Timeout:  timeout,
	}
}

// Ready is closed the first time the container is seen running
func (p *Poller) Ready() <-chan struct{} {
	p.init()
	return p.ready
}

func (p *Poller) init() {
	p.once.Do(func() {
		p.ready = make(chan struct{})
	})
}

// Await polls immediately and then once per interval. It returns as soon
// as the container is running, closing Ready exactly once. On timeout the
// container is left as it is.
func (p *Poller) Await(ctx context.Context) (*Observation, error) {
	p.init()

	interval := p.Interval
	if interval <= 0 {
		interval = constants.DefaultPollInterval
	}

	var deadline <-chan time.Time
	if p.Timeout > 0 {
		timer := time.NewTimer(p.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	polls := 0
	var lastErr error
	for {
		polls++
		info, ok, err := p.poll(ctx)
		if err != nil {
			lastErr = err
			logger.WithFields(logger.Fields{
				"container": p.Name,
				"poll":      polls,
			}).WithError(err).Debug("Process list query failed, treating as not ready")
		}
		if ok {
			p.signal()
			logger.WithFields(logger.Fields{
				"container": p.Name,
				"status":    info.Status,
				"polls":     polls,
			}).Info("Container is running")
			return &Observation{Info: info, Polls: polls}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, errors.ReadinessTimeout(p.Name, polls, lastErr)
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context) (container.ProcessInfo, bool, error) {
	infos, err := p.Lister.List(ctx)
	if err != nil {
		return container.ProcessInfo{}, false, err
	}
	info, found := container.Find(infos, p.Name)
	if !found || !info.Running() {
		return info, false, nil
	}
	return info, true, nil
}

func (p *Poller) signal() {
	p.readyOnce.Do(func() {
		close(p.ready)
	})
}
