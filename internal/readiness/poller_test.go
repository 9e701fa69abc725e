package readiness

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"chatdock/internal/container"
	"chatdock/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLister answers each List call from a script; the last entry repeats
type scriptedLister struct {
	mu     sync.Mutex
	calls  int
	script []func() ([]container.ProcessInfo, error)
}

func (s *scriptedLister) List(ctx context.Context) ([]container.ProcessInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	s.calls++
	return s.script[i]()
}

func (s *scriptedLister) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func status(name, st string) func() ([]container.ProcessInfo, error) {
	return func() ([]container.ProcessInfo, error) {
		return []container.ProcessInfo{{Name: name, Status: st}}, nil
	}
}

func empty() ([]container.ProcessInfo, error) { return nil, nil }

func failing() ([]container.ProcessInfo, error) {
	return nil, fmt.Errorf("Cannot connect to the Docker daemon")
}

func TestPoller_ReadyOnPollNPlusOne(t *testing.T) {
	for _, misses := range []int{0, 1, 3} {
		t.Run(fmt.Sprintf("%d misses", misses), func(t *testing.T) {
			var script []func() ([]container.ProcessInfo, error)
			for i := 0; i < misses; i++ {
				script = append(script, status("chatgpt_academic", "Created"))
			}
			script = append(script, status("chatgpt_academic", "Up 1 second"))
			lister := &scriptedLister{script: script}

			p := &Poller{Lister: lister, Name: "chatgpt_academic", Interval: time.Millisecond}

			obs, err := p.Await(context.Background())
			require.NoError(t, err)
			assert.Equal(t, misses+1, obs.Polls)
			assert.Equal(t, misses+1, lister.count())
			assert.Equal(t, "Up 1 second", obs.Info.Status)

			select {
			case <-p.Ready():
			default:
				t.Fatal("ready channel not closed")
			}

			// a second wait neither re-closes the channel nor panics
			_, err = p.Await(context.Background())
			assert.NoError(t, err)
		})
	}
}

func TestPoller_QueryErrorCountsAsNotReady(t *testing.T) {
	lister := &scriptedLister{script: []func() ([]container.ProcessInfo, error){
		failing,
		empty,
		status("other", "Up 5 minutes"),
		status("chatgpt_academic", "Up Less than a second"),
	}}

	p := &Poller{Lister: lister, Name: "chatgpt_academic", Interval: time.Millisecond}
	obs, err := p.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, obs.Polls)
}

func TestPoller_Timeout(t *testing.T) {
	lister := &scriptedLister{script: []func() ([]container.ProcessInfo, error){failing}}

	p := &Poller{Lister: lister, Name: "chatgpt_academic", Interval: 5 * time.Millisecond, Timeout: 30 * time.Millisecond}
	_, err := p.Await(context.Background())
	require.Error(t, err)

	assert.True(t, errors.HasCode(err, errors.ErrReadinessTimeout))
	assert.GreaterOrEqual(t, lister.count(), 1)

	select {
	case <-p.Ready():
		t.Fatal("ready must not fire on timeout")
	default:
	}
}

func TestPoller_ContextCancelled(t *testing.T) {
	lister := &scriptedLister{script: []func() ([]container.ProcessInfo, error){empty}}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{Lister: lister, Name: "chatgpt_academic", Interval: time.Hour}

	done := make(chan error, 1)
	go func() {
		_, err := p.Await(ctx)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Await did not return after cancel")
	}
	assert.Equal(t, 1, lister.count())
}

func TestPoller_ReadyBeforeAwait(t *testing.T) {
	lister := &scriptedLister{script: []func() ([]container.ProcessInfo, error){status("chatgpt_academic", "Up 2 hours")}}
	p := NewPoller(lister, "chatgpt_academic", 0)
	p.Interval = time.Millisecond

	ready := p.Ready()
	go func() {
		_, _ = p.Await(context.Background())
	}()

	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("ready not signalled")
	}
}
