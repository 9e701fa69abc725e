package bootstrap

import (
	"sync"
	"time"
)

// EventType identifies what an Event carries
type EventType string

const (
	// EventOutput carries a chunk of engine output
	EventOutput EventType = "output"
	// EventState reports a step of the launch sequence
	EventState EventType = "state"
	// EventReady fires once the container reports running
	EventReady EventType = "ready"
	// EventNavigate carries the URL the front end should open
	EventNavigate EventType = "navigate"
	// EventError reports a failed launch
	EventError EventType = "error"
)

// State is the launcher's position in the launch sequence
type State string

const (
	StateIdle             State = "idle"
	StateCheckingEngine   State = "checking_engine"
	StateAllocatingPort   State = "allocating_port"
	StateWritingArtifacts State = "writing_artifacts"
	StateBuilding         State = "building"
	StateStarting         State = "starting"
	StateWaiting          State = "waiting"
	StateSettling         State = "settling"
	StateReady            State = "ready"
	StateFailed           State = "failed"
	StateStopped          State = "stopped"
)

// Event is delivered to observers as the launch progresses
type Event struct {
	Type    EventType `json:"type"`
	State   State     `json:"state,omitempty"`
	Message string    `json:"message,omitempty"`
	URL     string    `json:"url,omitempty"`
	Port    int       `json:"port,omitempty"`
	Code    string    `json:"code,omitempty"`
	Output  string    `json:"output,omitempty"`
	Time    time.Time `json:"time"`
}

// Observer receives events. It is called synchronously and must not block.
type Observer func(Event)

type emitter struct {
	mu        sync.RWMutex
	observers map[int]Observer
	next      int
}

func newEmitter() *emitter {
	return &emitter{observers: make(map[int]Observer)}
}

// subscribe registers o and returns a function removing it
func (e *emitter) subscribe(o Observer) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.next
	e.next++
	e.observers[id] = o

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.observers, id)
	}
}

func (e *emitter) emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	e.mu.RLock()
	observers := make([]Observer, 0, len(e.observers))
	for _, o := range e.observers {
		observers = append(observers, o)
	}
	e.mu.RUnlock()

	for _, o := range observers {
		o(ev)
	}
}

// outputWriter turns engine output into output events
type outputWriter struct {
	events *emitter
}

func (w outputWriter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		w.events.emit(Event{Type: EventOutput, Output: string(p)})
	}
	return len(p), nil
}
