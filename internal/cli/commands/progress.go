package commands

import (
	"fmt"
	"io"
	"sync"

	"chatdock/internal/bootstrap"
)

var stateLabels = map[bootstrap.State]string{
	bootstrap.StateCheckingEngine:   "Checking container engine",
	bootstrap.StateAllocatingPort:   "Allocating port",
	bootstrap.StateWritingArtifacts: "Writing config.py and Dockerfile",
	bootstrap.StateBuilding:         "Building image",
	bootstrap.StateStarting:         "Starting container",
	bootstrap.StateWaiting:          "Waiting for the container to come up",
	bootstrap.StateSettling:         "Letting the application finish starting",
}

// progressPrinter renders launch events for a terminal. Engine output is
// only shown when showOutput is set.
func progressPrinter(w io.Writer, showOutput bool) bootstrap.Observer {
	var mu sync.Mutex
	return func(ev bootstrap.Event) {
		mu.Lock()
		defer mu.Unlock()

		switch ev.Type {
		case bootstrap.EventOutput:
			if showOutput {
				fmt.Fprint(w, ev.Output)
			}
		case bootstrap.EventState:
			label, ok := stateLabels[ev.State]
			if !ok {
				return
			}
			if ev.Message != "" {
				fmt.Fprintf(w, "→ %s (%s)\n", label, ev.Message)
			} else {
				fmt.Fprintf(w, "→ %s\n", label)
			}
		case bootstrap.EventReady:
			fmt.Fprintf(w, "✓ Container is up: %s\n", ev.Message)
		}
	}
}
