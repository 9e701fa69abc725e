// Package netutil finds a host port the service container can publish on.
package netutil

import (
	"errors"
	"net"
	"strconv"
	"syscall"

	chaterrors "chatdock/internal/errors"
	"chatdock/internal/logger"
)

// ListenFunc opens a TCP listener; net.Listen in production
type ListenFunc func(network, address string) (net.Listener, error)

// Finder probes ports by binding to them
type Finder struct {
	listen ListenFunc
}

// NewFinder creates a finder. A nil listen func means net.Listen.
func NewFinder(listen ListenFunc) *Finder {
	if listen == nil {
		listen = net.Listen
	}
	return &Finder{listen: listen}
}

// FindFreePort returns the first port at or above start that can be bound
// on all interfaces. Only "address in use" moves the scan forward; any other
// bind error is returned as PORT_UNAVAILABLE. The port is released before
// returning, so another process may still take it.
func (f *Finder) FindFreePort(start int) (int, error) {
	for port := start; ; port++ {
		ln, err := f.listen("tcp", ":"+strconv.Itoa(port))
		if err == nil {
			if cerr := ln.Close(); cerr != nil {
				logger.WithError(cerr).WithField("port", port).Warn("Failed to release probe listener")
			}
			if port != start {
				logger.WithFields(logger.Fields{
					"start": start,
					"port":  port,
				}).Debug("Skipped busy ports")
			}
			return port, nil
		}

		if !IsAddrInUse(err) {
			return 0, chaterrors.PortUnavailable(port, err)
		}
	}
}

// IsAddrInUse reports whether err is a bind failure because the port is taken
func IsAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}
