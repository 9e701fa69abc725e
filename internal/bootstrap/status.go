package bootstrap

import (
	"context"

	"chatdock/internal/container"
)

// Status is a point-in-time view of the launcher and its container
type Status struct {
	State           State                  `json:"state"`
	Session         Session                `json:"session"`
	URL             string                 `json:"url,omitempty"`
	Container       *container.ProcessInfo `json:"container,omitempty"`
	EngineError     string                 `json:"engine_error,omitempty"`
	UpstreamChanged bool                   `json:"upstream_changed"`
	UpstreamHead    string                 `json:"upstream_head,omitempty"`
}

// Status queries the engine for the container and, when checkUpstream is
// set, compares the upstream HEAD with the one the image was built from.
// Engine failures are reported in the result, not returned.
func (s *Service) Status(ctx context.Context, checkUpstream bool) *Status {
	s.mu.RLock()
	st := &Status{
		State:   s.state,
		Session: s.session,
		URL:     s.lastURL,
	}
	s.mu.RUnlock()

	infos, err := s.deps.Runtime.List(ctx)
	if err != nil {
		st.EngineError = err.Error()
	} else if info, ok := container.Find(infos, s.opts.ContainerName); ok {
		st.Container = &info
		if st.URL == "" && info.Running() && st.Session.Port != 0 {
			st.URL = container.LocalURL(st.Session.Port)
		}
	}

	if checkUpstream {
		st.UpstreamChanged, st.UpstreamHead = s.UpstreamChanged(ctx)
	}
	return st
}
