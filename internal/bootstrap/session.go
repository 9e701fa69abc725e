package bootstrap

import (
	"chatdock/internal/config"
	"chatdock/internal/db"
)

// Session is what the launcher remembers between launches: where the
// service was last published and which configuration the image was built
// from.
type Session struct {
	Port             int    `json:"port"`
	ContainerPort    int    `json:"container_port"`
	Fingerprint      string `json:"fingerprint"`
	Built            bool   `json:"built"`
	UpstreamRevision string `json:"upstream_revision,omitempty"`
}

// Dirty reports whether cfg differs from the configuration the image was
// built from. Without a built image every config is dirty.
func (s Session) Dirty(cfg *config.LaunchConfig) bool {
	return !s.Built || s.Fingerprint != cfg.Fingerprint()
}

func sessionFromRecord(r *db.Session) Session {
	return Session{
		Port:             r.Port,
		ContainerPort:    r.ContainerPort,
		Fingerprint:      r.Fingerprint,
		Built:            r.Built,
		UpstreamRevision: r.UpstreamRevision,
	}
}

func (s Session) record() *db.Session {
	return &db.Session{
		Port:             s.Port,
		ContainerPort:    s.ContainerPort,
		Fingerprint:      s.Fingerprint,
		Built:            s.Built,
		UpstreamRevision: s.UpstreamRevision,
	}
}
