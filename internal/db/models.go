// Package db provides database models for chatdock
package db

import (
	"time"
)

// LaunchMode is how a launch started the service
type LaunchMode string

const (
	// LaunchModeBuild wrote artifacts and built the image
	LaunchModeBuild LaunchMode = "build"
	// LaunchModeRestart ran the existing image
	LaunchModeRestart LaunchMode = "restart"
)

// LaunchStatus is the outcome of a launch
type LaunchStatus string

const (
	LaunchStatusRunning LaunchStatus = "running"
	LaunchStatusReady   LaunchStatus = "ready"
	LaunchStatusFailed  LaunchStatus = "failed"
)

// Session is the persisted launcher state. There is a single row.
type Session struct {
	Port             int       `json:"port" db:"port"`                     // host port last published
	ContainerPort    int       `json:"container_port" db:"container_port"` // WEB_PORT baked into the image
	Fingerprint      string    `json:"fingerprint" db:"fingerprint"`
	Built            bool      `json:"built" db:"built"`
	UpstreamRevision string    `json:"upstream_revision" db:"upstream_revision"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for Session
func (Session) TableName() string {
	return "sessions"
}

// Launch records one launch or restart attempt
type Launch struct {
	ID          string       `json:"id" db:"id"`
	Mode        LaunchMode   `json:"mode" db:"mode"`
	Port        int          `json:"port" db:"port"`
	Fingerprint string       `json:"fingerprint" db:"fingerprint"`
	Status      LaunchStatus `json:"status" db:"status"`
	URL         string       `json:"url,omitempty" db:"url"`
	ErrorCode   string       `json:"error_code,omitempty" db:"error_code"`
	ErrorOutput string       `json:"error_output,omitempty" db:"error_output"`
	StartedAt   time.Time    `json:"started_at" db:"started_at"`
	FinishedAt  *time.Time   `json:"finished_at,omitempty" db:"finished_at"`
}

// TableName returns the table name for Launch
func (Launch) TableName() string {
	return "launches"
}

// Duration returns how long a finished launch took
func (l *Launch) Duration() time.Duration {
	if l.FinishedAt == nil {
		return 0
	}
	return l.FinishedAt.Sub(l.StartedAt)
}
