package server

import (
	"chatdock/internal/config"
)

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status   string `json:"status" example:"healthy"`
	Uptime   string `json:"uptime" example:"2h30m15s"`
	Database string `json:"database,omitempty" example:"healthy"`
}

// LaunchRequest starts a full build. Config is decoded on top of the
// defaults; Port pins the host port when non-zero.
type LaunchRequest struct {
	Config *config.LaunchConfig `json:"config"`
	Port   int                  `json:"port,omitempty"`
}

// RestartRequest restarts the last built image, optionally on another port
type RestartRequest struct {
	Port int `json:"port,omitempty"`
}

// RenderResponse previews the generated artifacts without writing them
type RenderResponse struct {
	Config      string `json:"config"`
	Dockerfile  string `json:"dockerfile"`
	Fingerprint string `json:"fingerprint"`
}

// PortResponse reports the host port the next launch would use
type PortResponse struct {
	Port int    `json:"port"`
	URL  string `json:"url"`
}

// SuccessResponse represents a successful operation response
type SuccessResponse struct {
	Message string `json:"message" example:"Container stopped"`
}
