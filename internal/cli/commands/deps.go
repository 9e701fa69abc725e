package commands

import (
	"context"

	"chatdock/internal/bootstrap"
	"chatdock/internal/config"
	"chatdock/internal/db"
)

// HistoryLister pages through past launches
type HistoryLister interface {
	List(ctx context.Context, opts db.PaginationOptions) ([]*db.Launch, int, error)
}

// Deps are what the commands operate on. Settings and SettingsPath are
// always set; the rest is only needed by commands that touch the engine or
// the database.
type Deps struct {
	Settings     *config.GlobalConfig
	SettingsPath string

	Service  *bootstrap.Service
	Ports    bootstrap.PortFinder
	Launches HistoryLister
	DB       *db.DB
}
