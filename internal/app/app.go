package app

import (
	"context"
	"fmt"
	"io"

	"chatdock/internal/artifact"
	"chatdock/internal/bootstrap"
	"chatdock/internal/cli"
	"chatdock/internal/cli/commands"
	"chatdock/internal/config"
	"chatdock/internal/container"
	"chatdock/internal/db"
	"chatdock/internal/git"
	"chatdock/internal/logger"
	"chatdock/internal/netutil"

	"github.com/spf13/afero"
)

// App represents the main application
type App struct {
	Settings     *config.GlobalConfig
	SettingsPath string
	DB           *db.DB
	Launcher     *container.Launcher
	Service      *bootstrap.Service
	CLI          *cli.Manager

	// Out overrides command output when set
	Out io.Writer
	// Executor overrides how engine commands are run when set
	Executor container.CommandExecutor
}

// New creates a new application instance
func New() *App {
	return &App{}
}

// Run starts the application
func (a *App) Run(args []string) error {
	return a.RunWithContext(context.Background(), args)
}

// RunWithContext wires the components and executes the command in args
func (a *App) RunWithContext(ctx context.Context, args []string) error {
	if err := a.init(ctx); err != nil {
		return err
	}
	defer a.Close()

	return a.CLI.ExecuteWithContext(ctx, args)
}

// Binary returns the configured engine CLI, once settings are loaded
func (a *App) Binary() string {
	if a.Settings == nil {
		return ""
	}
	return a.Settings.Engine.Binary
}

// Close releases the database
func (a *App) Close() {
	if a.DB == nil {
		return
	}
	if err := a.DB.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close database")
	}
	a.DB = nil
}

func (a *App) init(ctx context.Context) error {
	settingsPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to resolve settings path: %w", err)
	}
	settings, err := config.LoadGlobalConfigFrom(settingsPath)
	if err != nil {
		return err
	}
	a.Settings = settings
	a.SettingsPath = settingsPath
	logger.SetLevel(settings.Log.Level)

	database, err := db.New(db.DefaultConfig(settings.Storage.Database))
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	a.DB = database

	if err := database.Migrate(); err != nil {
		a.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	engine := container.NewEngine(settings.Engine.Binary, a.Executor)
	launcher, err := container.NewLauncher(engine, settings.Engine.ContainerName, settings.Engine.Image)
	if err != nil {
		a.Close()
		return err
	}
	a.Launcher = launcher

	ports := netutil.NewFinder(nil)
	launches := db.NewLaunchRepository(database)

	a.Service = bootstrap.NewService(bootstrap.Deps{
		Runtime:  launcher,
		Ports:    ports,
		Writer:   artifact.NewWriter(afero.NewOsFs(), settings.BuildTemplate()),
		Sessions: db.NewSessionRepository(database),
		Launches: launches,
		Upstream: git.NewTracker(),
	}, bootstrap.OptionsFromSettings(settings))

	// engine output reaches the terminal and websocket clients as output events
	launcher.SetOutput(a.Service.OutputWriter())

	if err := a.Service.Restore(ctx); err != nil {
		logger.WithError(err).Warn("Failed to restore session, starting fresh")
	}

	a.CLI = cli.New(&commands.Deps{
		Settings:     settings,
		SettingsPath: settingsPath,
		Service:      a.Service,
		Ports:        ports,
		Launches:     launches,
		DB:           database,
	}, nil)
	if a.Out != nil {
		a.CLI.SetOutput(a.Out)
	}

	logger.WithFields(logger.Fields{
		"settings": settingsPath,
		"database": settings.Storage.Database,
		"engine":   engine.Binary(),
	}).Debug("Application initialized")
	return nil
}
