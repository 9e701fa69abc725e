package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatdock/internal/artifact"
	"chatdock/internal/bootstrap"
	"chatdock/internal/config"
	"chatdock/internal/constants"
	"chatdock/internal/db"
	"chatdock/internal/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Config holds the server configuration
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// CORS settings
	AllowOrigins []string
	AllowHeaders []string
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            constants.DefaultServerPort,
		ReadTimeout:     constants.DefaultServerReadTimeout,
		WriteTimeout:    constants.DefaultServerWriteTimeout,
		ShutdownTimeout: constants.DefaultServerShutdownTimeout,
		AllowOrigins:    []string{"http://localhost", "http://127.0.0.1"},
		AllowHeaders:    []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}
}

// ConfigFromSettings applies the [server] section of the launcher settings
func ConfigFromSettings(settings *config.GlobalConfig) *Config {
	cfg := DefaultConfig()
	if settings.Server.Host != "" {
		cfg.Host = settings.Server.Host
	}
	if settings.Server.Port != 0 {
		cfg.Port = settings.Server.Port
	}
	return cfg
}

// LaunchLister pages through the launch history
type LaunchLister interface {
	List(ctx context.Context, opts db.PaginationOptions) ([]*db.Launch, int, error)
}

// Deps are the collaborators the handlers call into. Launches and DB are
// optional.
type Deps struct {
	Service  *bootstrap.Service
	Ports    bootstrap.PortFinder
	Launches LaunchLister
	DB       *db.DB
	Settings *config.GlobalConfig
}

// Server represents the local HTTP API
type Server struct {
	config    *Config
	echo      *echo.Echo
	deps      Deps
	hub       *Hub
	template  artifact.BuildTemplate
	startTime time.Time
	ready     bool

	// lifetime bounds launches started over HTTP; it ends at shutdown
	lifetime    context.Context
	endLifetime context.CancelFunc
}

// New creates a server. A nil cfg means DefaultConfig.
func New(cfg *Config, deps Deps) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if deps.Settings == nil {
		deps.Settings = config.DefaultGlobalConfig()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	lifetime, endLifetime := context.WithCancel(context.Background())
	return &Server{
		config:      cfg,
		echo:        e,
		deps:        deps,
		hub:         NewHub(deps.Service),
		template:    deps.Settings.BuildTemplate(),
		startTime:   time.Now(),
		lifetime:    lifetime,
		endLifetime: endLifetime,
	}
}

// launchContext detaches a launch from its request: a client that goes away
// does not abort a build, server shutdown does. Request values are kept.
func (s *Server) launchContext(c echo.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))
	stop := context.AfterFunc(s.lifetime, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Echo returns the Echo instance
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	s.setup()
	return s.echo
}

func (s *Server) setup() {
	if s.ready {
		return
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.ready = true
}

// Start serves until ctx is cancelled or the process is interrupted, then
// shuts down gracefully and tears the container down if configured to.
func (s *Server) Start(ctx context.Context) error {
	s.setup()

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	logger.WithField("addr", addr).Info("Starting chatdock API server")

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.echo,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errChan:
		return err
	case <-quit:
		logger.Info("Shutting down server...")
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.hub.Close()
	s.endLifetime()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if s.deps.Service != nil {
		if err := s.deps.Service.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Failed to stop container on exit")
		}
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func (s *Server) setupMiddleware() {
	s.echo.Use(logger.RequestLogger())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.config.AllowOrigins,
		AllowHeaders: s.config.AllowHeaders,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	s.echo.Use(contextEnricher())
}
