package server

import (
	"net/http"
	"strconv"
	"time"

	"chatdock/internal/artifact"
	"chatdock/internal/config"
	"chatdock/internal/container"
	"chatdock/internal/db"
	"chatdock/internal/errors"
	"chatdock/internal/logger"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func (s *Server) setupRoutes() {
	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	s.echo.GET("/health", s.handleHealth)

	api := s.echo.Group("/api")

	// launch sequence
	api.POST("/launch", s.handleLaunch)
	api.POST("/start", s.handleStart)
	api.POST("/restart", s.handleRestart)
	api.POST("/stop", s.handleStop)
	api.POST("/reset", s.handleReset)

	// inspection
	api.GET("/status", s.handleStatus)
	api.GET("/launches", s.handleListLaunches)
	api.GET("/render", s.handleRender)
	api.POST("/render", s.handleRender)
	api.GET("/port", s.handlePort)

	api.GET("/events", s.handleEvents)
}

// handleHealth reports liveness and, when a database is attached, whether
// it answers
func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{
		Status: "healthy",
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
	}
	if s.deps.DB != nil {
		resp.Database = "healthy"
		if err := s.deps.DB.HealthCheck(c.Request().Context()); err != nil {
			resp.Status = "degraded"
			resp.Database = "unhealthy"
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// handleLaunch runs a full build and blocks until the service is ready.
// Progress is streamed on /api/events.
func (s *Server) handleLaunch(c echo.Context) error {
	req := LaunchRequest{Config: config.DefaultLaunchConfig()}
	if err := bindBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := s.launchContext(c)
	defer cancel()

	result, err := s.deps.Service.Launch(ctx, req.Config, req.Port)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// handleStart launches or, when the configuration matches the last build,
// only restarts
func (s *Server) handleStart(c echo.Context) error {
	req := LaunchRequest{Config: config.DefaultLaunchConfig()}
	if err := bindBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := s.launchContext(c)
	defer cancel()

	result, err := s.deps.Service.Start(ctx, req.Config)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleRestart(c echo.Context) error {
	var req RestartRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := s.launchContext(c)
	defer cancel()

	result, err := s.deps.Service.Restart(ctx, req.Port)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleStop(c echo.Context) error {
	if err := s.deps.Service.Stop(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "Container stopped"})
}

func (s *Server) handleReset(c echo.Context) error {
	if err := s.deps.Service.Reset(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "Container and image removed"})
}

// handleStatus reports the launcher state; ?upstream=true also compares the
// upstream HEAD with the built revision
func (s *Server) handleStatus(c echo.Context) error {
	checkUpstream, _ := strconv.ParseBool(c.QueryParam("upstream"))
	return c.JSON(http.StatusOK, s.deps.Service.Status(c.Request().Context(), checkUpstream))
}

func (s *Server) handleListLaunches(c echo.Context) error {
	if s.deps.Launches == nil {
		return errors.New(errors.ErrInternal, "launch history is not available")
	}

	opts := db.DefaultPaginationOptions()
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &opts); err != nil {
		return errors.ValidationFailed("query", c.QueryString(), err.Error())
	}
	if err := opts.Validate(); err != nil {
		return errors.ValidationFailed("pagination", c.QueryString(), err.Error())
	}

	launches, total, err := s.deps.Launches.List(c.Request().Context(), opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, db.NewPaginatedResponse(launches, opts, total))
}

// handleRender previews config.py and the Dockerfile. GET renders the
// defaults, POST renders the submitted config. Nothing is written.
func (s *Server) handleRender(c echo.Context) error {
	cfg := config.DefaultLaunchConfig()
	if c.Request().Method == http.MethodPost {
		if err := bindBody(c, cfg); err != nil {
			return err
		}
	}

	port := s.deps.Service.Session().Port
	if port == 0 {
		port = s.deps.Settings.Launch.StartPort
	}
	cfg = cfg.WithPort(port)

	dockerfile, err := artifact.RenderBuildDescriptor(s.template)
	if err != nil {
		return errors.Wrap(errors.ErrInternal, "failed to render Dockerfile", err)
	}

	return c.JSON(http.StatusOK, RenderResponse{
		Config:      artifact.RenderConfig(cfg.Document()),
		Dockerfile:  dockerfile,
		Fingerprint: cfg.Fingerprint(),
	})
}

// handlePort reports the session port, or probes for a free one from
// ?start= (default: the configured start port)
func (s *Server) handlePort(c echo.Context) error {
	if port := s.deps.Service.Session().Port; port != 0 && c.QueryParam("start") == "" {
		return c.JSON(http.StatusOK, PortResponse{Port: port, URL: container.LocalURL(port)})
	}

	start := s.deps.Settings.Launch.StartPort
	if raw := c.QueryParam("start"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return errors.InvalidPort(raw, "not a number")
		}
		start = n
	}

	port, err := s.deps.Ports.FindFreePort(start)
	if err != nil {
		return err
	}
	logger.WithField("port", port).Debug("Free port found")
	return c.JSON(http.StatusOK, PortResponse{Port: port, URL: container.LocalURL(port)})
}

// bindBody decodes a JSON body into v, leaving v untouched when the body
// is empty
func bindBody(c echo.Context, v interface{}) error {
	if c.Request().ContentLength == 0 {
		return nil
	}
	if err := (&echo.DefaultBinder{}).BindBody(c, v); err != nil {
		return errors.ValidationFailed("body", "", err.Error())
	}
	return nil
}
