//go:build integration
// +build integration

package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chatdock/internal/artifact"
	"chatdock/internal/bootstrap"
	"chatdock/internal/config"
	"chatdock/internal/container"
	"chatdock/internal/db"
	"chatdock/internal/errors"
	"chatdock/internal/netutil"
	"chatdock/internal/server"

	"github.com/gorilla/websocket"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"
)

const containerName = "chatgpt_academic"

// LaunchIntegrationTestSuite runs launches through the real launcher, a
// file-backed database and the HTTP API, with only the engine binary faked
type LaunchIntegrationTestSuite struct {
	suite.Suite
	testDir  string
	settings *config.GlobalConfig
	engine   *scriptedEngine
	db       *db.DB
	service  *bootstrap.Service
}

func (s *LaunchIntegrationTestSuite) SetupTest() {
	testDir, err := os.MkdirTemp("", "chatdock-integration-*")
	s.Require().NoError(err)
	s.testDir = testDir

	s.settings = config.DefaultGlobalConfig()
	s.settings.Storage.BuildDir = filepath.Join(testDir, "build")
	s.settings.Storage.Database = filepath.Join(testDir, "chatdock.db")
	s.settings.Launch.PollIntervalMs = 10
	s.settings.Launch.SettleDelayMs = 0
	s.settings.Upstream.Track = false

	s.engine = newScriptedEngine(containerName, 2)
	s.open()
}

func (s *LaunchIntegrationTestSuite) TearDownTest() {
	if s.db != nil {
		s.db.Close()
	}
	os.RemoveAll(s.testDir)
}

// open wires a fresh service over the database file, as a new process would
func (s *LaunchIntegrationTestSuite) open() {
	if s.db != nil {
		s.Require().NoError(s.db.Close())
	}

	database, err := db.New(db.DefaultConfig(s.settings.Storage.Database))
	s.Require().NoError(err)
	s.Require().NoError(database.Migrate())
	s.db = database

	launcher, err := container.NewLauncher(
		container.NewEngine("docker", s.engine),
		s.settings.Engine.ContainerName,
		s.settings.Engine.Image,
	)
	s.Require().NoError(err)

	s.service = bootstrap.NewService(bootstrap.Deps{
		Runtime:  launcher,
		Ports:    netutil.NewFinder(nil),
		Writer:   artifact.NewWriter(afero.NewOsFs(), s.settings.BuildTemplate()),
		Sessions: db.NewSessionRepository(database),
		Launches: db.NewLaunchRepository(database),
	}, bootstrap.OptionsFromSettings(s.settings))
	launcher.SetOutput(s.service.OutputWriter())

	s.Require().NoError(s.service.Restore(context.Background()))
}

func (s *LaunchIntegrationTestSuite) launchConfig() *config.LaunchConfig {
	cfg := config.DefaultLaunchConfig()
	cfg.APIKey = "sk-integration"
	return cfg
}

func (s *LaunchIntegrationTestSuite) TestLaunchOverHTTP() {
	srv := server.New(server.DefaultConfig(), server.Deps{
		Service:  s.service,
		Ports:    netutil.NewFinder(nil),
		Launches: db.NewLaunchRepository(s.db),
		DB:       s.db,
		Settings: s.settings,
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/events", nil)
	s.Require().NoError(err)
	defer conn.Close()

	body := bytes.NewBufferString(`{"config":{"api_key":"sk-integration"}}`)
	resp, err := http.Post(ts.URL+"/api/launch", "application/json", body)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var result bootstrap.Result
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&result))
	s.Equal(db.LaunchModeBuild, result.Mode)
	s.GreaterOrEqual(result.Port, s.settings.Launch.StartPort)
	s.Equal(fmt.Sprintf("http://localhost:%d", result.Port), result.URL)

	// artifacts landed on disk
	configPy, err := os.ReadFile(filepath.Join(s.settings.Storage.BuildDir, "config.py"))
	s.Require().NoError(err)
	s.Contains(string(configPy), "API_KEY = 'sk-integration'")
	s.Contains(string(configPy), fmt.Sprintf("WEB_PORT = %d", result.Port))
	dockerfile, err := os.ReadFile(filepath.Join(s.settings.Storage.BuildDir, "Dockerfile"))
	s.Require().NoError(err)
	s.Contains(string(dockerfile), "COPY config.py")

	s.Equal(1, s.engine.count("build"))
	s.Equal(1, s.engine.count("run"))
	s.GreaterOrEqual(s.engine.count("ps"), 3, "two polls before the container is up")

	// the navigate event reaches websocket clients
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	var navigate bootstrap.Event
	for navigate.Type != bootstrap.EventNavigate {
		s.Require().NoError(conn.ReadJSON(&navigate))
	}
	s.Equal(result.URL, navigate.URL)

	resp, err = http.Get(ts.URL + "/api/launches")
	s.Require().NoError(err)
	defer resp.Body.Close()

	var page db.PaginatedResponse[*db.Launch]
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&page))
	s.Require().Equal(1, page.TotalItems)
	s.Equal(db.LaunchStatusReady, page.Data[0].Status)
	s.Equal(result.URL, page.Data[0].URL)
}

func (s *LaunchIntegrationTestSuite) TestSessionSurvivesProcessRestart() {
	ctx := context.Background()

	first, err := s.service.Launch(ctx, s.launchConfig(), 0)
	s.Require().NoError(err)

	s.open()
	s.True(s.service.Session().Built)
	s.Equal(first.Port, s.service.Session().Port)

	second, err := s.service.Start(ctx, s.launchConfig())
	s.Require().NoError(err)
	s.Equal(db.LaunchModeRestart, second.Mode)
	s.Equal(first.URL, second.URL)
	s.Equal(1, s.engine.count("build"), "an unchanged configuration is not rebuilt")

	changed := s.launchConfig()
	changed.Model = "gpt-4"
	third, err := s.service.Start(ctx, changed)
	s.Require().NoError(err)
	s.Equal(db.LaunchModeBuild, third.Mode)
	s.Equal(2, s.engine.count("build"))
}

func (s *LaunchIntegrationTestSuite) TestBuildFailureIsRecorded() {
	ctx := context.Background()
	s.engine.failBuild("#7 ERROR: process \"/bin/sh -c pip3 install -r requirements.txt\" did not complete successfully\n")

	_, err := s.service.Launch(ctx, s.launchConfig(), 0)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrBuildOrRunFailed))
	s.Equal(0, s.engine.count("run"))

	launches, total, err := db.NewLaunchRepository(s.db).List(ctx, db.DefaultPaginationOptions())
	s.Require().NoError(err)
	s.Require().Equal(1, total)
	s.Equal(db.LaunchStatusFailed, launches[0].Status)
	s.Contains(launches[0].ErrorOutput, "pip3 install")

	_, err = s.service.Restart(ctx, 0)
	s.True(errors.HasCode(err, errors.ErrNotBuilt))
}

func (s *LaunchIntegrationTestSuite) TestResetClearsBuiltState() {
	ctx := context.Background()

	_, err := s.service.Launch(ctx, s.launchConfig(), 0)
	s.Require().NoError(err)
	s.Require().NoError(s.service.Reset(ctx))
	s.Equal(1, s.engine.count("rmi"))

	s.open()
	s.False(s.service.Session().Built)
}

func TestLaunchIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(LaunchIntegrationTestSuite))
}
