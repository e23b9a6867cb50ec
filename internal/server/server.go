package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/TanZiPeng/mcserver/internal/backup"
	"github.com/TanZiPeng/mcserver/internal/config"
	"github.com/TanZiPeng/mcserver/internal/docker"
	"github.com/TanZiPeng/mcserver/internal/mc"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Containers is the slice of container control the API needs.
type Containers interface {
	Info(ctx context.Context) (*docker.ContainerInfo, error)
	Running(ctx context.Context) (bool, error)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
	Name() string
}

// GameConsole forwards admin commands to the game server.
type GameConsole interface {
	Send(ctx context.Context, command string) *mc.CommandResult
	Players(ctx context.Context) (*mc.PlayerList, error)
}

// BackupRunner triggers backup jobs.
type BackupRunner interface {
	StartAsync(selected []string) error
	Running() bool
}

// BackupHistory reads the backup ledger.
type BackupHistory interface {
	List(limit int) []backup.Record
	Get(id string) (backup.Record, error)
}

type Deps struct {
	Containers Containers
	Console    GameConsole
	Runner     BackupRunner
	History    BackupHistory
	Config     *config.Manager
	Log        *zap.Logger

	// Templates is the directory holding the dashboard pages; empty means
	// "templates" next to the working directory.
	Templates string
}

// Server is the dashboard: static pages plus the JSON API the pages call.
type Server struct {
	containers Containers
	console    GameConsole
	runner     BackupRunner
	history    BackupHistory
	config     *config.Manager
	log        *zap.Logger
	templates  string

	http *http.Server
}

func New(deps Deps) *Server {
	templates := deps.Templates
	if templates == "" {
		templates = "templates"
	}

	return &Server{
		containers: deps.Containers,
		console:    deps.Console,
		runner:     deps.Runner,
		history:    deps.History,
		config:     deps.Config,
		log:        deps.Log,
		templates:  templates,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.Use(s.requestID)
	r.Use(s.accessLog)

	for _, page := range []string{"/", "/console", "/dashboard", "/config", "/backup"} {
		r.HandleFunc(page, s.handlePage).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/container/start", s.handleContainerStart).Methods(http.MethodPost)
	api.HandleFunc("/container/stop", s.handleContainerStop).Methods(http.MethodPost)
	api.HandleFunc("/container/restart", s.handleContainerRestart).Methods(http.MethodPost)
	api.HandleFunc("/minecraft/command", s.handleCommand).Methods(http.MethodPost)
	api.HandleFunc("/minecraft/players", s.handlePlayers).Methods(http.MethodGet)
	api.HandleFunc("/config", s.handleConfigGet).Methods(http.MethodGet)
	api.HandleFunc("/config", s.handleConfigUpdate).Methods(http.MethodPost)
	api.HandleFunc("/backup/start", s.handleBackupStart).Methods(http.MethodPost)
	// the literal route must come before the id wildcard
	api.HandleFunc("/backup/history", s.handleBackupHistory).Methods(http.MethodGet)
	api.HandleFunc("/backup/{id}", s.handleBackupGet).Methods(http.MethodGet)

	return r
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Info("dashboard listening", zap.String("addr", addr))

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
