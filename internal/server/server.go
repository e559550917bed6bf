// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/handlers"
	"github.com/itsatony/telemhub/api"
	"github.com/itsatony/telemhub/internal/broker"
	"github.com/itsatony/telemhub/internal/config"
	"github.com/itsatony/telemhub/internal/database"
	"github.com/itsatony/telemhub/internal/hub"
	"github.com/itsatony/telemhub/internal/ingest"
	"github.com/itsatony/telemhub/internal/janitor"
	"github.com/itsatony/telemhub/internal/monitoring"
	"github.com/itsatony/telemhub/internal/repository/postgres"
	"github.com/itsatony/telemhub/internal/service"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

// Server wires the ingestion pipeline, fan-out hub, and HTTP query API
// together and owns their lifecycles.
type Server struct {
	config     *config.Config
	srv        *http.Server
	db         database.DB
	broker     *broker.Client
	hub        *hub.Hub
	service    *service.TelemetryService
	monitoring *monitoring.Service
	cancel     context.CancelFunc
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{
		config: cfg,
	}
}

// Start brings up every component and blocks until shutdown
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	defer cancel()

	if err := s.initialize(ctx); err != nil {
		return err
	}

	// Start HTTP server
	go func() {
		nuts.L.Infof("[Server] Listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

func (s *Server) initialize(ctx context.Context) error {
	// Storage
	db, err := database.NewPostgresDB(s.config.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = db

	readings, err := postgres.NewReadingRepository(db)
	if err != nil {
		return fmt.Errorf("failed to initialize readings repository: %w", err)
	}
	status, err := postgres.NewDeviceStatusRepository(db)
	if err != nil {
		return fmt.Errorf("failed to initialize device status repository: %w", err)
	}

	// Hot cache for current readings
	cache := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", s.config.Redis.Host, s.config.Redis.Port),
		Password: s.config.Redis.Password,
		DB:       s.config.Redis.DB,
	})
	if err := cache.Ping(ctx).Err(); err != nil {
		nuts.L.Warnf("[Server] Redis unavailable, current readings served from store only: %v", err)
		cache = nil
	}

	s.service = service.New(readings, status, cache)
	if err := s.service.Validate(); err != nil {
		return err
	}

	s.monitoring = monitoring.NewService(monitoring.Config{})

	// Fan-out hub: constructed once here, torn down with the server,
	// injected into the pipeline. Never a package-level singleton.
	s.hub = hub.New(s.config.Live.QueueSize)
	go s.hub.Run(ctx)

	// Upstream broker and ingestion pipeline
	mqttClient, err := broker.Connect(s.config.MQTT)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	s.broker = mqttClient

	pipeline := ingest.New(s.config.MQTT, mqttClient, s.service, s.hub, s.config.Live.QueueSize)
	if err := pipeline.Start(ctx); err != nil {
		return fmt.Errorf("failed to start ingestion pipeline: %w", err)
	}

	// Retention sweeper
	sweeper := janitor.New(readings, s.config.Retention)
	sweeper.OnPurge(func(deleted string) {
		s.monitoring.RecordEvent("readings_purged", map[string]string{
			"deleted": deleted,
		})
	})
	go sweeper.Run(ctx)

	// HTTP surface
	router := api.NewRouter(s.service, s.hub, s.config.Live)
	handler := handlers.CombinedLoggingHandler(os.Stdout,
		handlers.CORS(
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedMethods([]string{http.MethodGet}),
		)(router))

	s.srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:      handler,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	return nil
}

// waitForShutdown waits for interrupt signal and gracefully shuts down
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down...")

	// Deliberate disconnect: the broker client must not reconnect.
	s.broker.Disconnect()
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	if err := s.db.Close(); err != nil {
		nuts.L.Warnf("[Server] Error closing database: %v", err)
	}

	nuts.L.Infof("[Server] Shut down cleanly")
	return nil
}
