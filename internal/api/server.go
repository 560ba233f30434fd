// Package api assembles the HTTP surface: services, middleware and routes.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/moviweb/moviweb/internal/collection"
	"github.com/moviweb/moviweb/internal/config"
	"github.com/moviweb/moviweb/internal/database"
	"github.com/moviweb/moviweb/internal/importer"
	"github.com/moviweb/moviweb/internal/scheduler"
	"github.com/moviweb/moviweb/internal/websocket"
)

// Server handles HTTP requests for the MoviWeb API.
type Server struct {
	echo   *echo.Echo
	db     *database.DB
	hub    *websocket.Hub
	logger zerolog.Logger
	cfg    *config.Config
	sched  *scheduler.Scheduler

	startTime time.Time

	collectionService *collection.Service
	importerService   *importer.Service
}

// NewServer creates a new API server instance.
func NewServer(db *database.DB, hub *websocket.Hub, lookup importer.LookupClient, cfg *config.Config, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		db:        db,
		hub:       hub,
		logger:    logger,
		cfg:       cfg,
		startTime: time.Now(),
	}

	s.collectionService = collection.NewService(db.Conn(), logger)
	s.collectionService.SetBroadcaster(hub)
	s.importerService = importer.NewService(lookup, s.collectionService, logger)
	s.importerService.SetBroadcaster(hub)

	s.setupMiddleware()
	s.setupRoutes(lookup)

	return s
}

// SetScheduler wires the background scheduler for the task endpoints.
func (s *Server) SetScheduler(sched *scheduler.Scheduler) {
	s.sched = sched
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			// Skip compression for WebSocket
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes(lookup importer.LookupClient) {
	s.echo.GET("/health", s.healthCheck)

	api := s.echo.Group("/api/v1")
	api.GET("/status", s.getStatus(lookup))

	collectionHandlers := collection.NewHandlers(s.collectionService)
	collectionHandlers.RegisterRoutes(api)

	importerHandlers := importer.NewHandlers(s.importerService)
	importerHandlers.RegisterRoutes(api)

	api.GET("/tasks", s.listTasks)
	api.POST("/tasks/:id/run", s.runTask)

	s.echo.GET("/ws", s.hub.HandleWebSocket)
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(lookup importer.LookupClient) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		userCount, _ := s.collectionService.CountUsers(ctx)
		movieCount, _ := s.collectionService.CountMovies(ctx)

		return c.JSON(http.StatusOK, map[string]any{
			"version":          config.Version,
			"startTime":        s.startTime.Format(time.RFC3339),
			"userCount":        userCount,
			"movieCount":       movieCount,
			"lookupProvider":   lookup.Name(),
			"lookupConfigured": lookup.IsConfigured(),
			"connectedClients": s.hub.ClientCount(),
		})
	}
}

func (s *Server) listTasks(c echo.Context) error {
	if s.sched == nil {
		return c.JSON(http.StatusOK, []scheduler.TaskInfo{})
	}
	return c.JSON(http.StatusOK, s.sched.ListTasks())
}

func (s *Server) runTask(c echo.Context) error {
	if s.sched == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "scheduler not running"})
	}
	if err := s.sched.RunNow(c.Param("id")); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "started"})
}
