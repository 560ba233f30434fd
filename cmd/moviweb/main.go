package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/moviweb/moviweb/internal/api"
	"github.com/moviweb/moviweb/internal/config"
	"github.com/moviweb/moviweb/internal/database"
	"github.com/moviweb/moviweb/internal/importer"
	"github.com/moviweb/moviweb/internal/logger"
	"github.com/moviweb/moviweb/internal/metadata/mock"
	"github.com/moviweb/moviweb/internal/metadata/omdb"
	"github.com/moviweb/moviweb/internal/scheduler"
	"github.com/moviweb/moviweb/internal/scheduler/tasks"
	"github.com/moviweb/moviweb/internal/websocket"
)

func main() {
	// .env is optional; it carries API_KEY in typical deployments.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file")
	useMock := flag.Bool("mock-lookup", false, "Use canned lookup data instead of the OMDb API")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting MoviWeb")

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	log.Info().Msg("running database migrations")
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	var lookup importer.LookupClient
	if *useMock {
		log.Info().Msg("using mock lookup client")
		lookup = mock.NewOMDBClient()
	} else {
		lookup = omdb.NewClient(cfg.OMDB, log.Logger)
		if !lookup.IsConfigured() {
			log.Warn().Msg("no OMDb API key configured; search and import will be unavailable")
		}
	}

	server := api.NewServer(db, hub, lookup, cfg, log.Logger)

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}
	if err := tasks.RegisterDBMaintenanceTask(sched, db); err != nil {
		log.Fatal().Err(err).Msg("failed to register maintenance task")
	}
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	server.SetScheduler(sched)

	go func() {
		if err := server.Start(cfg.Server.Address()); err != nil {
			log.Info().Err(err).Msg("HTTP server stopped")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop scheduler")
	}
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to shut down server")
	}

	log.Info().Msg("shutdown complete")
}
