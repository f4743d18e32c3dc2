package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stayscout/internal/api"
	"stayscout/internal/config"
	"stayscout/internal/importer"
	"stayscout/internal/logger"
	"stayscout/internal/repository"
	"stayscout/internal/scraper"
	"stayscout/internal/scraper/extract"
	"stayscout/internal/scraper/fetch"
	"stayscout/internal/searchapi"
	"stayscout/internal/service"
	"stayscout/internal/storage"
)

func main() {
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	jobRepo := repository.NewJobRepository(db)
	logRepo := repository.NewLogRepository(db)
	hotelRepo := repository.NewHotelRepository(db)

	// Object storage is optional; without it image links stay on the source
	// CDN.
	var mirror scraper.ImageMirror
	if cfg.Storage.Enabled {
		objectStorage, err := storage.NewStorage(&cfg.Storage)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
		if err := objectStorage.EnsureBucket(context.Background()); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
		mirror = storage.NewMirror(objectStorage, "hotel-images")
	}

	searchClient := searchapi.New(&cfg.Search, cfg.Scraper.CountryName)
	fetcher := fetch.NewBrowserFetcher(&cfg.Scraper, &cfg.Search)
	defer fetcher.Close()
	extractor := extract.NewHotelExtractor(cfg.Scraper.CountryName)

	orchestrator := service.NewOrchestrator(
		cfg,
		jobRepo,
		logRepo,
		searchClient,
		fetcher,
		extractor,
		mirror,
		importer.New(db),
	)
	launcher := service.NewLauncher(orchestrator, jobRepo)

	router := api.SetupRouter(cfg, db, orchestrator, launcher, jobRepo, logRepo, hotelRepo)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
