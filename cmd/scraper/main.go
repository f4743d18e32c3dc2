package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

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
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		ServiceName: "stayscout-scraper",
	})
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	linksOnly := flag.Bool("links-only", false, "Only discover hotel links, do not scrape hotel data")
	hotelsOnly := flag.Bool("hotels-only", false, "Only scrape hotel data from an existing links ledger")
	updateLinks := flag.Bool("update-links", false, "Force fresh link discovery even when links exist")
	importOnly := flag.String("import-only", "", "Import the given hotels ledger into the database and exit")
	csvFile := flag.String("csv", "", "Links ledger to scrape from (default: the standard links ledger)")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	jobRepo := repository.NewJobRepository(db)
	logRepo := repository.NewLogRepository(db)

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

	fetcher := fetch.NewBrowserFetcher(&cfg.Scraper, &cfg.Search)
	defer fetcher.Close()

	orchestrator := service.NewOrchestrator(
		cfg,
		jobRepo,
		logRepo,
		searchapi.New(&cfg.Search, cfg.Scraper.CountryName),
		fetcher,
		extract.NewHotelExtractor(cfg.Scraper.CountryName),
		mirror,
		importer.New(db),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ctrl-C cancels the run; workers notice at their next checkpoint and
	// keep everything already written.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, stopping run...")
		cancel()
	}()

	if *importOnly != "" {
		job, err := jobRepo.Create(ctx, "Ledger import job")
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to create job")
		}
		res, err := orchestrator.ImportLedger(ctx, job.ID, *importOnly)
		if err != nil {
			appLogger.WithError(err).Fatal("Import failed")
		}
		appLogger.WithFields(logger.Fields{
			"imported": res.Imported,
			"failed":   res.Failed,
		}).Info("Import completed")
		return
	}

	switch {
	case *linksOnly:
		job, err := jobRepo.Create(ctx, "Hotel links scraping job")
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to create job")
		}
		if err := orchestrator.RunLinkScraping(ctx, job.ID, true); err != nil {
			appLogger.WithError(err).Fatal("Link scraping failed")
		}

	case *hotelsOnly:
		job, err := jobRepo.Create(ctx, "Hotel data scraping job")
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to create job")
		}
		if err := orchestrator.RunHotelScraping(ctx, job.ID, *csvFile); err != nil {
			appLogger.WithError(err).Fatal("Hotel scraping failed")
		}

	default:
		job, err := jobRepo.Create(ctx, "Complete scraping job")
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to create job")
		}
		if err := orchestrator.RunCompleteScraping(ctx, job.ID, *updateLinks); err != nil {
			appLogger.WithError(err).Fatal("Complete scraping failed")
		}
	}

	appLogger.Info("Done")
}
