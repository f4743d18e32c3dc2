package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"stayscout/internal/api/handler"
	"stayscout/internal/api/middleware"
	"stayscout/internal/config"
	"stayscout/internal/repository"
	"stayscout/internal/service"
)

// SetupRouter configures the Gin router with all routes.
func SetupRouter(
	cfg *config.Config,
	db *gorm.DB,
	orchestrator *service.Orchestrator,
	launcher *service.Launcher,
	jobs *repository.JobRepository,
	logs *repository.LogRepository,
	hotels *repository.HotelRepository,
) *gin.Engine {
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}))

	healthHandler := handler.NewHealthHandler(db)
	jobHandler := handler.NewJobHandler(jobs, logs)
	hotelHandler := handler.NewHotelHandler(hotels)
	scrapeHandler := handler.NewScrapeHandler(launcher)
	ledgerHandler := handler.NewLedgerHandler(orchestrator, launcher, cfg.Scraper.CSVDir)
	statsHandler := handler.NewStatsHandler(hotels, jobs)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Hotels
		v1.GET("/hotels", hotelHandler.ListHotels)
		v1.GET("/hotels/:id", hotelHandler.GetHotel)

		// Jobs
		v1.GET("/jobs", jobHandler.ListJobs)
		v1.GET("/jobs/:id", jobHandler.GetJob)
		v1.GET("/jobs/:id/logs", jobHandler.GetJobLogs)
		v1.POST("/jobs/:id/stop", jobHandler.StopJob)

		// Scraping runs
		v1.POST("/scrape/links", scrapeHandler.StartLinkScraping)
		v1.POST("/scrape/hotels", scrapeHandler.StartHotelScraping)
		v1.POST("/scrape/complete", scrapeHandler.StartCompleteScraping)

		// Ledgers
		v1.GET("/ledgers", ledgerHandler.ListLedgers)
		v1.POST("/ledgers/import", ledgerHandler.ImportLedger)

		// Stats
		v1.GET("/stats", statsHandler.GetStats)
	}

	return r
}
