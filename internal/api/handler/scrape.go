package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stayscout/internal/service"
)

// ScrapeHandler handles the endpoints that start scraping runs.
type ScrapeHandler struct {
	launcher *service.Launcher
}

// NewScrapeHandler creates a new scrape handler.
func NewScrapeHandler(launcher *service.Launcher) *ScrapeHandler {
	return &ScrapeHandler{launcher: launcher}
}

// StartLinkScraping handles POST /api/v1/scrape/links. ?force=true discards
// an existing links ledger and rediscovers from scratch.
func (h *ScrapeHandler) StartLinkScraping(c *gin.Context) {
	force := c.DefaultQuery("force", "false") == "true"

	job, err := h.launcher.StartLinkScraping(c.Request.Context(), force)
	if err != nil {
		h.startError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Link scraping started",
		"job":     job,
	})
}

// StartHotelScraping handles POST /api/v1/scrape/hotels. An optional csv
// query parameter points at an alternative links ledger.
func (h *ScrapeHandler) StartHotelScraping(c *gin.Context) {
	csvPath := c.Query("csv")

	job, err := h.launcher.StartHotelScraping(c.Request.Context(), csvPath)
	if err != nil {
		h.startError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Hotel scraping started",
		"job":     job,
	})
}

// StartCompleteScraping handles POST /api/v1/scrape/complete. ?update_links=true
// forces fresh discovery before the detail phase.
func (h *ScrapeHandler) StartCompleteScraping(c *gin.Context) {
	updateLinks := c.DefaultQuery("update_links", "false") == "true"

	job, err := h.launcher.StartCompleteScraping(c.Request.Context(), updateLinks)
	if err != nil {
		h.startError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Complete scraping started",
		"job":     job,
	})
}

func (h *ScrapeHandler) startError(c *gin.Context, err error) {
	if err == service.ErrJobAlreadyRunning {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Another scraping job is already running",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Failed to start job: " + err.Error(),
	})
}
