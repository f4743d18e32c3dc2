package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stayscout/internal/domain"
	"stayscout/internal/repository"
)

// StatsHandler serves store-wide counters for the dashboard.
type StatsHandler struct {
	hotels *repository.HotelRepository
	jobs   *repository.JobRepository
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(hotels *repository.HotelRepository, jobs *repository.JobRepository) *StatsHandler {
	return &StatsHandler{hotels: hotels, jobs: jobs}
}

// GetStats handles GET /api/v1/stats.
func (h *StatsHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	hotelCount, err := h.hotels.Count(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to count hotels: " + err.Error(),
		})
		return
	}

	counts := make(map[string]int64, 4)
	for _, status := range []domain.JobStatus{
		domain.JobStatusRunning,
		domain.JobStatusCompleted,
		domain.JobStatusFailed,
		domain.JobStatusStopped,
	} {
		n, err := h.jobs.CountByStatus(ctx, status)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to count jobs: " + err.Error(),
			})
			return
		}
		counts[string(status)] = n
	}

	c.JSON(http.StatusOK, gin.H{
		"total_hotels":   hotelCount,
		"running_jobs":   counts[string(domain.JobStatusRunning)],
		"completed_jobs": counts[string(domain.JobStatusCompleted)],
		"failed_jobs":    counts[string(domain.JobStatusFailed)],
		"stopped_jobs":   counts[string(domain.JobStatusStopped)],
	})
}
