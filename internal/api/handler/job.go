package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stayscout/internal/repository"
)

// JobHandler handles scrape-job endpoints.
type JobHandler struct {
	jobs *repository.JobRepository
	logs *repository.LogRepository
}

// NewJobHandler creates a new job handler.
func NewJobHandler(jobs *repository.JobRepository, logs *repository.LogRepository) *JobHandler {
	return &JobHandler{jobs: jobs, logs: logs}
}

// ListJobs handles GET /api/v1/jobs.
func (h *JobHandler) ListJobs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	jobs, total, err := h.jobs.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list jobs: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":   jobs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetJob handles GET /api/v1/jobs/:id.
func (h *JobHandler) GetJob(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid job ID",
		})
		return
	}

	job, err := h.jobs.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Job not found",
		})
		return
	}

	c.JSON(http.StatusOK, job)
}

// StopJob handles POST /api/v1/jobs/:id/stop. Only a RUNNING job can be
// stopped; the worker notices at its next checkpoint.
func (h *JobHandler) StopJob(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid job ID",
		})
		return
	}

	if err := h.jobs.RequestStop(c.Request.Context(), uint(id)); err != nil {
		if err == repository.ErrJobNotRunning {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Job is not running",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to stop job: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Job stop requested",
	})
}

// GetJobLogs handles GET /api/v1/jobs/:id/logs.
func (h *JobHandler) GetJobLogs(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid job ID",
		})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))

	rows, err := h.logs.ListByJob(c.Request.Context(), uint(id), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list job logs: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs": rows,
	})
}
