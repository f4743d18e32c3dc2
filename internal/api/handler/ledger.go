package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"stayscout/internal/service"
)

// LedgerHandler handles CSV ledger endpoints.
type LedgerHandler struct {
	orchestrator *service.Orchestrator
	launcher     *service.Launcher
	csvDir       string
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(orchestrator *service.Orchestrator, launcher *service.Launcher, csvDir string) *LedgerHandler {
	return &LedgerHandler{orchestrator: orchestrator, launcher: launcher, csvDir: csvDir}
}

// ListLedgers handles GET /api/v1/ledgers.
func (h *LedgerHandler) ListLedgers(c *gin.Context) {
	files, err := h.orchestrator.ListLedgers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list ledger files: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"files": files,
	})
}

// ImportLedger handles POST /api/v1/ledgers/import. The file parameter is a
// name inside the ledger directory; path escapes are rejected.
func (h *LedgerHandler) ImportLedger(c *gin.Context) {
	var body struct {
		File string `json:"file" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "file is required",
		})
		return
	}

	name := filepath.Base(body.File)
	if name != body.File || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".csv" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid ledger file name",
		})
		return
	}

	job, err := h.launcher.StartImport(c.Request.Context(), filepath.Join(h.csvDir, name))
	if err != nil {
		if err == service.ErrJobAlreadyRunning {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Another scraping job is already running",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to start import: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Import started",
		"job":     job,
	})
}
