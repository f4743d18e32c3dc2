package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stayscout/internal/repository"
)

// HotelHandler handles hotel read endpoints.
type HotelHandler struct {
	hotels *repository.HotelRepository
}

// NewHotelHandler creates a new hotel handler.
func NewHotelHandler(hotels *repository.HotelRepository) *HotelHandler {
	return &HotelHandler{hotels: hotels}
}

// ListHotels handles GET /api/v1/hotels.
func (h *HotelHandler) ListHotels(c *gin.Context) {
	region := c.Query("region")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	hotels, total, err := h.hotels.List(c.Request.Context(), region, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list hotels: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hotels": hotels,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetHotel handles GET /api/v1/hotels/:id. The response carries images,
// rooms and facilities.
func (h *HotelHandler) GetHotel(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid hotel ID",
		})
		return
	}

	hotel, err := h.hotels.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Hotel not found",
		})
		return
	}

	c.JSON(http.StatusOK, hotel)
}
