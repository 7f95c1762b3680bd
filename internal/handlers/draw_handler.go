package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bicho-platform/internal/services"
)

type DrawHandler struct {
	draws      *services.DrawService
	settlement *services.SettlementService
}

func NewDrawHandler(draws *services.DrawService, settlement *services.SettlementService) *DrawHandler {
	return &DrawHandler{draws: draws, settlement: settlement}
}

// ListDraws returns draws newest first
func (h *DrawHandler) ListDraws(c *gin.Context) {
	limit, offset := paginationParams(c)
	draws, err := h.draws.ListDraws(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch draws"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    draws,
		"count":   len(draws),
	})
}

// GetDraw returns a single draw with its prizes
func (h *DrawHandler) GetDraw(c *gin.Context) {
	drawID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid draw ID"})
		return
	}

	draw, err := h.draws.GetDraw(c.Request.Context(), uint(drawID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    draw,
	})
}

// ScheduleDraw creates a new draw (admin only)
func (h *DrawHandler) ScheduleDraw(c *gin.Context) {
	var req struct {
		Name        string    `json:"name" binding:"required"`
		ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draw, err := h.draws.ScheduleDraw(c.Request.Context(), req.Name, req.ScheduledAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    draw,
	})
}

// SubmitResults records the draw's prize pairs and settles every pending
// wager (admin only)
func (h *DrawHandler) SubmitResults(c *gin.Context) {
	drawID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid draw ID"})
		return
	}

	var req struct {
		Prizes []services.PrizeInput `json:"prizes" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draw, summary, err := h.settlement.SubmitResults(c.Request.Context(), uint(drawID), req.Prizes)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDrawNotFound), errors.Is(err, services.ErrDrawAlreadySettled):
			respondError(c, err)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"draw":       draw,
			"settlement": summary,
		},
	})
}
