package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bicho-platform/internal/auth"
	"bicho-platform/internal/odds"
	"bicho-platform/internal/services"
)

type WagerHandler struct {
	wagers *services.WagerService
}

func NewWagerHandler(wagers *services.WagerService) *WagerHandler {
	return &WagerHandler{wagers: wagers}
}

// GetAnimals returns the 25 animal groups and their dezenas
func (h *WagerHandler) GetAnimals(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    odds.Animals(),
	})
}

// GetBetTypes returns the wager catalog with multipliers and shapes
func (h *WagerHandler) GetBetTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    odds.Catalog(),
	})
}

// PlaceWager places a new wager on a draw
func (h *WagerHandler) PlaceWager(c *gin.Context) {
	accountID, ok := auth.GetAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		DrawID   uint     `json:"draw_id" binding:"required"`
		Type     string   `json:"type" binding:"required"`
		Animals  []int    `json:"animals"`
		Numbers  []string `json:"numbers"`
		Premio   int      `json:"premio"` // 1-5, or 0 for all five tiers
		Stake    string   `json:"stake" binding:"required"`
		UseBonus bool     `json:"use_bonus"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stake, err := decimal.NewFromString(req.Stake)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid stake"})
		return
	}

	wager, err := h.wagers.PlaceWager(c.Request.Context(), services.PlaceWagerInput{
		AccountID: accountID,
		DrawID:    req.DrawID,
		Type:      odds.BetType(req.Type),
		Animals:   req.Animals,
		Numbers:   req.Numbers,
		Premio:    odds.Premio(req.Premio),
		Stake:     stake,
		UseBonus:  req.UseBonus,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    wager,
	})
}

// GetWager returns one of the caller's wagers
func (h *WagerHandler) GetWager(c *gin.Context) {
	accountID, ok := auth.GetAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wager ID"})
		return
	}

	wager, err := h.wagers.GetWager(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Wager not found"})
		return
	}
	if wager.AccountID != accountID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Wager belongs to another account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    wager,
	})
}

// GetMyWagers returns the caller's wagers, newest first
func (h *WagerHandler) GetMyWagers(c *gin.Context) {
	accountID, ok := auth.GetAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit, offset := paginationParams(c)
	wagers, err := h.wagers.ListAccountWagers(c.Request.Context(), accountID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch wagers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    wagers,
		"count":   len(wagers),
	})
}

func paginationParams(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
