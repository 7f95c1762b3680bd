package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bicho-platform/internal/models"
	"bicho-platform/internal/odds"
	"bicho-platform/internal/services"
)

// respondError maps service and validation errors to HTTP responses.
// Validation failures carry a machine-readable code alongside the
// message so clients can react without parsing error strings.
func respondError(c *gin.Context, err error) {
	var shapeErr *odds.InvalidWagerShapeError
	var animalErr *odds.UnknownAnimalError
	var stakeErr *odds.StakeOutOfBoundsError
	var balanceErr *services.InsufficientBalanceError

	switch {
	case errors.As(err, &shapeErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": shapeErr.Error(),
			"code":  "INVALID_WAGER_SHAPE",
		})
	case errors.As(err, &animalErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": animalErr.Error(),
			"code":  "UNKNOWN_ANIMAL",
		})
	case errors.As(err, &stakeErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     stakeErr.Error(),
			"code":      "STAKE_OUT_OF_BOUNDS",
			"min_stake": stakeErr.MinStake,
			"max_stake": stakeErr.MaxStake,
		})
	case errors.Is(err, odds.ErrUnknownBetType):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  "UNKNOWN_BET_TYPE",
		})
	case errors.As(err, &balanceErr):
		code := "INSUFFICIENT_REAL_BALANCE"
		if balanceErr.Source == models.FundingBonus {
			code = "INSUFFICIENT_BONUS_BALANCE"
		}
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":    balanceErr.Error(),
			"code":     code,
			"balance":  balanceErr.Balance,
			"required": balanceErr.Required,
		})
	case errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrDrawNotFound),
		errors.Is(err, services.ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrDrawAlreadySettled),
		errors.Is(err, services.ErrWithdrawalNotPending):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbiddenTransaction):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrDrawClosed),
		errors.Is(err, services.ErrDepositBelowMinimum),
		errors.Is(err, services.ErrGatewayBalanceLow):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
