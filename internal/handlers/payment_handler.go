package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bicho-platform/internal/auth"
	"bicho-platform/internal/gateway"
	"bicho-platform/internal/services"
)

// webhookTolerance bounds how old a signed notification may be
const webhookTolerance = 5 * time.Minute

type PaymentHandler struct {
	payments      *services.PaymentService
	webhookSecret string
}

func NewPaymentHandler(payments *services.PaymentService, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{payments: payments, webhookSecret: webhookSecret}
}

// CreateDeposit initiates a PIX deposit and returns the charge details
func (h *PaymentHandler) CreateDeposit(c *gin.Context) {
	accountID, ok := auth.GetAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Amount     string `json:"amount" binding:"required"`
		ApplyBonus bool   `json:"apply_bonus"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
		return
	}

	txn, err := h.payments.InitiateDeposit(c.Request.Context(), accountID, amount, req.ApplyBonus)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    txn,
	})
}

// GetTransaction returns one of the caller's transactions, refreshing it
// against the gateway when still in flight.
func (h *PaymentHandler) GetTransaction(c *gin.Context) {
	accountID, ok := auth.GetAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction ID"})
		return
	}

	txn, err := h.payments.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if txn.AccountID != accountID {
		respondError(c, services.ErrForbiddenTransaction)
		return
	}

	txn, err = h.payments.CheckTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    txn,
	})
}

// GetMyTransactions returns the caller's transactions, newest first
func (h *PaymentHandler) GetMyTransactions(c *gin.Context) {
	accountID, ok := auth.GetAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit, offset := paginationParams(c)
	txns, err := h.payments.ListAccountTransactions(c.Request.Context(), accountID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    txns,
		"count":   len(txns),
	})
}

// Webhook receives signed gateway notifications. The signature covers
// the raw body, so it is read before any JSON decoding.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	sigHeader := c.GetHeader("X-Gateway-Signature")
	if err := gateway.VerifySignature(sigHeader, body, h.webhookSecret, webhookTolerance, time.Now()); err != nil {
		log.Printf("Webhook signature rejected: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	var event services.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	if err := h.payments.HandleWebhook(c.Request.Context(), event); err != nil {
		log.Printf("Webhook processing failed for %s: %v", event.ExternalID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// RequestWithdrawal debits the account and queues a withdrawal for
// admin approval
func (h *PaymentHandler) RequestWithdrawal(c *gin.Context) {
	accountID, ok := auth.GetAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Amount string `json:"amount" binding:"required"`
		PixKey string `json:"pix_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
		return
	}

	txn, err := h.payments.RequestWithdrawal(c.Request.Context(), accountID, amount, req.PixKey)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    txn,
	})
}

// ListWithdrawals returns the withdrawal queue (admin only)
func (h *PaymentHandler) ListWithdrawals(c *gin.Context) {
	limit, offset := paginationParams(c)
	txns, err := h.payments.ListWithdrawals(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch withdrawals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    txns,
		"count":   len(txns),
	})
}

// ApproveWithdrawal sends an approved withdrawal to the gateway (admin only)
func (h *PaymentHandler) ApproveWithdrawal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction ID"})
		return
	}

	txn, err := h.payments.ApproveWithdrawal(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    txn,
	})
}

// RejectWithdrawal fails a pending withdrawal and refunds it (admin only)
func (h *PaymentHandler) RejectWithdrawal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction ID"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	txn, err := h.payments.RejectWithdrawal(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    txn,
	})
}
