package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bicho-platform/internal/gateway"
	"bicho-platform/internal/models"
	"bicho-platform/internal/repository"
)

// PaymentService drives deposits and withdrawals through the external
// PIX gateway. Gateway notifications, manual status checks and the
// background poller all converge on the same guarded completion path, so
// however many of them fire for one transaction, the balance moves once.
type PaymentService struct {
	db         *gorm.DB
	accounts   *repository.AccountRepository
	bonus      *BonusService
	gw         gateway.Gateway
	minDeposit decimal.Decimal
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(db *gorm.DB, accounts *repository.AccountRepository, bonus *BonusService, gw gateway.Gateway, minDeposit decimal.Decimal) *PaymentService {
	return &PaymentService{
		db:         db,
		accounts:   accounts,
		bonus:      bonus,
		gw:         gw,
		minDeposit: minDeposit,
	}
}

// InitiateDeposit creates a pending transaction and then a PIX charge
// at the gateway tracking it. The row is persisted before the gateway
// call: a payable charge must never exist without a record of it, so a
// charge failure marks the already-stored row failed instead. Nothing
// is credited until the gateway confirms payment.
func (s *PaymentService) InitiateDeposit(ctx context.Context, accountID uint, amount decimal.Decimal, applyBonus bool) (*models.PaymentTransaction, error) {
	if amount.LessThan(s.minDeposit) {
		return nil, ErrDepositBelowMinimum
	}

	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	txn := models.PaymentTransaction{
		ID:         uuid.New(),
		AccountID:  accountID,
		Gateway:    "pix",
		Direction:  models.PaymentDeposit,
		Amount:     amount,
		Status:     models.PaymentStatusPending,
		ApplyBonus: applyBonus,
	}
	if err := s.db.WithContext(ctx).Create(&txn).Error; err != nil {
		return nil, fmt.Errorf("failed to record deposit: %w", err)
	}

	charge, err := s.gw.CreateCharge(ctx, gateway.ChargeRequest{
		Reference:    txn.ID.String(),
		Amount:       amount,
		CustomerName: account.Name,
	})
	if err != nil {
		if failErr := s.failTransaction(ctx, &txn, "gateway rejected charge: "+err.Error()); failErr != nil {
			log.Printf("Failed to mark deposit %s failed after charge error: %v", txn.ID, failErr)
		}
		return nil, fmt.Errorf("failed to create charge: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&models.PaymentTransaction{}).
		Where("id = ?", txn.ID).
		Updates(map[string]interface{}{
			"external_id": charge.ExternalID,
			"pix_code":    charge.PixCopyPaste,
			"qr_code":     charge.QRCodeBase64,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to attach charge to deposit: %w", err)
	}
	txn.ExternalID = charge.ExternalID
	txn.PixCode = charge.PixCopyPaste
	txn.QRCode = charge.QRCodeBase64

	log.Printf("Deposit %s initiated: account=%d amount=%s external=%s",
		txn.ID, accountID, amount.StringFixed(2), txn.ExternalID)
	return &txn, nil
}

// WebhookEvent is the payload of a gateway notification, already
// signature-verified by the transport layer.
type WebhookEvent struct {
	ExternalID string          `json:"external_id"`
	Status     string          `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
}

// HandleWebhook applies a gateway notification to the transaction it
// references. Unknown external IDs and already-terminal transactions are
// acknowledged without effect so the gateway stops retrying.
func (s *PaymentService) HandleWebhook(ctx context.Context, event WebhookEvent) error {
	var txn models.PaymentTransaction
	err := s.db.WithContext(ctx).Where("external_id = ?", event.ExternalID).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Webhook for unknown external ID %s, ignoring", event.ExternalID)
			return nil
		}
		return err
	}
	if txn.Terminal() {
		return nil
	}

	switch event.Status {
	case gateway.StatusPaid:
		if txn.Direction == models.PaymentDeposit && !event.Amount.IsZero() && !event.Amount.Equal(txn.Amount) {
			log.Printf("Webhook amount mismatch on %s: got %s, expected %s",
				txn.ID, event.Amount.StringFixed(2), txn.Amount.StringFixed(2))
			return fmt.Errorf("webhook amount %s does not match transaction amount %s",
				event.Amount.StringFixed(2), txn.Amount.StringFixed(2))
		}
		return s.completeTransaction(ctx, &txn)
	case gateway.StatusExpired, gateway.StatusFailed:
		return s.failTransaction(ctx, &txn, "gateway reported "+event.Status)
	default:
		return nil
	}
}

// CheckTransaction queries the gateway for the transaction's current
// state and applies it. Used both by the user-facing status endpoint and
// the background poller; a gateway outage leaves the transaction as-is.
func (s *PaymentService) CheckTransaction(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := s.db.WithContext(ctx).First(&txn, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if txn.Terminal() || txn.ExternalID == "" {
		return &txn, nil
	}

	var status string
	var err error
	if txn.Direction == models.PaymentDeposit {
		var charge *gateway.Charge
		charge, err = s.gw.GetCharge(ctx, txn.ExternalID)
		if err == nil {
			status = charge.Status
		}
	} else {
		var payout *gateway.Payout
		payout, err = s.gw.GetPayout(ctx, txn.ExternalID)
		if err == nil {
			status = payout.Status
		}
	}
	if err != nil {
		log.Printf("Gateway check failed for %s: %v", txn.ID, err)
		return &txn, nil
	}

	switch status {
	case gateway.StatusPaid:
		if err := s.completeTransaction(ctx, &txn); err != nil {
			return nil, err
		}
	case gateway.StatusExpired, gateway.StatusFailed:
		if err := s.failTransaction(ctx, &txn, "gateway reported "+status); err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// GetTransaction retrieves a transaction by ID without touching the gateway
func (s *PaymentService) GetTransaction(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := s.db.WithContext(ctx).First(&txn, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

// completeTransaction moves the transaction to completed and applies its
// money effect. The status flip is a conditional UPDATE over the
// non-terminal states; whichever trigger loses the race sees zero rows
// affected and leaves the balance alone.
func (s *PaymentService) completeTransaction(ctx context.Context, txn *models.PaymentTransaction) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.PaymentTransaction{}).
			Where("id = ? AND status IN ?", txn.ID,
				[]string{models.PaymentStatusPending, models.PaymentStatusProcessing}).
			Updates(map[string]interface{}{
				"status":       models.PaymentStatusCompleted,
				"completed_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to complete transaction %s: %w", txn.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if txn.Direction == models.PaymentDeposit {
			if err := s.accounts.Credit(tx, txn.AccountID, txn.Amount); err != nil {
				return err
			}
			if err := s.accounts.AppendLedger(tx, txn.AccountID, models.LedgerDeposit,
				txn.Amount, txn.ID.String(), "PIX deposit"); err != nil {
				return err
			}
			if txn.ApplyBonus {
				if _, err := s.bonus.GrantFirstDepositBonus(tx, txn.AccountID, txn.Amount, txn.ID); err != nil {
					return err
				}
			}
			log.Printf("Deposit %s completed: credited %s to account %d",
				txn.ID, txn.Amount.StringFixed(2), txn.AccountID)
		} else {
			// Withdrawal funds were debited at request time
			log.Printf("Withdrawal %s completed: %s paid out for account %d",
				txn.ID, txn.Amount.StringFixed(2), txn.AccountID)
		}
		return nil
	})
}

// failTransaction moves the transaction to failed. A failed withdrawal
// refunds the amount debited at request time; a failed deposit has
// nothing to undo.
func (s *PaymentService) failTransaction(ctx context.Context, txn *models.PaymentTransaction, reason string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PaymentTransaction{}).
			Where("id = ? AND status IN ?", txn.ID,
				[]string{models.PaymentStatusPending, models.PaymentStatusProcessing}).
			Updates(map[string]interface{}{
				"status":      models.PaymentStatusFailed,
				"fail_reason": reason,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to fail transaction %s: %w", txn.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if txn.Direction == models.PaymentWithdrawal {
			if err := s.accounts.Credit(tx, txn.AccountID, txn.Amount); err != nil {
				return err
			}
			if err := s.accounts.AppendLedger(tx, txn.AccountID, models.LedgerWithdrawalRefund,
				txn.Amount, txn.ID.String(), "withdrawal refund: "+reason); err != nil {
				return err
			}
		}
		log.Printf("Transaction %s failed: %s", txn.ID, reason)
		return nil
	})
}

// RequestWithdrawal debits the account and creates a pending withdrawal
// awaiting admin approval. Debiting up front means the funds cannot be
// wagered while the payout is in flight; a later failure refunds them.
func (s *PaymentService) RequestWithdrawal(ctx context.Context, accountID uint, amount decimal.Decimal, pixKey string) (*models.PaymentTransaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("withdrawal amount must be positive")
	}
	if pixKey == "" {
		return nil, fmt.Errorf("a PIX key is required")
	}

	txn := models.PaymentTransaction{
		ID:        uuid.New(),
		AccountID: accountID,
		Gateway:   "pix",
		Direction: models.PaymentWithdrawal,
		Amount:    amount,
		Status:    models.PaymentStatusPending,
		PayoutKey: pixKey,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.accounts.Debit(tx, accountID, amount); err != nil {
			if errors.Is(err, repository.ErrInsufficientBalance) {
				account, getErr := s.accounts.GetAccount(tx, accountID)
				if getErr != nil {
					return getErr
				}
				return &InsufficientBalanceError{
					Source:   models.FundingReal,
					Balance:  account.Balance,
					Required: amount,
				}
			}
			return err
		}
		if err := s.accounts.AppendLedger(tx, accountID, models.LedgerWithdrawal,
			amount.Neg(), txn.ID.String(), "withdrawal request"); err != nil {
			return err
		}
		if err := tx.Create(&txn).Error; err != nil {
			return fmt.Errorf("failed to record withdrawal: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Withdrawal %s requested: account=%d amount=%s",
		txn.ID, accountID, amount.StringFixed(2))
	return &txn, nil
}

// ApproveWithdrawal sends the payout through the gateway. The pending to
// processing flip is conditional, so two admins approving at once issue
// a single payout. A gateway rejection fails the withdrawal and refunds
// immediately.
func (s *PaymentService) ApproveWithdrawal(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := s.db.WithContext(ctx).First(&txn, "id = ? AND direction = ?", id, models.PaymentWithdrawal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if txn.Status != models.PaymentStatusPending {
		return nil, ErrWithdrawalNotPending
	}

	available, err := s.gw.AvailableBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check gateway balance: %w", err)
	}
	if available.LessThan(txn.Amount) {
		return nil, ErrGatewayBalanceLow
	}

	res := s.db.WithContext(ctx).Model(&models.PaymentTransaction{}).
		Where("id = ? AND status = ?", id, models.PaymentStatusPending).
		Update("status", models.PaymentStatusProcessing)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrWithdrawalNotPending
	}
	txn.Status = models.PaymentStatusProcessing

	payout, err := s.gw.CreatePayout(ctx, gateway.PayoutRequest{
		Reference: txn.ID.String(),
		Amount:    txn.Amount,
		PixKey:    txn.PayoutKey,
	})
	if err != nil {
		if failErr := s.failTransaction(ctx, &txn, "gateway rejected payout: "+err.Error()); failErr != nil {
			return nil, failErr
		}
		return nil, fmt.Errorf("failed to create payout: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&models.PaymentTransaction{}).
		Where("id = ?", id).
		Update("external_id", payout.ExternalID).Error
	if err != nil {
		return nil, err
	}
	txn.ExternalID = payout.ExternalID

	if payout.Status == gateway.StatusPaid {
		if err := s.completeTransaction(ctx, &txn); err != nil {
			return nil, err
		}
	}

	log.Printf("Withdrawal %s approved: payout %s created", txn.ID, payout.ExternalID)
	return s.GetTransaction(ctx, id)
}

// RejectWithdrawal fails a pending withdrawal and refunds the account
func (s *PaymentService) RejectWithdrawal(ctx context.Context, id uuid.UUID, reason string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := s.db.WithContext(ctx).First(&txn, "id = ? AND direction = ?", id, models.PaymentWithdrawal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if txn.Status != models.PaymentStatusPending {
		return nil, ErrWithdrawalNotPending
	}

	if reason == "" {
		reason = "rejected by operator"
	}
	if err := s.failTransaction(ctx, &txn, reason); err != nil {
		return nil, err
	}
	return s.GetTransaction(ctx, id)
}

// ListAccountTransactions retrieves an account's transactions, newest first
func (s *PaymentService) ListAccountTransactions(ctx context.Context, accountID uint, limit, offset int) ([]models.PaymentTransaction, error) {
	var txns []models.PaymentTransaction
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// ListWithdrawals retrieves withdrawals for the admin queue, optionally
// filtered by status.
func (s *PaymentService) ListWithdrawals(ctx context.Context, status string, limit, offset int) ([]models.PaymentTransaction, error) {
	q := s.db.WithContext(ctx).Where("direction = ?", models.PaymentWithdrawal)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var txns []models.PaymentTransaction
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// PollStale re-checks non-terminal transactions that have not been
// touched for olderThan. Covers missed webhooks.
func (s *PaymentService) PollStale(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)

	var txns []models.PaymentTransaction
	err := s.db.WithContext(ctx).
		Where("status IN ? AND external_id <> '' AND updated_at < ?",
			[]string{models.PaymentStatusPending, models.PaymentStatusProcessing}, cutoff).
		Order("updated_at ASC").
		Limit(50).
		Find(&txns).Error
	if err != nil {
		return fmt.Errorf("failed to load stale transactions: %w", err)
	}

	for _, txn := range txns {
		if _, err := s.CheckTransaction(ctx, txn.ID); err != nil {
			log.Printf("Failed to poll transaction %s: %v", txn.ID, err)
		}
	}
	return nil
}
