package services

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bicho-platform/internal/config"
	"bicho-platform/internal/models"
)

// BonusService owns promotional grants and their rollover accounting
type BonusService struct {
	db  *gorm.DB
	cfg config.BonusConfig
}

// NewBonusService creates a new BonusService
func NewBonusService(db *gorm.DB, cfg config.BonusConfig) *BonusService {
	return &BonusService{db: db, cfg: cfg}
}

// GrantSignupBonus creates the one-time signup grant. Returns (nil, nil)
// when signup bonuses are disabled or the account already received one.
// A duplicate trigger is a no-op, not a failure.
func (s *BonusService) GrantSignupBonus(tx *gorm.DB, accountID uint) (*models.BonusGrant, error) {
	if !s.cfg.SignupEnabled || !s.cfg.SignupAmount.IsPositive() {
		return nil, nil
	}

	exists, err := s.hasGrantOfType(tx, accountID, models.BonusTypeSignup)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	return s.createGrant(tx, accountID, models.BonusTypeSignup, s.cfg.SignupAmount)
}

// GrantFirstDepositBonus creates the one-time first-deposit grant.
// Eligibility looks at the full history: any prior first-deposit grant
// or any previously completed deposit (other than the triggering one)
// disqualifies the account, even if transaction records were reset.
func (s *BonusService) GrantFirstDepositBonus(tx *gorm.DB, accountID uint, depositAmount decimal.Decimal, depositID uuid.UUID) (*models.BonusGrant, error) {
	if !s.cfg.FirstDepositEnabled {
		return nil, nil
	}

	exists, err := s.hasGrantOfType(tx, accountID, models.BonusTypeFirstDeposit)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	var priorDeposits int64
	err = tx.Model(&models.PaymentTransaction{}).
		Where("account_id = ? AND direction = ? AND status = ? AND id <> ?",
			accountID, models.PaymentDeposit, models.PaymentStatusCompleted, depositID).
		Count(&priorDeposits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count completed deposits: %w", err)
	}
	if priorDeposits > 0 {
		return nil, nil
	}

	amount := depositAmount.Mul(s.cfg.FirstDepositPercent).Div(decimal.NewFromInt(100)).RoundDown(2)
	if amount.GreaterThan(s.cfg.FirstDepositMax) {
		amount = s.cfg.FirstDepositMax
	}
	if !amount.IsPositive() {
		return nil, nil
	}

	return s.createGrant(tx, accountID, models.BonusTypeFirstDeposit, amount)
}

func (s *BonusService) hasGrantOfType(tx *gorm.DB, accountID uint, grantType string) (bool, error) {
	var count int64
	err := tx.Model(&models.BonusGrant{}).
		Where("account_id = ? AND type = ?", accountID, grantType).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existing grants: %w", err)
	}
	return count > 0, nil
}

func (s *BonusService) createGrant(tx *gorm.DB, accountID uint, grantType string, amount decimal.Decimal) (*models.BonusGrant, error) {
	grant := models.BonusGrant{
		AccountID:       accountID,
		Type:            grantType,
		Amount:          amount,
		RemainingAmount: amount,
		RolloverTarget:  amount.Mul(s.cfg.RolloverMultiplier),
		RolledAmount:    decimal.Zero,
		Status:          models.BonusStatusActive,
		ExpiresAt:       time.Now().AddDate(0, 0, s.cfg.ExpirationDays),
	}
	if err := tx.Create(&grant).Error; err != nil {
		return nil, fmt.Errorf("failed to create %s bonus grant: %w", grantType, err)
	}

	log.Printf("Granted %s bonus of %s to account %d (rollover target %s)",
		grantType, amount.StringFixed(2), accountID, grant.RolloverTarget.StringFixed(2))
	return &grant, nil
}

// ActiveGrants returns the account's active, unexpired grants ordered
// oldest expiry first, the order bonus funds are spent in.
func (s *BonusService) ActiveGrants(tx *gorm.DB, accountID uint) ([]models.BonusGrant, error) {
	var grants []models.BonusGrant
	err := tx.Where("account_id = ? AND status = ? AND expires_at > ?",
		accountID, models.BonusStatusActive, time.Now()).
		Order("expires_at ASC").
		Find(&grants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load active grants: %w", err)
	}
	return grants, nil
}

// SpendableBalance sums the remaining amount over active unexpired grants
func (s *BonusService) SpendableBalance(tx *gorm.DB, accountID uint) (decimal.Decimal, error) {
	grants, err := s.ActiveGrants(tx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, g := range grants {
		total = total.Add(g.RemainingAmount)
	}
	return total, nil
}

// DebitBonus spends amount across the account's active grants, oldest
// expiry first. Each grant decrement is a conditional UPDATE so a
// concurrent spend of the same funds rolls the transaction back instead
// of overdrawing.
func (s *BonusService) DebitBonus(tx *gorm.DB, accountID uint, amount decimal.Decimal) error {
	grants, err := s.ActiveGrants(tx, accountID)
	if err != nil {
		return err
	}

	total := decimal.Zero
	for _, g := range grants {
		total = total.Add(g.RemainingAmount)
	}
	if total.LessThan(amount) {
		return &InsufficientBalanceError{Source: models.FundingBonus, Balance: total, Required: amount}
	}

	remaining := amount
	for _, g := range grants {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(g.RemainingAmount, remaining)
		if !take.IsPositive() {
			continue
		}

		res := tx.Model(&models.BonusGrant{}).
			Where("id = ? AND status = ? AND remaining_amount >= ?", g.ID, models.BonusStatusActive, take).
			Update("remaining_amount", gorm.Expr("remaining_amount - ?", take))
		if res.Error != nil {
			return fmt.Errorf("failed to debit bonus grant %d: %w", g.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("bonus grant %d changed concurrently", g.ID)
		}
		remaining = remaining.Sub(take)
	}

	return nil
}

// AdvanceRollover adds the stake to the rolled amount of every active
// unexpired grant, clamped at the rollover target. Reaching the target
// flips the grant to completed. Rollover counts all wagering volume, not
// just bonus-funded stakes.
//
// The arithmetic and the clamp happen in a single UPDATE so two
// concurrent stakes add up instead of the later write overwriting the
// earlier one. Both CASE expressions read the pre-update rolled_amount,
// so the status flip sees the same value the clamp does.
func (s *BonusService) AdvanceRollover(tx *gorm.DB, accountID uint, stake decimal.Decimal) error {
	res := tx.Model(&models.BonusGrant{}).
		Where("account_id = ? AND status = ? AND expires_at > ?",
			accountID, models.BonusStatusActive, time.Now()).
		Updates(map[string]interface{}{
			"rolled_amount": gorm.Expr(
				"CASE WHEN rolled_amount + ? >= rollover_target THEN rollover_target ELSE rolled_amount + ? END",
				stake, stake),
			"status": gorm.Expr(
				"CASE WHEN rolled_amount + ? >= rollover_target THEN ? ELSE status END",
				stake, models.BonusStatusCompleted),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to advance rollover for account %d: %w", accountID, res.Error)
	}
	if res.RowsAffected > 0 {
		log.Printf("Advanced rollover by %s on %d grant(s) for account %d",
			stake.StringFixed(2), res.RowsAffected, accountID)
	}
	return nil
}

// ExpireOverdue marks active grants past their expiry as expired.
// Spendable-balance queries already filter on expires_at, so this sweep
// only has to keep the stored status honest.
func (s *BonusService) ExpireOverdue() (int64, error) {
	res := s.db.Model(&models.BonusGrant{}).
		Where("status = ? AND expires_at <= ?", models.BonusStatusActive, time.Now()).
		Update("status", models.BonusStatusExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to expire bonus grants: %w", res.Error)
	}
	return res.RowsAffected, nil
}
