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

	"bicho-platform/internal/models"
	"bicho-platform/internal/odds"
	"bicho-platform/internal/repository"
)

// WagerService accepts validated wagers, decides the funding source,
// debits it and advances bonus rollover in one transaction.
type WagerService struct {
	db                *gorm.DB
	accounts          *repository.AccountRepository
	bonus             *BonusService
	limits            odds.Limits
	bonusAutoFallback bool
}

// NewWagerService creates a new WagerService
func NewWagerService(db *gorm.DB, accounts *repository.AccountRepository, bonus *BonusService, limits odds.Limits, bonusAutoFallback bool) *WagerService {
	return &WagerService{
		db:                db,
		accounts:          accounts,
		bonus:             bonus,
		limits:            limits,
		bonusAutoFallback: bonusAutoFallback,
	}
}

// PlaceWagerInput is a wager placement request
type PlaceWagerInput struct {
	AccountID uint
	DrawID    uint
	Type      odds.BetType
	Animals   []int
	Numbers   []string
	Premio    odds.Premio
	Stake     decimal.Decimal
	UseBonus  bool
}

// PlaceWager validates, funds and persists a wager. The balance debit,
// the rollover advance and the wager row commit atomically; a failure at
// any step leaves no trace. Once accepted, a wager can only be changed
// by settlement.
func (s *WagerService) PlaceWager(ctx context.Context, in PlaceWagerInput) (*models.Wager, error) {
	validated, err := odds.Validate(odds.WagerRequest{
		Type:    in.Type,
		Animals: in.Animals,
		Numbers: in.Numbers,
		Premio:  in.Premio,
		Stake:   in.Stake,
	}, s.limits)
	if err != nil {
		return nil, err
	}

	var draw models.Draw
	if err := s.db.WithContext(ctx).First(&draw, in.DrawID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDrawNotFound
		}
		return nil, err
	}
	if !time.Now().Before(draw.ScheduledAt) {
		return nil, ErrDrawClosed
	}

	wager := models.Wager{
		ID:              uuid.New(),
		AccountID:       in.AccountID,
		DrawID:          in.DrawID,
		Type:            string(validated.Spec.Type),
		Premio:          int(validated.Premio),
		Stake:           in.Stake,
		PotentialPayout: validated.PotentialPayout,
		Status:          models.WagerStatusPending,
	}
	wager.SetAnimals(in.Animals)
	wager.SetNumbers(in.Numbers)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Conditional write on the draw row. Its row lock serializes this
		// transaction against the draw's pending-to-completed flip: either
		// the wager commits before results land and settlement sees it, or
		// the draw completed first and the placement aborts here.
		res := tx.Model(&models.Draw{}).
			Where("id = ? AND status = ?", in.DrawID, models.DrawStatusPending).
			Update("updated_at", time.Now())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDrawClosed
		}

		funding, err := s.debitStake(tx, in)
		if err != nil {
			return err
		}
		wager.FundingSource = funding

		if funding == models.FundingReal {
			if err := s.accounts.AppendLedger(tx, in.AccountID, models.LedgerWagerStake,
				in.Stake.Neg(), wager.ID.String(), fmt.Sprintf("stake on draw %d", in.DrawID)); err != nil {
				return err
			}
		}

		// Rollover counts all wagering volume regardless of funding source
		if err := s.bonus.AdvanceRollover(tx, in.AccountID, in.Stake); err != nil {
			return err
		}

		if err := tx.Create(&wager).Error; err != nil {
			return fmt.Errorf("failed to create wager: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Wager %s placed: account=%d draw=%d type=%s stake=%s funding=%s",
		wager.ID, in.AccountID, in.DrawID, wager.Type, in.Stake.StringFixed(2), wager.FundingSource)
	return &wager, nil
}

// debitStake picks and debits the funding source, returning which one
// paid. With the bonus preference off, a short real balance may silently
// fall back to bonus funds when auto-fallback is enabled; the caller
// learns about it through the wager's funding source.
func (s *WagerService) debitStake(tx *gorm.DB, in PlaceWagerInput) (string, error) {
	if in.UseBonus {
		if err := s.bonus.DebitBonus(tx, in.AccountID, in.Stake); err != nil {
			return "", err
		}
		return models.FundingBonus, nil
	}

	err := s.accounts.Debit(tx, in.AccountID, in.Stake)
	if err == nil {
		return models.FundingReal, nil
	}
	if !errors.Is(err, repository.ErrInsufficientBalance) {
		return "", err
	}

	if s.bonusAutoFallback {
		if bonusErr := s.bonus.DebitBonus(tx, in.AccountID, in.Stake); bonusErr == nil {
			return models.FundingBonus, nil
		}
	}

	account, getErr := s.accounts.GetAccount(tx, in.AccountID)
	if getErr != nil {
		return "", getErr
	}
	return "", &InsufficientBalanceError{
		Source:   models.FundingReal,
		Balance:  account.Balance,
		Required: in.Stake,
	}
}

// GetWager retrieves a wager by ID
func (s *WagerService) GetWager(ctx context.Context, id uuid.UUID) (*models.Wager, error) {
	var wager models.Wager
	if err := s.db.WithContext(ctx).First(&wager, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &wager, nil
}

// ListAccountWagers retrieves an account's wagers, newest first
func (s *WagerService) ListAccountWagers(ctx context.Context, accountID uint, limit, offset int) ([]models.Wager, error) {
	var wagers []models.Wager
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&wagers).Error
	if err != nil {
		return nil, err
	}
	return wagers, nil
}
