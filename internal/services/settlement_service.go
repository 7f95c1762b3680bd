package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bicho-platform/internal/models"
	"bicho-platform/internal/odds"
	"bicho-platform/internal/repository"
)

// SettlementService resolves every pending wager of a draw against its
// prize outcomes, exactly once.
type SettlementService struct {
	db       *gorm.DB
	accounts *repository.AccountRepository
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(db *gorm.DB, accounts *repository.AccountRepository) *SettlementService {
	return &SettlementService{db: db, accounts: accounts}
}

// PrizeInput is one submitted prize pair
type PrizeInput struct {
	AnimalID int    `json:"animal_id"`
	Number   string `json:"number"`
}

// SettlementSummary reports what a settlement run did
type SettlementSummary struct {
	DrawID    uint            `json:"draw_id"`
	Settled   int             `json:"settled"`
	Won       int             `json:"won"`
	Lost      int             `json:"lost"`
	TotalPaid decimal.Decimal `json:"total_paid"`
}

// SubmitResults fixes the draw's 1-5 prize pairs and settles all pending
// wagers. The pending→completed transition is a compare-and-set: a
// re-submission fails with ErrDrawAlreadySettled and changes nothing.
func (s *SettlementService) SubmitResults(ctx context.Context, drawID uint, prizes []PrizeInput) (*models.Draw, *SettlementSummary, error) {
	if len(prizes) < 1 || len(prizes) > 5 {
		return nil, nil, fmt.Errorf("a draw result needs 1 to 5 prize pairs, got %d", len(prizes))
	}
	for i, p := range prizes {
		if len(p.Number) != 4 || !isDigits(p.Number) {
			return nil, nil, fmt.Errorf("prize %d: number %q must be exactly 4 digits", i+1, p.Number)
		}
		if _, ok := odds.AnimalByID(p.AnimalID); !ok {
			return nil, nil, fmt.Errorf("prize %d: unknown animal group %d", i+1, p.AnimalID)
		}
		if got := odds.GroupOfNumber(p.Number); got != p.AnimalID {
			return nil, nil, fmt.Errorf("prize %d: animal group %d does not own dezena of %q (group %d does)",
				i+1, p.AnimalID, p.Number, got)
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Draw{}).
			Where("id = ? AND status = ?", drawID, models.DrawStatusPending).
			Updates(map[string]interface{}{
				"status":       models.DrawStatusCompleted,
				"completed_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to complete draw: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var draw models.Draw
			if err := tx.First(&draw, drawID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrDrawNotFound
				}
				return err
			}
			return ErrDrawAlreadySettled
		}

		for i, p := range prizes {
			prize := models.DrawPrize{
				DrawID:   drawID,
				Tier:     i + 1,
				AnimalID: p.AnimalID,
				Number:   p.Number,
			}
			if err := tx.Create(&prize).Error; err != nil {
				return fmt.Errorf("failed to record prize %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	summary, err := s.SettleDraw(ctx, drawID)
	if err != nil {
		return nil, nil, err
	}

	var draw models.Draw
	if err := s.db.WithContext(ctx).Preload("Prizes").First(&draw, drawID).Error; err != nil {
		return nil, nil, err
	}
	return &draw, summary, nil
}

// SettleDraw resolves every still-pending wager of a completed draw.
// Each wager settles in its own guarded transaction, so an interrupted
// run can be re-invoked and will only touch wagers still pending,
// never double-crediting one already marked won or lost.
func (s *SettlementService) SettleDraw(ctx context.Context, drawID uint) (*SettlementSummary, error) {
	var draw models.Draw
	if err := s.db.WithContext(ctx).Preload("Prizes").First(&draw, drawID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDrawNotFound
		}
		return nil, err
	}
	if draw.Status != models.DrawStatusCompleted || len(draw.Prizes) == 0 {
		return nil, fmt.Errorf("draw %d has no finalized result", drawID)
	}

	outcomes := make([]odds.PrizeOutcome, len(draw.Prizes))
	for i, p := range draw.Prizes {
		outcomes[i] = odds.PrizeOutcome{Tier: p.Tier, AnimalID: p.AnimalID, Number: p.Number}
	}

	var wagers []models.Wager
	err := s.db.WithContext(ctx).
		Where("draw_id = ? AND status = ?", drawID, models.WagerStatusPending).
		Find(&wagers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load pending wagers: %w", err)
	}

	summary := &SettlementSummary{DrawID: drawID, TotalPaid: decimal.Zero}
	for _, wager := range wagers {
		won, payout, err := s.settleWager(ctx, &wager, outcomes)
		if err != nil {
			if errors.Is(err, errWagerAlreadySettled) {
				log.Printf("Settlement inconsistency: wager %s no longer pending, skipping", wager.ID)
				continue
			}
			return summary, fmt.Errorf("failed to settle wager %s: %w", wager.ID, err)
		}
		summary.Settled++
		if won {
			summary.Won++
			summary.TotalPaid = summary.TotalPaid.Add(payout)
		} else {
			summary.Lost++
		}
	}

	log.Printf("Draw %d settled: %d wagers (%d won, %d lost), paid %s",
		drawID, summary.Settled, summary.Won, summary.Lost, summary.TotalPaid.StringFixed(2))
	return summary, nil
}

// SweepUnsettled finds completed draws that still carry pending wagers
// and re-runs settlement for them. SettleDraw only touches wagers still
// pending, so the sweep is safe to run on every poller tick.
func (s *SettlementService) SweepUnsettled(ctx context.Context) error {
	var drawIDs []uint
	err := s.db.WithContext(ctx).Model(&models.Wager{}).
		Distinct("wagers.draw_id").
		Joins("JOIN draws ON draws.id = wagers.draw_id").
		Where("wagers.status = ? AND draws.status = ?",
			models.WagerStatusPending, models.DrawStatusCompleted).
		Pluck("wagers.draw_id", &drawIDs).Error
	if err != nil {
		return fmt.Errorf("failed to find unsettled draws: %w", err)
	}

	for _, drawID := range drawIDs {
		log.Printf("Found pending wagers on completed draw %d, re-running settlement", drawID)
		if _, err := s.SettleDraw(ctx, drawID); err != nil {
			log.Printf("Failed to re-settle draw %d: %v", drawID, err)
		}
	}
	return nil
}

var errWagerAlreadySettled = errors.New("wager already settled")

// settleWager marks one wager won or lost and credits the payout. The
// payout is recomputed from the current catalog rather than trusted from
// placement time, and always lands on the real balance whatever funded
// the stake.
func (s *SettlementService) settleWager(ctx context.Context, wager *models.Wager, outcomes []odds.PrizeOutcome) (bool, decimal.Decimal, error) {
	spec, ok := odds.Spec(odds.BetType(wager.Type))
	if !ok {
		return false, decimal.Zero, fmt.Errorf("wager has unknown type %q", wager.Type)
	}

	premio := odds.Premio(wager.Premio)
	won := odds.Wins(spec, premio, wager.AnimalIDs(), wager.NumberList(), outcomes)

	payout := decimal.Zero
	if won {
		payout = odds.PotentialPayout(spec, premio, wager.Stake)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": models.WagerStatusLost}
		if won {
			updates["status"] = models.WagerStatusWon
			updates["payout"] = payout
		}

		res := tx.Model(&models.Wager{}).
			Where("id = ? AND status = ?", wager.ID, models.WagerStatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errWagerAlreadySettled
		}

		if won {
			if err := s.accounts.Credit(tx, wager.AccountID, payout); err != nil {
				return err
			}
			if err := s.accounts.AppendLedger(tx, wager.AccountID, models.LedgerWagerPayout,
				payout, wager.ID.String(), fmt.Sprintf("payout on draw %d", wager.DrawID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, decimal.Zero, err
	}
	return won, payout, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
