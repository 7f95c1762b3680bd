package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bicho-platform/internal/models"
	"bicho-platform/internal/odds"
	"bicho-platform/internal/repository"
)

func newWagerTestServices(t *testing.T, db *gorm.DB, autoFallback bool) (*WagerService, *BonusService) {
	t.Helper()

	accounts := repository.NewAccountRepository()
	bonus := NewBonusService(db, testBonusConfig())
	limits := odds.Limits{
		MinStake:  decimal.RequireFromString("0.50"),
		MaxPayout: decimal.RequireFromString("50000.00"),
	}
	return NewWagerService(db, accounts, bonus, limits, autoFallback), bonus
}

func createTestDraw(t *testing.T, db *gorm.DB, scheduledAt time.Time) *models.Draw {
	t.Helper()

	draw := models.Draw{
		Name:        "Federal 19h",
		ScheduledAt: scheduledAt,
		Status:      models.DrawStatusPending,
	}
	if err := db.Create(&draw).Error; err != nil {
		t.Fatalf("failed to create test draw: %v", err)
	}
	return &draw
}

func TestPlaceWagerRealFunding(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newWagerTestServices(t, db, true)
	account := createTestAccount(t, db, "100.00")
	draw := createTestDraw(t, db, time.Now().Add(time.Hour))

	wager, err := svc.PlaceWager(context.Background(), PlaceWagerInput{
		AccountID: account.ID,
		DrawID:    draw.ID,
		Type:      odds.BetGrupo,
		Animals:   []int{10},
		Premio:    1,
		Stake:     decimal.RequireFromString("10.00"),
	})
	if err != nil {
		t.Fatalf("PlaceWager failed: %v", err)
	}

	if wager.FundingSource != models.FundingReal {
		t.Errorf("expected real funding, got %s", wager.FundingSource)
	}
	if wager.Status != models.WagerStatusPending {
		t.Errorf("expected pending wager, got %s", wager.Status)
	}
	if !wager.PotentialPayout.Equal(decimal.RequireFromString("180")) {
		t.Errorf("expected potential payout 180, got %s", wager.PotentialPayout)
	}

	balance := accountBalance(t, db, account.ID)
	if !balance.Equal(decimal.RequireFromString("90.00")) {
		t.Errorf("expected balance 90.00 after stake, got %s", balance)
	}
	if n := countLedgerEntries(t, db, account.ID, models.LedgerWagerStake); n != 1 {
		t.Errorf("expected 1 stake ledger entry, got %d", n)
	}
}

func TestPlaceWagerBonusFunding(t *testing.T) {
	db := setupTestDB(t)
	svc, bonus := newWagerTestServices(t, db, true)
	account := createTestAccount(t, db, "100.00")
	draw := createTestDraw(t, db, time.Now().Add(time.Hour))

	if _, err := bonus.GrantSignupBonus(db, account.ID); err != nil {
		t.Fatalf("GrantSignupBonus failed: %v", err)
	}

	wager, err := svc.PlaceWager(context.Background(), PlaceWagerInput{
		AccountID: account.ID,
		DrawID:    draw.ID,
		Type:      odds.BetDezena,
		Numbers:   []string{"37"},
		Premio:    1,
		Stake:     decimal.RequireFromString("5.00"),
		UseBonus:  true,
	})
	if err != nil {
		t.Fatalf("PlaceWager failed: %v", err)
	}

	if wager.FundingSource != models.FundingBonus {
		t.Errorf("expected bonus funding, got %s", wager.FundingSource)
	}

	// Real balance untouched, no ledger entry for bonus stakes
	balance := accountBalance(t, db, account.ID)
	if !balance.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("expected untouched balance 100.00, got %s", balance)
	}
	if n := countLedgerEntries(t, db, account.ID, models.LedgerWagerStake); n != 0 {
		t.Errorf("expected no stake ledger entry, got %d", n)
	}

	spendable, err := bonus.SpendableBalance(db, account.ID)
	if err != nil {
		t.Fatalf("SpendableBalance failed: %v", err)
	}
	if !spendable.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("expected bonus balance 5.00, got %s", spendable)
	}
}

func TestPlaceWagerAutoFallbackToBonus(t *testing.T) {
	db := setupTestDB(t)
	svc, bonus := newWagerTestServices(t, db, true)
	account := createTestAccount(t, db, "5.00")
	draw := createTestDraw(t, db, time.Now().Add(time.Hour))

	if _, err := bonus.GrantSignupBonus(db, account.ID); err != nil {
		t.Fatalf("GrantSignupBonus failed: %v", err)
	}

	// Real balance 5.00 cannot cover the stake; bonus 10.00 can
	wager, err := svc.PlaceWager(context.Background(), PlaceWagerInput{
		AccountID: account.ID,
		DrawID:    draw.ID,
		Type:      odds.BetGrupo,
		Animals:   []int{1},
		Premio:    1,
		Stake:     decimal.RequireFromString("8.00"),
	})
	if err != nil {
		t.Fatalf("PlaceWager failed: %v", err)
	}

	if wager.FundingSource != models.FundingBonus {
		t.Errorf("expected fallback to bonus funding, got %s", wager.FundingSource)
	}
	balance := accountBalance(t, db, account.ID)
	if !balance.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("expected untouched real balance 5.00, got %s", balance)
	}
}

func TestPlaceWagerNoFallbackWhenDisabled(t *testing.T) {
	db := setupTestDB(t)
	svc, bonus := newWagerTestServices(t, db, false)
	account := createTestAccount(t, db, "5.00")
	draw := createTestDraw(t, db, time.Now().Add(time.Hour))

	if _, err := bonus.GrantSignupBonus(db, account.ID); err != nil {
		t.Fatalf("GrantSignupBonus failed: %v", err)
	}

	_, err := svc.PlaceWager(context.Background(), PlaceWagerInput{
		AccountID: account.ID,
		DrawID:    draw.ID,
		Type:      odds.BetGrupo,
		Animals:   []int{1},
		Premio:    1,
		Stake:     decimal.RequireFromString("8.00"),
	})

	var insufficientErr *InsufficientBalanceError
	if !errors.As(err, &insufficientErr) {
		t.Fatalf("expected InsufficientBalanceError, got %v", err)
	}
	if insufficientErr.Source != models.FundingReal {
		t.Errorf("expected real source in error, got %s", insufficientErr.Source)
	}
	if !insufficientErr.Balance.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("expected reported balance 5.00, got %s", insufficientErr.Balance)
	}
}

func TestPlaceWagerInsufficientLeavesNoTrace(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newWagerTestServices(t, db, true)
	account := createTestAccount(t, db, "5.00")
	draw := createTestDraw(t, db, time.Now().Add(time.Hour))

	_, err := svc.PlaceWager(context.Background(), PlaceWagerInput{
		AccountID: account.ID,
		DrawID:    draw.ID,
		Type:      odds.BetMilhar,
		Numbers:   []string{"1234"},
		Premio:    1,
		Stake:     decimal.RequireFromString("6.00"),
	})

	var insufficientErr *InsufficientBalanceError
	if !errors.As(err, &insufficientErr) {
		t.Fatalf("expected InsufficientBalanceError, got %v", err)
	}

	var wagers int64
	db.Model(&models.Wager{}).Where("account_id = ?", account.ID).Count(&wagers)
	if wagers != 0 {
		t.Errorf("expected no wager row, found %d", wagers)
	}
	balance := accountBalance(t, db, account.ID)
	if !balance.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("expected untouched balance 5.00, got %s", balance)
	}
}

func TestPlaceWagerDrawClosed(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newWagerTestServices(t, db, true)
	account := createTestAccount(t, db, "100.00")
	draw := createTestDraw(t, db, time.Now().Add(-time.Minute))

	_, err := svc.PlaceWager(context.Background(), PlaceWagerInput{
		AccountID: account.ID,
		DrawID:    draw.ID,
		Type:      odds.BetGrupo,
		Animals:   []int{1},
		Premio:    1,
		Stake:     decimal.RequireFromString("10.00"),
	})
	if !errors.Is(err, ErrDrawClosed) {
		t.Fatalf("expected ErrDrawClosed, got %v", err)
	}
}

func TestPlaceWagerRejectsCompletedDraw(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newWagerTestServices(t, db, true)
	account := createTestAccount(t, db, "100.00")

	// A draw whose results landed early, still inside its betting window.
	// The guarded update inside the placement transaction must reject it,
	// otherwise a debited wager would sit pending with no settlement run
	// left to resolve it.
	draw := createTestDraw(t, db, time.Now().Add(time.Hour))
	db.Model(draw).Update("status", models.DrawStatusCompleted)

	_, err := svc.PlaceWager(context.Background(), PlaceWagerInput{
		AccountID: account.ID,
		DrawID:    draw.ID,
		Type:      odds.BetGrupo,
		Animals:   []int{1},
		Premio:    1,
		Stake:     decimal.RequireFromString("10.00"),
	})
	if !errors.Is(err, ErrDrawClosed) {
		t.Fatalf("expected ErrDrawClosed, got %v", err)
	}

	var wagers int64
	db.Model(&models.Wager{}).Where("account_id = ?", account.ID).Count(&wagers)
	if wagers != 0 {
		t.Errorf("expected no wager row, found %d", wagers)
	}
	if balance := accountBalance(t, db, account.ID); !balance.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("expected untouched balance 100.00, got %s", balance)
	}
}

func TestPlaceWagerUnknownDraw(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newWagerTestServices(t, db, true)
	account := createTestAccount(t, db, "100.00")

	_, err := svc.PlaceWager(context.Background(), PlaceWagerInput{
		AccountID: account.ID,
		DrawID:    999,
		Type:      odds.BetGrupo,
		Animals:   []int{1},
		Premio:    1,
		Stake:     decimal.RequireFromString("10.00"),
	})
	if !errors.Is(err, ErrDrawNotFound) {
		t.Fatalf("expected ErrDrawNotFound, got %v", err)
	}
}

func TestPlaceWagerAdvancesRollover(t *testing.T) {
	db := setupTestDB(t)
	svc, bonus := newWagerTestServices(t, db, true)
	account := createTestAccount(t, db, "100.00")
	draw := createTestDraw(t, db, time.Now().Add(time.Hour))

	grant, err := bonus.GrantSignupBonus(db, account.ID)
	if err != nil || grant == nil {
		t.Fatalf("expected signup grant, got %v / %v", grant, err)
	}

	// Real-funded stake still counts toward the 30.00 rollover target
	_, err = svc.PlaceWager(context.Background(), PlaceWagerInput{
		AccountID: account.ID,
		DrawID:    draw.ID,
		Type:      odds.BetGrupo,
		Animals:   []int{5},
		Premio:    1,
		Stake:     decimal.RequireFromString("30.00"),
	})
	if err != nil {
		t.Fatalf("PlaceWager failed: %v", err)
	}

	var got models.BonusGrant
	db.First(&got, grant.ID)
	if got.Status != models.BonusStatusCompleted {
		t.Errorf("expected completed rollover, got %s", got.Status)
	}
}

func TestPlaceWagerRejectsBadShape(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newWagerTestServices(t, db, true)
	account := createTestAccount(t, db, "100.00")
	draw := createTestDraw(t, db, time.Now().Add(time.Hour))

	_, err := svc.PlaceWager(context.Background(), PlaceWagerInput{
		AccountID: account.ID,
		DrawID:    draw.ID,
		Type:      odds.BetMilhar,
		Numbers:   []string{"123"}, // must be 4 digits
		Premio:    1,
		Stake:     decimal.RequireFromString("1.00"),
	})

	var shapeErr *odds.InvalidWagerShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected InvalidWagerShapeError, got %v", err)
	}

	balance := accountBalance(t, db, account.ID)
	if !balance.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("expected untouched balance, got %s", balance)
	}
}
