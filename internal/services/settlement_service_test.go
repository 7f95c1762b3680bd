package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bicho-platform/internal/models"
	"bicho-platform/internal/odds"
	"bicho-platform/internal/repository"
)

func createPendingWager(t *testing.T, db *gorm.DB, accountID, drawID uint, betType odds.BetType, animals []int, numbers []string, premio int, stake string) *models.Wager {
	t.Helper()

	wager := models.Wager{
		ID:            uuid.New(),
		AccountID:     accountID,
		DrawID:        drawID,
		Type:          string(betType),
		Premio:        premio,
		Stake:         decimal.RequireFromString(stake),
		FundingSource: models.FundingReal,
		Status:        models.WagerStatusPending,
	}
	wager.SetAnimals(animals)
	wager.SetNumbers(numbers)

	spec, _ := odds.Spec(betType)
	wager.PotentialPayout = odds.PotentialPayout(spec, odds.Premio(premio), wager.Stake)

	if err := db.Create(&wager).Error; err != nil {
		t.Fatalf("failed to create test wager: %v", err)
	}
	return &wager
}

func TestSubmitResultsPaysWinners(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettlementService(db, repository.NewAccountRepository())

	winner := createTestAccount(t, db, "0")
	loser := models.Account{Name: "Loser", Email: "loser@example.com", PasswordHash: "x", Balance: decimal.Zero}
	db.Create(&loser)
	draw := createTestDraw(t, db, time.Now().Add(-time.Minute))

	// 1237 ends in dezena 37, which animal 10 owns
	won := createPendingWager(t, db, winner.ID, draw.ID, odds.BetDezena, nil, []string{"37"}, 1, "10.00")
	lost := createPendingWager(t, db, loser.ID, draw.ID, odds.BetDezena, nil, []string{"38"}, 1, "10.00")

	_, summary, err := svc.SubmitResults(context.Background(), draw.ID, []PrizeInput{
		{AnimalID: 10, Number: "1237"},
	})
	if err != nil {
		t.Fatalf("SubmitResults failed: %v", err)
	}

	if summary.Settled != 2 || summary.Won != 1 || summary.Lost != 1 {
		t.Errorf("expected 2 settled / 1 won / 1 lost, got %d / %d / %d",
			summary.Settled, summary.Won, summary.Lost)
	}
	if !summary.TotalPaid.Equal(decimal.RequireFromString("900")) {
		t.Errorf("expected total paid 900, got %s", summary.TotalPaid)
	}

	var got models.Wager
	db.First(&got, "id = ?", won.ID)
	if got.Status != models.WagerStatusWon {
		t.Errorf("expected won status, got %s", got.Status)
	}
	if got.Payout == nil || !got.Payout.Equal(decimal.RequireFromString("900")) {
		t.Errorf("expected payout 900, got %v", got.Payout)
	}
	got = models.Wager{}
	db.First(&got, "id = ?", lost.ID)
	if got.Status != models.WagerStatusLost {
		t.Errorf("expected lost status, got %s", got.Status)
	}

	if balance := accountBalance(t, db, winner.ID); !balance.Equal(decimal.RequireFromString("900")) {
		t.Errorf("expected winner balance 900, got %s", balance)
	}
	if balance := accountBalance(t, db, loser.ID); !balance.IsZero() {
		t.Errorf("expected loser balance 0, got %s", balance)
	}
	if n := countLedgerEntries(t, db, winner.ID, models.LedgerWagerPayout); n != 1 {
		t.Errorf("expected 1 payout ledger entry, got %d", n)
	}
}

func TestSubmitResultsGrupoAllTiers(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettlementService(db, repository.NewAccountRepository())
	account := createTestAccount(t, db, "0")
	draw := createTestDraw(t, db, time.Now().Add(-time.Minute))

	// grupo on all five tiers pays 18/5 of the stake
	createPendingWager(t, db, account.ID, draw.ID, odds.BetGrupo, []int{10}, nil, int(odds.PremioAll), "10.00")

	// Animal 10 only shows up in the third tier
	_, summary, err := svc.SubmitResults(context.Background(), draw.ID, []PrizeInput{
		{AnimalID: 1, Number: "1204"},
		{AnimalID: 25, Number: "0100"},
		{AnimalID: 10, Number: "5638"},
	})
	if err != nil {
		t.Fatalf("SubmitResults failed: %v", err)
	}

	if summary.Won != 1 {
		t.Fatalf("expected 1 winner, got %d", summary.Won)
	}
	// floor(10.00 * 18 / 5) = 36
	if !summary.TotalPaid.Equal(decimal.RequireFromString("36")) {
		t.Errorf("expected payout 36, got %s", summary.TotalPaid)
	}
}

func TestSubmitResultsTwice(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettlementService(db, repository.NewAccountRepository())
	account := createTestAccount(t, db, "0")
	draw := createTestDraw(t, db, time.Now().Add(-time.Minute))

	createPendingWager(t, db, account.ID, draw.ID, odds.BetDezena, nil, []string{"37"}, 1, "10.00")

	if _, _, err := svc.SubmitResults(context.Background(), draw.ID, []PrizeInput{{AnimalID: 10, Number: "1237"}}); err != nil {
		t.Fatalf("first SubmitResults failed: %v", err)
	}

	_, _, err := svc.SubmitResults(context.Background(), draw.ID, []PrizeInput{{AnimalID: 10, Number: "1237"}})
	if !errors.Is(err, ErrDrawAlreadySettled) {
		t.Fatalf("expected ErrDrawAlreadySettled, got %v", err)
	}

	// The winner was paid exactly once
	if balance := accountBalance(t, db, account.ID); !balance.Equal(decimal.RequireFromString("900")) {
		t.Errorf("expected balance 900 after duplicate submit, got %s", balance)
	}
	var prizes int64
	db.Model(&models.DrawPrize{}).Where("draw_id = ?", draw.ID).Count(&prizes)
	if prizes != 1 {
		t.Errorf("expected 1 prize row, got %d", prizes)
	}
}

func TestSettleDrawRerunTouchesNothing(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettlementService(db, repository.NewAccountRepository())
	account := createTestAccount(t, db, "0")
	draw := createTestDraw(t, db, time.Now().Add(-time.Minute))

	createPendingWager(t, db, account.ID, draw.ID, odds.BetDezena, nil, []string{"37"}, 1, "10.00")

	if _, _, err := svc.SubmitResults(context.Background(), draw.ID, []PrizeInput{{AnimalID: 10, Number: "1237"}}); err != nil {
		t.Fatalf("SubmitResults failed: %v", err)
	}

	// A re-run of the settlement pass finds no pending wagers
	summary, err := svc.SettleDraw(context.Background(), draw.ID)
	if err != nil {
		t.Fatalf("SettleDraw rerun failed: %v", err)
	}
	if summary.Settled != 0 {
		t.Errorf("expected 0 settled on rerun, got %d", summary.Settled)
	}
	if balance := accountBalance(t, db, account.ID); !balance.Equal(decimal.RequireFromString("900")) {
		t.Errorf("expected balance unchanged at 900, got %s", balance)
	}
}

func TestSweepUnsettledResolvesLateWagers(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettlementService(db, repository.NewAccountRepository())
	account := createTestAccount(t, db, "0")
	draw := createTestDraw(t, db, time.Now().Add(-time.Minute))

	if _, _, err := svc.SubmitResults(context.Background(), draw.ID, []PrizeInput{{AnimalID: 10, Number: "1237"}}); err != nil {
		t.Fatalf("SubmitResults failed: %v", err)
	}

	// A placement that committed while settlement ran left this wager
	// pending on an already-completed draw
	late := createPendingWager(t, db, account.ID, draw.ID, odds.BetDezena, nil, []string{"37"}, 1, "10.00")

	if err := svc.SweepUnsettled(context.Background()); err != nil {
		t.Fatalf("SweepUnsettled failed: %v", err)
	}

	var got models.Wager
	db.First(&got, "id = ?", late.ID)
	if got.Status != models.WagerStatusWon {
		t.Errorf("expected late wager won, got %s", got.Status)
	}
	if balance := accountBalance(t, db, account.ID); !balance.Equal(decimal.RequireFromString("900")) {
		t.Errorf("expected balance 900 after sweep, got %s", balance)
	}
}

func TestSweepUnsettledIgnoresOpenDraws(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettlementService(db, repository.NewAccountRepository())
	account := createTestAccount(t, db, "0")
	draw := createTestDraw(t, db, time.Now().Add(time.Hour))

	wager := createPendingWager(t, db, account.ID, draw.ID, odds.BetDezena, nil, []string{"37"}, 1, "10.00")

	if err := svc.SweepUnsettled(context.Background()); err != nil {
		t.Fatalf("SweepUnsettled failed: %v", err)
	}

	var got models.Wager
	db.First(&got, "id = ?", wager.ID)
	if got.Status != models.WagerStatusPending {
		t.Errorf("expected wager still pending on an open draw, got %s", got.Status)
	}
}

func TestSubmitResultsRejectsBadPairs(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettlementService(db, repository.NewAccountRepository())
	draw := createTestDraw(t, db, time.Now().Add(-time.Minute))

	cases := []struct {
		name   string
		prizes []PrizeInput
	}{
		{"no pairs", nil},
		{"too many pairs", []PrizeInput{
			{10, "1237"}, {10, "1238"}, {10, "1239"}, {10, "1240"}, {9, "1236"}, {9, "1235"},
		}},
		{"short number", []PrizeInput{{10, "237"}}},
		{"non-digit number", []PrizeInput{{10, "12a7"}}},
		{"unknown animal", []PrizeInput{{26, "1237"}}},
		{"animal does not own dezena", []PrizeInput{{9, "1237"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := svc.SubmitResults(context.Background(), draw.ID, tc.prizes); err == nil {
				t.Error("expected an error")
			}
		})
	}

	// Rejections leave the draw untouched
	var got models.Draw
	db.First(&got, draw.ID)
	if got.Status != models.DrawStatusPending {
		t.Errorf("expected pending draw after rejections, got %s", got.Status)
	}
}

func TestSubmitResultsUnknownDraw(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettlementService(db, repository.NewAccountRepository())

	_, _, err := svc.SubmitResults(context.Background(), 999, []PrizeInput{{AnimalID: 10, Number: "1237"}})
	if !errors.Is(err, ErrDrawNotFound) {
		t.Fatalf("expected ErrDrawNotFound, got %v", err)
	}
}

func TestSettlementCreditsRealBalanceForBonusWagers(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettlementService(db, repository.NewAccountRepository())
	account := createTestAccount(t, db, "0")
	draw := createTestDraw(t, db, time.Now().Add(-time.Minute))

	wager := createPendingWager(t, db, account.ID, draw.ID, odds.BetDezena, nil, []string{"37"}, 1, "10.00")
	db.Model(wager).Update("funding_source", models.FundingBonus)

	if _, _, err := svc.SubmitResults(context.Background(), draw.ID, []PrizeInput{{AnimalID: 10, Number: "1237"}}); err != nil {
		t.Fatalf("SubmitResults failed: %v", err)
	}

	// Winnings from bonus-funded wagers land on the real balance
	if balance := accountBalance(t, db, account.ID); !balance.Equal(decimal.RequireFromString("900")) {
		t.Errorf("expected real balance 900, got %s", balance)
	}
}
