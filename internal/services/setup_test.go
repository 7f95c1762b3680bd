package services

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bicho-platform/internal/config"
	"bicho-platform/internal/models"
	"bicho-platform/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Account{},
		&models.LedgerEntry{},
		&models.BonusGrant{},
		&models.Wager{},
		&models.Draw{},
		&models.DrawPrize{},
		&models.PaymentTransaction{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func createTestAccount(t *testing.T, db *gorm.DB, balance string) *models.Account {
	t.Helper()

	account := models.Account{
		Name:         "Test User",
		Email:        fmt.Sprintf("%s@example.com", t.Name()),
		PasswordHash: "x",
		Balance:      decimal.RequireFromString(balance),
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return &account
}

func testBonusConfig() config.BonusConfig {
	return config.BonusConfig{
		SignupEnabled:       true,
		SignupAmount:        decimal.RequireFromString("10.00"),
		FirstDepositEnabled: true,
		FirstDepositPercent: decimal.RequireFromString("100"),
		FirstDepositMax:     decimal.RequireFromString("200.00"),
		RolloverMultiplier:  decimal.RequireFromString("3"),
		ExpirationDays:      30,
	}
}

func accountBalance(t *testing.T, db *gorm.DB, accountID uint) decimal.Decimal {
	t.Helper()

	account, err := repository.NewAccountRepository().GetAccount(db, accountID)
	if err != nil {
		t.Fatalf("failed to read account %d: %v", accountID, err)
	}
	return account.Balance
}

func countLedgerEntries(t *testing.T, db *gorm.DB, accountID uint, entryType string) int64 {
	t.Helper()

	var count int64
	err := db.Model(&models.LedgerEntry{}).
		Where("account_id = ? AND type = ?", accountID, entryType).
		Count(&count).Error
	if err != nil {
		t.Fatalf("failed to count ledger entries: %v", err)
	}
	return count
}
