package repository

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bicho-platform/internal/models"
)

// ErrInsufficientBalance is returned when a conditional debit finds less
// than the required amount on the account.
var ErrInsufficientBalance = errors.New("insufficient balance")

// AccountRepository holds the money primitives shared by every service
// that moves funds. All mutating methods take the caller's transaction
// handle so a debit, its ledger entry and the dependent record commit or
// roll back together.
type AccountRepository struct{}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{}
}

// GetAccount retrieves an account by ID
func (r *AccountRepository) GetAccount(tx *gorm.DB, accountID uint) (*models.Account, error) {
	var account models.Account
	if err := tx.First(&account, accountID).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// Debit atomically subtracts amount from the account balance. The guard
// and the subtraction are a single conditional UPDATE, so two concurrent
// debits can never both spend the same funds.
func (r *AccountRepository) Debit(tx *gorm.DB, accountID uint, amount decimal.Decimal) error {
	res := tx.Model(&models.Account{}).
		Where("id = ? AND balance >= ?", accountID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("failed to debit account %d: %w", accountID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// Credit atomically adds amount to the account balance
func (r *AccountRepository) Credit(tx *gorm.DB, accountID uint, amount decimal.Decimal) error {
	res := tx.Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("failed to credit account %d: %w", accountID, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AppendLedger records a real-balance movement. Must run inside the same
// transaction as the balance mutation so BalanceAfter is consistent.
func (r *AccountRepository) AppendLedger(tx *gorm.DB, accountID uint, entryType string, amount decimal.Decimal, referenceID, description string) error {
	account, err := r.GetAccount(tx, accountID)
	if err != nil {
		return fmt.Errorf("failed to read balance for ledger entry: %w", err)
	}

	entry := models.LedgerEntry{
		AccountID:    accountID,
		Type:         entryType,
		Amount:       amount,
		BalanceAfter: account.Balance,
		ReferenceID:  referenceID,
		Description:  description,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}
