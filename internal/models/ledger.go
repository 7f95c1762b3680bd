package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger entry types. Entries record every real-balance movement; bonus
// movements live on the bonus grant rows themselves.
const (
	LedgerWagerStake       = "wager_stake"
	LedgerWagerPayout      = "wager_payout"
	LedgerDeposit          = "deposit"
	LedgerWithdrawal       = "withdrawal"
	LedgerWithdrawalRefund = "withdrawal_refund"
)

// LedgerEntry is an append-only record of a real-balance movement.
// Amount is signed: debits negative, credits positive.
type LedgerEntry struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	AccountID    uint            `gorm:"not null;index" json:"account_id"`
	Type         string          `gorm:"size:50;not null;index" json:"type"`
	Amount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	BalanceAfter decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"balance_after"`
	ReferenceID  string          `gorm:"size:64;index" json:"reference_id"`
	Description  string          `gorm:"type:text" json:"description"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for LedgerEntry model
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
