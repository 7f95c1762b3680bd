package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bonus grant types
const (
	BonusTypeSignup       = "signup"
	BonusTypeFirstDeposit = "first_deposit"
)

// Bonus grant statuses
const (
	BonusStatusActive    = "active"
	BonusStatusCompleted = "completed"
	BonusStatusExpired   = "expired"
	BonusStatusCancelled = "cancelled"
)

// BonusGrant is a promotional credit with rollover accounting.
// RemainingAmount is the spendable part; RolledAmount tracks wagering
// volume toward RolloverTarget and only moves while the grant is active.
type BonusGrant struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	AccountID       uint            `gorm:"not null;index" json:"account_id"`
	Type            string          `gorm:"size:30;not null;index" json:"type"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"remaining_amount"`
	RolloverTarget  decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"rollover_target"`
	RolledAmount    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"rolled_amount"`
	Status          string          `gorm:"size:20;not null;index;default:'active'" json:"status"`
	ExpiresAt       time.Time       `gorm:"not null;index" json:"expires_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName specifies the table name for BonusGrant model
func (BonusGrant) TableName() string {
	return "bonus_grants"
}
