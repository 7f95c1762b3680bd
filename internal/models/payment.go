package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment directions
const (
	PaymentDeposit    = "deposit"
	PaymentWithdrawal = "withdrawal"
)

// Payment transaction statuses. Completed and failed are terminal and
// immutable; every transition into them is guarded by a compare-and-set.
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
)

// PaymentTransaction tracks one deposit or withdrawal through the
// external gateway lifecycle.
type PaymentTransaction struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID   uint            `gorm:"not null;index" json:"account_id"`
	Gateway     string          `gorm:"size:30;not null" json:"gateway"`
	ExternalID  string          `gorm:"size:100;index" json:"external_id"`
	Direction   string          `gorm:"size:10;not null;index" json:"direction"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Status      string          `gorm:"size:20;not null;index;default:'pending'" json:"status"`
	ApplyBonus  bool            `gorm:"default:false" json:"apply_bonus"`
	PixCode     string          `gorm:"type:text" json:"pix_code,omitempty"`
	QRCode      string          `gorm:"type:text" json:"qr_code,omitempty"`
	PayoutKey   string          `gorm:"size:140" json:"payout_key,omitempty"`
	FailReason  string          `gorm:"type:text" json:"fail_reason,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `gorm:"index" json:"updated_at"`
}

// TableName specifies the table name for PaymentTransaction model
func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}

// Terminal reports whether the transaction reached a final state
func (t *PaymentTransaction) Terminal() bool {
	return t.Status == PaymentStatusCompleted || t.Status == PaymentStatusFailed
}
