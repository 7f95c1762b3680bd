package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a betting account holding the real-money balance
type Account struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"size:100;not null" json:"name"`
	Email        string          `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string          `gorm:"not null" json:"-"`
	Balance      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	IsAdmin      bool            `gorm:"default:false" json:"is_admin"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Account model
func (Account) TableName() string {
	return "accounts"
}
