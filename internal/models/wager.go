package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wager funding sources
const (
	FundingReal  = "real"
	FundingBonus = "bonus"
)

// Wager statuses
const (
	WagerStatusPending = "pending"
	WagerStatusWon     = "won"
	WagerStatusLost    = "lost"
)

// Wager is a single bet on a draw. Animals and Numbers hold the selection
// as comma-separated values; which of the two is populated (and how many
// entries each carries) is fixed by the bet type.
type Wager struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID       uint             `gorm:"not null;index" json:"account_id"`
	DrawID          uint             `gorm:"not null;index" json:"draw_id"`
	Type            string           `gorm:"size:30;not null" json:"type"`
	Animals         string           `gorm:"size:50" json:"animals"`
	Numbers         string           `gorm:"size:50" json:"numbers"`
	Premio          int              `gorm:"not null" json:"premio"` // 1-5, or 0 for all five tiers
	Stake           decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"stake"`
	PotentialPayout decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"potential_payout"`
	FundingSource   string           `gorm:"size:10;not null" json:"funding_source"`
	Status          string           `gorm:"size:10;not null;index;default:'pending'" json:"status"`
	Payout          *decimal.Decimal `gorm:"type:decimal(15,2)" json:"payout,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// TableName specifies the table name for Wager model
func (Wager) TableName() string {
	return "wagers"
}

// SetAnimals stores the animal selection
func (w *Wager) SetAnimals(ids []int) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	w.Animals = strings.Join(parts, ",")
}

// AnimalIDs returns the animal selection
func (w *Wager) AnimalIDs() []int {
	if w.Animals == "" {
		return nil
	}
	parts := strings.Split(w.Animals, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// SetNumbers stores the numeric selection
func (w *Wager) SetNumbers(numbers []string) {
	w.Numbers = strings.Join(numbers, ",")
}

// NumberList returns the numeric selection
func (w *Wager) NumberList() []string {
	if w.Numbers == "" {
		return nil
	}
	return strings.Split(w.Numbers, ",")
}
