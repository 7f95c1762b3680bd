package models

import (
	"time"
)

// Draw statuses
const (
	DrawStatusPending   = "pending"
	DrawStatusCompleted = "completed"
)

// Draw is a scheduled lottery event. Once completed it owns 1-5 prize
// rows that never change again.
type Draw struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Name        string      `gorm:"size:100;not null" json:"name"`
	ScheduledAt time.Time   `gorm:"not null;index" json:"scheduled_at"`
	Status      string      `gorm:"size:20;not null;index;default:'pending'" json:"status"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Prizes      []DrawPrize `gorm:"foreignKey:DrawID" json:"prizes,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TableName specifies the table name for Draw model
func (Draw) TableName() string {
	return "draws"
}

// DrawPrize is one ranked outcome of a completed draw
type DrawPrize struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	DrawID   uint   `gorm:"not null;index" json:"draw_id"`
	Tier     int    `gorm:"not null" json:"tier"` // 1-5
	AnimalID int    `gorm:"not null" json:"animal_id"`
	Number   string `gorm:"size:4;not null" json:"number"`
}

// TableName specifies the table name for DrawPrize model
func (DrawPrize) TableName() string {
	return "draw_prizes"
}
