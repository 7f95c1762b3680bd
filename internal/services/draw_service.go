package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"bicho-platform/internal/models"
)

// DrawService handles draw scheduling and lookup
type DrawService struct {
	db *gorm.DB
}

// NewDrawService creates a new DrawService
func NewDrawService(db *gorm.DB) *DrawService {
	return &DrawService{db: db}
}

// ScheduleDraw creates a pending draw
func (s *DrawService) ScheduleDraw(ctx context.Context, name string, scheduledAt time.Time) (*models.Draw, error) {
	if !scheduledAt.After(time.Now()) {
		return nil, fmt.Errorf("draw must be scheduled in the future")
	}

	draw := models.Draw{
		Name:        name,
		ScheduledAt: scheduledAt,
		Status:      models.DrawStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&draw).Error; err != nil {
		return nil, fmt.Errorf("failed to create draw: %w", err)
	}
	return &draw, nil
}

// GetDraw retrieves a draw with its prizes
func (s *DrawService) GetDraw(ctx context.Context, drawID uint) (*models.Draw, error) {
	var draw models.Draw
	err := s.db.WithContext(ctx).Preload("Prizes").First(&draw, drawID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDrawNotFound
		}
		return nil, err
	}
	return &draw, nil
}

// ListDraws retrieves draws newest first
func (s *DrawService) ListDraws(ctx context.Context, limit, offset int) ([]models.Draw, error) {
	var draws []models.Draw
	err := s.db.WithContext(ctx).
		Preload("Prizes").
		Order("scheduled_at DESC").
		Limit(limit).Offset(offset).
		Find(&draws).Error
	if err != nil {
		return nil, err
	}
	return draws, nil
}
