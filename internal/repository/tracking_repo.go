package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/kursadbilgin/solar-proposals/internal/domain"
	"gorm.io/gorm"
)

// TrackingRepository appends audit entries; entries are never updated or deleted.
type TrackingRepository interface {
	Create(ctx context.Context, e *domain.TrackingEntry) error
}

type GormTrackingRepo struct {
	db *gorm.DB
}

func NewGormTrackingRepo(db *gorm.DB) *GormTrackingRepo {
	return &GormTrackingRepo{db: db}
}

func (r *GormTrackingRepo) Create(ctx context.Context, e *domain.TrackingEntry) error {
	if e == nil {
		return errors.New("tracking entry is required")
	}
	if !e.Kind.IsValid() {
		return fmt.Errorf("%w: invalid tracking kind %q", domain.ErrValidation, e.Kind)
	}

	model, err := trackingModelFromDomain(e)
	if err != nil {
		return fmt.Errorf("failed to encode tracking metadata: %w", err)
	}
	return r.db.WithContext(ctx).Create(model).Error
}
