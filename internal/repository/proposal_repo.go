package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/solar-proposals/internal/domain"
	"gorm.io/gorm"
)

type ProposalRepository interface {
	Create(ctx context.Context, p *domain.Proposal) error
	GetByID(ctx context.Context, id string) (*domain.Proposal, error)
	GetLatestSince(ctx context.Context, since time.Time) (*domain.Proposal, error)
}

type GormProposalRepo struct {
	db *gorm.DB
}

func NewGormProposalRepo(db *gorm.DB) *GormProposalRepo {
	return &GormProposalRepo{db: db}
}

func (r *GormProposalRepo) Create(ctx context.Context, p *domain.Proposal) error {
	model := proposalModelFromDomain(p)
	if model == nil {
		return errors.New("proposal is required")
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	*p = *proposalModelToDomain(model)
	return nil
}

// GetByID looks up a stored proposal. The id column is a uuid, so ids that do
// not parse as one cannot exist and are reported as not found without a query.
func (r *GormProposalRepo) GetByID(ctx context.Context, id string) (*domain.Proposal, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}

	var model ProposalModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return proposalModelToDomain(&model), nil
}

// GetLatestSince returns the most recently created proposal at or after since.
func (r *GormProposalRepo) GetLatestSince(ctx context.Context, since time.Time) (*domain.Proposal, error) {
	var models []ProposalModel
	err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Limit(1).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, domain.ErrNotFound
	}
	return proposalModelToDomain(&models[0]), nil
}
