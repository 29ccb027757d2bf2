package repository

import (
	"encoding/json"
	"time"

	"github.com/kursadbilgin/solar-proposals/internal/domain"
	"gorm.io/datatypes"
)

// ProposalModel is the persistence model for the proposals table.
type ProposalModel struct {
	ID              string    `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"type:varchar(255);not null"`
	Email           string    `gorm:"type:varchar(255);not null"`
	Phone           string    `gorm:"type:varchar(32);not null"`
	Consumption     float64   `gorm:"type:numeric(12,2);not null"`
	PropertyType    string    `gorm:"type:varchar(32)"`
	Province        string    `gorm:"type:varchar(64)"`
	ElectricalPhase string    `gorm:"type:varchar(32)"`
	ProposalURL     string    `gorm:"type:text;not null"`
	EstimatedSaving float64   `gorm:"type:numeric(12,2);not null"`
	CreatedAt       time.Time `gorm:"type:timestamptz;not null"`
}

func (ProposalModel) TableName() string {
	return "proposals"
}

// TrackingEntryModel is the persistence model for tracking_entries. ProposalID is
// not a foreign key so entries survive independent proposal removal.
type TrackingEntryModel struct {
	ID         string              `gorm:"type:uuid;primaryKey"`
	ProposalID string              `gorm:"type:uuid;not null"`
	Kind       domain.TrackingKind `gorm:"type:varchar(32);not null"`
	Note       string              `gorm:"type:text"`
	Actor      string              `gorm:"type:varchar(64);not null"`
	Metadata   datatypes.JSON      `gorm:"type:jsonb"`
	CreatedAt  time.Time           `gorm:"type:timestamptz;not null"`
}

func (TrackingEntryModel) TableName() string {
	return "tracking_entries"
}

func proposalModelFromDomain(p *domain.Proposal) *ProposalModel {
	if p == nil {
		return nil
	}

	return &ProposalModel{
		ID:              p.ID,
		Name:            p.Name,
		Email:           p.Email,
		Phone:           p.Phone,
		Consumption:     p.Consumption,
		PropertyType:    p.PropertyType,
		Province:        p.Province,
		ElectricalPhase: p.ElectricalPhase,
		ProposalURL:     p.ProposalURL,
		EstimatedSaving: p.EstimatedSaving,
		CreatedAt:       p.CreatedAt,
	}
}

func proposalModelToDomain(m *ProposalModel) *domain.Proposal {
	if m == nil {
		return nil
	}

	return &domain.Proposal{
		ID:              m.ID,
		Name:            m.Name,
		Email:           m.Email,
		Phone:           m.Phone,
		Consumption:     m.Consumption,
		PropertyType:    m.PropertyType,
		Province:        m.Province,
		ElectricalPhase: m.ElectricalPhase,
		ProposalURL:     m.ProposalURL,
		EstimatedSaving: m.EstimatedSaving,
		CreatedAt:       m.CreatedAt,
	}
}

func trackingModelFromDomain(e *domain.TrackingEntry) (*TrackingEntryModel, error) {
	if e == nil {
		return nil, nil
	}

	var metadata datatypes.JSON
	if len(e.Metadata) > 0 {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			return nil, err
		}
		metadata = datatypes.JSON(raw)
	}

	return &TrackingEntryModel{
		ID:         e.ID,
		ProposalID: e.ProposalID,
		Kind:       e.Kind,
		Note:       e.Note,
		Actor:      e.Actor,
		Metadata:   metadata,
		CreatedAt:  e.CreatedAt,
	}, nil
}
