package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// PlaceholderPrefix marks identifiers handed out before persistence is confirmed.
const PlaceholderPrefix = "temp-"

// MaxConsumptionKWh bounds a monthly consumption figure. Larger values are
// typing mistakes and would overflow the stored numeric columns.
const MaxConsumptionKWh = 1_000_000

// Property types offered by the quote form.
const (
	PropertyResidential = "residencial"
	PropertyCommercial  = "comercial"
	PropertyIndustrial  = "industrial"
)

// Electrical phases offered by the quote form.
const (
	PhaseSingle = "monofasico"
	PhaseThree  = "trifasico"
)

// Proposal is a submitted quote request. It is written once and never updated.
type Proposal struct {
	ID              string
	Name            string
	Email           string
	Phone           string
	Consumption     float64
	PropertyType    string
	Province        string
	ElectricalPhase string
	ProposalURL     string
	EstimatedSaving float64
	CreatedAt       time.Time

	// Placeholder is set only on synthesized records that were never stored.
	Placeholder bool
}

// ProposalInput is the raw quote request as received from the form.
type ProposalInput struct {
	Name            string
	Email           string
	Phone           string
	Consumption     *float64
	PropertyType    string
	Province        string
	ElectricalPhase string
}

// Validate checks required fields in form order and reports all of them at once.
func (in ProposalInput) Validate() error {
	missing := make([]string, 0, 4)
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "nombre")
	}
	if strings.TrimSpace(in.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(in.Phone) == "" {
		missing = append(missing, "telefono")
	}
	if in.Consumption == nil || *in.Consumption == 0 {
		missing = append(missing, "consumo")
	}
	if len(missing) > 0 {
		return &ValidationError{MissingFields: missing}
	}

	consumption := *in.Consumption
	if math.IsNaN(consumption) || math.IsInf(consumption, 0) || consumption < 0 {
		return &ValidationError{Message: "consumo must be a positive number"}
	}
	if consumption > MaxConsumptionKWh {
		return &ValidationError{Message: fmt.Sprintf("consumo must not exceed %d kWh", MaxConsumptionKWh)}
	}
	return nil
}

// IsPlaceholderID reports whether id was issued optimistically by the client.
func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(strings.TrimSpace(id), PlaceholderPrefix)
}

// PlaceholderProposal builds the non-persisted record served while a placeholder id
// cannot be matched to a stored proposal yet.
func PlaceholderProposal(id string, now time.Time) *Proposal {
	return &Proposal{
		ID:              id,
		Name:            "Cliente",
		PropertyType:    PropertyResidential,
		Province:        "Panamá",
		ElectricalPhase: PhaseSingle,
		CreatedAt:       now.UTC(),
		Placeholder:     true,
	}
}
