package queue

import (
	"fmt"
	"strings"
)

// InitialMessageJob is the broker payload for sending the prospect's first message.
type InitialMessageJob struct {
	ProposalID    string  `json:"proposalId"`
	CorrelationID string  `json:"correlationId,omitempty"`
	Recipient     string  `json:"recipient"`
	Name          string  `json:"name"`
	ProposalURL   string  `json:"proposalUrl"`
	Consumption   float64 `json:"consumption"`
	Saving        float64 `json:"saving"`
}

func (j InitialMessageJob) Validate() error {
	if strings.TrimSpace(j.ProposalID) == "" {
		return fmt.Errorf("proposalId is required")
	}
	if !strings.HasPrefix(strings.TrimSpace(j.Recipient), "+") {
		return fmt.Errorf("recipient %q is not in international format", j.Recipient)
	}
	if strings.TrimSpace(j.ProposalURL) == "" {
		return fmt.Errorf("proposalUrl is required")
	}
	return nil
}
