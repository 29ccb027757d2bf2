package domain

import "time"

// TrackingKind enumerates audit events recorded while processing a proposal.
type TrackingKind string

const (
	TrackingProposalCreated TrackingKind = "proposal_created"
	TrackingWhatsAppSent    TrackingKind = "whatsapp_sent"
	TrackingSMSSent         TrackingKind = "sms_sent"
	TrackingEmailsSent      TrackingKind = "emails_sent"
	TrackingEmailError      TrackingKind = "email_error"
	TrackingOther           TrackingKind = "other"
)

func (k TrackingKind) String() string { return string(k) }

func (k TrackingKind) IsValid() bool {
	switch k {
	case TrackingProposalCreated, TrackingWhatsAppSent, TrackingSMSSent,
		TrackingEmailsSent, TrackingEmailError, TrackingOther:
		return true
	}
	return false
}

// SystemActor identifies entries written by the service itself.
const SystemActor = "system"

// TrackingEntry is an append-only audit event about one proposal. ProposalID is a
// plain reference; entries outlive the proposal they point to.
type TrackingEntry struct {
	ID         string
	ProposalID string
	Kind       TrackingKind
	Note       string
	Actor      string
	Metadata   map[string]string
	CreatedAt  time.Time
}
