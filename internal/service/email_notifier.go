package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kursadbilgin/solar-proposals/internal/domain"
	"github.com/kursadbilgin/solar-proposals/internal/observability"
	"github.com/kursadbilgin/solar-proposals/internal/provider"
	"go.uber.org/zap"
)

const (
	recipientClient = "client"
	recipientAdmin  = "admin"
)

// EmailStatus reports which proposal emails the provider accepted.
type EmailStatus struct {
	ClientSent bool
	AdminSent  bool
}

// ProposalEmail is the data both proposal emails are rendered from.
type ProposalEmail struct {
	Proposal domain.Proposal
}

// ProposalEmailer sends the prospect and staff emails for a new proposal.
type ProposalEmailer interface {
	SendProposalEmails(ctx context.Context, email ProposalEmail) (EmailStatus, error)
}

type EmailNotifier struct {
	sender     provider.EmailSender
	adminEmail string
	logger     *zap.Logger
	metrics    *observability.Metrics
}

func NewEmailNotifier(sender provider.EmailSender, adminEmail string, logger *zap.Logger) (*EmailNotifier, error) {
	if sender == nil {
		return nil, fmt.Errorf("email sender is required")
	}
	adminEmail = strings.TrimSpace(adminEmail)
	if adminEmail == "" {
		return nil, fmt.Errorf("admin email is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EmailNotifier{
		sender:     sender,
		adminEmail: adminEmail,
		logger:     logger,
	}, nil
}

func (n *EmailNotifier) SetMetrics(metrics *observability.Metrics) {
	if n == nil {
		return
	}
	n.metrics = metrics
}

// SendProposalEmails sends both emails independently. The returned error joins
// every failed recipient; the status still reflects the ones that went out.
func (n *EmailNotifier) SendProposalEmails(ctx context.Context, email ProposalEmail) (EmailStatus, error) {
	var status EmailStatus
	p := email.Proposal

	clientErr := n.sendClient(ctx, p)
	status.ClientSent = clientErr == nil
	n.metrics.IncEmail(recipientClient, status.ClientSent)

	adminErr := n.sendAdmin(ctx, p)
	status.AdminSent = adminErr == nil
	n.metrics.IncEmail(recipientAdmin, status.AdminSent)

	var errs []error
	if clientErr != nil {
		errs = append(errs, fmt.Errorf("client email: %w", clientErr))
	}
	if adminErr != nil {
		errs = append(errs, fmt.Errorf("admin email: %w", adminErr))
	}
	if len(errs) > 0 {
		observability.WithContextLogger(n.logger, ctx).Warn("proposal emails partially failed",
			zap.String("proposalId", p.ID),
			zap.Bool("clientSent", status.ClientSent),
			zap.Bool("adminSent", status.AdminSent),
		)
	}

	return status, errors.Join(errs...)
}

func (n *EmailNotifier) sendClient(ctx context.Context, p domain.Proposal) error {
	if strings.TrimSpace(p.Email) == "" {
		return fmt.Errorf("prospect email is empty")
	}

	html, err := renderHTML(clientEmailTemplate, p)
	if err != nil {
		return err
	}

	_, err = n.sender.SendEmail(ctx, provider.EmailMessage{
		To:      provider.EmailAddress{Email: p.Email, Name: p.Name},
		Subject: "Tu propuesta de energía solar",
		Text: fmt.Sprintf("Hola %s, tu propuesta solar está lista: %s. Ahorro mensual estimado: %s.",
			firstName(p.Name), p.ProposalURL, formatMoney(p.EstimatedSaving)),
		HTML:       html,
		Categories: []string{"proposal-client"},
	})
	return err
}

func (n *EmailNotifier) sendAdmin(ctx context.Context, p domain.Proposal) error {
	html, err := renderHTML(adminEmailTemplate, p)
	if err != nil {
		return err
	}

	var replyTo *provider.EmailAddress
	if strings.TrimSpace(p.Email) != "" {
		replyTo = &provider.EmailAddress{Email: p.Email, Name: p.Name}
	}

	_, err = n.sender.SendEmail(ctx, provider.EmailMessage{
		To:      provider.EmailAddress{Email: n.adminEmail},
		ReplyTo: replyTo,
		Subject: fmt.Sprintf("Nueva solicitud de propuesta: %s", p.Name),
		Text: fmt.Sprintf("Nueva solicitud %s de %s (%s, %s). Consumo %s kWh/mes. %s",
			p.ID, p.Name, p.Email, p.Phone, formatKWh(p.Consumption), p.ProposalURL),
		HTML:       html,
		Categories: []string{"proposal-admin"},
	})
	return err
}

var _ ProposalEmailer = (*EmailNotifier)(nil)
