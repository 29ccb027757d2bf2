package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/solar-proposals/internal/domain"
	"github.com/kursadbilgin/solar-proposals/internal/estimator"
	"github.com/kursadbilgin/solar-proposals/internal/observability"
	"github.com/kursadbilgin/solar-proposals/internal/queue"
	"github.com/kursadbilgin/solar-proposals/internal/repository"
	"go.uber.org/zap"
)

const defaultPlaceholderWindow = 5 * time.Minute

// Lookup results recorded in metrics.
const (
	lookupFound               = "found"
	lookupNotFound            = "not_found"
	lookupError               = "error"
	lookupPlaceholderResolved = "placeholder_resolved"
	lookupPlaceholder         = "placeholder"
)

type ProposalServiceConfig struct {
	// BaseURL is the public site root for the current environment, without trailing slash.
	BaseURL           string
	CountryCode       string
	PlaceholderWindow time.Duration
}

// SubmitResult is returned to the caller after a proposal was stored.
type SubmitResult struct {
	ID              string
	ProposalURL     string
	EstimatedSaving float64
	EmailStatus     EmailStatus
}

type ProposalService struct {
	proposals repository.ProposalRepository
	tracking  *tracker
	estimator *estimator.Estimator
	messenger InitialMessenger
	emailer   ProposalEmailer
	publisher queue.Publisher
	cfg       ProposalServiceConfig
	logger    *zap.Logger
	metrics   *observability.Metrics
	now       func() time.Time
	newID     func() string
}

func NewProposalService(
	proposals repository.ProposalRepository,
	tracking repository.TrackingRepository,
	est *estimator.Estimator,
	messenger InitialMessenger,
	emailer ProposalEmailer,
	cfg ProposalServiceConfig,
	logger *zap.Logger,
) (*ProposalService, error) {
	if proposals == nil {
		return nil, fmt.Errorf("proposal repository is required")
	}
	if est == nil {
		return nil, fmt.Errorf("estimator is required")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if !strings.HasPrefix(strings.TrimSpace(cfg.CountryCode), "+") {
		return nil, fmt.Errorf("country code must start with +, got %q", cfg.CountryCode)
	}
	if cfg.PlaceholderWindow <= 0 {
		cfg.PlaceholderWindow = defaultPlaceholderWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ProposalService{
		proposals: proposals,
		tracking:  newTracker(tracking, logger),
		estimator: est,
		messenger: messenger,
		emailer:   emailer,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

// SetPublisher routes initial messages through the queue instead of sending inline.
func (s *ProposalService) SetPublisher(publisher queue.Publisher) {
	if s == nil {
		return
	}
	s.publisher = publisher
}

func (s *ProposalService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// SubmitProposal validates, stores and announces a new quote request. Only
// validation and storage failures are returned; notification problems are
// logged and tracked.
func (s *ProposalService) SubmitProposal(ctx context.Context, in domain.ProposalInput) (*SubmitResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := observability.WithContextLogger(s.logger, ctx)

	if err := in.Validate(); err != nil {
		s.metrics.IncProposalSubmitted(observability.OutcomeInvalid)
		return nil, err
	}

	consumption := *in.Consumption
	id := s.newID()
	proposal := &domain.Proposal{
		ID:              id,
		Name:            strings.TrimSpace(in.Name),
		Email:           strings.TrimSpace(in.Email),
		Phone:           domain.NormalizePhone(in.Phone, s.cfg.CountryCode),
		Consumption:     consumption,
		PropertyType:    strings.TrimSpace(in.PropertyType),
		Province:        strings.TrimSpace(in.Province),
		ElectricalPhase: strings.TrimSpace(in.ElectricalPhase),
		ProposalURL:     s.proposalURL(id),
		EstimatedSaving: s.estimator.Estimate(consumption),
		CreatedAt:       s.now().UTC(),
	}

	if err := s.proposals.Create(ctx, proposal); err != nil {
		s.metrics.IncProposalSubmitted(observability.OutcomeStoreFailure)
		logger.Error("failed to store proposal", zap.String("proposalId", id), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	s.metrics.IncProposalSubmitted(observability.OutcomeAccepted)
	logger = logger.With(zap.String("proposalId", proposal.ID))
	logger.Info("proposal stored", zap.Float64("estimatedSaving", proposal.EstimatedSaving))

	s.tracking.record(ctx, proposal.ID, domain.TrackingProposalCreated, "proposal created", nil)

	s.sendInitialMessage(ctx, proposal)

	status := s.sendEmails(ctx, proposal)

	return &SubmitResult{
		ID:              proposal.ID,
		ProposalURL:     proposal.ProposalURL,
		EstimatedSaving: proposal.EstimatedSaving,
		EmailStatus:     status,
	}, nil
}

// GetProposal resolves stored ids and placeholder ids. Placeholder ids never fail:
// they resolve to the newest recent proposal or to a synthesized record.
func (s *ProposalService) GetProposal(ctx context.Context, id string) (*domain.Proposal, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &domain.ValidationError{Message: "proposal id is required"}
	}

	if domain.IsPlaceholderID(id) {
		return s.resolvePlaceholder(ctx, id), nil
	}

	proposal, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.metrics.IncProposalLookup(lookupNotFound)
			return nil, fmt.Errorf("proposal %q: %w", id, domain.ErrNotFound)
		}
		s.metrics.IncProposalLookup(lookupError)
		return nil, fmt.Errorf("%w: %w", domain.ErrLookup, err)
	}

	s.metrics.IncProposalLookup(lookupFound)
	return proposal, nil
}

func (s *ProposalService) resolvePlaceholder(ctx context.Context, id string) *domain.Proposal {
	now := s.now()

	latest, err := s.proposals.GetLatestSince(ctx, now.Add(-s.cfg.PlaceholderWindow).UTC())
	if err == nil && latest != nil {
		s.metrics.IncProposalLookup(lookupPlaceholderResolved)
		return latest
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		observability.WithContextLogger(s.logger, ctx).Warn("placeholder lookup failed, serving synthesized proposal",
			zap.String("placeholderId", id),
			zap.Error(err),
		)
	}

	s.metrics.IncProposalLookup(lookupPlaceholder)
	return domain.PlaceholderProposal(id, now)
}

func (s *ProposalService) proposalURL(id string) string {
	return fmt.Sprintf("%s/propuesta/%s", s.cfg.BaseURL, id)
}

func (s *ProposalService) sendInitialMessage(ctx context.Context, p *domain.Proposal) {
	logger := observability.WithContextLogger(s.logger, ctx).With(zap.String("proposalId", p.ID))

	if s.publisher != nil {
		job := queue.InitialMessageJob{
			ProposalID:  p.ID,
			Recipient:   p.Phone,
			Name:        p.Name,
			ProposalURL: p.ProposalURL,
			Consumption: p.Consumption,
			Saving:      p.EstimatedSaving,
		}
		if requestID, ok := observability.RequestIDFromContext(ctx); ok {
			job.CorrelationID = requestID
		}

		err := s.publisher.Publish(ctx, queue.InitialMessageQueue, job)
		if err == nil {
			s.metrics.IncInitialMessage("queued")
			return
		}
		logger.Warn("failed to queue initial message, sending inline", zap.Error(err))
	}

	if s.messenger == nil {
		return
	}

	s.metrics.IncInitialMessage("inline")
	err := s.messenger.SendInitialMessage(ctx, InitialMessage{
		Recipient:   p.Phone,
		Name:        p.Name,
		ProposalURL: p.ProposalURL,
		Consumption: p.Consumption,
		Saving:      p.EstimatedSaving,
		RequestID:   p.ID,
	})
	if err != nil {
		logger.Error("initial message not delivered", zap.Error(err))
		s.tracking.record(ctx, p.ID, domain.TrackingOther,
			fmt.Sprintf("initial message not delivered: %v", err),
			map[string]string{"reason": "initial_message_failed"},
		)
	}
}

func (s *ProposalService) sendEmails(ctx context.Context, p *domain.Proposal) EmailStatus {
	if s.emailer == nil {
		return EmailStatus{}
	}
	logger := observability.WithContextLogger(s.logger, ctx).With(zap.String("proposalId", p.ID))

	status, err := s.emailer.SendProposalEmails(ctx, ProposalEmail{Proposal: *p})
	metadata := map[string]string{
		"clientSent": fmt.Sprintf("%t", status.ClientSent),
		"adminSent":  fmt.Sprintf("%t", status.AdminSent),
	}

	if err != nil {
		logger.Error("failed to send proposal emails", zap.Error(err))
		s.tracking.record(ctx, p.ID, domain.TrackingEmailError, err.Error(), metadata)
		return status
	}

	s.tracking.record(ctx, p.ID, domain.TrackingEmailsSent, "proposal emails sent", metadata)
	return status
}
