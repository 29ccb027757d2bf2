package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/solar-proposals/internal/domain"
	"github.com/kursadbilgin/solar-proposals/internal/observability"
	"github.com/kursadbilgin/solar-proposals/internal/repository"
	"go.uber.org/zap"
)

// tracker appends audit entries. Failures are logged and never returned.
type tracker struct {
	repo   repository.TrackingRepository
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func newTracker(repo repository.TrackingRepository, logger *zap.Logger) *tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &tracker{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (t *tracker) record(
	ctx context.Context,
	proposalID string,
	kind domain.TrackingKind,
	note string,
	metadata map[string]string,
) {
	if t == nil || t.repo == nil || strings.TrimSpace(proposalID) == "" {
		return
	}

	if requestID, ok := observability.RequestIDFromContext(ctx); ok {
		if metadata == nil {
			metadata = make(map[string]string, 1)
		}
		metadata["requestId"] = requestID
	}

	entry := &domain.TrackingEntry{
		ID:         t.newID(),
		ProposalID: proposalID,
		Kind:       kind,
		Note:       note,
		Actor:      domain.SystemActor,
		Metadata:   metadata,
		CreatedAt:  t.now().UTC(),
	}

	if err := t.repo.Create(ctx, entry); err != nil {
		observability.WithContextLogger(t.logger, ctx).Warn("failed to write tracking entry",
			zap.String("proposalId", proposalID),
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
	}
}
