package service

import (
	"context"
	"fmt"

	"github.com/kursadbilgin/solar-proposals/internal/domain"
	"github.com/kursadbilgin/solar-proposals/internal/observability"
	"github.com/kursadbilgin/solar-proposals/internal/queue"
	"github.com/kursadbilgin/solar-proposals/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const minWorkerConcurrency = 1

// WorkerService delivers queued initial messages. A job that fails on both
// channels is returned as an error so the consumer dead-letters it.
type WorkerService struct {
	consumer    queue.Consumer
	messenger   InitialMessenger
	tracking    *tracker
	logger      *zap.Logger
	concurrency int
}

func NewWorkerService(
	consumer queue.Consumer,
	messenger InitialMessenger,
	tracking repository.TrackingRepository,
	concurrency int,
	logger *zap.Logger,
) (*WorkerService, error) {
	if consumer == nil {
		return nil, fmt.Errorf("consumer is required")
	}
	if messenger == nil {
		return nil, fmt.Errorf("initial messenger is required")
	}
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WorkerService{
		consumer:    consumer,
		messenger:   messenger,
		tracking:    newTracker(tracking, logger),
		logger:      logger,
		concurrency: concurrency,
	}, nil
}

// Start consumes the work queues until context cancellation.
func (s *WorkerService) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	queueNames := queue.WorkQueueNames()
	if len(queueNames) == 0 {
		return fmt.Errorf("no work queues configured")
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < s.concurrency; i++ {
		queueName := queueNames[i%len(queueNames)]
		workerID := i + 1

		g.Go(func() error {
			s.logger.Info("worker started",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)

			if err := s.consumer.Consume(groupCtx, queueName, s.processJob); err != nil {
				s.logger.Error("worker stopped with error",
					zap.Int("workerId", workerID),
					zap.String("queue", queueName),
					zap.Error(err),
				)
				return err
			}

			s.logger.Info("worker stopped", zap.Int("workerId", workerID))
			return nil
		})
	}

	return g.Wait()
}

func (s *WorkerService) processJob(ctx context.Context, job queue.InitialMessageJob) error {
	if job.CorrelationID != "" {
		ctx = observability.WithRequestID(ctx, job.CorrelationID)
	}

	err := s.messenger.SendInitialMessage(ctx, InitialMessage{
		Recipient:   job.Recipient,
		Name:        job.Name,
		ProposalURL: job.ProposalURL,
		Consumption: job.Consumption,
		Saving:      job.Saving,
		RequestID:   job.ProposalID,
	})
	if err == nil {
		return nil
	}

	s.tracking.record(ctx, job.ProposalID, domain.TrackingOther,
		fmt.Sprintf("initial message not delivered: %v", err),
		map[string]string{"reason": "initial_message_failed", "source": "worker"},
	)
	return fmt.Errorf("initial message for proposal %s: %w", job.ProposalID, err)
}
