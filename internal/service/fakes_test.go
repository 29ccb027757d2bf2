package service

import (
	"context"
	"sync"
	"time"

	"github.com/kursadbilgin/solar-proposals/internal/domain"
	"github.com/kursadbilgin/solar-proposals/internal/provider"
	"github.com/kursadbilgin/solar-proposals/internal/queue"
	"github.com/kursadbilgin/solar-proposals/internal/repository"
)

type fakeProposalRepo struct {
	createFn         func(ctx context.Context, p *domain.Proposal) error
	getByIDFn        func(ctx context.Context, id string) (*domain.Proposal, error)
	getLatestSinceFn func(ctx context.Context, since time.Time) (*domain.Proposal, error)
}

func (f *fakeProposalRepo) Create(ctx context.Context, p *domain.Proposal) error {
	if f.createFn != nil {
		return f.createFn(ctx, p)
	}
	return nil
}

func (f *fakeProposalRepo) GetByID(ctx context.Context, id string) (*domain.Proposal, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProposalRepo) GetLatestSince(ctx context.Context, since time.Time) (*domain.Proposal, error) {
	if f.getLatestSinceFn != nil {
		return f.getLatestSinceFn(ctx, since)
	}
	return nil, domain.ErrNotFound
}

var _ repository.ProposalRepository = (*fakeProposalRepo)(nil)

// fakeTrackingRepo records every entry it is given, even when createErr is set.
type fakeTrackingRepo struct {
	mu        sync.Mutex
	entries   []domain.TrackingEntry
	createErr error
}

func (f *fakeTrackingRepo) Create(ctx context.Context, e *domain.TrackingEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *e)
	return f.createErr
}

func (f *fakeTrackingRepo) kinds() []domain.TrackingKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]domain.TrackingKind, 0, len(f.entries))
	for _, e := range f.entries {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

var _ repository.TrackingRepository = (*fakeTrackingRepo)(nil)

type sentMessage struct {
	to   string
	body string
}

type fakeSender struct {
	mu     sync.Mutex
	sent   []sentMessage
	sendFn func(ctx context.Context, to string, body string) (*provider.SendResult, error)
}

func (f *fakeSender) Send(ctx context.Context, to string, body string) (*provider.SendResult, error) {
	f.mu.Lock()
	f.sent = append(f.sent, sentMessage{to: to, body: body})
	f.mu.Unlock()

	if f.sendFn != nil {
		return f.sendFn(ctx, to, body)
	}
	return &provider.SendResult{StatusCode: 201, MessageID: "SM-default"}, nil
}

func (f *fakeSender) calls() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type fakeEmailSender struct {
	mu     sync.Mutex
	sent   []provider.EmailMessage
	sendFn func(ctx context.Context, msg provider.EmailMessage) (*provider.SendResult, error)
}

func (f *fakeEmailSender) SendEmail(ctx context.Context, msg provider.EmailMessage) (*provider.SendResult, error) {
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()

	if f.sendFn != nil {
		return f.sendFn(ctx, msg)
	}
	return &provider.SendResult{StatusCode: 202, MessageID: "sg-default"}, nil
}

type fakeMessenger struct {
	mu     sync.Mutex
	sendFn func(ctx context.Context, msg InitialMessage) error
	calls  int
	last   InitialMessage
}

func (f *fakeMessenger) SendInitialMessage(ctx context.Context, msg InitialMessage) error {
	f.mu.Lock()
	f.calls++
	f.last = msg
	f.mu.Unlock()

	if f.sendFn != nil {
		return f.sendFn(ctx, msg)
	}
	return nil
}

type fakeEmailer struct {
	sendFn func(ctx context.Context, email ProposalEmail) (EmailStatus, error)
	calls  int
}

func (f *fakeEmailer) SendProposalEmails(ctx context.Context, email ProposalEmail) (EmailStatus, error) {
	f.calls++
	if f.sendFn != nil {
		return f.sendFn(ctx, email)
	}
	return EmailStatus{ClientSent: true, AdminSent: true}, nil
}

type fakePublisher struct {
	publishFn func(ctx context.Context, queueName string, job queue.InitialMessageJob) error
	calls     int
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, job queue.InitialMessageJob) error {
	f.calls++
	if f.publishFn != nil {
		return f.publishFn(ctx, queueName, job)
	}
	return nil
}

func (f *fakePublisher) Close() error {
	return nil
}

type fakeConsumer struct {
	consumeFn func(ctx context.Context, queue string, handler queue.MessageHandler) error
}

func (f *fakeConsumer) Consume(ctx context.Context, queueName string, handler queue.MessageHandler) error {
	if f.consumeFn != nil {
		return f.consumeFn(ctx, queueName, handler)
	}
	return nil
}

func (f *fakeConsumer) Close() error {
	return nil
}
