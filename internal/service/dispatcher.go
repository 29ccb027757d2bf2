package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/solar-proposals/internal/domain"
	"github.com/kursadbilgin/solar-proposals/internal/observability"
	"github.com/kursadbilgin/solar-proposals/internal/provider"
	"github.com/kursadbilgin/solar-proposals/internal/repository"
	"go.uber.org/zap"
)

// InitialMessage is the first message a prospect receives after submitting a quote.
// RequestID is the proposal identifier the tracking entries are filed under.
type InitialMessage struct {
	Recipient   string
	Name        string
	ProposalURL string
	Consumption float64
	Saving      float64
	RequestID   string
}

// InitialMessenger sends the prospect's first message.
type InitialMessenger interface {
	SendInitialMessage(ctx context.Context, msg InitialMessage) error
}

// Dispatcher sends prospect messages over WhatsApp, falling back to SMS once.
type Dispatcher struct {
	primary     provider.MessageSender
	fallback    provider.MessageSender
	tracking    *tracker
	countryCode string
	logger      *zap.Logger
	metrics     *observability.Metrics
	now         func() time.Time
}

func NewDispatcher(
	primary provider.MessageSender,
	fallback provider.MessageSender,
	tracking repository.TrackingRepository,
	countryCode string,
	logger *zap.Logger,
) (*Dispatcher, error) {
	if primary == nil || fallback == nil {
		return nil, fmt.Errorf("primary and fallback senders are required")
	}
	if !strings.HasPrefix(strings.TrimSpace(countryCode), "+") {
		return nil, fmt.Errorf("country code must start with +, got %q", countryCode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		primary:     primary,
		fallback:    fallback,
		tracking:    newTracker(tracking, logger),
		countryCode: strings.TrimSpace(countryCode),
		logger:      logger,
		now:         time.Now,
	}, nil
}

func (d *Dispatcher) SetMetrics(metrics *observability.Metrics) {
	if d == nil {
		return
	}
	d.metrics = metrics
}

// SendPrimaryChannel sends body over WhatsApp and returns the provider message id.
func (d *Dispatcher) SendPrimaryChannel(ctx context.Context, recipient string, body string) (string, error) {
	return d.send(ctx, provider.ChannelWhatsApp, d.primary, recipient, body)
}

// SendFallbackChannel sends body over SMS and returns the provider message id.
func (d *Dispatcher) SendFallbackChannel(ctx context.Context, recipient string, body string) (string, error) {
	return d.send(ctx, provider.ChannelSMS, d.fallback, recipient, body)
}

// SendInitialMessage tries WhatsApp, then SMS. The SMS error is returned when both fail.
func (d *Dispatcher) SendInitialMessage(ctx context.Context, msg InitialMessage) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := observability.WithContextLogger(d.logger, ctx).With(zap.String("proposalId", msg.RequestID))

	longBody, shortBody, err := renderInitialMessage(msg)
	if err != nil {
		return err
	}

	messageID, primaryErr := d.SendPrimaryChannel(ctx, msg.Recipient, longBody)
	if primaryErr == nil {
		d.tracking.record(ctx, msg.RequestID, domain.TrackingWhatsAppSent,
			"initial message sent over whatsapp",
			map[string]string{"channel": provider.ChannelWhatsApp.String(), "messageId": messageID},
		)
		return nil
	}

	logger.Warn("whatsapp send failed, falling back to sms", zap.Error(primaryErr))

	messageID, fallbackErr := d.SendFallbackChannel(ctx, msg.Recipient, shortBody)
	if fallbackErr != nil {
		logger.Error("sms fallback failed", zap.Error(fallbackErr))
		return fallbackErr
	}

	d.tracking.record(ctx, msg.RequestID, domain.TrackingSMSSent,
		"initial message sent over sms after whatsapp failure",
		map[string]string{
			"channel":      provider.ChannelSMS.String(),
			"messageId":    messageID,
			"primaryError": primaryErr.Error(),
		},
	)
	return nil
}

func (d *Dispatcher) send(
	ctx context.Context,
	channel provider.Channel,
	sender provider.MessageSender,
	recipient string,
	body string,
) (string, error) {
	to := domain.NormalizePhone(recipient, d.countryCode)
	if to == "" {
		return "", &provider.ChannelSendError{Channel: channel, Message: "recipient is required"}
	}

	start := d.now()
	result, err := sender.Send(ctx, to, body)
	d.metrics.ObserveMessageSendDuration(channel.String(), d.now().Sub(start))

	if err != nil {
		d.metrics.IncMessageFailed(channel.String(), provider.FailureReason(err))
		if !provider.IsChannelSendError(err) {
			err = &provider.ChannelSendError{Channel: channel, Message: "send failed", Cause: err}
		}
		return "", err
	}

	d.metrics.IncMessageSent(channel.String())
	if result == nil {
		return "", nil
	}
	return result.MessageID, nil
}

var _ InitialMessenger = (*Dispatcher)(nil)
