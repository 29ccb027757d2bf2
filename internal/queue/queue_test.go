package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type fakeAcknowledger struct {
	acked         int
	rejected      int
	rejectRequeue bool
	nacked        int
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked++
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	f.nacked++
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	f.rejected++
	f.rejectRequeue = requeue
	return nil
}

func validJob() InitialMessageJob {
	return InitialMessageJob{
		ProposalID:    "p-1",
		CorrelationID: "req-1",
		Recipient:     "+50761234567",
		Name:          "Ana",
		ProposalURL:   "http://localhost:3000/propuesta/p-1",
		Consumption:   450,
	}
}

func newDelivery(t *testing.T, ack *fakeAcknowledger, body []byte) amqp.Delivery {
	t.Helper()
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	return payload
}

func TestQueueNames(t *testing.T) {
	t.Parallel()

	work := WorkQueueNames()
	if len(work) != 1 || work[0] != "initial_message" {
		t.Fatalf("WorkQueueNames = %v, want [initial_message]", work)
	}

	dlq := DLQNames()
	if len(dlq) != 1 || dlq[0] != "dlq.initial_message" {
		t.Fatalf("DLQNames = %v, want [dlq.initial_message]", dlq)
	}

	args := workQueueArgs(InitialMessageQueue)
	if args["x-dead-letter-exchange"] != "solar.dlx" {
		t.Fatalf("dead letter exchange = %v, want solar.dlx", args["x-dead-letter-exchange"])
	}
}

func TestInitialMessageJobValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(j *InitialMessageJob)
		wantErr bool
	}{
		{name: "valid", mutate: func(j *InitialMessageJob) {}},
		{name: "missing proposal id", mutate: func(j *InitialMessageJob) { j.ProposalID = " " }, wantErr: true},
		{name: "local recipient", mutate: func(j *InitialMessageJob) { j.Recipient = "61234567" }, wantErr: true},
		{name: "missing url", mutate: func(j *InitialMessageJob) { j.ProposalURL = "" }, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			job := validJob()
			tt.mutate(&job)
			if err := job.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHandleDeliveryAcksOnSuccess(t *testing.T) {
	t.Parallel()

	consumer := NewRabbitMQConsumer(nil, 1, nil)
	ack := &fakeAcknowledger{}

	var got InitialMessageJob
	err := consumer.handleDelivery(context.Background(), newDelivery(t, ack, mustJSON(t, validJob())), func(ctx context.Context, job InitialMessageJob) error {
		got = job
		return nil
	})
	if err != nil {
		t.Fatalf("handleDelivery() error = %v", err)
	}

	if ack.acked != 1 || ack.rejected != 0 {
		t.Fatalf("acked=%d rejected=%d, want 1/0", ack.acked, ack.rejected)
	}
	if got.ProposalID != "p-1" || got.Recipient != "+50761234567" {
		t.Fatalf("handler received %+v", got)
	}
}

func TestHandleDeliveryDeadLettersOnHandlerError(t *testing.T) {
	t.Parallel()

	consumer := NewRabbitMQConsumer(nil, 1, nil)
	ack := &fakeAcknowledger{}

	err := consumer.handleDelivery(context.Background(), newDelivery(t, ack, mustJSON(t, validJob())), func(ctx context.Context, job InitialMessageJob) error {
		return errors.New("both channels failed")
	})
	if err != nil {
		t.Fatalf("handleDelivery() error = %v", err)
	}

	if ack.rejected != 1 || ack.rejectRequeue {
		t.Fatalf("rejected=%d requeue=%v, want 1/false", ack.rejected, ack.rejectRequeue)
	}
	if ack.acked != 0 || ack.nacked != 0 {
		t.Fatalf("acked=%d nacked=%d, want 0/0", ack.acked, ack.nacked)
	}
}

func TestHandleDeliveryRejectsInvalidPayloads(t *testing.T) {
	t.Parallel()

	invalid := validJob()
	invalid.Recipient = ""

	tests := []struct {
		name string
		body []byte
	}{
		{name: "invalid json", body: []byte("{not json")},
		{name: "invalid job", body: mustJSON(t, invalid)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			consumer := NewRabbitMQConsumer(nil, 1, nil)
			ack := &fakeAcknowledger{}
			called := false

			err := consumer.handleDelivery(context.Background(), newDelivery(t, ack, tt.body), func(ctx context.Context, job InitialMessageJob) error {
				called = true
				return nil
			})
			if err != nil {
				t.Fatalf("handleDelivery() error = %v", err)
			}
			if called {
				t.Fatal("handler should not be called for invalid payloads")
			}
			if ack.rejected != 1 || ack.rejectRequeue {
				t.Fatalf("rejected=%d requeue=%v, want 1/false", ack.rejected, ack.rejectRequeue)
			}
		})
	}
}

func TestNextBackoffDoublesUpToMax(t *testing.T) {
	t.Parallel()

	wait := reconnectBackoff
	for i := 0; i < 10; i++ {
		next := nextBackoff(wait)
		if next > maxBackoff {
			t.Fatalf("nextBackoff(%v) = %v, exceeds max %v", wait, next, maxBackoff)
		}
		if wait < maxBackoff/2 && next != 2*wait {
			t.Fatalf("nextBackoff(%v) = %v, want %v", wait, next, 2*wait)
		}
		wait = next
	}
	if wait != maxBackoff {
		t.Fatalf("backoff settled at %v, want %v", wait, maxBackoff)
	}
	if got := nextBackoff(time.Duration(0)); got != 0 {
		t.Fatalf("nextBackoff(0) = %v, want 0", got)
	}
}

func TestNewPublishingMapsJobIdentifiers(t *testing.T) {
	t.Parallel()

	job := validJob()
	job.CorrelationID = "req-42"
	payload := mustJSON(t, job)
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.FixedZone("PA", -5*60*60))

	msg := newPublishing(job, payload, now)

	if msg.MessageId != job.ProposalID {
		t.Fatalf("MessageId = %q, want %q", msg.MessageId, job.ProposalID)
	}
	if msg.CorrelationId != "req-42" {
		t.Fatalf("CorrelationId = %q, want req-42", msg.CorrelationId)
	}
	if msg.DeliveryMode != amqp.Persistent {
		t.Fatalf("DeliveryMode = %d, want persistent", msg.DeliveryMode)
	}
	if msg.ContentType != "application/json" || msg.Type != InitialMessageQueue {
		t.Fatalf("ContentType=%q Type=%q", msg.ContentType, msg.Type)
	}
	if !msg.Timestamp.Equal(now) || msg.Timestamp.Location() != time.UTC {
		t.Fatalf("Timestamp = %v, want %v in UTC", msg.Timestamp, now)
	}

	var decoded InitialMessageJob
	if err := json.Unmarshal(msg.Body, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if decoded != job {
		t.Fatalf("body = %+v, want %+v", decoded, job)
	}
}
