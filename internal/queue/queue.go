package queue

import (
	"context"
	"fmt"
)

// Publisher publishes initial message jobs to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, job InitialMessageJob) error
	Close() error
}

// MessageHandler handles a consumed job. A returned error dead-letters the delivery.
type MessageHandler func(ctx context.Context, job InitialMessageJob) error

// Consumer consumes initial message jobs from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}

// InitialMessageQueue carries the prospect's first WhatsApp/SMS message.
const InitialMessageQueue = "initial_message"

// DLQName returns the dead-letter queue name for a work queue, e.g. dlq.initial_message.
func DLQName(queue string) string {
	return fmt.Sprintf("dlq.%s", queue)
}

// WorkQueueNames returns every work queue declared by the topology.
func WorkQueueNames() []string {
	return []string{InitialMessageQueue}
}

// DLQNames returns every dead-letter queue declared by the topology.
func DLQNames() []string {
	work := WorkQueueNames()
	queues := make([]string, 0, len(work))
	for _, name := range work {
		queues = append(queues, DLQName(name))
	}
	return queues
}
