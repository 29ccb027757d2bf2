package queue

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	dlxExchangeName  = "solar.dlx"
	connectTimeout   = 15 * time.Second
	heartbeat        = 10 * time.Second
	reconnectBackoff = time.Second
	maxBackoff       = 30 * time.Second
)

// RabbitMQ owns a single broker connection shared by the publisher and the
// consumers. Every new channel redeclares the topology, so a fresh broker is
// usable without manual setup.
type RabbitMQ struct {
	url    string
	config amqp.Config

	mu          sync.RWMutex
	reconnectMu sync.Mutex
	conn        *amqp.Connection
}

// NewRabbitMQ connects to url. connectionName is shown in the broker
// management UI (e.g. solar-proposals-api).
func NewRabbitMQ(url string, connectionName string) (*RabbitMQ, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("rabbitmq url is required")
	}

	props := amqp.NewConnectionProperties()
	if name := strings.TrimSpace(connectionName); name != "" {
		props.SetClientConnectionName(name)
	}

	r := &RabbitMQ{
		url: url,
		config: amqp.Config{
			Heartbeat:  heartbeat,
			Locale:     "en_US",
			Properties: props,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := r.ensureConnected(ctx); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	conn := r.conn
	r.conn = nil
	r.mu.Unlock()

	if conn == nil || conn.IsClosed() {
		return nil
	}

	return conn.Close()
}

// Connected reports whether the broker connection is currently open.
func (r *RabbitMQ) Connected() bool {
	if r == nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conn != nil && !r.conn.IsClosed()
}

// channel opens a channel with the topology declared, reconnecting once when
// the current connection refuses new channels.
func (r *RabbitMQ) channel(ctx context.Context) (*amqp.Channel, error) {
	if err := r.ensureConnected(ctx); err != nil {
		return nil, err
	}

	ch, err := r.current().Channel()
	if err != nil {
		if err := r.reconnectWithBackoff(ctx); err != nil {
			return nil, err
		}
		ch, err = r.current().Channel()
		if err != nil {
			return nil, fmt.Errorf("failed to open rabbitmq channel after reconnect: %w", err)
		}
	}

	if err := declareTopology(ch); err != nil {
		_ = ch.Close()
		return nil, err
	}

	return ch, nil
}

func (r *RabbitMQ) current() *amqp.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conn
}

func (r *RabbitMQ) ensureConnected(ctx context.Context) error {
	if r.Connected() {
		return nil
	}
	return r.reconnectWithBackoff(ctx)
}

func (r *RabbitMQ) reconnectWithBackoff(ctx context.Context) error {
	r.reconnectMu.Lock()
	defer r.reconnectMu.Unlock()

	if conn := r.current(); conn != nil && !conn.IsClosed() {
		return nil
	}

	wait := reconnectBackoff
	for {
		conn, err := amqp.DialConfig(r.url, r.config)
		if err == nil {
			r.mu.Lock()
			previous := r.conn
			r.conn = conn
			r.mu.Unlock()

			if previous != nil && !previous.IsClosed() {
				_ = previous.Close()
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("rabbitmq connect canceled after %v: %w", err, ctx.Err())
		case <-time.After(wait):
		}

		wait = nextBackoff(wait)
	}
}

func nextBackoff(wait time.Duration) time.Duration {
	wait *= 2
	if wait > maxBackoff {
		return maxBackoff
	}
	return wait
}

// declareTopology declares the dead-letter exchange and, per work queue, a
// durable DLQ bound to it and the durable work queue that dead-letters into it.
func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchangeName, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %q: %w", dlxExchangeName, err)
	}

	for _, name := range WorkQueueNames() {
		dlq := DLQName(name)
		if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %q: %w", dlq, err)
		}
		if err := ch.QueueBind(dlq, name, dlxExchangeName, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %q: %w", dlq, err)
		}
		if _, err := ch.QueueDeclare(name, true, false, false, false, workQueueArgs(name)); err != nil {
			return fmt.Errorf("failed to declare queue %q: %w", name, err)
		}
	}

	return nil
}

// workQueueArgs routes rejected deliveries of a work queue to its DLQ.
func workQueueArgs(queue string) amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    dlxExchangeName,
		"x-dead-letter-routing-key": queue,
	}
}
