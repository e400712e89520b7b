// README: RabbitMQ client with lazy reconnect, used to publish trip status events.
package infra

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"rides/internal/logger"
)

const rabbitDialTimeout = 2 * time.Second

type RabbitMQ struct {
	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
	url  string
	log  logger.Logger
}

// NewRabbitMQ dials url and opens a channel.
func NewRabbitMQ(ctx context.Context, url string, log logger.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{url: url, log: log}
	if err := r.connect(); err != nil {
		return nil, err
	}
	log.Info(logger.WithAction(ctx, "rabbitmq_connected"), "connected to rabbitMQ")
	return r, nil
}

func (r *RabbitMQ) connect() error {
	conn, err := amqp.DialConfig(r.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Dial:      amqp.DefaultDial(rabbitDialTimeout),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	r.conn = conn
	r.ch = ch
	return nil
}

func (r *RabbitMQ) closed() bool {
	return r.conn == nil || r.conn.IsClosed() || r.ch == nil || r.ch.IsClosed()
}

// ensure reconnects with linear backoff, giving up when ctx ends. Caller holds r.mu.
func (r *RabbitMQ) ensure(ctx context.Context) error {
	if !r.closed() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.log.Warn(ctx, "rabbit connection closed, reconnecting...")

	var err error
	for i := range 3 {
		if err = r.connect(); err == nil {
			r.log.Info(ctx, "RabbitMQ reconnected successfully")
			return nil
		}
		wait := time.Duration(i+1) * 500 * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("failed to reconnect to RabbitMQ: %w", err)
}

// DeclareTopic declares a durable topic exchange.
func (r *RabbitMQ) DeclareTopic(ctx context.Context, exchange string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensure(ctx); err != nil {
		return err
	}
	return r.ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil)
}

// Publish sends a persistent JSON message.
func (r *RabbitMQ) Publish(ctx context.Context, exchange, key string, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensure(ctx); err != nil {
		return err
	}
	return r.ch.PublishWithContext(ctx, exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

func (r *RabbitMQ) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx = logger.WithAction(ctx, "rabbitmq_closing")
	if r.ch != nil && !r.ch.IsClosed() {
		if err := r.ch.Close(); err != nil {
			r.log.Error(ctx, "error closing channel", err)
		}
	}
	if r.conn != nil && !r.conn.IsClosed() {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}
	r.ch, r.conn = nil, nil
	r.log.Info(ctx, "rabbitMQ closed")
	return nil
}
