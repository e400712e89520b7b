// README: Publishes trip lifecycle notifications to the "trip_topic" exchange.
package trip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"rides/internal/logger"
	"rides/internal/metrics"
	"rides/internal/types"
)

const (
	Exchange = "trip_topic"

	KindCreated        = "trip.created"
	KindDriverAssigned = "trip.driver_assigned"
	KindStatusChanged  = "trip.status_changed"
)

// Notification is the message body published for every trip change.
type Notification struct {
	Kind        string    `json:"kind"`
	TripID      types.ID  `json:"trip_id"`
	PassengerID types.ID  `json:"passenger_id"`
	DriverID    *types.ID `json:"driver_id,omitempty"`
	From        Status    `json:"from"`
	To          Status    `json:"to"`
	Version     int       `json:"status_version"`
	At          time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, n Notification) error
}

// Broker is the transport the RabbitPublisher writes to.
type Broker interface {
	Publish(ctx context.Context, exchange, key string, body []byte) error
}

type RabbitPublisher struct {
	broker Broker
}

func NewRabbitPublisher(broker Broker) *RabbitPublisher {
	return &RabbitPublisher{broker: broker}
}

func (p *RabbitPublisher) Publish(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal trip notification: %w", err)
	}
	err = p.broker.Publish(ctx, Exchange, RoutingKey(n.To), body)
	metrics.RecordPublish(err)
	return err
}

// RoutingKey is trip.status.<status>, lower-case.
func RoutingKey(s Status) string {
	return "trip.status." + strings.ToLower(string(s))
}

// NopPublisher drops notifications. Used when RabbitMQ is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Notification) error { return nil }

var (
	ErrQueueFull       = errors.New("trip notification queue full")
	ErrPublisherClosed = errors.New("trip notification publisher closed")
)

// QueuedPublisher hands notifications to one background sender, so a slow or
// unreachable broker never holds up a trip transition. A full queue drops the
// notification; trip_events keeps the record.
type QueuedPublisher struct {
	next    Publisher
	log     logger.Logger
	timeout time.Duration
	queue   chan queuedNotification

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

type queuedNotification struct {
	ctx context.Context
	n   Notification
}

// NewQueuedPublisher starts the sender. Each delivery gets at most timeout.
func NewQueuedPublisher(next Publisher, size int, timeout time.Duration, log logger.Logger) *QueuedPublisher {
	if size <= 0 {
		size = 1
	}
	p := &QueuedPublisher{
		next:    next,
		log:     log,
		timeout: timeout,
		queue:   make(chan queuedNotification, size),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish enqueues n without waiting for the broker.
func (p *QueuedPublisher) Publish(ctx context.Context, n Notification) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.queue <- queuedNotification{ctx: context.WithoutCancel(ctx), n: n}:
		return nil
	default:
		metrics.RecordPublishDropped()
		return ErrQueueFull
	}
}

func (p *QueuedPublisher) run() {
	defer close(p.done)
	for q := range p.queue {
		ctx, cancel := context.WithTimeout(q.ctx, p.timeout)
		if err := p.next.Publish(ctx, q.n); err != nil {
			p.log.Error(ctx, "failed to deliver trip notification", err, "kind", q.n.Kind)
		}
		cancel()
	}
}

// Close stops accepting notifications and waits for the queued ones to be sent.
func (p *QueuedPublisher) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	<-p.done
}
