package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"verinode/internal/platform/kafka/producer"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily. An optional
// Kafka sink mirrors every event to a topic for off-node retention.
type Publisher struct {
	store  Store
	events chan Event
	wg     sync.WaitGroup
	logger *slog.Logger
	async  bool

	kafka      *producer.Producer
	kafkaTopic string
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
// Events are queued and persisted in a background goroutine.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan Event, size)
			p.async = true
		}
	}
}

// WithPublisherLogger sets a logger for async error reporting.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithKafkaSink mirrors events to the given topic. Delivery is best-effort
// async; a broker outage never blocks the vote or finalize path.
func WithKafkaSink(prod *producer.Producer, topic string) PublisherOption {
	return func(p *Publisher) {
		p.kafka = prod
		p.kafkaTopic = topic
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

// processEvents runs in a goroutine and persists events from the channel.
func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		p.persist(event)
	}
}

func (p *Publisher) persist(event Event) {
	if err := p.store.Append(context.Background(), event); err != nil {
		if p.logger != nil {
			p.logger.Error("failed to persist audit event",
				"error", err,
				"action", event.Action,
				"claim_id", event.ClaimID,
			)
		}
	}
	p.mirror(event)
}

// mirror sends the event to the Kafka sink when one is configured.
func (p *Publisher) mirror(event Event) {
	if p.kafka == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		if p.logger != nil {
			p.logger.Error("failed to marshal audit event", "error", err, "action", event.Action)
		}
		return
	}
	err = p.kafka.ProduceAsync(&producer.Message{
		Topic: p.kafkaTopic,
		Key:   []byte(event.ClaimID),
		Value: payload,
	})
	if err != nil && p.logger != nil {
		p.logger.Warn("failed to enqueue audit event to kafka",
			"error", err,
			"action", event.Action,
			"claim_id", event.ClaimID,
		)
	}
}

// Close shuts down the async publisher and waits for pending events to drain.
func (p *Publisher) Close() {
	if p.async && p.events != nil {
		close(p.events)
		p.wg.Wait()
	}
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	if p.async {
		// Non-blocking send; drop event if buffer is full to avoid blocking hot path
		select {
		case p.events <- base:
			return nil
		default:
			if p.logger != nil {
				p.logger.Warn("audit buffer full, event dropped",
					"action", base.Action,
					"claim_id", base.ClaimID,
				)
			}
			return nil
		}
	}
	err := p.store.Append(ctx, base)
	p.mirror(base)
	return err
}

func (p *Publisher) List(ctx context.Context, claimID string) ([]Event, error) {
	return p.store.ListByClaim(ctx, claimID)
}
