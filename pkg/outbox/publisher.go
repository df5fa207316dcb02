package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wms-platform/fulfillment-scheduler/pkg/kafka"
	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
	"github.com/wms-platform/fulfillment-scheduler/pkg/metrics"
)

// PublisherConfig holds configuration for the outbox publisher
type PublisherConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// DefaultPublisherConfig polls every second, 100 messages at a time
func DefaultPublisherConfig() *PublisherConfig {
	return &PublisherConfig{
		PollInterval: time.Second,
		BatchSize:    100,
	}
}

// Stats counts relay outcomes since the publisher was created
type Stats struct {
	Published int
	Failed    int
	Deferred  int
}

// Publisher relays pending outbox messages to Kafka. Messages of one aggregate
// go out in creation order: after a failure the aggregate's later messages in
// the batch wait for the next poll.
type Publisher struct {
	repo      Repository
	producer  kafka.EventPublisher
	logger    *logging.Logger
	metrics   *metrics.Metrics
	interval  time.Duration
	batchSize int

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
	stats   Stats
}

// NewPublisher creates a new outbox publisher. m and config may be nil.
func NewPublisher(
	repo Repository,
	producer kafka.EventPublisher,
	logger *logging.Logger,
	m *metrics.Metrics,
	config *PublisherConfig,
) *Publisher {
	if config == nil {
		config = DefaultPublisherConfig()
	}

	return &Publisher{
		repo:      repo,
		producer:  producer,
		logger:    logger.WithComponent("outbox-publisher"),
		metrics:   m,
		interval:  config.PollInterval,
		batchSize: config.BatchSize,
	}
}

// Start launches the polling loop. The first poll runs immediately.
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("outbox publisher already running")
	}
	p.running = true
	p.stop = make(chan struct{})
	p.done = make(chan struct{})

	p.logger.Info("Starting outbox publisher", "interval", p.interval, "batchSize", p.batchSize)
	go p.run(ctx, p.stop, p.done)
	return nil
}

// Stop ends the polling loop after the in-flight batch
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return fmt.Errorf("outbox publisher not running")
	}
	p.running = false
	stop, done := p.stop, p.done
	p.mu.Unlock()

	close(stop)
	<-done

	s := p.Stats()
	p.logger.Info("Outbox publisher stopped", "published", s.Published, "failed", s.Failed)
	return nil
}

// IsRunning returns whether the polling loop is active
func (p *Publisher) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Stats returns a snapshot of the relay counters
func (p *Publisher) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *Publisher) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.relayBatch(ctx)

		select {
		case <-ticker.C:
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (p *Publisher) relayBatch(ctx context.Context) {
	messages, err := p.repo.FindUnpublished(ctx, p.batchSize)
	if err != nil {
		p.logger.WithError(err).Error("Failed to load pending outbox messages")
		return
	}
	if p.metrics != nil {
		p.metrics.SetOutboxPending(len(messages))
	}

	blocked := make(map[string]bool)
	for _, msg := range messages {
		aggregate := msg.AggregateType + "/" + msg.AggregateID
		if blocked[aggregate] {
			p.count(func(s *Stats) { s.Deferred++ })
			continue
		}

		if err := p.relay(ctx, msg); err != nil {
			blocked[aggregate] = true
			p.fail(ctx, msg, err)
			continue
		}

		p.count(func(s *Stats) { s.Published++ })
		if p.metrics != nil {
			p.metrics.RecordOutboxPublish(msg.EventType, true)
		}
		if err := p.repo.MarkPublished(ctx, msg.ID); err != nil {
			// the message is relayed again next poll; consumers dedupe on the CloudEvent id
			p.logger.WithError(err).Error("Failed to mark outbox message published", "messageId", msg.ID)
		}
	}
}

func (p *Publisher) relay(ctx context.Context, msg *Message) error {
	ce, err := msg.CloudEvent()
	if err != nil {
		return err
	}
	if err := p.producer.PublishEvent(ctx, msg.Topic, ce); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", msg.Topic, err)
	}

	p.logger.Debug("Relayed outbox message",
		"messageId", msg.ID,
		"eventType", msg.EventType,
		"aggregateId", msg.AggregateID,
	)
	return nil
}

func (p *Publisher) fail(ctx context.Context, msg *Message, cause error) {
	p.logger.WithError(cause).Error("Failed to relay outbox message",
		"messageId", msg.ID,
		"eventType", msg.EventType,
		"aggregateId", msg.AggregateID,
		"attempt", msg.RetryCount+1,
	)
	p.count(func(s *Stats) { s.Failed++ })
	if p.metrics != nil {
		p.metrics.RecordOutboxPublish(msg.EventType, false)
		p.metrics.RecordOutboxRetry(msg.EventType)
	}
	if err := p.repo.IncrementRetry(ctx, msg.ID, cause.Error()); err != nil {
		p.logger.WithError(err).Error("Failed to record outbox retry", "messageId", msg.ID)
	}
}

func (p *Publisher) count(update func(*Stats)) {
	p.mu.Lock()
	update(&p.stats)
	p.mu.Unlock()
}
