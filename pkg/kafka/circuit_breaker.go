package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sony/gobreaker"

	"github.com/wms-platform/fulfillment-scheduler/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
	"github.com/wms-platform/fulfillment-scheduler/pkg/resilience"
)

// CircuitBreakerProducer guards a publisher with a circuit breaker
type CircuitBreakerProducer struct {
	producer       EventPublisher
	circuitBreaker *resilience.CircuitBreaker
}

// NewCircuitBreakerProducer creates a new circuit breaker protected Kafka producer.
// observer may be nil.
func NewCircuitBreakerProducer(producer EventPublisher, logger *logging.Logger, observer resilience.StateObserver) *CircuitBreakerProducer {
	config := resilience.DefaultCircuitBreakerConfig("kafka-producer")
	config.MaxRequests = 5

	var slogLogger *slog.Logger
	if logger != nil && logger.Logger != nil {
		slogLogger = logger.Logger
	}

	return &CircuitBreakerProducer{
		producer:       producer,
		circuitBreaker: resilience.NewCircuitBreaker(config, slogLogger, observer),
	}
}

// PublishEvent publishes a CloudEvent with circuit breaker protection
func (p *CircuitBreakerProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error {
	_, err := p.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return nil, p.producer.PublishEvent(ctx, topic, event)
	})
	return err
}

// CircuitBreaker exposes the breaker for health reporting
func (p *CircuitBreakerProducer) CircuitBreaker() *resilience.CircuitBreaker {
	return p.circuitBreaker
}

// HealthCheck fails while the breaker is open
func (p *CircuitBreakerProducer) HealthCheck(context.Context) error {
	if p.circuitBreaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("%w: %s", resilience.ErrCircuitOpen, p.circuitBreaker.Name())
	}
	return nil
}
