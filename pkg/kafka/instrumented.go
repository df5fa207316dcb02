package kafka

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/fulfillment-scheduler/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
	"github.com/wms-platform/fulfillment-scheduler/pkg/metrics"
)

// InstrumentedProducer records a span, a latency sample and a log line per publish
type InstrumentedProducer struct {
	producer EventPublisher
	metrics  *metrics.Metrics
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewInstrumentedProducer wraps producer. m and logger may be nil.
func NewInstrumentedProducer(producer EventPublisher, m *metrics.Metrics, logger *logging.Logger) *InstrumentedProducer {
	return &InstrumentedProducer{
		producer: producer,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("fulfillment-scheduler/kafka"),
	}
}

func eventAttributes(topic string, event *cloudevents.WMSCloudEvent) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.MessagingSystemKey.String("kafka"),
		semconv.MessagingDestinationNameKey.String(topic),
		semconv.MessagingOperationKey.String("publish"),
		semconv.MessagingMessageIDKey.String(event.ID),
		attribute.String("cloudevents.type", event.Type),
	}
	if event.Subject != "" {
		attrs = append(attrs, attribute.String("cloudevents.subject", event.Subject))
	}
	if event.CorrelationID != "" {
		attrs = append(attrs, attribute.String("wms.correlation_id", event.CorrelationID))
	}
	if event.WaveNumber != "" {
		attrs = append(attrs, attribute.String("wave.id", event.WaveNumber))
	}
	if event.ZoneID != "" {
		attrs = append(attrs, attribute.String("zone.id", event.ZoneID))
	}
	return attrs
}

// PublishEvent publishes through the wrapped producer
func (p *InstrumentedProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error {
	ctx, span := p.tracer.Start(ctx, topic+" publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(eventAttributes(topic, event)...),
	)
	defer span.End()

	start := time.Now()
	err := p.producer.PublishEvent(ctx, topic, event)
	took := time.Since(start)

	if p.metrics != nil {
		p.metrics.RecordKafkaPublish(topic, event.Type, err == nil, took)
	}
	if p.logger != nil {
		p.logger.Published(ctx, topic, event.Type, err, took)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
