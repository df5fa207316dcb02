package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/fulfillment-scheduler/pkg/cloudevents"
)

// DefaultMaxRetries is how many failed relays a message gets before it is parked
const DefaultMaxRetries = 10

// Message is a CloudEvent written in the same transaction as its aggregate and
// relayed to Kafka by the Publisher
type Message struct {
	ID            string          `bson:"_id" json:"id"`
	AggregateType string          `bson:"aggregateType" json:"aggregateType"`
	AggregateID   string          `bson:"aggregateId" json:"aggregateId"`
	EventType     string          `bson:"eventType" json:"eventType"`
	Topic         string          `bson:"topic" json:"topic"`
	Payload       json.RawMessage `bson:"payload" json:"payload"`
	CreatedAt     time.Time       `bson:"createdAt" json:"createdAt"`
	Seq           int64           `bson:"seq" json:"seq"`
	PublishedAt   *time.Time      `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	RetryCount    int             `bson:"retryCount" json:"retryCount"`
	LastError     string          `bson:"lastError,omitempty" json:"lastError,omitempty"`
	MaxRetries    int             `bson:"maxRetries" json:"maxRetries"`
}

// NewMessage serializes ce for relay to topic on behalf of the given aggregate
func NewMessage(aggregateType, aggregateID, topic string, ce *cloudevents.WMSCloudEvent) (*Message, error) {
	payload, err := json.Marshal(ce)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event for %s %s: %w", ce.Type, aggregateType, aggregateID, err)
	}

	return &Message{
		ID:            uuid.NewString(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     ce.Type,
		Topic:         topic,
		Payload:       payload,
		CreatedAt:     ce.Time.UTC(),
		MaxRetries:    DefaultMaxRetries,
	}, nil
}

// Pending reports whether the message still awaits a successful relay
func (m *Message) Pending() bool {
	return m.PublishedAt == nil && m.RetryCount < m.MaxRetries
}

// CloudEvent decodes the stored payload
func (m *Message) CloudEvent() (*cloudevents.WMSCloudEvent, error) {
	var ce cloudevents.WMSCloudEvent
	if err := json.Unmarshal(m.Payload, &ce); err != nil {
		return nil, fmt.Errorf("failed to decode outbox message %s: %w", m.ID, err)
	}
	return &ce, nil
}
