package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type correlationKey struct{}

// ContextWithCorrelationID attaches a correlation ID that CreateEvent copies onto new events
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationKey{}, correlationID)
}

// CorrelationIDFromContext returns the correlation ID set by ContextWithCorrelationID
func CorrelationIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(correlationKey{}).(string); ok {
		return v
	}
	return ""
}

// EventFactory creates CloudEvents for scheduler domain events
type EventFactory struct {
	source string
	now    func() time.Time
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source, now: time.Now}
}

// Source returns the event source URI
func (f *EventFactory) Source() string {
	return f.source
}

// CreateEvent creates a new WMSCloudEvent with the given parameters
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *WMSCloudEvent {
	return &WMSCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            f.now().UTC(),
		DataContentType: "application/json",
		Data:            data,
		Extensions:      make(map[string]interface{}),
		CorrelationID:   CorrelationIDFromContext(ctx),
	}
}

// CreateWaveEvent creates an event whose subject is the wave
func (f *EventFactory) CreateWaveEvent(ctx context.Context, eventType, waveID string, data interface{}) *WMSCloudEvent {
	event := f.CreateEvent(ctx, eventType, "wave/"+waveID, data)
	event.WaveNumber = waveID
	return event
}

// CreateZoneAssignmentEvent creates a zone-assigned or zone-released event
func (f *EventFactory) CreateZoneAssignmentEvent(ctx context.Context, zoneID, pickerID string, assigned bool) *WMSCloudEvent {
	eventType := ZonePickerReleased
	if assigned {
		eventType = ZonePickerAssigned
	}
	data := ZoneAssignmentData{
		ZoneID:   zoneID,
		PickerID: pickerID,
		Assigned: assigned,
		At:       f.now().UTC(),
	}
	event := f.CreateEvent(ctx, eventType, "worker/"+pickerID, data)
	event.ZoneID = zoneID
	return event
}

// CreateNotificationEvent creates a user, broadcast or global notification event
func (f *EventFactory) CreateNotificationEvent(ctx context.Context, eventType string, data NotificationData) *WMSCloudEvent {
	subject := "notification/all"
	if data.RecipientID != "" {
		subject = "user/" + data.RecipientID
	}
	return f.CreateEvent(ctx, eventType, subject, data)
}
