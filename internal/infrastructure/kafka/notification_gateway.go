package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
	"github.com/wms-platform/fulfillment-scheduler/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-scheduler/pkg/kafka"
)

// NotificationGateway implements domain.NotificationGateway by publishing
// CloudEvents that the notification and labor consumers fan out
type NotificationGateway struct {
	producer     kafka.EventPublisher
	eventFactory *cloudevents.EventFactory
}

// NewNotificationGateway creates a new Kafka-backed notification gateway
func NewNotificationGateway(producer kafka.EventPublisher, eventFactory *cloudevents.EventFactory) *NotificationGateway {
	return &NotificationGateway{
		producer:     producer,
		eventFactory: eventFactory,
	}
}

// NotifyUser sends a notification to one user
func (g *NotificationGateway) NotifyUser(ctx context.Context, userID string, n domain.Notification) error {
	ce := g.eventFactory.CreateNotificationEvent(ctx, cloudevents.UserNotification, toNotificationData(userID, n))
	return g.publish(ctx, kafka.Topics.NotificationsEvents, ce)
}

// NotifyAll sends the same notification to each user. Every user is attempted;
// the ones that failed come back in a *domain.UndeliveredError.
func (g *NotificationGateway) NotifyAll(ctx context.Context, userIDs []string, n domain.Notification) error {
	var failed []string
	var errs []error
	for _, userID := range userIDs {
		ce := g.eventFactory.CreateNotificationEvent(ctx, cloudevents.BroadcastNotification, toNotificationData(userID, n))
		if err := g.publish(ctx, kafka.Topics.NotificationsEvents, ce); err != nil {
			failed = append(failed, userID)
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &domain.UndeliveredError{UserIDs: failed, Err: errors.Join(errs...)}
}

// BroadcastGlobalNotification sends a notification to every connected user
func (g *NotificationGateway) BroadcastGlobalNotification(ctx context.Context, n domain.Notification) error {
	ce := g.eventFactory.CreateNotificationEvent(ctx, cloudevents.GlobalNotification, toNotificationData("", n))
	return g.publish(ctx, kafka.Topics.NotificationsEvents, ce)
}

// BroadcastZoneAssignment announces a picker joining or leaving a zone
func (g *NotificationGateway) BroadcastZoneAssignment(ctx context.Context, b domain.ZoneAssignmentBroadcast) error {
	ce := g.eventFactory.CreateZoneAssignmentEvent(ctx, b.ZoneID, b.PickerID, b.Assigned)
	return g.publish(ctx, kafka.Topics.LaborEvents, ce)
}

func (g *NotificationGateway) publish(ctx context.Context, topic string, ce *cloudevents.WMSCloudEvent) error {
	if err := g.producer.PublishEvent(ctx, topic, ce); err != nil {
		return fmt.Errorf("failed to publish %s: %w", ce.Type, err)
	}
	return nil
}

func toNotificationData(recipientID string, n domain.Notification) cloudevents.NotificationData {
	return cloudevents.NotificationData{
		RecipientID: recipientID,
		Title:       n.Title,
		Message:     n.Message,
		Category:    n.Category,
		Data:        n.Data,
	}
}
