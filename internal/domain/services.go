package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SystemUserID attributes work triggered by the scheduler itself
const SystemUserID = "system"

// Actor identifies who triggered an operation, for audit attribution
type Actor struct {
	UserID    string
	UserEmail string
	UserAgent string
	IPAddress string
}

// SystemActor is the actor for scheduled work
func SystemActor() Actor {
	return Actor{UserID: SystemUserID}
}

// RouteEstimate is an optimized pick sequence with its cost
type RouteEstimate struct {
	Tasks         []*PickTask
	EstimatedTime time.Duration
	TotalDistance float64
}

// RouteEstimator orders tasks into a pick route and estimates its cost
type RouteEstimator interface {
	OptimizeRoute(ctx context.Context, tasks []*PickTask) (*RouteEstimate, error)
}

// AuditEntry records who did what to which resource
type AuditEntry struct {
	ResourceType string
	ResourceID   string
	Action       string
	Details      map[string]interface{}
	UserID       string
	UserEmail    string
	UserAgent    string
	IPAddress    string
	OccurredAt   time.Time
}

// NewAuditEntry attributes an action to an actor
func NewAuditEntry(actor Actor, resourceType, resourceID, action string, details map[string]interface{}, at time.Time) AuditEntry {
	return AuditEntry{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Action:       action,
		Details:      details,
		UserID:       actor.UserID,
		UserEmail:    actor.UserEmail,
		UserAgent:    actor.UserAgent,
		IPAddress:    actor.IPAddress,
		OccurredAt:   at,
	}
}

// AuditLog is the fire-and-forget audit trail
type AuditLog interface {
	Log(ctx context.Context, entry AuditEntry) error
}

// Notification is a message for warehouse users
type Notification struct {
	Title    string
	Message  string
	Category string
	Data     map[string]interface{}
}

// ZoneAssignmentBroadcast announces a picker joining or leaving a zone
type ZoneAssignmentBroadcast struct {
	ZoneID   string
	PickerID string
	Assigned bool
}

// UndeliveredError is returned by NotifyAll when some recipients could not be
// reached. Everyone else was notified.
type UndeliveredError struct {
	UserIDs []string
	Err     error
}

func (e *UndeliveredError) Error() string {
	return fmt.Sprintf("notification not delivered to %s: %v", strings.Join(e.UserIDs, ", "), e.Err)
}

func (e *UndeliveredError) Unwrap() error { return e.Err }

// NotificationGateway delivers best-effort notifications
type NotificationGateway interface {
	NotifyUser(ctx context.Context, userID string, n Notification) error
	// NotifyAll attempts every user; partial failure is an *UndeliveredError
	NotifyAll(ctx context.Context, userIDs []string, n Notification) error
	BroadcastGlobalNotification(ctx context.Context, n Notification) error
	BroadcastZoneAssignment(ctx context.Context, b ZoneAssignmentBroadcast) error
}

// OrderWorkflowSignaler tells an order's fulfillment workflow that its wave was released
type OrderWorkflowSignaler interface {
	NotifyWaveReleased(ctx context.Context, orderID, waveID string, at time.Time) error
}
