package cloudevents

import (
	"time"
)

// Event types emitted by the scheduler
const (
	// Wave lifecycle
	WaveCreated   = "wms.wave.created"
	WaveReleased  = "wms.wave.released"
	WaveStarted   = "wms.wave.started"
	WaveCompleted = "wms.wave.completed"

	// Pick task progress
	PickTaskStarted   = "wms.picking.task-started"
	PickTaskCompleted = "wms.picking.task-completed"

	// Labor / zone assignment
	ZonePickerAssigned = "wms.labor.zone-assigned"
	ZonePickerReleased = "wms.labor.zone-released"

	// Notifications
	UserNotification      = "wms.notification.user"
	BroadcastNotification = "wms.notification.broadcast"
	GlobalNotification    = "wms.notification.global"
)

// Source constants for event sources
const (
	SourceFulfillmentScheduler = "/wms/fulfillment-scheduler"
)

// WMSCloudEvent represents a CloudEvents v1.0 compliant event for WMS
type WMSCloudEvent struct {
	SpecVersion     string                 `json:"specversion"`
	Type            string                 `json:"type"`
	Source          string                 `json:"source"`
	Subject         string                 `json:"subject,omitempty"`
	ID              string                 `json:"id"`
	Time            time.Time              `json:"time"`
	DataContentType string                 `json:"datacontenttype"`
	Data            interface{}            `json:"data"`
	Extensions      map[string]interface{} `json:"-"`

	// WMS-specific extensions
	CorrelationID string `json:"wmscorrelationid,omitempty"`
	WaveNumber    string `json:"wmswavenumber,omitempty"`
	WorkflowID    string `json:"wmsworkflowid,omitempty"`
	ZoneID        string `json:"wmszoneid,omitempty"`
}

// ZoneAssignmentData is the payload of zone-assigned / zone-released events
type ZoneAssignmentData struct {
	ZoneID   string    `json:"zoneId"`
	PickerID string    `json:"pickerId"`
	Assigned bool      `json:"assigned"`
	At       time.Time `json:"at"`
}

// NotificationData is the payload of notification events
type NotificationData struct {
	RecipientID string                 `json:"recipientId,omitempty"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	Category    string                 `json:"category,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
}
