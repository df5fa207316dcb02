package mongodb

import (
	"time"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
)

// Collection names
const (
	WavesCollection           = "waves"
	PickTasksCollection       = "pick_tasks"
	OrdersCollection          = "orders"
	ZonesCollection           = "zones"
	ZoneAssignmentsCollection = "zone_assignments"
	WorkersCollection         = "workers"
	AuditLogsCollection       = "audit_logs"
)

type criteriaDocument struct {
	Strategy         string     `bson:"strategy"`
	CarrierCutoff    *time.Time `bson:"carrierCutoff,omitempty"`
	Carriers         []string   `bson:"carriers,omitempty"`
	Priorities       []string   `bson:"priorities,omitempty"`
	Zones            []string   `bson:"zones,omitempty"`
	Deadline         *time.Time `bson:"deadline,omitempty"`
	MaxOrdersPerWave int        `bson:"maxOrdersPerWave"`
	TasksPerPicker   int        `bson:"tasksPerPicker"`
}

// waveDocument is the waves row. Tasks live in pick_tasks keyed by waveId.
type waveDocument struct {
	WaveID            string           `bson:"waveId"`
	Name              string           `bson:"name"`
	Criteria          criteriaDocument `bson:"criteria"`
	Status            string           `bson:"status"`
	OrderIDs          []string         `bson:"orderIds"`
	AssignedPickers   []string         `bson:"assignedPickers"`
	TaskCount         int              `bson:"taskCount"`
	EstimatedTimeMs   int64            `bson:"estimatedTimeMs"`
	EstimatedDistance float64          `bson:"estimatedDistance"`
	CreatedAt         time.Time        `bson:"createdAt"`
	CreatedBy         string           `bson:"createdBy"`
	StartedAt         *time.Time       `bson:"startedAt,omitempty"`
	CompletedAt       *time.Time       `bson:"completedAt,omitempty"`
	UpdatedAt         time.Time        `bson:"updatedAt"`
	Version           int64            `bson:"version"`
}

type pickTaskDocument struct {
	TaskID         string     `bson:"taskId"`
	WaveID         string     `bson:"waveId"`
	OrderID        string     `bson:"orderId"`
	SKU            string     `bson:"sku"`
	Quantity       int        `bson:"quantity"`
	BinLocation    string     `bson:"binLocation"`
	Zone           string     `bson:"zone"`
	Priority       string     `bson:"priority"`
	Status         string     `bson:"status"`
	AssignedPicker string     `bson:"assignedPicker,omitempty"`
	Sequence       int        `bson:"sequence"`
	CreatedAt      time.Time  `bson:"createdAt"`
	StartedAt      *time.Time `bson:"startedAt,omitempty"`
	CompletedAt    *time.Time `bson:"completedAt,omitempty"`
}

type orderLineDocument struct {
	SKU         string `bson:"sku"`
	Quantity    int    `bson:"quantity"`
	BinLocation string `bson:"binLocation"`
	Zone        string `bson:"zone,omitempty"`
}

type orderDocument struct {
	OrderID          string              `bson:"orderId"`
	Priority         string              `bson:"priority"`
	Carrier          string              `bson:"carrier"`
	CarrierCutoff    *time.Time          `bson:"carrierCutoff,omitempty"`
	RequiredShipDate *time.Time          `bson:"requiredShipDate,omitempty"`
	PrimaryZone      string              `bson:"primaryZone"`
	Status           string              `bson:"status"`
	Lines            []orderLineDocument `bson:"lines"`
	CreatedAt        time.Time           `bson:"createdAt"`
}

type zoneDocument struct {
	ZoneID        string `bson:"zoneId"`
	AisleStart    int    `bson:"aisleStart"`
	AisleEnd      int    `bson:"aisleEnd"`
	LocationCount int    `bson:"locationCount"`
}

type zoneAssignmentDocument struct {
	AssignmentID string     `bson:"assignmentId"`
	PickerID     string     `bson:"pickerId"`
	ZoneID       string     `bson:"zoneId"`
	Status       string     `bson:"status"`
	AssignedAt   time.Time  `bson:"assignedAt"`
	AssignedBy   string     `bson:"assignedBy"`
	ReleasedAt   *time.Time `bson:"releasedAt,omitempty"`
	ReleasedBy   string     `bson:"releasedBy,omitempty"`
}

type auditDocument struct {
	ResourceType string                 `bson:"resourceType"`
	ResourceID   string                 `bson:"resourceId"`
	Action       string                 `bson:"action"`
	Details      map[string]interface{} `bson:"details,omitempty"`
	UserID       string                 `bson:"userId"`
	UserEmail    string                 `bson:"userEmail,omitempty"`
	UserAgent    string                 `bson:"userAgent,omitempty"`
	IPAddress    string                 `bson:"ipAddress,omitempty"`
	OccurredAt   time.Time              `bson:"occurredAt"`
}

func toWaveDocument(w *domain.Wave) waveDocument {
	return waveDocument{
		WaveID:            w.WaveID,
		Name:              w.Name,
		Criteria:          toCriteriaDocument(w.Criteria),
		Status:            string(w.Status),
		OrderIDs:          nonNilStrings(w.OrderIDs),
		AssignedPickers:   nonNilStrings(w.AssignedPickers),
		TaskCount:         len(w.PickTasks),
		EstimatedTimeMs:   w.EstimatedTime.Milliseconds(),
		EstimatedDistance: w.EstimatedDistance,
		CreatedAt:         w.CreatedAt,
		CreatedBy:         w.CreatedBy,
		StartedAt:         w.StartedAt,
		CompletedAt:       w.CompletedAt,
		UpdatedAt:         w.UpdatedAt,
		Version:           w.Version,
	}
}

func (d waveDocument) toDomain(tasks []*domain.PickTask) *domain.Wave {
	return &domain.Wave{
		WaveID:            d.WaveID,
		Name:              d.Name,
		Criteria:          d.Criteria.toDomain(),
		Status:            domain.WaveStatus(d.Status),
		OrderIDs:          d.OrderIDs,
		PickTasks:         tasks,
		AssignedPickers:   d.AssignedPickers,
		EstimatedTime:     time.Duration(d.EstimatedTimeMs) * time.Millisecond,
		EstimatedDistance: d.EstimatedDistance,
		CreatedAt:         d.CreatedAt,
		CreatedBy:         d.CreatedBy,
		StartedAt:         d.StartedAt,
		CompletedAt:       d.CompletedAt,
		UpdatedAt:         d.UpdatedAt,
		Version:           d.Version,
	}
}

func toCriteriaDocument(c domain.WaveCriteria) criteriaDocument {
	priorities := make([]string, 0, len(c.Priorities))
	for _, p := range c.Priorities {
		priorities = append(priorities, string(p))
	}
	return criteriaDocument{
		Strategy:         string(c.Strategy),
		CarrierCutoff:    c.CarrierCutoff,
		Carriers:         c.Carriers,
		Priorities:       priorities,
		Zones:            c.Zones,
		Deadline:         c.Deadline,
		MaxOrdersPerWave: c.MaxOrdersPerWave,
		TasksPerPicker:   c.TasksPerPicker,
	}
}

func (d criteriaDocument) toDomain() domain.WaveCriteria {
	var priorities []domain.Priority
	for _, p := range d.Priorities {
		priorities = append(priorities, domain.Priority(p))
	}
	return domain.WaveCriteria{
		Strategy:         domain.WaveStrategy(d.Strategy),
		CarrierCutoff:    d.CarrierCutoff,
		Carriers:         d.Carriers,
		Priorities:       priorities,
		Zones:            d.Zones,
		Deadline:         d.Deadline,
		MaxOrdersPerWave: d.MaxOrdersPerWave,
		TasksPerPicker:   d.TasksPerPicker,
	}
}

func toPickTaskDocument(t *domain.PickTask) pickTaskDocument {
	return pickTaskDocument{
		TaskID:         t.TaskID,
		WaveID:         t.WaveID,
		OrderID:        t.OrderID,
		SKU:            t.SKU,
		Quantity:       t.Quantity,
		BinLocation:    t.BinLocation,
		Zone:           t.Zone,
		Priority:       string(t.Priority),
		Status:         string(t.Status),
		AssignedPicker: t.AssignedPicker,
		Sequence:       t.Sequence,
		CreatedAt:      t.CreatedAt,
		StartedAt:      t.StartedAt,
		CompletedAt:    t.CompletedAt,
	}
}

func (d pickTaskDocument) toDomain() *domain.PickTask {
	return &domain.PickTask{
		TaskID:         d.TaskID,
		WaveID:         d.WaveID,
		OrderID:        d.OrderID,
		SKU:            d.SKU,
		Quantity:       d.Quantity,
		BinLocation:    d.BinLocation,
		Zone:           d.Zone,
		Priority:       domain.Priority(d.Priority),
		Status:         domain.TaskStatus(d.Status),
		AssignedPicker: d.AssignedPicker,
		Sequence:       d.Sequence,
		CreatedAt:      d.CreatedAt,
		StartedAt:      d.StartedAt,
		CompletedAt:    d.CompletedAt,
	}
}

func (d orderDocument) toDomain() *domain.Order {
	lines := make([]domain.OrderLine, 0, len(d.Lines))
	for _, l := range d.Lines {
		lines = append(lines, domain.OrderLine{SKU: l.SKU, Quantity: l.Quantity, BinLocation: l.BinLocation, Zone: l.Zone})
	}
	return &domain.Order{
		OrderID:          d.OrderID,
		Priority:         domain.Priority(d.Priority),
		Carrier:          d.Carrier,
		CarrierCutoff:    d.CarrierCutoff,
		RequiredShipDate: d.RequiredShipDate,
		PrimaryZone:      d.PrimaryZone,
		Status:           d.Status,
		Lines:            lines,
		CreatedAt:        d.CreatedAt,
	}
}

func toZoneDocument(z *domain.Zone) zoneDocument {
	return zoneDocument{ZoneID: z.ZoneID, AisleStart: z.AisleStart, AisleEnd: z.AisleEnd, LocationCount: z.LocationCount}
}

func (d zoneDocument) toDomain() *domain.Zone {
	return &domain.Zone{ZoneID: d.ZoneID, AisleStart: d.AisleStart, AisleEnd: d.AisleEnd, LocationCount: d.LocationCount}
}

func toZoneAssignmentDocument(a *domain.ZoneAssignment) zoneAssignmentDocument {
	return zoneAssignmentDocument{
		AssignmentID: a.AssignmentID,
		PickerID:     a.PickerID,
		ZoneID:       a.ZoneID,
		Status:       string(a.Status),
		AssignedAt:   a.AssignedAt,
		AssignedBy:   a.AssignedBy,
		ReleasedAt:   a.ReleasedAt,
		ReleasedBy:   a.ReleasedBy,
	}
}

func (d zoneAssignmentDocument) toDomain() *domain.ZoneAssignment {
	return &domain.ZoneAssignment{
		AssignmentID: d.AssignmentID,
		PickerID:     d.PickerID,
		ZoneID:       d.ZoneID,
		Status:       domain.AssignmentStatus(d.Status),
		AssignedAt:   d.AssignedAt,
		AssignedBy:   d.AssignedBy,
		ReleasedAt:   d.ReleasedAt,
		ReleasedBy:   d.ReleasedBy,
	}
}

func toAuditDocument(e domain.AuditEntry) auditDocument {
	return auditDocument{
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Action:       e.Action,
		Details:      e.Details,
		UserID:       e.UserID,
		UserEmail:    e.UserEmail,
		UserAgent:    e.UserAgent,
		IPAddress:    e.IPAddress,
		OccurredAt:   e.OccurredAt,
	}
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
