package domain

import "time"

// AssignmentStatus represents the status of a zone assignment
type AssignmentStatus string

const (
	AssignmentStatusActive   AssignmentStatus = "ACTIVE"
	AssignmentStatusReleased AssignmentStatus = "RELEASED"
)

// ZoneAssignment binds a picker to a zone. A picker holds at most one ACTIVE assignment.
type ZoneAssignment struct {
	AssignmentID string
	PickerID     string
	ZoneID       string
	Status       AssignmentStatus
	AssignedAt   time.Time
	AssignedBy   string
	ReleasedAt   *time.Time
	ReleasedBy   string
}

// NewZoneAssignment creates an ACTIVE assignment
func NewZoneAssignment(assignmentID, pickerID, zoneID, assignedBy string, now time.Time) *ZoneAssignment {
	return &ZoneAssignment{
		AssignmentID: assignmentID,
		PickerID:     pickerID,
		ZoneID:       zoneID,
		Status:       AssignmentStatusActive,
		AssignedAt:   now,
		AssignedBy:   assignedBy,
	}
}

// IsActive reports whether the assignment is ACTIVE
func (a *ZoneAssignment) IsActive() bool {
	return a.Status == AssignmentStatusActive
}
