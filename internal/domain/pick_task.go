package domain

import (
	"fmt"
	"time"
)

// TaskStatus represents the status of a pick task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

// PickTask is the unit of work to retrieve one SKU/quantity from one bin for one order
type PickTask struct {
	TaskID         string
	WaveID         string
	OrderID        string
	SKU            string
	Quantity       int
	BinLocation    string
	Zone           string
	Priority       Priority
	Status         TaskStatus
	AssignedPicker string
	Sequence       int
	CreatedAt      time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// NewPickTask creates a PENDING task that is not yet part of a wave
func NewPickTask(taskID, orderID, sku string, quantity int, binLocation, zone string, priority Priority, now time.Time) (*PickTask, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	if zone == "" {
		zone = ZoneFromBin(binLocation)
	}

	return &PickTask{
		TaskID:      taskID,
		OrderID:     orderID,
		SKU:         sku,
		Quantity:    quantity,
		BinLocation: binLocation,
		Zone:        zone,
		Priority:    priority,
		Status:      TaskStatusPending,
		CreatedAt:   now,
	}, nil
}

func (t *PickTask) start(pickerID string, now time.Time) error {
	if t.Status != TaskStatusPending {
		return fmt.Errorf("%w: task %s is %s", ErrInvalidTaskState, t.TaskID, t.Status)
	}
	t.Status = TaskStatusInProgress
	t.AssignedPicker = pickerID
	t.StartedAt = &now
	return nil
}

func (t *PickTask) complete(now time.Time) error {
	if t.Status != TaskStatusInProgress {
		return fmt.Errorf("%w: task %s is %s", ErrInvalidTaskState, t.TaskID, t.Status)
	}
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	return nil
}

// Duration returns how long a completed task took, zero otherwise
func (t *PickTask) Duration() time.Duration {
	if t.StartedAt == nil || t.CompletedAt == nil {
		return 0
	}
	return t.CompletedAt.Sub(*t.StartedAt)
}

// IsAssignedTo reports whether the task belongs to the picker
func (t *PickTask) IsAssignedTo(pickerID string) bool {
	return pickerID != "" && t.AssignedPicker == pickerID
}
