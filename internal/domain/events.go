package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// WaveCreatedEvent is published when a wave is planned
type WaveCreatedEvent struct {
	WaveID          string    `json:"waveId"`
	Strategy        string    `json:"strategy"`
	OrderIDs        []string  `json:"orderIds"`
	TaskCount       int       `json:"taskCount"`
	AssignedPickers []string  `json:"assignedPickers,omitempty"`
	CreatedBy       string    `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (e *WaveCreatedEvent) EventType() string     { return "wms.wave.created" }
func (e *WaveCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// WaveReleasedEvent is published when a wave is released to picking
type WaveReleasedEvent struct {
	WaveID            string        `json:"waveId"`
	OrderIDs          []string      `json:"orderIds"`
	AssignedPickers   []string      `json:"assignedPickers,omitempty"`
	ReleasedAt        time.Time     `json:"releasedAt"`
	EstimatedDuration time.Duration `json:"estimatedDuration"`
}

func (e *WaveReleasedEvent) EventType() string     { return "wms.wave.released" }
func (e *WaveReleasedEvent) OccurredAt() time.Time { return e.ReleasedAt }

// WaveStartedEvent is published when the first task of a wave starts
type WaveStartedEvent struct {
	WaveID    string    `json:"waveId"`
	StartedAt time.Time `json:"startedAt"`
}

func (e *WaveStartedEvent) EventType() string     { return "wms.wave.started" }
func (e *WaveStartedEvent) OccurredAt() time.Time { return e.StartedAt }

// WaveCompletedEvent is published when a wave is completed
type WaveCompletedEvent struct {
	WaveID         string     `json:"waveId"`
	OrderCount     int        `json:"orderCount"`
	TaskCount      int        `json:"taskCount"`
	CompletedTasks int        `json:"completedTasks"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	CompletedAt    time.Time  `json:"completedAt"`
}

func (e *WaveCompletedEvent) EventType() string     { return "wms.wave.completed" }
func (e *WaveCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// PickTaskStartedEvent is published when a picker starts a task
type PickTaskStartedEvent struct {
	TaskID    string    `json:"taskId"`
	WaveID    string    `json:"waveId"`
	OrderID   string    `json:"orderId"`
	PickerID  string    `json:"pickerId"`
	Zone      string    `json:"zone"`
	StartedAt time.Time `json:"startedAt"`
}

func (e *PickTaskStartedEvent) EventType() string     { return "wms.picking.task-started" }
func (e *PickTaskStartedEvent) OccurredAt() time.Time { return e.StartedAt }

// PickTaskCompletedEvent is published when a picker completes a task
type PickTaskCompletedEvent struct {
	TaskID      string        `json:"taskId"`
	WaveID      string        `json:"waveId"`
	OrderID     string        `json:"orderId"`
	PickerID    string        `json:"pickerId"`
	Zone        string        `json:"zone"`
	Duration    time.Duration `json:"duration"`
	CompletedAt time.Time     `json:"completedAt"`
}

func (e *PickTaskCompletedEvent) EventType() string     { return "wms.picking.task-completed" }
func (e *PickTaskCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }
