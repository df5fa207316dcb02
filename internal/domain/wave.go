package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// WaveStatus represents the status of a wave
type WaveStatus string

const (
	WaveStatusPlanned    WaveStatus = "PLANNED"
	WaveStatusReleased   WaveStatus = "RELEASED"
	WaveStatusInProgress WaveStatus = "IN_PROGRESS"
	WaveStatusCompleted  WaveStatus = "COMPLETED"
)

// IsActive reports whether pickers may be working the wave
func (s WaveStatus) IsActive() bool {
	return s == WaveStatusReleased || s == WaveStatusInProgress
}

// IsValid reports whether s is a known status
func (s WaveStatus) IsValid() bool {
	switch s {
	case WaveStatusPlanned, WaveStatusReleased, WaveStatusInProgress, WaveStatusCompleted:
		return true
	}
	return false
}

// Wave is the aggregate root for a batch of orders released together for picking
type Wave struct {
	WaveID            string
	Name              string
	Criteria          WaveCriteria
	Status            WaveStatus
	OrderIDs          []string
	PickTasks         []*PickTask
	AssignedPickers   []string
	EstimatedTime     time.Duration
	EstimatedDistance float64
	CreatedAt         time.Time
	CreatedBy         string
	StartedAt         *time.Time
	CompletedAt       *time.Time
	UpdatedAt         time.Time
	// Version is the stored revision the wave was loaded at; zero until created
	Version           int64
	DomainEvents      []DomainEvent
}

// WavePlan is everything wave planning produced for a new wave
type WavePlan struct {
	WaveID            string
	Criteria          WaveCriteria
	OrderIDs          []string
	Tasks             []*PickTask // route order
	EstimatedTime     time.Duration
	EstimatedDistance float64
	AssignedPickers   []string
	CreatedBy         string
	CreatedAt         time.Time
}

// WaveName derives the display name of a wave
func WaveName(strategy WaveStrategy, createdAt time.Time) string {
	return fmt.Sprintf("%s wave %s", strings.ToLower(string(strategy)), createdAt.UTC().Format("2006-01-02 15:04"))
}

// NewWave creates a PLANNED wave from a plan
func NewWave(plan WavePlan) (*Wave, error) {
	if len(plan.OrderIDs) == 0 {
		return nil, ErrWaveEmpty
	}

	w := &Wave{
		WaveID:            plan.WaveID,
		Name:              WaveName(plan.Criteria.Strategy, plan.CreatedAt),
		Criteria:          plan.Criteria,
		Status:            WaveStatusPlanned,
		OrderIDs:          append([]string(nil), plan.OrderIDs...),
		PickTasks:         make([]*PickTask, 0, len(plan.Tasks)),
		EstimatedTime:     plan.EstimatedTime,
		EstimatedDistance: plan.EstimatedDistance,
		CreatedAt:         plan.CreatedAt,
		CreatedBy:         plan.CreatedBy,
		UpdatedAt:         plan.CreatedAt,
	}
	for _, p := range plan.AssignedPickers {
		w.addPicker(p)
	}

	for i, t := range plan.Tasks {
		t.WaveID = w.WaveID
		t.Sequence = i + 1
		w.PickTasks = append(w.PickTasks, t)
	}

	w.AddDomainEvent(&WaveCreatedEvent{
		WaveID:          w.WaveID,
		Strategy:        string(plan.Criteria.Strategy),
		OrderIDs:        w.OrderIDs,
		TaskCount:       len(w.PickTasks),
		AssignedPickers: w.AssignedPickers,
		CreatedBy:       w.CreatedBy,
		CreatedAt:       w.CreatedAt,
	})

	return w, nil
}

// Release releases a PLANNED wave to picking. assignments maps task IDs to pickers.
func (w *Wave) Release(now time.Time, assignments map[string]string) error {
	if w.Status != WaveStatusPlanned {
		return fmt.Errorf("%w: wave %s is %s, expected %s", ErrInvalidWaveState, w.WaveID, w.Status, WaveStatusPlanned)
	}

	for _, t := range w.PickTasks {
		if picker, ok := assignments[t.TaskID]; ok && picker != "" {
			t.AssignedPicker = picker
			w.addPicker(picker)
		}
	}

	w.Status = WaveStatusReleased
	w.StartedAt = &now
	w.UpdatedAt = now

	w.AddDomainEvent(&WaveReleasedEvent{
		WaveID:            w.WaveID,
		OrderIDs:          w.OrderIDs,
		AssignedPickers:   w.AssignedPickers,
		ReleasedAt:        now,
		EstimatedDuration: w.EstimatedTime,
	})

	return nil
}

// StartTask moves a task to IN_PROGRESS. The first started task moves the wave
// from RELEASED to IN_PROGRESS.
func (w *Wave) StartTask(taskID, pickerID string, now time.Time) error {
	task := w.Task(taskID)
	if task == nil {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if !w.Status.IsActive() {
		return fmt.Errorf("%w: wave %s is %s", ErrInvalidWaveState, w.WaveID, w.Status)
	}

	if pickerID == "" {
		pickerID = task.AssignedPicker
	}
	if err := task.start(pickerID, now); err != nil {
		return err
	}
	w.addPicker(pickerID)

	if w.Status == WaveStatusReleased {
		w.Status = WaveStatusInProgress
		w.AddDomainEvent(&WaveStartedEvent{WaveID: w.WaveID, StartedAt: now})
	}
	w.UpdatedAt = now

	w.AddDomainEvent(&PickTaskStartedEvent{
		TaskID:    task.TaskID,
		WaveID:    w.WaveID,
		OrderID:   task.OrderID,
		PickerID:  task.AssignedPicker,
		Zone:      task.Zone,
		StartedAt: now,
	})

	return nil
}

// CompleteTask moves an IN_PROGRESS task to COMPLETED
func (w *Wave) CompleteTask(taskID string, now time.Time) error {
	task := w.Task(taskID)
	if task == nil {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if err := task.complete(now); err != nil {
		return err
	}
	w.UpdatedAt = now

	w.AddDomainEvent(&PickTaskCompletedEvent{
		TaskID:      task.TaskID,
		WaveID:      w.WaveID,
		OrderID:     task.OrderID,
		PickerID:    task.AssignedPicker,
		Zone:        task.Zone,
		Duration:    task.Duration(),
		CompletedAt: now,
	})

	return nil
}

// Complete marks the wave as completed. Completing a completed wave changes nothing.
func (w *Wave) Complete(now time.Time) {
	if w.Status == WaveStatusCompleted {
		return
	}

	w.Status = WaveStatusCompleted
	w.CompletedAt = &now
	w.UpdatedAt = now

	progress := w.Progress()
	w.AddDomainEvent(&WaveCompletedEvent{
		WaveID:         w.WaveID,
		OrderCount:     len(w.OrderIDs),
		TaskCount:      progress.Total,
		CompletedTasks: progress.Completed,
		StartedAt:      w.StartedAt,
		CompletedAt:    now,
	})
}

// WaveProgress summarizes task completion of a wave
type WaveProgress struct {
	Total                  int
	Completed              int
	InProgress             int
	Pending                int
	Progress               float64
	EstimatedTimeRemaining time.Duration
}

// Progress computes completion percentage and remaining time
func (w *Wave) Progress() WaveProgress {
	p := WaveProgress{Total: len(w.PickTasks)}
	for _, t := range w.PickTasks {
		switch t.Status {
		case TaskStatusCompleted:
			p.Completed++
		case TaskStatusInProgress:
			p.InProgress++
		default:
			p.Pending++
		}
	}

	if p.Total == 0 {
		return p
	}

	p.Progress = math.Max(0, math.Min(100, 100*float64(p.Completed)/float64(p.Total)))
	remaining := p.Total - p.Completed
	p.EstimatedTimeRemaining = time.Duration(float64(w.EstimatedTime) * float64(remaining) / float64(p.Total))
	return p
}

// Task returns the task with the given ID, or nil
func (w *Wave) Task(taskID string) *PickTask {
	for _, t := range w.PickTasks {
		if t.TaskID == taskID {
			return t
		}
	}
	return nil
}

// HasTasksFor reports whether any task is assigned to the picker
func (w *Wave) HasTasksFor(pickerID string) bool {
	for _, t := range w.PickTasks {
		if t.IsAssignedTo(pickerID) {
			return true
		}
	}
	return false
}

func (w *Wave) addPicker(pickerID string) {
	if pickerID == "" {
		return
	}
	for _, p := range w.AssignedPickers {
		if p == pickerID {
			return
		}
	}
	w.AssignedPickers = append(w.AssignedPickers, pickerID)
}

// AddDomainEvent adds a domain event
func (w *Wave) AddDomainEvent(event DomainEvent) {
	w.DomainEvents = append(w.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (w *Wave) ClearDomainEvents() {
	w.DomainEvents = nil
}

// GetDomainEvents returns all domain events
func (w *Wave) GetDomainEvents() []DomainEvent {
	return w.DomainEvents
}
