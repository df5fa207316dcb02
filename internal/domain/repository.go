package domain

import (
	"context"
	"time"
)

// OrderRepository reads waving candidates from the order store
type OrderRepository interface {
	FindCandidates(ctx context.Context, filter OrderFilter) ([]*Order, error)
	FindByIDs(ctx context.Context, orderIDs []string) ([]*Order, error)
}

// WaveRepository persists waves together with their pick tasks. Create and Save
// write the wave, its tasks and its domain events in one transaction.
type WaveRepository interface {
	Create(ctx context.Context, wave *Wave) error
	// Save fails with ErrWaveConflict when the stored wave moved past wave.Version
	Save(ctx context.Context, wave *Wave) error
	FindByID(ctx context.Context, waveID string) (*Wave, error)
	// FindByStatus lists waves newest first; an empty status matches every wave
	FindByStatus(ctx context.Context, status WaveStatus, limit int) ([]*Wave, error)
	FindActiveByPicker(ctx context.Context, pickerID string) ([]*Wave, error)
}

// PickTaskRepository reads pick tasks across waves
type PickTaskRepository interface {
	FindByID(ctx context.Context, taskID string) (*PickTask, error)
	CountByZone(ctx context.Context, zoneID string) (TaskCounts, error)
	// AverageDuration averages the most recent completed tasks of a zone.
	// ok is false when the zone has no completed history.
	AverageDuration(ctx context.Context, zoneID string, sample int) (avg time.Duration, ok bool, err error)
}

// ZoneRepository persists zone definitions
type ZoneRepository interface {
	FindAll(ctx context.Context) ([]*Zone, error)
	FindByID(ctx context.Context, zoneID string) (*Zone, error)
	Upsert(ctx context.Context, zone *Zone) error
}

// ZoneAssignmentRepository persists picker zone assignments.
// Insert returns ErrAlreadyAssigned when the picker already holds an ACTIVE row.
type ZoneAssignmentRepository interface {
	Insert(ctx context.Context, assignment *ZoneAssignment) error
	FindActiveByPicker(ctx context.Context, pickerID string) (*ZoneAssignment, error)
	ReleaseActive(ctx context.Context, pickerID, releasedBy string, at time.Time) ([]*ZoneAssignment, error)
	CountActiveByZone(ctx context.Context, zoneID string) (int, error)
}

// PickerRoster lists pickers available for assignment, in a stable order
type PickerRoster interface {
	ListAvailablePickers(ctx context.Context) ([]string, error)
}
