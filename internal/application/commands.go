package application

import "github.com/wms-platform/fulfillment-scheduler/internal/domain"

// CreateWaveCommand plans a new wave from the criteria
type CreateWaveCommand struct {
	Criteria domain.WaveCriteria
	Actor    domain.Actor
}

// ReleaseWaveCommand releases a planned wave to picking
type ReleaseWaveCommand struct {
	WaveID string
	Actor  domain.Actor
}

// CompleteWaveCommand completes a wave
type CompleteWaveCommand struct {
	WaveID string
	Actor  domain.Actor
}

// StartPickTaskCommand starts a pick task. An empty PickerID keeps the task's assigned picker.
type StartPickTaskCommand struct {
	TaskID   string
	PickerID string
	Actor    domain.Actor
}

// CompletePickTaskCommand completes a pick task
type CompletePickTaskCommand struct {
	TaskID string
	Actor  domain.Actor
}

// ListWavesQuery lists waves, optionally by status
type ListWavesQuery struct {
	Status string
	Limit  int
}

// AssignPickerCommand assigns a picker to a zone
type AssignPickerCommand struct {
	PickerID string
	ZoneID   string
	Actor    domain.Actor
}

// ReleasePickerCommand releases a picker from its zone
type ReleasePickerCommand struct {
	PickerID string
	Actor    domain.Actor
}

// GetZonesQuery lists zones
type GetZonesQuery struct {
	IncludeStats bool
}
