package application

import "time"

// WaveDTO represents a wave in responses
type WaveDTO struct {
	WaveID            string          `json:"waveId"`
	Name              string          `json:"name"`
	Status            string          `json:"status"`
	Criteria          WaveCriteriaDTO `json:"criteria"`
	OrderIDs          []string        `json:"orderIds"`
	PickTasks         []PickTaskDTO   `json:"pickTasks"`
	AssignedPickers   []string        `json:"assignedPickers"`
	EstimatedTime     string          `json:"estimatedTime,omitempty"`
	EstimatedDistance float64         `json:"estimatedDistance"`
	CreatedAt         time.Time       `json:"createdAt"`
	CreatedBy         string          `json:"createdBy"`
	StartedAt         *time.Time      `json:"startedAt,omitempty"`
	CompletedAt       *time.Time      `json:"completedAt,omitempty"`
}

// WaveCriteriaDTO represents the criteria a wave was built from
type WaveCriteriaDTO struct {
	Strategy         string     `json:"strategy"`
	CarrierCutoff    *time.Time `json:"carrierCutoff,omitempty"`
	Carriers         []string   `json:"carriers,omitempty"`
	Priorities       []string   `json:"priorities,omitempty"`
	Zones            []string   `json:"zones,omitempty"`
	Deadline         *time.Time `json:"deadline,omitempty"`
	MaxOrdersPerWave int        `json:"maxOrdersPerWave"`
	TasksPerPicker   int        `json:"tasksPerPicker"`
}

// PickTaskDTO represents a pick task in responses
type PickTaskDTO struct {
	TaskID         string     `json:"taskId"`
	WaveID         string     `json:"waveId,omitempty"`
	OrderID        string     `json:"orderId"`
	SKU            string     `json:"sku"`
	Quantity       int        `json:"quantity"`
	BinLocation    string     `json:"binLocation"`
	Zone           string     `json:"zone"`
	Priority       string     `json:"priority"`
	Status         string     `json:"status"`
	AssignedPicker string     `json:"assignedPicker,omitempty"`
	Sequence       int        `json:"sequence"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// WaveStatusDTO is the progress summary of a wave
type WaveStatusDTO struct {
	WaveID                 string     `json:"waveId"`
	Name                   string     `json:"name"`
	Status                 string     `json:"status"`
	TotalTasks             int        `json:"totalTasks"`
	CompletedTasks         int        `json:"completedTasks"`
	InProgressTasks        int        `json:"inProgressTasks"`
	PendingTasks           int        `json:"pendingTasks"`
	Progress               float64    `json:"progress"`
	EstimatedTimeRemaining string     `json:"estimatedTimeRemaining"`
	AssignedPickers        []string   `json:"assignedPickers"`
	StartedAt              *time.Time `json:"startedAt,omitempty"`
	CompletedAt            *time.Time `json:"completedAt,omitempty"`
}

// WaveListDTO represents a wave in list responses
type WaveListDTO struct {
	WaveID          string    `json:"waveId"`
	Name            string    `json:"name"`
	Status          string    `json:"status"`
	Strategy        string    `json:"strategy"`
	OrderCount      int       `json:"orderCount"`
	TaskCount       int       `json:"taskCount"`
	Progress        float64   `json:"progress"`
	AssignedPickers []string  `json:"assignedPickers"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ZoneDTO represents a zone in responses
type ZoneDTO struct {
	ZoneID        string        `json:"zoneId"`
	ZoneType      string        `json:"zoneType"`
	AisleStart    int           `json:"aisleStart"`
	AisleEnd      int           `json:"aisleEnd"`
	LocationCount int           `json:"locationCount"`
	Stats         *ZoneStatsDTO `json:"stats,omitempty"`
}

// ZoneStatsDTO represents zone workload statistics
type ZoneStatsDTO struct {
	ZoneID                 string `json:"zoneId"`
	ZoneType               string `json:"zoneType"`
	PendingTasks           int    `json:"pendingTasks"`
	InProgressTasks        int    `json:"inProgressTasks"`
	CompletedTasks         int    `json:"completedTasks"`
	TotalItems             int    `json:"totalItems"`
	ActivePickers          int    `json:"activePickers"`
	AverageTimePerTask     string `json:"averageTimePerTask"`
	EstimatedTimeRemaining string `json:"estimatedTimeRemaining"`
}

// ZoneAssignmentDTO represents a picker zone assignment
type ZoneAssignmentDTO struct {
	AssignmentID string     `json:"assignmentId"`
	PickerID     string     `json:"pickerId"`
	ZoneID       string     `json:"zoneId"`
	Status       string     `json:"status"`
	AssignedAt   time.Time  `json:"assignedAt"`
	AssignedBy   string     `json:"assignedBy"`
	ReleasedAt   *time.Time `json:"releasedAt,omitempty"`
}

// RebalanceResultDTO summarizes a rebalancing run
type RebalanceResultDTO struct {
	ZonesRebalanced int                 `json:"zonesRebalanced"`
	TotalPickers    int                 `json:"totalPickers"`
	Assignments     []ZoneAssignmentDTO `json:"assignments"`
}
