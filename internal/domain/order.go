package domain

import (
	"fmt"
	"time"
)

// Priority is the fulfillment priority of an order
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Weight ranks priorities from 1 (LOW) to 4 (URGENT); unknown values rank as NORMAL
func (p Priority) Weight() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	default:
		return 2
	}
}

// IsValid reports whether p is one of the known priorities
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// MaxPriorityWeight is the weight of the highest priority
const MaxPriorityWeight = 4

// Order statuses that make an order a waving candidate
const (
	OrderStatusPending   = "PENDING"
	OrderStatusAllocated = "ALLOCATED"
)

// EligibleOrderStatuses lists the statuses the order store is queried with
var EligibleOrderStatuses = []string{OrderStatusPending, OrderStatusAllocated}

// Order is the scheduler's read model of an order owned by the order store
type Order struct {
	OrderID          string
	Priority         Priority
	Carrier          string
	CarrierCutoff    *time.Time
	RequiredShipDate *time.Time
	PrimaryZone      string
	Status           string
	Lines            []OrderLine
	CreatedAt        time.Time
}

// OrderLine is one SKU/quantity of an order and the bin it is stored in
type OrderLine struct {
	SKU         string
	Quantity    int
	BinLocation string
	Zone        string
}

// WaveStrategy selects how candidate orders are filtered and ranked
type WaveStrategy string

const (
	StrategyCarrier  WaveStrategy = "CARRIER"
	StrategyPriority WaveStrategy = "PRIORITY"
	StrategyZone     WaveStrategy = "ZONE"
	StrategyDeadline WaveStrategy = "DEADLINE"
	StrategyBalanced WaveStrategy = "BALANCED"
)

// Criteria defaults
const (
	DefaultMaxOrdersPerWave = 50
	DefaultTasksPerPicker   = 20
)

// WaveCriteria is the strategy and its parameters used to build a wave
type WaveCriteria struct {
	Strategy         WaveStrategy
	CarrierCutoff    *time.Time
	Carriers         []string
	Priorities       []Priority
	Zones            []string
	Deadline         *time.Time
	MaxOrdersPerWave int
	TasksPerPicker   int
}

// WithDefaults fills unset limits
func (c WaveCriteria) WithDefaults(tasksPerPicker int) WaveCriteria {
	if c.MaxOrdersPerWave <= 0 {
		c.MaxOrdersPerWave = DefaultMaxOrdersPerWave
	}
	if c.TasksPerPicker <= 0 {
		c.TasksPerPicker = tasksPerPicker
	}
	if c.TasksPerPicker <= 0 {
		c.TasksPerPicker = DefaultTasksPerPicker
	}
	return c
}

// Validate checks that the strategy is known and carries its required parameter
func (c WaveCriteria) Validate() error {
	switch c.Strategy {
	case StrategyCarrier:
		if c.CarrierCutoff == nil {
			return fmt.Errorf("%w: CARRIER strategy requires carrierCutoff", ErrInvalidCriteria)
		}
	case StrategyPriority:
		if len(c.Priorities) == 0 {
			return fmt.Errorf("%w: PRIORITY strategy requires at least one priority", ErrInvalidCriteria)
		}
		for _, p := range c.Priorities {
			if !p.IsValid() {
				return fmt.Errorf("%w: unknown priority %q", ErrInvalidCriteria, p)
			}
		}
	case StrategyZone:
		if len(c.Zones) == 0 {
			return fmt.Errorf("%w: ZONE strategy requires at least one zone", ErrInvalidCriteria)
		}
	case StrategyDeadline:
		if c.Deadline == nil {
			return fmt.Errorf("%w: DEADLINE strategy requires a deadline", ErrInvalidCriteria)
		}
	case StrategyBalanced:
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidCriteria, c.Strategy)
	}

	if c.MaxOrdersPerWave < 0 {
		return fmt.Errorf("%w: maxOrdersPerWave must not be negative", ErrInvalidCriteria)
	}
	if c.TasksPerPicker < 0 {
		return fmt.Errorf("%w: tasksPerPicker must not be negative", ErrInvalidCriteria)
	}
	return nil
}

// OrderFilter is the store-side query for candidate orders
type OrderFilter struct {
	Statuses            []string
	CarrierCutoffBefore *time.Time
	Carriers            []string
	Priorities          []Priority
	Zones               []string
	RequiredShipBefore  *time.Time
}

// Filter translates the criteria into the store query for its strategy
func (c WaveCriteria) Filter() OrderFilter {
	filter := OrderFilter{Statuses: EligibleOrderStatuses}

	switch c.Strategy {
	case StrategyCarrier:
		filter.CarrierCutoffBefore = c.CarrierCutoff
		filter.Carriers = c.Carriers
	case StrategyPriority:
		filter.Priorities = c.Priorities
	case StrategyZone:
		filter.Zones = c.Zones
	case StrategyDeadline:
		filter.RequiredShipBefore = c.Deadline
	}
	return filter
}
