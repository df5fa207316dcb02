package domain

import "errors"

// Errors
var (
	ErrWaveNotFound     = errors.New("wave not found")
	ErrZoneNotFound     = errors.New("zone not found")
	ErrTaskNotFound     = errors.New("pick task not found")
	ErrInvalidWaveState = errors.New("invalid wave state")
	ErrInvalidTaskState = errors.New("invalid pick task state")
	ErrNoMatchingOrders = errors.New("no orders match the wave criteria")
	ErrAlreadyAssigned  = errors.New("picker is already assigned to another zone")
	ErrWaveEmpty        = errors.New("wave must contain at least one order")
	ErrInvalidCriteria  = errors.New("invalid wave criteria")
	ErrInvalidQuantity  = errors.New("pick task quantity must be positive")
	ErrWaveConflict     = errors.New("wave was modified concurrently")
)
