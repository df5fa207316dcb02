package domain

import (
	"strings"
	"time"
)

// ZoneType classifies a zone by what it stores
type ZoneType string

const (
	ZoneTypeFastMoving       ZoneType = "fast-moving"
	ZoneTypeSlowMoving       ZoneType = "slow-moving"
	ZoneTypeBulk             ZoneType = "bulk"
	ZoneTypeColdStorage      ZoneType = "cold-storage"
	ZoneTypeHazardous        ZoneType = "hazardous"
	ZoneTypeReverseLogistics ZoneType = "reverse-logistics"
)

// ZoneTypeFor derives the zone type from the leading letter of the zone ID
func ZoneTypeFor(zoneID string) ZoneType {
	if zoneID == "" {
		return ZoneTypeSlowMoving
	}
	switch strings.ToUpper(zoneID[:1]) {
	case "A":
		return ZoneTypeFastMoving
	case "C":
		return ZoneTypeSlowMoving
	case "E":
		return ZoneTypeBulk
	case "F":
		return ZoneTypeColdStorage
	case "G":
		return ZoneTypeHazardous
	case "H":
		return ZoneTypeReverseLogistics
	default:
		return ZoneTypeSlowMoving
	}
}

// ZoneFromBin returns the zone segment of a bin location ("A-01-02" -> "A")
func ZoneFromBin(binLocation string) string {
	zone, _, _ := strings.Cut(binLocation, "-")
	return strings.ToUpper(strings.TrimSpace(zone))
}

// Zone is a physical warehouse area spanning an aisle range
type Zone struct {
	ZoneID        string
	AisleStart    int
	AisleEnd      int
	LocationCount int
}

// Type returns the derived zone type
func (z *Zone) Type() ZoneType {
	return ZoneTypeFor(z.ZoneID)
}

// DefaultAverageTimePerTask is used when a zone has no completed-task history
const DefaultAverageTimePerTask = 60 * time.Second

// TaskCounts are the per-status task totals of a zone
type TaskCounts struct {
	Pending    int
	InProgress int
	Completed  int
	TotalItems int
}

// ZoneStats is the derived workload summary of a zone
type ZoneStats struct {
	ZoneID                 string
	ZoneType               ZoneType
	PendingTasks           int
	InProgressTasks        int
	CompletedTasks         int
	TotalItems             int
	ActivePickers          int
	AverageTimePerTask     time.Duration
	EstimatedTimeRemaining time.Duration
}

// NewZoneStats builds the summary; a non-positive average falls back to the default
func NewZoneStats(zoneID string, counts TaskCounts, activePickers int, avg time.Duration) ZoneStats {
	if avg <= 0 {
		avg = DefaultAverageTimePerTask
	}
	return ZoneStats{
		ZoneID:                 zoneID,
		ZoneType:               ZoneTypeFor(zoneID),
		PendingTasks:           counts.Pending,
		InProgressTasks:        counts.InProgress,
		CompletedTasks:         counts.Completed,
		TotalItems:             counts.TotalItems,
		ActivePickers:          activePickers,
		AverageTimePerTask:     avg,
		EstimatedTimeRemaining: time.Duration(counts.Pending+counts.InProgress) * avg,
	}
}

// DefaultZoneStats is the all-zero summary returned when stats cannot be read
func DefaultZoneStats(zoneID string) ZoneStats {
	return NewZoneStats(zoneID, TaskCounts{}, 0, DefaultAverageTimePerTask)
}

// NeededPickers is ceil(pending/threshold)
func (s ZoneStats) NeededPickers(threshold int) int {
	if threshold <= 0 || s.PendingTasks <= 0 {
		return 0
	}
	return (s.PendingTasks + threshold - 1) / threshold
}
