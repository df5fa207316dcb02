package application

import (
	"context"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
)

// DefaultDurationSampleSize is how many recent completed tasks feed the average
const DefaultDurationSampleSize = 100

// ZoneStatisticsCollector derives zone workload from task and assignment counts
type ZoneStatisticsCollector struct {
	tasks       domain.PickTaskRepository
	assignments domain.ZoneAssignmentRepository
	logger      *logging.Logger
	sampleSize  int
}

// NewZoneStatisticsCollector creates a new ZoneStatisticsCollector
func NewZoneStatisticsCollector(tasks domain.PickTaskRepository, assignments domain.ZoneAssignmentRepository, logger *logging.Logger) *ZoneStatisticsCollector {
	return &ZoneStatisticsCollector{
		tasks:       tasks,
		assignments: assignments,
		logger:      logger.WithComponent("zone-statistics"),
		sampleSize:  DefaultDurationSampleSize,
	}
}

// GetZoneStats never fails: any read error yields the default summary
func (c *ZoneStatisticsCollector) GetZoneStats(ctx context.Context, zoneID string) domain.ZoneStats {
	counts, err := c.tasks.CountByZone(ctx, zoneID)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to count zone tasks, using defaults", "zoneId", zoneID)
		return domain.DefaultZoneStats(zoneID)
	}

	activePickers, err := c.assignments.CountActiveByZone(ctx, zoneID)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to count zone pickers, using defaults", "zoneId", zoneID)
		return domain.DefaultZoneStats(zoneID)
	}

	avg, ok, err := c.tasks.AverageDuration(ctx, zoneID, c.sampleSize)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to read zone task history, using defaults", "zoneId", zoneID)
		return domain.DefaultZoneStats(zoneID)
	}
	if !ok {
		avg = domain.DefaultAverageTimePerTask
	}

	return domain.NewZoneStats(zoneID, counts, activePickers, avg)
}
