package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
	"github.com/wms-platform/fulfillment-scheduler/pkg/metrics"
)

// DefaultRebalanceThreshold is the pending-task load one picker is expected to carry
const DefaultRebalanceThreshold = 50

// PickerRebalancer moves idle pickers toward zones with the most pending work.
// Pickers holding an ACTIVE assignment are never moved.
type PickerRebalancer struct {
	zones       domain.ZoneRepository
	roster      domain.PickerRoster
	assignments domain.ZoneAssignmentRepository
	stats       *ZoneStatisticsCollector
	assigner    *ZoneAssignmentService
	threshold   int
	metrics     *metrics.Metrics
	logger      *logging.Logger
}

// NewPickerRebalancer creates a new PickerRebalancer. m may be nil.
func NewPickerRebalancer(
	zones domain.ZoneRepository,
	roster domain.PickerRoster,
	assignments domain.ZoneAssignmentRepository,
	stats *ZoneStatisticsCollector,
	assigner *ZoneAssignmentService,
	threshold int,
	m *metrics.Metrics,
	logger *logging.Logger,
) *PickerRebalancer {
	if threshold <= 0 {
		threshold = DefaultRebalanceThreshold
	}

	return &PickerRebalancer{
		zones:       zones,
		roster:      roster,
		assignments: assignments,
		stats:       stats,
		assigner:    assigner,
		threshold:   threshold,
		metrics:     m,
		logger:      logger.WithComponent("picker-rebalancer"),
	}
}

type zoneDemand struct {
	zoneID   string
	needed   int
	active   int
	assigned int
}

func (d *zoneDemand) short() bool {
	return d.active+d.assigned < d.needed
}

// RebalancePickers assigns unassigned pickers, in roster order, to the
// highest-need zone that is still short of pickers
func (r *PickerRebalancer) RebalancePickers(ctx context.Context, actor domain.Actor) (*RebalanceResultDTO, error) {
	zones, err := r.zones.FindAll(ctx)
	if err != nil {
		r.logger.WithError(err).Error("Failed to list zones")
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}

	demands := make([]*zoneDemand, 0, len(zones))
	for _, z := range zones {
		stats := r.stats.GetZoneStats(ctx, z.ZoneID)
		needed := stats.NeededPickers(r.threshold)
		if needed == 0 {
			continue
		}
		demands = append(demands, &zoneDemand{zoneID: z.ZoneID, needed: needed, active: stats.ActivePickers})
	}
	sort.SliceStable(demands, func(i, j int) bool {
		if demands[i].needed != demands[j].needed {
			return demands[i].needed > demands[j].needed
		}
		return demands[i].zoneID < demands[j].zoneID
	})

	result := &RebalanceResultDTO{Assignments: []ZoneAssignmentDTO{}}
	if nextShortZone(demands) == nil {
		r.finish(result)
		return result, nil
	}

	roster, err := r.roster.ListAvailablePickers(ctx)
	if err != nil {
		r.logger.WithError(err).Error("Failed to list available pickers")
		return nil, fmt.Errorf("failed to list available pickers: %w", err)
	}

	rebalanced := make(map[string]bool)
	for _, pickerID := range roster {
		target := nextShortZone(demands)
		if target == nil {
			break
		}

		current, err := r.assignments.FindActiveByPicker(ctx, pickerID)
		if err != nil {
			r.logger.WithError(err).Warn("Skipping picker, could not read assignment", "pickerId", pickerID)
			continue
		}
		if current != nil {
			continue
		}

		dto, err := r.assigner.AssignPickerToZone(ctx, AssignPickerCommand{
			PickerID: pickerID,
			ZoneID:   target.zoneID,
			Actor:    actor,
		})
		if err != nil {
			if !stderrors.Is(err, domain.ErrAlreadyAssigned) {
				r.logger.WithError(err).Warn("Failed to assign picker during rebalance", "pickerId", pickerID, "zoneId", target.zoneID)
			}
			continue
		}

		target.assigned++
		rebalanced[target.zoneID] = true
		result.Assignments = append(result.Assignments, *dto)
	}

	result.ZonesRebalanced = len(rebalanced)
	result.TotalPickers = len(result.Assignments)
	r.finish(result)
	return result, nil
}

func (r *PickerRebalancer) finish(result *RebalanceResultDTO) {
	if r.metrics != nil {
		r.metrics.RecordRebalance(result.TotalPickers)
	}
	r.logger.Info("Rebalanced pickers", "zonesRebalanced", result.ZonesRebalanced, "totalPickers", result.TotalPickers)
}

func nextShortZone(demands []*zoneDemand) *zoneDemand {
	for _, d := range demands {
		if d.short() {
			return d
		}
	}
	return nil
}
