package application

import (
	"sort"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
)

// ToWaveDTO converts a domain Wave to WaveDTO
func ToWaveDTO(wave *domain.Wave) *WaveDTO {
	if wave == nil {
		return nil
	}

	tasks := make([]PickTaskDTO, 0, len(wave.PickTasks))
	for _, t := range wave.PickTasks {
		tasks = append(tasks, *ToPickTaskDTO(t))
	}

	estimated := ""
	if wave.EstimatedTime > 0 {
		estimated = wave.EstimatedTime.String()
	}

	return &WaveDTO{
		WaveID:            wave.WaveID,
		Name:              wave.Name,
		Status:            string(wave.Status),
		Criteria:          toWaveCriteriaDTO(wave.Criteria),
		OrderIDs:          nonNil(wave.OrderIDs),
		PickTasks:         tasks,
		AssignedPickers:   nonNil(wave.AssignedPickers),
		EstimatedTime:     estimated,
		EstimatedDistance: wave.EstimatedDistance,
		CreatedAt:         wave.CreatedAt,
		CreatedBy:         wave.CreatedBy,
		StartedAt:         wave.StartedAt,
		CompletedAt:       wave.CompletedAt,
	}
}

func toWaveCriteriaDTO(c domain.WaveCriteria) WaveCriteriaDTO {
	var priorities []string
	for _, p := range c.Priorities {
		priorities = append(priorities, string(p))
	}

	return WaveCriteriaDTO{
		Strategy:         string(c.Strategy),
		CarrierCutoff:    c.CarrierCutoff,
		Carriers:         c.Carriers,
		Priorities:       priorities,
		Zones:            c.Zones,
		Deadline:         c.Deadline,
		MaxOrdersPerWave: c.MaxOrdersPerWave,
		TasksPerPicker:   c.TasksPerPicker,
	}
}

// ToPickTaskDTO converts a domain PickTask to PickTaskDTO
func ToPickTaskDTO(t *domain.PickTask) *PickTaskDTO {
	if t == nil {
		return nil
	}

	return &PickTaskDTO{
		TaskID:         t.TaskID,
		WaveID:         t.WaveID,
		OrderID:        t.OrderID,
		SKU:            t.SKU,
		Quantity:       t.Quantity,
		BinLocation:    t.BinLocation,
		Zone:           t.Zone,
		Priority:       string(t.Priority),
		Status:         string(t.Status),
		AssignedPicker: t.AssignedPicker,
		Sequence:       t.Sequence,
		StartedAt:      t.StartedAt,
		CompletedAt:    t.CompletedAt,
	}
}

// ToWaveStatusDTO summarizes wave progress
func ToWaveStatusDTO(wave *domain.Wave) *WaveStatusDTO {
	if wave == nil {
		return nil
	}

	p := wave.Progress()
	return &WaveStatusDTO{
		WaveID:                 wave.WaveID,
		Name:                   wave.Name,
		Status:                 string(wave.Status),
		TotalTasks:             p.Total,
		CompletedTasks:         p.Completed,
		InProgressTasks:        p.InProgress,
		PendingTasks:           p.Pending,
		Progress:               p.Progress,
		EstimatedTimeRemaining: p.EstimatedTimeRemaining.String(),
		AssignedPickers:        nonNil(wave.AssignedPickers),
		StartedAt:              wave.StartedAt,
		CompletedAt:            wave.CompletedAt,
	}
}

// ToWaveListDTOs converts waves to list entries
func ToWaveListDTOs(waves []*domain.Wave) []WaveListDTO {
	dtos := make([]WaveListDTO, 0, len(waves))
	for _, w := range waves {
		dtos = append(dtos, WaveListDTO{
			WaveID:          w.WaveID,
			Name:            w.Name,
			Status:          string(w.Status),
			Strategy:        string(w.Criteria.Strategy),
			OrderCount:      len(w.OrderIDs),
			TaskCount:       len(w.PickTasks),
			Progress:        w.Progress().Progress,
			AssignedPickers: nonNil(w.AssignedPickers),
			CreatedAt:       w.CreatedAt,
		})
	}
	return dtos
}

// ToZoneDTO converts a zone, with optional stats
func ToZoneDTO(zone *domain.Zone, stats *domain.ZoneStats) ZoneDTO {
	dto := ZoneDTO{
		ZoneID:        zone.ZoneID,
		ZoneType:      string(zone.Type()),
		AisleStart:    zone.AisleStart,
		AisleEnd:      zone.AisleEnd,
		LocationCount: zone.LocationCount,
	}
	if stats != nil {
		dto.Stats = ToZoneStatsDTO(*stats)
	}
	return dto
}

// ToZoneStatsDTO converts zone statistics
func ToZoneStatsDTO(stats domain.ZoneStats) *ZoneStatsDTO {
	return &ZoneStatsDTO{
		ZoneID:                 stats.ZoneID,
		ZoneType:               string(stats.ZoneType),
		PendingTasks:           stats.PendingTasks,
		InProgressTasks:        stats.InProgressTasks,
		CompletedTasks:         stats.CompletedTasks,
		TotalItems:             stats.TotalItems,
		ActivePickers:          stats.ActivePickers,
		AverageTimePerTask:     stats.AverageTimePerTask.String(),
		EstimatedTimeRemaining: stats.EstimatedTimeRemaining.String(),
	}
}

// ToZoneAssignmentDTO converts a zone assignment
func ToZoneAssignmentDTO(a *domain.ZoneAssignment) *ZoneAssignmentDTO {
	if a == nil {
		return nil
	}

	return &ZoneAssignmentDTO{
		AssignmentID: a.AssignmentID,
		PickerID:     a.PickerID,
		ZoneID:       a.ZoneID,
		Status:       string(a.Status),
		AssignedAt:   a.AssignedAt,
		AssignedBy:   a.AssignedBy,
		ReleasedAt:   a.ReleasedAt,
	}
}

func sortedZones(zones []*domain.Zone) []*domain.Zone {
	sorted := append([]*domain.Zone(nil), zones...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ZoneID < sorted[j].ZoneID })
	return sorted
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
