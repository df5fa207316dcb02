package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
)

// ZoneService answers zone queries for dashboards
type ZoneService struct {
	zones  domain.ZoneRepository
	stats  *ZoneStatisticsCollector
	logger *logging.Logger
}

// NewZoneService creates a new ZoneService
func NewZoneService(zones domain.ZoneRepository, stats *ZoneStatisticsCollector, logger *logging.Logger) *ZoneService {
	return &ZoneService{
		zones:  zones,
		stats:  stats,
		logger: logger.WithComponent("zone-service"),
	}
}

// GetZones lists zones ordered by ID
func (s *ZoneService) GetZones(ctx context.Context, query GetZonesQuery) ([]ZoneDTO, error) {
	zones, err := s.zones.FindAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list zones")
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}

	dtos := make([]ZoneDTO, 0, len(zones))
	for _, z := range sortedZones(zones) {
		var stats *domain.ZoneStats
		if query.IncludeStats {
			zs := s.stats.GetZoneStats(ctx, z.ZoneID)
			stats = &zs
		}
		dtos = append(dtos, ToZoneDTO(z, stats))
	}
	return dtos, nil
}

// GetZoneStats returns the workload summary of a zone
func (s *ZoneService) GetZoneStats(ctx context.Context, zoneID string) *ZoneStatsDTO {
	return ToZoneStatsDTO(s.stats.GetZoneStats(ctx, zoneID))
}
