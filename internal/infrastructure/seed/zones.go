package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
)

// ZoneFile is the layout of a zone seed file
type ZoneFile struct {
	Zones []ZoneDefinition `yaml:"zones"`
}

// ZoneDefinition is one zone in a seed file
type ZoneDefinition struct {
	ZoneID        string `yaml:"zoneId"`
	AisleStart    int    `yaml:"aisleStart"`
	AisleEnd      int    `yaml:"aisleEnd"`
	LocationCount int    `yaml:"locationCount"`
}

// LoadZones reads and validates a zone seed file
func LoadZones(path string) ([]*domain.Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read zone file: %w", err)
	}
	return ParseZones(data)
}

// ParseZones decodes zone definitions. Unknown keys are rejected.
func ParseZones(data []byte) ([]*domain.Zone, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file ZoneFile
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse zone file: %w", err)
	}

	seen := make(map[string]bool, len(file.Zones))
	zones := make([]*domain.Zone, 0, len(file.Zones))
	for i, def := range file.Zones {
		id := strings.TrimSpace(def.ZoneID)
		switch {
		case id == "":
			return nil, fmt.Errorf("zone %d: zoneId is required", i)
		case seen[id]:
			return nil, fmt.Errorf("zone %s: defined more than once", id)
		case def.AisleStart < 0 || def.AisleEnd < def.AisleStart:
			return nil, fmt.Errorf("zone %s: invalid aisle range %d-%d", id, def.AisleStart, def.AisleEnd)
		case def.LocationCount < 0:
			return nil, fmt.Errorf("zone %s: locationCount must not be negative", id)
		}
		seen[id] = true

		zones = append(zones, &domain.Zone{
			ZoneID:        id,
			AisleStart:    def.AisleStart,
			AisleEnd:      def.AisleEnd,
			LocationCount: def.LocationCount,
		})
	}
	return zones, nil
}

// Zones upserts the zone definitions into the store
func Zones(ctx context.Context, repo domain.ZoneRepository, zones []*domain.Zone, logger *logging.Logger) error {
	for _, z := range zones {
		if err := repo.Upsert(ctx, z); err != nil {
			return fmt.Errorf("failed to seed zone %s: %w", z.ZoneID, err)
		}
	}

	logger.Info("Seeded zones", "count", len(zones))
	return nil
}
