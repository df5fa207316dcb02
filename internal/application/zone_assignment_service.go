package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
	"github.com/wms-platform/fulfillment-scheduler/pkg/errors"
	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
	"github.com/wms-platform/fulfillment-scheduler/pkg/metrics"
)

const resourceTypeZoneAssignment = "zone_assignment"

// ZoneAssignmentService binds pickers to zones, one ACTIVE zone per picker
type ZoneAssignmentService struct {
	zones       domain.ZoneRepository
	assignments domain.ZoneAssignmentRepository
	audit       domain.AuditLog
	notifier    domain.NotificationGateway
	sideEffects *SideEffectDispatcher
	metrics     *metrics.Metrics
	logger      *logging.Logger
	now         func() time.Time
	newID       func() string
}

// NewZoneAssignmentService creates a new ZoneAssignmentService. m may be nil.
func NewZoneAssignmentService(
	zones domain.ZoneRepository,
	assignments domain.ZoneAssignmentRepository,
	audit domain.AuditLog,
	notifier domain.NotificationGateway,
	sideEffects *SideEffectDispatcher,
	m *metrics.Metrics,
	logger *logging.Logger,
) *ZoneAssignmentService {
	return &ZoneAssignmentService{
		zones:       zones,
		assignments: assignments,
		audit:       audit,
		notifier:    notifier,
		sideEffects: sideEffects,
		metrics:     m,
		logger:      logger.WithComponent("zone-assignment"),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// AssignPickerToZone assigns a picker to a zone. Assigning to the zone the
// picker already holds succeeds without changes.
func (s *ZoneAssignmentService) AssignPickerToZone(ctx context.Context, cmd AssignPickerCommand) (*ZoneAssignmentDTO, error) {
	zone, err := s.zones.FindByID(ctx, cmd.ZoneID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get zone", "zoneId", cmd.ZoneID)
		return nil, fmt.Errorf("failed to get zone: %w", err)
	}
	if zone == nil {
		return nil, errors.ErrNotFoundWithID("zone", cmd.ZoneID).Wrap(domain.ErrZoneNotFound)
	}

	current, err := s.activeAssignment(ctx, cmd.PickerID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		if current.ZoneID == zone.ZoneID {
			return ToZoneAssignmentDTO(current), nil
		}
		return nil, s.alreadyAssigned(cmd.PickerID, current.ZoneID)
	}

	assignment := domain.NewZoneAssignment(s.newID(), cmd.PickerID, zone.ZoneID, cmd.Actor.UserID, s.now())
	if err := s.assignments.Insert(ctx, assignment); err != nil {
		if !stderrors.Is(err, domain.ErrAlreadyAssigned) {
			s.logger.WithError(err).Error("Failed to assign picker", "pickerId", cmd.PickerID, "zoneId", zone.ZoneID)
			return nil, fmt.Errorf("failed to assign picker: %w", err)
		}

		// lost a race against a concurrent assignment
		winner, err := s.activeAssignment(ctx, cmd.PickerID)
		if err != nil {
			return nil, err
		}
		if winner != nil && winner.ZoneID == zone.ZoneID {
			return ToZoneAssignmentDTO(winner), nil
		}
		zoneID := ""
		if winner != nil {
			zoneID = winner.ZoneID
		}
		return nil, s.alreadyAssigned(cmd.PickerID, zoneID)
	}

	if s.metrics != nil {
		s.metrics.RecordZoneAssignment("assigned")
	}

	entry := domain.NewAuditEntry(cmd.Actor, resourceTypeZoneAssignment, assignment.AssignmentID, "ASSIGN", map[string]interface{}{
		"pickerId": assignment.PickerID,
		"zoneId":   assignment.ZoneID,
	}, assignment.AssignedAt)
	s.sideEffects.Dispatch(ctx, SideEffectAudit, func(ctx context.Context) error {
		return s.audit.Log(ctx, entry)
	})
	s.broadcast(ctx, assignment, true)
	s.sideEffects.Dispatch(ctx, SideEffectNotify, func(ctx context.Context) error {
		return s.notifier.NotifyUser(ctx, assignment.PickerID, domain.Notification{
			Title:    "Zone assignment",
			Message:  fmt.Sprintf("You are assigned to zone %s", assignment.ZoneID),
			Category: "labor",
			Data:     map[string]interface{}{"zoneId": assignment.ZoneID},
		})
	})

	s.logger.Info("Assigned picker to zone", "pickerId", assignment.PickerID, "zoneId", assignment.ZoneID, "assignedBy", assignment.AssignedBy)
	return ToZoneAssignmentDTO(assignment), nil
}

// ReleasePickerFromZone releases the picker's ACTIVE assignment. A picker
// without one is left as is.
func (s *ZoneAssignmentService) ReleasePickerFromZone(ctx context.Context, cmd ReleasePickerCommand) ([]ZoneAssignmentDTO, error) {
	released, err := s.assignments.ReleaseActive(ctx, cmd.PickerID, cmd.Actor.UserID, s.now())
	if err != nil {
		s.logger.WithError(err).Error("Failed to release picker", "pickerId", cmd.PickerID)
		return nil, fmt.Errorf("failed to release picker: %w", err)
	}

	dtos := make([]ZoneAssignmentDTO, 0, len(released))
	for _, a := range released {
		a := a
		if s.metrics != nil {
			s.metrics.RecordZoneAssignment("released")
		}

		at := s.now()
		if a.ReleasedAt != nil {
			at = *a.ReleasedAt
		}
		entry := domain.NewAuditEntry(cmd.Actor, resourceTypeZoneAssignment, a.AssignmentID, "RELEASE", map[string]interface{}{
			"pickerId": a.PickerID,
			"zoneId":   a.ZoneID,
		}, at)
		s.sideEffects.Dispatch(ctx, SideEffectAudit, func(ctx context.Context) error {
			return s.audit.Log(ctx, entry)
		})
		s.broadcast(ctx, a, false)

		s.logger.Info("Released picker from zone", "pickerId", a.PickerID, "zoneId", a.ZoneID)
		dtos = append(dtos, *ToZoneAssignmentDTO(a))
	}

	return dtos, nil
}

func (s *ZoneAssignmentService) activeAssignment(ctx context.Context, pickerID string) (*domain.ZoneAssignment, error) {
	current, err := s.assignments.FindActiveByPicker(ctx, pickerID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get active assignment", "pickerId", pickerID)
		return nil, fmt.Errorf("failed to get active assignment: %w", err)
	}
	return current, nil
}

func (s *ZoneAssignmentService) alreadyAssigned(pickerID, zoneID string) error {
	return errors.ErrAlreadyAssigned(fmt.Sprintf("picker %s is already assigned to zone %s", pickerID, zoneID)).
		WithDetail("zoneId", zoneID).
		Wrap(domain.ErrAlreadyAssigned)
}

func (s *ZoneAssignmentService) broadcast(ctx context.Context, a *domain.ZoneAssignment, assigned bool) {
	b := domain.ZoneAssignmentBroadcast{ZoneID: a.ZoneID, PickerID: a.PickerID, Assigned: assigned}
	s.sideEffects.Dispatch(ctx, SideEffectBroadcast, func(ctx context.Context) error {
		return s.notifier.BroadcastZoneAssignment(ctx, b)
	})
}
