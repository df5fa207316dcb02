package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
	"github.com/wms-platform/fulfillment-scheduler/pkg/errors"
	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
	"github.com/wms-platform/fulfillment-scheduler/pkg/metrics"
)

// Wave listing limits
const (
	DefaultWaveListLimit = 50
	MaxWaveListLimit     = 200
)

const resourceTypeWave = "wave"

// maxWaveUpdateAttempts bounds reload-and-reapply after a concurrent write
const maxWaveUpdateAttempts = 3

// WaveServiceConfig configures wave planning
type WaveServiceConfig struct {
	DefaultTasksPerPicker int
}

// WaveServiceDeps are the collaborators of WaveService. Signaler and Metrics may be nil.
type WaveServiceDeps struct {
	Waves       domain.WaveRepository
	Tasks       domain.PickTaskRepository
	Roster      domain.PickerRoster
	Selector    *OrderSelector
	Extractor   *TaskExtractor
	Routes      domain.RouteEstimator
	Assignment  *PickerAssignmentStrategy
	Audit       domain.AuditLog
	Notifier    domain.NotificationGateway
	Signaler    domain.OrderWorkflowSignaler
	SideEffects *SideEffectDispatcher
	Metrics     *metrics.Metrics
	Logger      *logging.Logger
}

// WaveService owns the wave lifecycle: plan, release, progress and complete
type WaveService struct {
	waves       domain.WaveRepository
	tasks       domain.PickTaskRepository
	roster      domain.PickerRoster
	selector    *OrderSelector
	extractor   *TaskExtractor
	routes      domain.RouteEstimator
	assignment  *PickerAssignmentStrategy
	audit       domain.AuditLog
	notifier    domain.NotificationGateway
	signaler    domain.OrderWorkflowSignaler
	sideEffects *SideEffectDispatcher
	metrics     *metrics.Metrics
	logger      *logging.Logger
	config      WaveServiceConfig
	now         func() time.Time
	newWaveID   func() string
}

// NewWaveService creates a new WaveService
func NewWaveService(deps WaveServiceDeps, config WaveServiceConfig) *WaveService {
	if config.DefaultTasksPerPicker <= 0 {
		config.DefaultTasksPerPicker = domain.DefaultTasksPerPicker
	}

	return &WaveService{
		waves:       deps.Waves,
		tasks:       deps.Tasks,
		roster:      deps.Roster,
		selector:    deps.Selector,
		extractor:   deps.Extractor,
		routes:      deps.Routes,
		assignment:  deps.Assignment,
		audit:       deps.Audit,
		notifier:    deps.Notifier,
		signaler:    deps.Signaler,
		sideEffects: deps.SideEffects,
		metrics:     deps.Metrics,
		logger:      deps.Logger.WithComponent("wave-service"),
		config:      config,
		now:         time.Now,
		newWaveID:   generateWaveID,
	}
}

// CreateWave selects orders, extracts and routes their tasks, sizes the picker
// crew and persists the PLANNED wave with its tasks
func (s *WaveService) CreateWave(ctx context.Context, cmd CreateWaveCommand) (*WaveDTO, error) {
	criteria := cmd.Criteria.WithDefaults(s.config.DefaultTasksPerPicker)
	if err := criteria.Validate(); err != nil {
		return nil, toAppError(err)
	}

	orderIDs, err := s.selector.SelectOrders(ctx, criteria)
	if err != nil {
		return nil, s.wrapStoreError(err, "failed to select orders")
	}

	tasks, err := s.extractor.ExtractTasks(ctx, orderIDs)
	if err != nil {
		return nil, s.wrapStoreError(err, "failed to extract pick tasks")
	}

	route := &domain.RouteEstimate{Tasks: tasks}
	if len(tasks) > 0 {
		route, err = s.routes.OptimizeRoute(ctx, tasks)
		if err != nil {
			s.logger.WithError(err).Error("Failed to estimate route", "taskCount", len(tasks))
			return nil, fmt.Errorf("failed to estimate route: %w", err)
		}
	}

	roster, err := s.roster.ListAvailablePickers(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list available pickers")
		return nil, fmt.Errorf("failed to list available pickers: %w", err)
	}
	pickers := s.assignment.SelectPickers(len(route.Tasks), criteria.TasksPerPicker, roster)

	wave, err := domain.NewWave(domain.WavePlan{
		WaveID:            s.newWaveID(),
		Criteria:          criteria,
		OrderIDs:          orderIDs,
		Tasks:             route.Tasks,
		EstimatedTime:     route.EstimatedTime,
		EstimatedDistance: route.TotalDistance,
		AssignedPickers:   pickers,
		CreatedBy:         cmd.Actor.UserID,
		CreatedAt:         s.now(),
	})
	if err != nil {
		return nil, toAppError(err)
	}

	if err := s.waves.Create(ctx, wave); err != nil {
		s.logger.WithError(err).Error("Failed to create wave", "waveId", wave.WaveID)
		return nil, fmt.Errorf("failed to create wave: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordWaveEvent("created")
		s.metrics.RecordWaveTasks(len(wave.PickTasks))
	}

	s.auditWave(ctx, cmd.Actor, wave, "CREATE", map[string]interface{}{
		"strategy":   string(criteria.Strategy),
		"orderCount": len(wave.OrderIDs),
		"taskCount":  len(wave.PickTasks),
	})

	announcement := domain.Notification{
		Title:    "New wave planned",
		Message:  fmt.Sprintf("%s with %d orders and %d pick tasks", wave.Name, len(wave.OrderIDs), len(wave.PickTasks)),
		Category: "wave",
		Data:     map[string]interface{}{"waveId": wave.WaveID},
	}
	s.sideEffects.Dispatch(ctx, SideEffectBroadcast, func(ctx context.Context) error {
		return s.notifier.BroadcastGlobalNotification(ctx, announcement)
	})
	if cmd.Actor.UserID != "" {
		s.sideEffects.Dispatch(ctx, SideEffectNotify, func(ctx context.Context) error {
			return s.notifier.NotifyUser(ctx, cmd.Actor.UserID, announcement)
		})
	}

	s.logger.Info("Created wave",
		"waveId", wave.WaveID,
		"strategy", criteria.Strategy,
		"orderCount", len(wave.OrderIDs),
		"taskCount", len(wave.PickTasks),
		"pickers", len(wave.AssignedPickers),
	)
	return ToWaveDTO(wave), nil
}

// ReleaseWave releases a PLANNED wave and distributes its tasks across the assigned pickers
func (s *WaveService) ReleaseWave(ctx context.Context, cmd ReleaseWaveCommand) (*WaveDTO, error) {
	now := s.now()
	wave, err := s.updateWave(ctx, cmd.WaveID, "release wave", func(wave *domain.Wave) (bool, error) {
		assignments := s.assignment.DistributeTasks(wave.PickTasks, wave.AssignedPickers)
		return true, wave.Release(now, assignments)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordWaveEvent("released")
	}

	s.auditWave(ctx, cmd.Actor, wave, "RELEASE", map[string]interface{}{
		"assignedPickers": wave.AssignedPickers,
		"taskCount":       len(wave.PickTasks),
	})

	if len(wave.AssignedPickers) > 0 {
		notification := domain.Notification{
			Title:    "Wave released",
			Message:  fmt.Sprintf("%s is ready for picking", wave.Name),
			Category: "wave",
			Data:     map[string]interface{}{"waveId": wave.WaveID},
		}
		s.notifyAll(ctx, wave.AssignedPickers, notification)
	}

	if s.signaler != nil {
		for _, orderID := range wave.OrderIDs {
			orderID, waveID := orderID, wave.WaveID
			s.sideEffects.Dispatch(ctx, SideEffectSignal, func(ctx context.Context) error {
				return s.signaler.NotifyWaveReleased(ctx, orderID, waveID, now)
			})
		}
	}

	s.logger.Info("Released wave", "waveId", wave.WaveID, "pickers", len(wave.AssignedPickers))
	return ToWaveDTO(wave), nil
}

// GetWaveStatus returns the progress summary of a wave, or nil when it does not exist
func (s *WaveService) GetWaveStatus(ctx context.Context, waveID string) (*WaveStatusDTO, error) {
	wave, err := s.waves.FindByID(ctx, waveID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get wave", "waveId", waveID)
		return nil, fmt.Errorf("failed to get wave: %w", err)
	}

	return ToWaveStatusDTO(wave), nil
}

// CompleteWave completes a wave from any non-terminal state. Completing a
// completed wave returns it unchanged.
func (s *WaveService) CompleteWave(ctx context.Context, cmd CompleteWaveCommand) (*WaveDTO, error) {
	completed := false
	wave, err := s.updateWave(ctx, cmd.WaveID, "complete wave", func(wave *domain.Wave) (bool, error) {
		completed = wave.Status != domain.WaveStatusCompleted
		if completed {
			wave.Complete(s.now())
		}
		return completed, nil
	})
	if err != nil {
		return nil, err
	}
	if !completed {
		return ToWaveDTO(wave), nil
	}

	if s.metrics != nil {
		s.metrics.RecordWaveEvent("completed")
	}

	progress := wave.Progress()
	s.auditWave(ctx, cmd.Actor, wave, "COMPLETE", map[string]interface{}{
		"completedTasks": progress.Completed,
		"totalTasks":     progress.Total,
	})

	recipients := append([]string(nil), wave.AssignedPickers...)
	if wave.CreatedBy != "" && wave.CreatedBy != domain.SystemUserID {
		recipients = append(recipients, wave.CreatedBy)
	}
	if len(recipients) > 0 {
		notification := domain.Notification{
			Title:    "Wave completed",
			Message:  fmt.Sprintf("%s completed with %d of %d tasks picked", wave.Name, progress.Completed, progress.Total),
			Category: "wave",
			Data:     map[string]interface{}{"waveId": wave.WaveID},
		}
		s.notifyAll(ctx, recipients, notification)
	}

	s.logger.Info("Completed wave", "waveId", wave.WaveID, "completedTasks", progress.Completed, "totalTasks", progress.Total)
	return ToWaveDTO(wave), nil
}

// GetActiveWavesForPicker lists RELEASED and IN_PROGRESS waves with tasks assigned to the picker
func (s *WaveService) GetActiveWavesForPicker(ctx context.Context, pickerID string) ([]WaveListDTO, error) {
	waves, err := s.waves.FindActiveByPicker(ctx, pickerID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get active waves", "pickerId", pickerID)
		return nil, fmt.Errorf("failed to get active waves: %w", err)
	}

	active := make([]*domain.Wave, 0, len(waves))
	for _, w := range waves {
		if w.Status.IsActive() && w.HasTasksFor(pickerID) {
			active = append(active, w)
		}
	}

	return ToWaveListDTOs(active), nil
}

// ListWaves lists waves newest first, optionally filtered by status
func (s *WaveService) ListWaves(ctx context.Context, query ListWavesQuery) ([]WaveListDTO, error) {
	status := domain.WaveStatus(strings.ToUpper(query.Status))
	if status != "" && !status.IsValid() {
		return nil, errors.ErrValidation(fmt.Sprintf("unknown wave status %q", query.Status))
	}

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultWaveListLimit
	}
	if limit > MaxWaveListLimit {
		limit = MaxWaveListLimit
	}

	waves, err := s.waves.FindByStatus(ctx, status, limit)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list waves", "status", status)
		return nil, fmt.Errorf("failed to list waves: %w", err)
	}

	return ToWaveListDTOs(waves), nil
}

// StartPickTask starts a task; the first started task moves its wave to IN_PROGRESS
func (s *WaveService) StartPickTask(ctx context.Context, cmd StartPickTaskCommand) (*PickTaskDTO, error) {
	waveID, err := s.waveIDForTask(ctx, cmd.TaskID)
	if err != nil {
		return nil, err
	}

	var before domain.WaveStatus
	wave, err := s.updateWave(ctx, waveID, "start pick task", func(wave *domain.Wave) (bool, error) {
		before = wave.Status
		return true, wave.StartTask(cmd.TaskID, cmd.PickerID, s.now())
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil && before != wave.Status {
		s.metrics.RecordWaveEvent("started")
	}

	task := wave.Task(cmd.TaskID)
	s.logger.Info("Started pick task", "taskId", task.TaskID, "waveId", wave.WaveID, "pickerId", task.AssignedPicker)
	return ToPickTaskDTO(task), nil
}

// CompletePickTask completes an in-progress task
func (s *WaveService) CompletePickTask(ctx context.Context, cmd CompletePickTaskCommand) (*PickTaskDTO, error) {
	waveID, err := s.waveIDForTask(ctx, cmd.TaskID)
	if err != nil {
		return nil, err
	}

	wave, err := s.updateWave(ctx, waveID, "complete pick task", func(wave *domain.Wave) (bool, error) {
		return true, wave.CompleteTask(cmd.TaskID, s.now())
	})
	if err != nil {
		return nil, err
	}

	task := wave.Task(cmd.TaskID)
	s.logger.Info("Completed pick task", "taskId", task.TaskID, "waveId", wave.WaveID, "duration", task.Duration())
	return ToPickTaskDTO(task), nil
}

func (s *WaveService) loadWave(ctx context.Context, waveID string) (*domain.Wave, error) {
	wave, err := s.waves.FindByID(ctx, waveID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get wave", "waveId", waveID)
		return nil, fmt.Errorf("failed to get wave: %w", err)
	}

	if wave == nil {
		return nil, errors.ErrNotFoundWithID("wave", waveID).Wrap(domain.ErrWaveNotFound)
	}
	return wave, nil
}

func (s *WaveService) waveIDForTask(ctx context.Context, taskID string) (string, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get pick task", "taskId", taskID)
		return "", fmt.Errorf("failed to get pick task: %w", err)
	}

	if task == nil || task.WaveID == "" {
		return "", errors.ErrNotFoundWithID("pick task", taskID).Wrap(domain.ErrTaskNotFound)
	}
	return task.WaveID, nil
}

// updateWave loads the wave, applies mutate and saves it. When another request
// saved the wave in between, the wave is reloaded and mutate runs again on the
// fresh copy, so its guards see the current state. mutate reports false when
// there is nothing to save.
func (s *WaveService) updateWave(ctx context.Context, waveID, op string, mutate func(*domain.Wave) (bool, error)) (*domain.Wave, error) {
	for attempt := 1; ; attempt++ {
		wave, err := s.loadWave(ctx, waveID)
		if err != nil {
			return nil, err
		}

		changed, err := mutate(wave)
		if err != nil {
			return nil, toAppError(err)
		}
		if !changed {
			return wave, nil
		}

		err = s.waves.Save(ctx, wave)
		if err == nil {
			return wave, nil
		}

		if stderrors.Is(err, domain.ErrWaveConflict) {
			if attempt < maxWaveUpdateAttempts {
				s.logger.Warn("Wave changed concurrently, reloading", "waveId", waveID, "operation", op, "attempt", attempt)
				continue
			}
			s.logger.Warn("Gave up on concurrently updated wave", "waveId", waveID, "operation", op)
			return nil, toAppError(err)
		}

		s.logger.WithError(err).Error("Failed to "+op, "waveId", waveID)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
}

func (s *WaveService) auditWave(ctx context.Context, actor domain.Actor, wave *domain.Wave, action string, details map[string]interface{}) {
	entry := domain.NewAuditEntry(actor, resourceTypeWave, wave.WaveID, action, details, s.now())
	s.sideEffects.Dispatch(ctx, SideEffectAudit, func(ctx context.Context) error {
		return s.audit.Log(ctx, entry)
	})
}

// notifyAll fans a notification out in the background. A retry only goes to
// the users the previous attempt did not reach.
func (s *WaveService) notifyAll(ctx context.Context, userIDs []string, n domain.Notification) {
	pending := append([]string(nil), userIDs...)
	s.sideEffects.Dispatch(ctx, SideEffectNotify, func(ctx context.Context) error {
		err := s.notifier.NotifyAll(ctx, pending, n)
		var undelivered *domain.UndeliveredError
		if stderrors.As(err, &undelivered) {
			pending = undelivered.UserIDs
		}
		return err
	})
}

// wrapStoreError passes domain failures through as API errors and wraps store failures
func (s *WaveService) wrapStoreError(err error, msg string) error {
	if isDomainError(err) {
		return toAppError(err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func generateWaveID() string {
	return "WAVE-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
}
