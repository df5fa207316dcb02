package application

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
	"github.com/wms-platform/fulfillment-scheduler/pkg/resilience"
)

var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func testLogger() *logging.Logger {
	return logging.New(&logging.Config{ServiceName: "test", Output: io.Discard})
}

func testDispatcher() *SideEffectDispatcher {
	return NewSideEffectDispatcher(testLogger(), nil, &SideEffectConfig{
		Timeout: time.Second,
		Retry: &resilience.RetryConfig{
			MaxAttempts:   2,
			InitialDelay:  time.Millisecond,
			MaxDelay:      time.Millisecond,
			BackoffFactor: 1,
		},
	})
}

func timePtr(t time.Time) *time.Time { return &t }

// memoryOrders applies OrderFilter the way the order store does
type memoryOrders struct {
	orders  []*domain.Order
	findErr error
}

func (r *memoryOrders) FindCandidates(ctx context.Context, f domain.OrderFilter) ([]*domain.Order, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}

	var out []*domain.Order
	for _, o := range r.orders {
		if len(f.Statuses) > 0 && !containsString(f.Statuses, o.Status) {
			continue
		}
		if f.CarrierCutoffBefore != nil && (o.CarrierCutoff == nil || o.CarrierCutoff.After(*f.CarrierCutoffBefore)) {
			continue
		}
		if len(f.Carriers) > 0 && !containsString(f.Carriers, o.Carrier) {
			continue
		}
		if len(f.Priorities) > 0 && !containsPriority(f.Priorities, o.Priority) {
			continue
		}
		if len(f.Zones) > 0 && !containsString(f.Zones, o.PrimaryZone) {
			continue
		}
		if f.RequiredShipBefore != nil && (o.RequiredShipDate == nil || o.RequiredShipDate.After(*f.RequiredShipBefore)) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *memoryOrders) FindByIDs(ctx context.Context, orderIDs []string) ([]*domain.Order, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}

	var out []*domain.Order
	for _, o := range r.orders {
		if containsString(orderIDs, o.OrderID) {
			out = append(out, o)
		}
	}
	return out, nil
}

// memoryWaves stores waves the way the wave repository does: callers get their
// own copies, Save is rejected when the stored wave moved past the caller's
// version, and events are drained on write
type memoryWaves struct {
	mu      sync.Mutex
	waves   map[string]*domain.Wave
	events  []domain.DomainEvent
	saveErr error
	findErr error
	saves   int
	// afterFind runs after FindByID hands out its copy
	afterFind func(waveID string)
}

func newMemoryWaves() *memoryWaves {
	return &memoryWaves{waves: make(map[string]*domain.Wave)}
}

func (r *memoryWaves) Create(ctx context.Context, wave *domain.Wave) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if _, exists := r.waves[wave.WaveID]; exists {
		return fmt.Errorf("duplicate wave %s", wave.WaveID)
	}
	wave.Version = 1
	r.store(wave)
	return nil
}

func (r *memoryWaves) Save(ctx context.Context, wave *domain.Wave) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	stored, ok := r.waves[wave.WaveID]
	if !ok || stored.Version != wave.Version {
		return fmt.Errorf("%w: %s", domain.ErrWaveConflict, wave.WaveID)
	}
	wave.Version++
	r.store(wave)
	return nil
}

func (r *memoryWaves) store(wave *domain.Wave) {
	r.saves++
	r.events = append(r.events, wave.GetDomainEvents()...)
	wave.ClearDomainEvents()
	r.waves[wave.WaveID] = cloneWave(wave)
}

// update edits the stored wave directly, bumping its version
func (r *memoryWaves) update(waveID string, edit func(*domain.Wave)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	edit(r.waves[waveID])
	r.waves[waveID].Version++
}

func (r *memoryWaves) FindByID(ctx context.Context, waveID string) (*domain.Wave, error) {
	r.mu.Lock()
	if r.findErr != nil {
		r.mu.Unlock()
		return nil, r.findErr
	}
	wave := cloneWave(r.waves[waveID])
	hook := r.afterFind
	r.mu.Unlock()

	if hook != nil {
		hook(waveID)
	}
	return wave, nil
}

func cloneWave(w *domain.Wave) *domain.Wave {
	if w == nil {
		return nil
	}
	c := *w
	c.OrderIDs = append([]string(nil), w.OrderIDs...)
	c.AssignedPickers = append([]string(nil), w.AssignedPickers...)
	c.DomainEvents = nil
	c.PickTasks = make([]*domain.PickTask, len(w.PickTasks))
	for i, t := range w.PickTasks {
		task := *t
		c.PickTasks[i] = &task
	}
	return &c
}

func (r *memoryWaves) FindByStatus(ctx context.Context, status domain.WaveStatus, limit int) ([]*domain.Wave, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}

	var out []*domain.Wave
	for _, w := range r.waves {
		if status == "" || w.Status == status {
			out = append(out, cloneWave(w))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryWaves) FindActiveByPicker(ctx context.Context, pickerID string) ([]*domain.Wave, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}

	var out []*domain.Wave
	for _, w := range r.waves {
		if w.Status.IsActive() && w.HasTasksFor(pickerID) {
			out = append(out, cloneWave(w))
		}
	}
	return out, nil
}

func (r *memoryWaves) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.EventType())
	}
	return types
}

// memoryTasks reads tasks out of memoryWaves
type memoryTasks struct {
	waves    *memoryWaves
	countErr error
	avgErr   error
	avg      time.Duration
}

func (r *memoryTasks) FindByID(ctx context.Context, taskID string) (*domain.PickTask, error) {
	r.waves.mu.Lock()
	defer r.waves.mu.Unlock()
	for _, w := range r.waves.waves {
		if t := w.Task(taskID); t != nil {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memoryTasks) CountByZone(ctx context.Context, zoneID string) (domain.TaskCounts, error) {
	if r.countErr != nil {
		return domain.TaskCounts{}, r.countErr
	}
	r.waves.mu.Lock()
	defer r.waves.mu.Unlock()

	var counts domain.TaskCounts
	for _, w := range r.waves.waves {
		for _, t := range w.PickTasks {
			if t.Zone != zoneID {
				continue
			}
			switch t.Status {
			case domain.TaskStatusPending:
				counts.Pending++
			case domain.TaskStatusInProgress:
				counts.InProgress++
			case domain.TaskStatusCompleted:
				counts.Completed++
			}
			counts.TotalItems += t.Quantity
		}
	}
	return counts, nil
}

func (r *memoryTasks) AverageDuration(ctx context.Context, zoneID string, sample int) (time.Duration, bool, error) {
	if r.avgErr != nil {
		return 0, false, r.avgErr
	}
	return r.avg, r.avg > 0, nil
}

// memoryZones is a fixed zone table
type memoryZones struct {
	zones   map[string]*domain.Zone
	findErr error
}

func newMemoryZones(ids ...string) *memoryZones {
	r := &memoryZones{zones: make(map[string]*domain.Zone)}
	for i, id := range ids {
		r.zones[id] = &domain.Zone{ZoneID: id, AisleStart: i*10 + 1, AisleEnd: i*10 + 10, LocationCount: 200}
	}
	return r
}

func (r *memoryZones) FindAll(ctx context.Context) ([]*domain.Zone, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	out := make([]*domain.Zone, 0, len(r.zones))
	for _, z := range r.zones {
		out = append(out, z)
	}
	return out, nil
}

func (r *memoryZones) FindByID(ctx context.Context, zoneID string) (*domain.Zone, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.zones[zoneID], nil
}

func (r *memoryZones) Upsert(ctx context.Context, zone *domain.Zone) error {
	r.zones[zone.ZoneID] = zone
	return nil
}

// memoryAssignments enforces one ACTIVE row per picker like the partial unique index
type memoryAssignments struct {
	mu        sync.Mutex
	rows      []*domain.ZoneAssignment
	insertErr error
	findErr   error
	countErr  error
	// beforeInsert runs inside Insert, before the uniqueness check
	beforeInsert func()
}

func (r *memoryAssignments) Insert(ctx context.Context, a *domain.ZoneAssignment) error {
	if r.beforeInsert != nil {
		r.beforeInsert()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	for _, row := range r.rows {
		if row.PickerID == a.PickerID && row.IsActive() {
			return domain.ErrAlreadyAssigned
		}
	}
	r.rows = append(r.rows, a)
	return nil
}

func (r *memoryAssignments) FindActiveByPicker(ctx context.Context, pickerID string) (*domain.ZoneAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, row := range r.rows {
		if row.PickerID == pickerID && row.IsActive() {
			return row, nil
		}
	}
	return nil, nil
}

func (r *memoryAssignments) ReleaseActive(ctx context.Context, pickerID, releasedBy string, at time.Time) ([]*domain.ZoneAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var released []*domain.ZoneAssignment
	for _, row := range r.rows {
		if row.PickerID == pickerID && row.IsActive() {
			row.Status = domain.AssignmentStatusReleased
			row.ReleasedAt = &at
			row.ReleasedBy = releasedBy
			released = append(released, row)
		}
	}
	return released, nil
}

func (r *memoryAssignments) CountActiveByZone(ctx context.Context, zoneID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return 0, r.countErr
	}
	n := 0
	for _, row := range r.rows {
		if row.ZoneID == zoneID && row.IsActive() {
			n++
		}
	}
	return n, nil
}

func (r *memoryAssignments) add(pickerID, zoneID string) {
	r.rows = append(r.rows, domain.NewZoneAssignment("seed-"+pickerID, pickerID, zoneID, "seed", testNow))
}

func (r *memoryAssignments) active() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string)
	for _, row := range r.rows {
		if row.IsActive() {
			out[row.PickerID] = row.ZoneID
		}
	}
	return out
}

// staticRoster returns a fixed picker list
type staticRoster struct {
	pickers []string
	err     error
}

func (r *staticRoster) ListAvailablePickers(ctx context.Context) ([]string, error) {
	return r.pickers, r.err
}

// MockRouteEstimator is a testify mock of domain.RouteEstimator
type MockRouteEstimator struct {
	mock.Mock
}

func (m *MockRouteEstimator) OptimizeRoute(ctx context.Context, tasks []*domain.PickTask) (*domain.RouteEstimate, error) {
	args := m.Called(ctx, tasks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RouteEstimate), args.Error(1)
}

// passThroughRoute keeps the extraction order and charges a minute per task
func passThroughRoute(tasks []*domain.PickTask) *domain.RouteEstimate {
	return &domain.RouteEstimate{
		Tasks:         tasks,
		EstimatedTime: time.Duration(len(tasks)) * time.Minute,
		TotalDistance: float64(len(tasks)) * 12.5,
	}
}

// MockAuditLog is a testify mock of domain.AuditLog
type MockAuditLog struct {
	mock.Mock
}

func (m *MockAuditLog) Log(ctx context.Context, entry domain.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockNotificationGateway is a testify mock of domain.NotificationGateway
type MockNotificationGateway struct {
	mock.Mock
}

func (m *MockNotificationGateway) NotifyUser(ctx context.Context, userID string, n domain.Notification) error {
	args := m.Called(ctx, userID, n)
	return args.Error(0)
}

func (m *MockNotificationGateway) NotifyAll(ctx context.Context, userIDs []string, n domain.Notification) error {
	args := m.Called(ctx, userIDs, n)
	return args.Error(0)
}

func (m *MockNotificationGateway) BroadcastGlobalNotification(ctx context.Context, n domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationGateway) BroadcastZoneAssignment(ctx context.Context, b domain.ZoneAssignmentBroadcast) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

// MockOrderWorkflowSignaler is a testify mock of domain.OrderWorkflowSignaler
type MockOrderWorkflowSignaler struct {
	mock.Mock
}

func (m *MockOrderWorkflowSignaler) NotifyWaveReleased(ctx context.Context, orderID, waveID string, at time.Time) error {
	args := m.Called(ctx, orderID, waveID, at)
	return args.Error(0)
}

// relaxedNotifier accepts every notification
func relaxedNotifier() *MockNotificationGateway {
	n := &MockNotificationGateway{}
	n.On("NotifyUser", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	n.On("NotifyAll", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	n.On("BroadcastGlobalNotification", mock.Anything, mock.Anything).Return(nil).Maybe()
	n.On("BroadcastZoneAssignment", mock.Anything, mock.Anything).Return(nil).Maybe()
	return n
}

func relaxedAudit() *MockAuditLog {
	a := &MockAuditLog{}
	a.On("Log", mock.Anything, mock.Anything).Return(nil).Maybe()
	return a
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func containsPriority(values []domain.Priority, v domain.Priority) bool {
	for _, p := range values {
		if p == v {
			return true
		}
	}
	return false
}

func order(id string, priority domain.Priority, createdAt time.Time, lines ...domain.OrderLine) *domain.Order {
	return &domain.Order{
		OrderID:     id,
		Priority:    priority,
		Carrier:     "UPS",
		PrimaryZone: "A",
		Status:      domain.OrderStatusPending,
		Lines:       lines,
		CreatedAt:   createdAt,
	}
}

func line(sku string, qty int, bin string) domain.OrderLine {
	return domain.OrderLine{SKU: sku, Quantity: qty, BinLocation: bin}
}
