package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-scheduler/internal/application"
	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
	"github.com/wms-platform/fulfillment-scheduler/pkg/errors"
	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
	"github.com/wms-platform/fulfillment-scheduler/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubWaves struct {
	create      func(application.CreateWaveCommand) (*application.WaveDTO, error)
	release     func(application.ReleaseWaveCommand) (*application.WaveDTO, error)
	status      func(string) (*application.WaveStatusDTO, error)
	complete    func(application.CompleteWaveCommand) (*application.WaveDTO, error)
	forPicker   func(string) ([]application.WaveListDTO, error)
	list        func(application.ListWavesQuery) ([]application.WaveListDTO, error)
	startTask   func(application.StartPickTaskCommand) (*application.PickTaskDTO, error)
	completeTsk func(application.CompletePickTaskCommand) (*application.PickTaskDTO, error)
}

func (s *stubWaves) CreateWave(_ context.Context, cmd application.CreateWaveCommand) (*application.WaveDTO, error) {
	return s.create(cmd)
}

func (s *stubWaves) ReleaseWave(_ context.Context, cmd application.ReleaseWaveCommand) (*application.WaveDTO, error) {
	return s.release(cmd)
}

func (s *stubWaves) GetWaveStatus(_ context.Context, waveID string) (*application.WaveStatusDTO, error) {
	return s.status(waveID)
}

func (s *stubWaves) CompleteWave(_ context.Context, cmd application.CompleteWaveCommand) (*application.WaveDTO, error) {
	return s.complete(cmd)
}

func (s *stubWaves) GetActiveWavesForPicker(_ context.Context, pickerID string) ([]application.WaveListDTO, error) {
	return s.forPicker(pickerID)
}

func (s *stubWaves) ListWaves(_ context.Context, q application.ListWavesQuery) ([]application.WaveListDTO, error) {
	return s.list(q)
}

func (s *stubWaves) StartPickTask(_ context.Context, cmd application.StartPickTaskCommand) (*application.PickTaskDTO, error) {
	return s.startTask(cmd)
}

func (s *stubWaves) CompletePickTask(_ context.Context, cmd application.CompletePickTaskCommand) (*application.PickTaskDTO, error) {
	return s.completeTsk(cmd)
}

type stubZones struct {
	zones func(application.GetZonesQuery) ([]application.ZoneDTO, error)
	stats func(string) *application.ZoneStatsDTO
}

func (s *stubZones) GetZones(_ context.Context, q application.GetZonesQuery) ([]application.ZoneDTO, error) {
	return s.zones(q)
}

func (s *stubZones) GetZoneStats(_ context.Context, zoneID string) *application.ZoneStatsDTO {
	return s.stats(zoneID)
}

type stubAssignments struct {
	assign  func(application.AssignPickerCommand) (*application.ZoneAssignmentDTO, error)
	release func(application.ReleasePickerCommand) ([]application.ZoneAssignmentDTO, error)
}

func (s *stubAssignments) AssignPickerToZone(_ context.Context, cmd application.AssignPickerCommand) (*application.ZoneAssignmentDTO, error) {
	return s.assign(cmd)
}

func (s *stubAssignments) ReleasePickerFromZone(_ context.Context, cmd application.ReleasePickerCommand) ([]application.ZoneAssignmentDTO, error) {
	return s.release(cmd)
}

type stubRebalancer struct {
	run func(domain.Actor) (*application.RebalanceResultDTO, error)
}

func (s *stubRebalancer) RebalancePickers(_ context.Context, actor domain.Actor) (*application.RebalanceResultDTO, error) {
	return s.run(actor)
}

type stubScheduler struct {
	running  bool
	startErr error
	stops    int
}

func (s *stubScheduler) Start(context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.running = true
	return nil
}

func (s *stubScheduler) Stop() {
	s.stops++
	s.running = false
}

func (s *stubScheduler) IsRunning() bool { return s.running }

func testLogger() *logging.Logger {
	cfg := logging.DefaultConfig("test")
	cfg.Output = io.Discard
	return logging.New(cfg)
}

func newTestRouter(svc apiServices, scheduler schedulerAPI) *gin.Engine {
	logger := testLogger()
	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig("test", logger.Logger))
	router.NoRoute(middleware.NoRoute())

	api := router.Group("/api/v1")
	registerRoutes(api, svc, logger)
	registerSchedulerRoutes(api, scheduler, context.Background(), logger)
	return router
}

func do(router *gin.Engine, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body middleware.APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

const testWaveID = "WAVE-0123ABCD"

func TestCreateWave(t *testing.T) {
	var got application.CreateWaveCommand
	waves := &stubWaves{create: func(cmd application.CreateWaveCommand) (*application.WaveDTO, error) {
		got = cmd
		return &application.WaveDTO{WaveID: testWaveID, Status: "PLANNED"}, nil
	}}
	router := newTestRouter(apiServices{waves: waves}, nil)

	w := do(router, http.MethodPost, "/api/v1/waves", map[string]interface{}{
		"strategy":         "PRIORITY",
		"priorities":       []string{"HIGH", "URGENT"},
		"zones":            []string{"A"},
		"maxOrdersPerWave": 25,
	}, middleware.HeaderUserID, "supervisor-1")

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, domain.StrategyPriority, got.Criteria.Strategy)
	assert.Equal(t, []domain.Priority{domain.PriorityHigh, domain.PriorityUrgent}, got.Criteria.Priorities)
	assert.Equal(t, []string{"A"}, got.Criteria.Zones)
	assert.Equal(t, 25, got.Criteria.MaxOrdersPerWave)
	assert.Equal(t, "supervisor-1", got.Actor.UserID)

	var dto application.WaveDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dto))
	assert.Equal(t, testWaveID, dto.WaveID)
}

func TestCreateWave_Validation(t *testing.T) {
	called := false
	waves := &stubWaves{create: func(application.CreateWaveCommand) (*application.WaveDTO, error) {
		called = true
		return nil, nil
	}}
	router := newTestRouter(apiServices{waves: waves}, nil)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing strategy", map[string]interface{}{}},
		{"unknown strategy", map[string]interface{}{"strategy": "RANDOM"}},
		{"unknown priority", map[string]interface{}{"strategy": "PRIORITY", "priorities": []string{"CRITICAL"}}},
		{"order cap too large", map[string]interface{}{"strategy": "BALANCED", "maxOrdersPerWave": 501}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/api/v1/waves", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, errors.CodeValidationError, errorCode(t, w))
		})
	}
	assert.False(t, called)
}

func TestCreateWave_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"no matching orders", errors.ErrNoMatchingWork("no orders match").Wrap(domain.ErrNoMatchingOrders), http.StatusUnprocessableEntity, errors.CodeNoMatchingWork},
		{"invalid criteria", errors.ErrValidation("carriers required"), http.StatusBadRequest, errors.CodeValidationError},
		{"store failure", fmt.Errorf("failed to save wave: %w", io.ErrUnexpectedEOF), http.StatusInternalServerError, errors.CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			waves := &stubWaves{create: func(application.CreateWaveCommand) (*application.WaveDTO, error) {
				return nil, tt.err
			}}
			router := newTestRouter(apiServices{waves: waves}, nil)

			w := do(router, http.MethodPost, "/api/v1/waves", map[string]interface{}{"strategy": "BALANCED"})
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestGetWaveStatus(t *testing.T) {
	waves := &stubWaves{status: func(id string) (*application.WaveStatusDTO, error) {
		if id == testWaveID {
			return &application.WaveStatusDTO{WaveID: id, TotalTasks: 4, CompletedTasks: 1, Progress: 25}, nil
		}
		return nil, nil
	}}
	router := newTestRouter(apiServices{waves: waves}, nil)

	t.Run("found", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/v1/waves/"+testWaveID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var dto application.WaveStatusDTO
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dto))
		assert.Equal(t, 25.0, dto.Progress)
	})

	t.Run("absent", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/v1/waves/WAVE-FFFFFFFF", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, errors.CodeNotFound, errorCode(t, w))
	})

	t.Run("malformed id", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/v1/waves/not-a-wave", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReleaseWave(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"released", nil, http.StatusOK},
		{"unknown wave", errors.ErrNotFound("wave").Wrap(domain.ErrWaveNotFound), http.StatusNotFound},
		{"already released", errors.ErrInvalidState("wave is RELEASED").Wrap(domain.ErrInvalidWaveState), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got application.ReleaseWaveCommand
			waves := &stubWaves{release: func(cmd application.ReleaseWaveCommand) (*application.WaveDTO, error) {
				got = cmd
				if tt.err != nil {
					return nil, tt.err
				}
				return &application.WaveDTO{WaveID: cmd.WaveID, Status: "RELEASED"}, nil
			}}
			router := newTestRouter(apiServices{waves: waves}, nil)

			w := do(router, http.MethodPost, "/api/v1/waves/"+testWaveID+"/release", nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, testWaveID, got.WaveID)
			assert.Equal(t, middleware.SystemUserID, got.Actor.UserID)
		})
	}
}

func TestCompleteWave(t *testing.T) {
	waves := &stubWaves{complete: func(cmd application.CompleteWaveCommand) (*application.WaveDTO, error) {
		return &application.WaveDTO{WaveID: cmd.WaveID, Status: "COMPLETED"}, nil
	}}
	router := newTestRouter(apiServices{waves: waves}, nil)

	w := do(router, http.MethodPost, "/api/v1/waves/"+testWaveID+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var dto application.WaveDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dto))
	assert.Equal(t, "COMPLETED", dto.Status)
}

func TestListWaves(t *testing.T) {
	var got application.ListWavesQuery
	waves := &stubWaves{list: func(q application.ListWavesQuery) ([]application.WaveListDTO, error) {
		got = q
		return []application.WaveListDTO{{WaveID: testWaveID}}, nil
	}}
	router := newTestRouter(apiServices{waves: waves}, nil)

	w := do(router, http.MethodGet, "/api/v1/waves?status=released&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "released", got.Status)
	assert.Equal(t, 10, got.Limit)

	w = do(router, http.MethodGet, "/api/v1/waves?limit=1000", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPickerWaves(t *testing.T) {
	waves := &stubWaves{forPicker: func(pickerID string) ([]application.WaveListDTO, error) {
		assert.Equal(t, "P1", pickerID)
		return []application.WaveListDTO{{WaveID: testWaveID, AssignedPickers: []string{"P1"}}}, nil
	}}
	router := newTestRouter(apiServices{waves: waves}, nil)

	w := do(router, http.MethodGet, "/api/v1/pickers/P1/waves", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []application.WaveListDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, testWaveID, list[0].WaveID)
}

func TestStartTask(t *testing.T) {
	var got application.StartPickTaskCommand
	waves := &stubWaves{startTask: func(cmd application.StartPickTaskCommand) (*application.PickTaskDTO, error) {
		got = cmd
		return &application.PickTaskDTO{TaskID: cmd.TaskID, Status: "IN_PROGRESS", AssignedPicker: cmd.PickerID}, nil
	}}
	router := newTestRouter(apiServices{waves: waves}, nil)

	t.Run("with picker", func(t *testing.T) {
		w := do(router, http.MethodPost, "/api/v1/tasks/"+testWaveID+"-T001/start", map[string]string{"pickerId": "P2"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, testWaveID+"-T001", got.TaskID)
		assert.Equal(t, "P2", got.PickerID)
	})

	t.Run("without body", func(t *testing.T) {
		w := do(router, http.MethodPost, "/api/v1/tasks/"+testWaveID+"-T002/start", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, got.PickerID)
	})

	t.Run("invalid picker", func(t *testing.T) {
		w := do(router, http.MethodPost, "/api/v1/tasks/"+testWaveID+"-T003/start", map[string]string{"pickerId": "!bad"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCompleteTask_InvalidState(t *testing.T) {
	waves := &stubWaves{completeTsk: func(application.CompletePickTaskCommand) (*application.PickTaskDTO, error) {
		return nil, errors.ErrInvalidState("task is PENDING").Wrap(domain.ErrInvalidTaskState)
	}}
	router := newTestRouter(apiServices{waves: waves}, nil)

	w := do(router, http.MethodPost, "/api/v1/tasks/"+testWaveID+"-T001/complete", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, errors.CodeInvalidState, errorCode(t, w))
}

func TestZones(t *testing.T) {
	var includeStats bool
	zones := &stubZones{
		zones: func(q application.GetZonesQuery) ([]application.ZoneDTO, error) {
			includeStats = q.IncludeStats
			return []application.ZoneDTO{{ZoneID: "A"}}, nil
		},
		stats: func(zoneID string) *application.ZoneStatsDTO {
			return &application.ZoneStatsDTO{ZoneID: zoneID, PendingTasks: 7}
		},
	}
	router := newTestRouter(apiServices{zones: zones}, nil)

	w := do(router, http.MethodGet, "/api/v1/zones?includeStats=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, includeStats)

	w = do(router, http.MethodGet, "/api/v1/zones/B/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats application.ZoneStatsDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, "B", stats.ZoneID)
	assert.Equal(t, 7, stats.PendingTasks)
}

func TestAssignPicker(t *testing.T) {
	tests := []struct {
		name   string
		body   interface{}
		err    error
		status int
	}{
		{"assigned", map[string]string{"pickerId": "P1"}, nil, http.StatusOK},
		{"missing picker", map[string]string{}, nil, http.StatusBadRequest},
		{"unknown zone", map[string]string{"pickerId": "P1"}, errors.ErrNotFound("zone").Wrap(domain.ErrZoneNotFound), http.StatusNotFound},
		{"held elsewhere", map[string]string{"pickerId": "P1"}, errors.ErrAlreadyAssigned("picker P1 is assigned to zone B").Wrap(domain.ErrAlreadyAssigned), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assignments := &stubAssignments{assign: func(cmd application.AssignPickerCommand) (*application.ZoneAssignmentDTO, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return &application.ZoneAssignmentDTO{PickerID: cmd.PickerID, ZoneID: cmd.ZoneID, Status: "ACTIVE"}, nil
			}}
			router := newTestRouter(apiServices{assignments: assignments}, nil)

			w := do(router, http.MethodPost, "/api/v1/zones/A/pickers", tt.body)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestReleasePicker(t *testing.T) {
	assignments := &stubAssignments{release: func(cmd application.ReleasePickerCommand) ([]application.ZoneAssignmentDTO, error) {
		return []application.ZoneAssignmentDTO{{PickerID: cmd.PickerID, ZoneID: "A", Status: "RELEASED"}}, nil
	}}
	router := newTestRouter(apiServices{assignments: assignments}, nil)

	w := do(router, http.MethodDelete, "/api/v1/pickers/P1/zone", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Released []application.ZoneAssignmentDTO `json:"released"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Released, 1)
	assert.Equal(t, "RELEASED", body.Released[0].Status)
}

func TestRebalance(t *testing.T) {
	var actor domain.Actor
	rebalancer := &stubRebalancer{run: func(a domain.Actor) (*application.RebalanceResultDTO, error) {
		actor = a
		return &application.RebalanceResultDTO{ZonesRebalanced: 1, TotalPickers: 2}, nil
	}}
	router := newTestRouter(apiServices{rebalancer: rebalancer}, nil)

	w := do(router, http.MethodPost, "/api/v1/pickers/rebalance", nil, middleware.HeaderUserID, "lead-3")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "lead-3", actor.UserID)

	var result application.RebalanceResultDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 2, result.TotalPickers)
}

func TestSchedulerRoutes(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		router := newTestRouter(apiServices{}, nil)

		w := do(router, http.MethodGet, "/api/v1/scheduler/rebalance/status", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"enabled":false`)

		w = do(router, http.MethodPost, "/api/v1/scheduler/rebalance/start", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("start and stop", func(t *testing.T) {
		scheduler := &stubScheduler{}
		router := newTestRouter(apiServices{}, scheduler)

		w := do(router, http.MethodPost, "/api/v1/scheduler/rebalance/start", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, scheduler.running)

		w = do(router, http.MethodGet, "/api/v1/scheduler/rebalance/status", nil)
		assert.Contains(t, w.Body.String(), `"running":true`)

		w = do(router, http.MethodPost, "/api/v1/scheduler/rebalance/stop", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, scheduler.stops)
	})

	t.Run("start failure", func(t *testing.T) {
		router := newTestRouter(apiServices{}, &stubScheduler{startErr: fmt.Errorf("invalid rebalance schedule")})

		w := do(router, http.MethodPost, "/api/v1/scheduler/rebalance/start", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REBALANCE_THRESHOLD", "abc")
	t.Setenv("OUTBOX_POLL_INTERVAL", "250ms")

	cfg := loadConfig()

	assert.Equal(t, ":8012", cfg.ServerAddr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 50, cfg.RebalanceThreshold)
	assert.Equal(t, 20, cfg.DefaultTasksPerPicker)
	assert.Equal(t, "250ms", cfg.OutboxPollInterval.String())
}
