package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-scheduler/internal/application"
	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
	"github.com/wms-platform/fulfillment-scheduler/pkg/middleware"
)

type waveAPI interface {
	CreateWave(ctx context.Context, cmd application.CreateWaveCommand) (*application.WaveDTO, error)
	ReleaseWave(ctx context.Context, cmd application.ReleaseWaveCommand) (*application.WaveDTO, error)
	GetWaveStatus(ctx context.Context, waveID string) (*application.WaveStatusDTO, error)
	CompleteWave(ctx context.Context, cmd application.CompleteWaveCommand) (*application.WaveDTO, error)
	GetActiveWavesForPicker(ctx context.Context, pickerID string) ([]application.WaveListDTO, error)
	ListWaves(ctx context.Context, query application.ListWavesQuery) ([]application.WaveListDTO, error)
	StartPickTask(ctx context.Context, cmd application.StartPickTaskCommand) (*application.PickTaskDTO, error)
	CompletePickTask(ctx context.Context, cmd application.CompletePickTaskCommand) (*application.PickTaskDTO, error)
}

type zoneAPI interface {
	GetZones(ctx context.Context, query application.GetZonesQuery) ([]application.ZoneDTO, error)
	GetZoneStats(ctx context.Context, zoneID string) *application.ZoneStatsDTO
}

type assignmentAPI interface {
	AssignPickerToZone(ctx context.Context, cmd application.AssignPickerCommand) (*application.ZoneAssignmentDTO, error)
	ReleasePickerFromZone(ctx context.Context, cmd application.ReleasePickerCommand) ([]application.ZoneAssignmentDTO, error)
}

type apiServices struct {
	waves       waveAPI
	zones       zoneAPI
	assignments assignmentAPI
	rebalancer  application.Rebalancer
}

func registerRoutes(api *gin.RouterGroup, svc apiServices, logger *logging.Logger) {
	waves := api.Group("/waves")
	{
		waves.POST("", createWaveHandler(svc.waves, logger))
		waves.GET("", listWavesHandler(svc.waves, logger))
		waves.GET("/:waveId", getWaveStatusHandler(svc.waves, logger))
		waves.POST("/:waveId/release", releaseWaveHandler(svc.waves, logger))
		waves.POST("/:waveId/complete", completeWaveHandler(svc.waves, logger))
	}

	tasks := api.Group("/tasks")
	{
		tasks.POST("/:taskId/start", startTaskHandler(svc.waves, logger))
		tasks.POST("/:taskId/complete", completeTaskHandler(svc.waves, logger))
	}

	zones := api.Group("/zones")
	{
		zones.GET("", getZonesHandler(svc.zones, logger))
		zones.GET("/:zoneId/stats", getZoneStatsHandler(svc.zones, logger))
		zones.POST("/:zoneId/pickers", assignPickerHandler(svc.assignments, logger))
	}

	pickers := api.Group("/pickers")
	{
		pickers.POST("/rebalance", rebalanceHandler(svc.rebalancer, logger))
		pickers.GET("/:pickerId/waves", pickerWavesHandler(svc.waves, logger))
		pickers.DELETE("/:pickerId/zone", releasePickerHandler(svc.assignments, logger))
	}
}

type waveURI struct {
	WaveID string `uri:"waveId" binding:"required,wave_id"`
}

type taskURI struct {
	TaskID string `uri:"taskId" binding:"required,max=128"`
}

type zoneURI struct {
	ZoneID string `uri:"zoneId" binding:"required,zone_id"`
}

type pickerURI struct {
	PickerID string `uri:"pickerId" binding:"required,picker_id"`
}

type createWaveRequest struct {
	Strategy         string     `json:"strategy" binding:"required,oneof=CARRIER PRIORITY ZONE DEADLINE BALANCED"`
	CarrierCutoff    *time.Time `json:"carrierCutoff"`
	Carriers         []string   `json:"carriers" binding:"omitempty,dive,required"`
	Priorities       []string   `json:"priorities" binding:"omitempty,dive,oneof=LOW NORMAL HIGH URGENT"`
	Zones            []string   `json:"zones" binding:"omitempty,dive,zone_id"`
	Deadline         *time.Time `json:"deadline"`
	MaxOrdersPerWave int        `json:"maxOrdersPerWave" binding:"omitempty,min=1,max=500"`
	TasksPerPicker   int        `json:"tasksPerPicker" binding:"omitempty,min=1,max=500"`
}

func (r createWaveRequest) criteria() domain.WaveCriteria {
	priorities := make([]domain.Priority, 0, len(r.Priorities))
	for _, p := range r.Priorities {
		priorities = append(priorities, domain.Priority(p))
	}
	return domain.WaveCriteria{
		Strategy:         domain.WaveStrategy(r.Strategy),
		CarrierCutoff:    r.CarrierCutoff,
		Carriers:         r.Carriers,
		Priorities:       priorities,
		Zones:            r.Zones,
		Deadline:         r.Deadline,
		MaxOrdersPerWave: r.MaxOrdersPerWave,
		TasksPerPicker:   r.TasksPerPicker,
	}
}

type listWavesQuery struct {
	Status string `form:"status"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=200"`
}

type zonesQuery struct {
	IncludeStats bool `form:"includeStats"`
}

type startTaskRequest struct {
	PickerID string `json:"pickerId" binding:"omitempty,picker_id"`
}

type assignPickerRequest struct {
	PickerID string `json:"pickerId" binding:"required,picker_id"`
}

func actorFrom(c *gin.Context) domain.Actor {
	a := middleware.GetActor(c)
	return domain.Actor{
		UserID:    a.UserID,
		UserEmail: a.UserEmail,
		UserAgent: a.UserAgent,
		IPAddress: a.IPAddress,
	}
}

func createWaveHandler(service waveAPI, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req createWaveRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]string{"wave.strategy": req.Strategy})

		wave, err := service.CreateWave(c.Request.Context(), application.CreateWaveCommand{
			Criteria: req.criteria(),
			Actor:    actorFrom(c),
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, wave)
	}
}

func listWavesHandler(service waveAPI, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var q listWavesQuery
		if appErr := middleware.BindQuery(c, &q); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		waves, err := service.ListWaves(c.Request.Context(), application.ListWavesQuery{Status: q.Status, Limit: q.Limit})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, waves)
	}
}

func getWaveStatusHandler(service waveAPI, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var uri waveURI
		if appErr := middleware.BindURI(c, &uri); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]string{"wave.id": uri.WaveID})

		status, err := service.GetWaveStatus(c.Request.Context(), uri.WaveID)
		if err != nil {
			responder.RespondWithError(err)
			return
		}
		if status == nil {
			responder.RespondNotFound("wave")
			return
		}

		c.JSON(http.StatusOK, status)
	}
}

func releaseWaveHandler(service waveAPI, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var uri waveURI
		if appErr := middleware.BindURI(c, &uri); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]string{"wave.id": uri.WaveID})

		wave, err := service.ReleaseWave(c.Request.Context(), application.ReleaseWaveCommand{
			WaveID: uri.WaveID,
			Actor:  actorFrom(c),
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, wave)
	}
}

func completeWaveHandler(service waveAPI, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var uri waveURI
		if appErr := middleware.BindURI(c, &uri); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]string{"wave.id": uri.WaveID})

		wave, err := service.CompleteWave(c.Request.Context(), application.CompleteWaveCommand{
			WaveID: uri.WaveID,
			Actor:  actorFrom(c),
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, wave)
	}
}

func pickerWavesHandler(service waveAPI, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var uri pickerURI
		if appErr := middleware.BindURI(c, &uri); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]string{"picker.id": uri.PickerID})

		waves, err := service.GetActiveWavesForPicker(c.Request.Context(), uri.PickerID)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, waves)
	}
}

func startTaskHandler(service waveAPI, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var uri taskURI
		if appErr := middleware.BindURI(c, &uri); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		// the body is optional; without it the task keeps its assigned picker
		var req startTaskRequest
		if c.Request.ContentLength > 0 {
			if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
				responder.RespondWithAppError(appErr)
				return
			}
		}

		middleware.AddSpanAttributes(c, map[string]string{"task.id": uri.TaskID, "picker.id": req.PickerID})

		task, err := service.StartPickTask(c.Request.Context(), application.StartPickTaskCommand{
			TaskID:   uri.TaskID,
			PickerID: req.PickerID,
			Actor:    actorFrom(c),
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, task)
	}
}

func completeTaskHandler(service waveAPI, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var uri taskURI
		if appErr := middleware.BindURI(c, &uri); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]string{"task.id": uri.TaskID})

		task, err := service.CompletePickTask(c.Request.Context(), application.CompletePickTaskCommand{
			TaskID: uri.TaskID,
			Actor:  actorFrom(c),
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, task)
	}
}

func getZonesHandler(service zoneAPI, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var q zonesQuery
		if appErr := middleware.BindQuery(c, &q); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		zones, err := service.GetZones(c.Request.Context(), application.GetZonesQuery{IncludeStats: q.IncludeStats})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, zones)
	}
}

func getZoneStatsHandler(service zoneAPI, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var uri zoneURI
		if appErr := middleware.BindURI(c, &uri); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]string{"zone.id": uri.ZoneID})

		c.JSON(http.StatusOK, service.GetZoneStats(c.Request.Context(), uri.ZoneID))
	}
}

func assignPickerHandler(service assignmentAPI, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var uri zoneURI
		if appErr := middleware.BindURI(c, &uri); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		var req assignPickerRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]string{"zone.id": uri.ZoneID, "picker.id": req.PickerID})

		assignment, err := service.AssignPickerToZone(c.Request.Context(), application.AssignPickerCommand{
			PickerID: req.PickerID,
			ZoneID:   uri.ZoneID,
			Actor:    actorFrom(c),
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, assignment)
	}
}

func releasePickerHandler(service assignmentAPI, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var uri pickerURI
		if appErr := middleware.BindURI(c, &uri); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]string{"picker.id": uri.PickerID})

		released, err := service.ReleasePickerFromZone(c.Request.Context(), application.ReleasePickerCommand{
			PickerID: uri.PickerID,
			Actor:    actorFrom(c),
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"released": released})
	}
}

func rebalanceHandler(service application.Rebalancer, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		result, err := service.RebalancePickers(c.Request.Context(), actorFrom(c))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

type schedulerAPI interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
}

func registerSchedulerRoutes(api *gin.RouterGroup, scheduler schedulerAPI, baseCtx context.Context, logger *logging.Logger) {
	group := api.Group("/scheduler/rebalance")
	{
		group.GET("/status", schedulerStatusHandler(scheduler))
		group.POST("/start", schedulerStartHandler(scheduler, baseCtx, logger))
		group.POST("/stop", schedulerStopHandler(scheduler, logger))
	}
}

func schedulerStatusHandler(scheduler schedulerAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		if scheduler == nil {
			c.JSON(http.StatusOK, gin.H{
				"enabled": false,
				"running": false,
				"message": "Rebalance scheduler not configured",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"enabled": true,
			"running": scheduler.IsRunning(),
		})
	}
}

// schedulerStartHandler starts the scheduler on baseCtx so it outlives the request
func schedulerStartHandler(scheduler schedulerAPI, baseCtx context.Context, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		if scheduler == nil {
			responder.RespondBadRequest("rebalance scheduler not configured")
			return
		}
		if scheduler.IsRunning() {
			c.JSON(http.StatusOK, gin.H{"message": "Scheduler already running"})
			return
		}
		if err := scheduler.Start(baseCtx); err != nil {
			responder.RespondInternalError(err)
			return
		}
		logger.Info("Rebalance scheduler started via API", "user", middleware.GetActor(c).UserID)
		c.JSON(http.StatusOK, gin.H{"message": "Scheduler started"})
	}
}

func schedulerStopHandler(scheduler schedulerAPI, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		if scheduler == nil {
			responder.RespondBadRequest("rebalance scheduler not configured")
			return
		}
		scheduler.Stop()
		logger.Info("Rebalance scheduler stopped via API", "user", middleware.GetActor(c).UserID)
		c.JSON(http.StatusOK, gin.H{"message": "Scheduler stopped"})
	}
}
