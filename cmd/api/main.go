package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-scheduler/internal/application"
	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
	"github.com/wms-platform/fulfillment-scheduler/internal/infrastructure/clients"
	kafkaAdapter "github.com/wms-platform/fulfillment-scheduler/internal/infrastructure/kafka"
	mongoRepo "github.com/wms-platform/fulfillment-scheduler/internal/infrastructure/mongodb"
	"github.com/wms-platform/fulfillment-scheduler/internal/infrastructure/seed"
	"github.com/wms-platform/fulfillment-scheduler/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-scheduler/pkg/kafka"
	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
	"github.com/wms-platform/fulfillment-scheduler/pkg/metrics"
	"github.com/wms-platform/fulfillment-scheduler/pkg/middleware"
	"github.com/wms-platform/fulfillment-scheduler/pkg/mongodb"
	"github.com/wms-platform/fulfillment-scheduler/pkg/outbox"
	"github.com/wms-platform/fulfillment-scheduler/pkg/temporal"
	"github.com/wms-platform/fulfillment-scheduler/pkg/tracing"
)

const serviceName = "fulfillment-scheduler"

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.ParseLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting fulfillment-scheduler API")

	config := loadConfig()
	ctx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	// Tracing is optional; the service runs without a collector
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = config.OTLPEndpoint
	tracingConfig.Environment = config.Environment
	tracingConfig.Enabled = config.TracingEnabled

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))
	logger.Info("Metrics initialized")

	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = config.MongoURI
	mongoConfig.Database = config.MongoDatabase
	mongoConfig.ReplicaSet = config.MongoReplicaSet

	mongoClient, err := mongodb.NewClient(ctx, mongoConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(context.Background())
	logger.Info("Connected to MongoDB", "database", config.MongoDatabase)

	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = config.KafkaBrokers
	kafkaConfig.ClientID = serviceName
	kafkaProducer := kafka.NewProducer(kafkaConfig)
	instrumentedProducer := kafka.NewInstrumentedProducer(kafkaProducer, m, logger)
	defer kafkaProducer.Close()
	producer := kafka.NewCircuitBreakerProducer(instrumentedProducer, logger, m)
	logger.Info("Kafka producer initialized", "brokers", config.KafkaBrokers)

	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceFulfillmentScheduler)

	db := mongoClient.Database()
	waveRepo := mongoRepo.NewWaveRepository(db, eventFactory)
	taskRepo := mongoRepo.NewPickTaskRepository(db)
	orderRepo := mongoRepo.NewOrderRepository(db)
	zoneRepo := mongoRepo.NewZoneRepository(db)
	assignmentRepo := mongoRepo.NewZoneAssignmentRepository(db)
	roster := mongoRepo.NewPickerRoster(db)
	auditLog := mongoRepo.NewAuditLog(db, logger)

	for _, repo := range []indexer{waveRepo, orderRepo, zoneRepo, assignmentRepo, auditLog} {
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.WithError(err).Warn("Failed to ensure indexes")
		}
	}

	if config.ZonesFile != "" {
		zones, err := seed.LoadZones(config.ZonesFile)
		if err != nil {
			logger.WithError(err).Error("Failed to load zone file", "path", config.ZonesFile)
			os.Exit(1)
		}
		if err := seed.Zones(ctx, zoneRepo, zones, logger); err != nil {
			logger.WithError(err).Error("Failed to seed zones")
			os.Exit(1)
		}
	}

	outboxPublisher := outbox.NewPublisher(
		waveRepo.OutboxRepository(),
		producer,
		logger,
		m,
		&outbox.PublisherConfig{
			PollInterval: config.OutboxPollInterval,
			BatchSize:    100,
		},
	)
	if err := outboxPublisher.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start outbox publisher")
		os.Exit(1)
	}
	defer outboxPublisher.Stop()
	logger.Info("Outbox publisher started")

	temporalConfig := temporal.DefaultConfig()
	temporalConfig.HostPort = config.TemporalHost
	temporalConfig.Namespace = config.TemporalNamespace

	// Release still succeeds without Temporal; order workflows are simply not signalled
	var signaler domain.OrderWorkflowSignaler
	temporalCheck := middleware.DependencyCheck{Optional: true}
	temporalClient, err := temporal.NewClient(ctx, temporalConfig, logger.Logger)
	if err != nil {
		logger.WithError(err).Warn("Failed to connect to Temporal - order workflow signaling will be disabled")
		connectErr := fmt.Errorf("not connected: %w", err)
		temporalCheck.Check = func(context.Context) error { return connectErr }
	} else {
		defer temporalClient.Close()
		signaler = clients.NewOrderWorkflowClient(temporalClient)
		temporalCheck.Check = temporalClient.CheckHealth
		logger.Info("Connected to Temporal", "host", temporalConfig.HostPort)
	}

	notifier := kafkaAdapter.NewNotificationGateway(producer, eventFactory)
	routingClient := clients.NewRoutingServiceClient(config.RoutingServiceURL, logger, m)
	logger.Info("Routing service client initialized", "url", config.RoutingServiceURL)

	sideEffects := application.NewSideEffectDispatcher(logger, m, application.DefaultSideEffectConfig())
	statsCollector := application.NewZoneStatisticsCollector(taskRepo, assignmentRepo, logger)

	waveService := application.NewWaveService(application.WaveServiceDeps{
		Waves:       waveRepo,
		Tasks:       taskRepo,
		Roster:      roster,
		Selector:    application.NewOrderSelector(orderRepo, logger),
		Extractor:   application.NewTaskExtractor(orderRepo, logger),
		Routes:      routingClient,
		Assignment:  application.NewPickerAssignmentStrategy(),
		Audit:       auditLog,
		Notifier:    notifier,
		Signaler:    signaler,
		SideEffects: sideEffects,
		Metrics:     m,
		Logger:      logger,
	}, application.WaveServiceConfig{DefaultTasksPerPicker: config.DefaultTasksPerPicker})

	zoneService := application.NewZoneService(zoneRepo, statsCollector, logger)
	assignmentService := application.NewZoneAssignmentService(zoneRepo, assignmentRepo, auditLog, notifier, sideEffects, m, logger)
	rebalancer := application.NewPickerRebalancer(zoneRepo, roster, assignmentRepo, statsCollector, assignmentService, config.RebalanceThreshold, m, logger)

	var scheduler schedulerAPI
	if config.RebalanceCron != "" {
		rebalanceScheduler := application.NewRebalanceScheduler(rebalancer, config.RebalanceCron, logger)
		if err := rebalanceScheduler.Start(ctx); err != nil {
			logger.WithError(err).Error("Failed to start rebalance scheduler")
		}
		scheduler = rebalanceScheduler
	} else {
		logger.Info("Rebalance scheduler disabled")
	}

	router := gin.New()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     config.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "X-Correlation-ID", "X-User-ID", "X-User-Email"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-Correlation-ID"},
		AllowCredentials: true,
	}))

	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger.Logger))
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.TracingMiddleware(serviceName))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, map[string]middleware.DependencyCheck{
		"mongodb":  {Check: mongoClient.HealthCheck},
		"kafka":    {Check: producer.HealthCheck},
		"temporal": temporalCheck,
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	api := router.Group("/api/v1")
	registerRoutes(api, apiServices{
		waves:       waveService,
		zones:       zoneService,
		assignments: assignmentService,
		rebalancer:  rebalancer,
	}, logger)
	registerSchedulerRoutes(api, scheduler, ctx, logger)

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	if scheduler != nil && scheduler.IsRunning() {
		scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	// in-flight notifications and workflow signals finish before the producer closes
	sideEffects.Wait()

	logger.Info("Server stopped")
}
