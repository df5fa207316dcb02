package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
)

// Rebalancer runs one rebalancing pass
type Rebalancer interface {
	RebalancePickers(ctx context.Context, actor domain.Actor) (*RebalanceResultDTO, error)
}

// RebalanceScheduler triggers picker rebalancing on a cron schedule
type RebalanceScheduler struct {
	rebalancer Rebalancer
	schedule   string
	parser     cron.Parser
	logger     *logging.Logger
	mu         sync.Mutex
	c          *cron.Cron
	running    bool
}

// NewRebalanceScheduler creates a scheduler for a standard five-field cron
// expression or a descriptor such as "@every 5m"
func NewRebalanceScheduler(rebalancer Rebalancer, schedule string, logger *logging.Logger) *RebalanceScheduler {
	return &RebalanceScheduler{
		rebalancer: rebalancer,
		schedule:   schedule,
		parser:     cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		logger:     logger.WithComponent("rebalance-scheduler"),
	}
}

// Start schedules rebalancing runs until Stop or ctx is done
func (s *RebalanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("rebalance scheduler is already running")
	}

	s.c = cron.New(cron.WithParser(s.parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := s.c.AddFunc(s.schedule, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid rebalance schedule %q: %w", s.schedule, err)
	}

	s.c.Start()
	s.running = true

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("Rebalance scheduler started", "schedule", s.schedule)
	return nil
}

// Stop stops scheduling and waits for a running pass to finish
func (s *RebalanceScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	c := s.c
	s.mu.Unlock()

	<-c.Stop().Done()
	s.logger.Info("Rebalance scheduler stopped")
}

// IsRunning returns whether the scheduler is running
func (s *RebalanceScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *RebalanceScheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	result, err := s.rebalancer.RebalancePickers(ctx, domain.SystemActor())
	if err != nil {
		s.logger.WithError(err).Error("Scheduled rebalance failed")
		return
	}
	s.logger.Debug("Scheduled rebalance finished", "zonesRebalanced", result.ZonesRebalanced, "totalPickers", result.TotalPickers)
}
