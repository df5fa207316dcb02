package application

import (
	"context"
	"sync"
	"time"

	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
	"github.com/wms-platform/fulfillment-scheduler/pkg/metrics"
	"github.com/wms-platform/fulfillment-scheduler/pkg/resilience"
)

// Side effect kinds
const (
	SideEffectAudit     = "audit"
	SideEffectNotify    = "notify"
	SideEffectBroadcast = "broadcast"
	SideEffectSignal    = "workflow-signal"
)

// SideEffectConfig configures best-effort dispatch
type SideEffectConfig struct {
	Timeout time.Duration
	Retry   *resilience.RetryConfig
}

// DefaultSideEffectConfig returns default configuration
func DefaultSideEffectConfig() *SideEffectConfig {
	return &SideEffectConfig{
		Timeout: 10 * time.Second,
		Retry:   resilience.DefaultRetryConfig(),
	}
}

// SideEffectDispatcher runs audit and notification calls in the background.
// Their failures are logged and counted, never returned to the caller.
type SideEffectDispatcher struct {
	logger  *logging.Logger
	metrics *metrics.Metrics
	config  *SideEffectConfig
	wg      sync.WaitGroup
}

// NewSideEffectDispatcher creates a new SideEffectDispatcher. m may be nil.
func NewSideEffectDispatcher(logger *logging.Logger, m *metrics.Metrics, config *SideEffectConfig) *SideEffectDispatcher {
	if config == nil {
		config = DefaultSideEffectConfig()
	}
	if config.Retry == nil {
		config.Retry = resilience.DefaultRetryConfig()
	}

	return &SideEffectDispatcher{
		logger:  logger.WithComponent("side-effects"),
		metrics: m,
		config:  config,
	}
}

// Dispatch runs fn on its own goroutine, detached from ctx cancellation
func (d *SideEffectDispatcher) Dispatch(ctx context.Context, kind string, fn func(ctx context.Context) error) {
	detached := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		runCtx, cancel := context.WithTimeout(detached, d.config.Timeout)
		defer cancel()

		err := resilience.Retry(runCtx, d.config.Retry, func() error {
			return fn(runCtx)
		})

		if d.metrics != nil {
			d.metrics.RecordSideEffect(kind, err == nil)
		}
		if err != nil {
			d.logger.WithContext(ctx).WithError(err).Warn("Side effect failed", "kind", kind)
		}
	}()
}

// Wait blocks until every dispatched side effect has finished
func (d *SideEffectDispatcher) Wait() {
	d.wg.Wait()
}
