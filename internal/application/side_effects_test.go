package application

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
	"github.com/wms-platform/fulfillment-scheduler/pkg/metrics"
	"github.com/wms-platform/fulfillment-scheduler/pkg/resilience"
)

func TestSideEffectDispatcher_RetriesUntilSuccess(t *testing.T) {
	d := testDispatcher()
	var calls int32

	d.Dispatch(context.Background(), SideEffectAudit, func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return errors.New("transient")
		}
		return nil
	})
	d.Wait()

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSideEffectDispatcher_SurvivesCallerCancellation(t *testing.T) {
	d := testDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	var sawCancel atomic.Bool

	d.Dispatch(ctx, SideEffectNotify, func(ctx context.Context) error {
		close(started)
		time.Sleep(20 * time.Millisecond)
		sawCancel.Store(errors.Is(ctx.Err(), context.Canceled))
		return nil
	})
	<-started
	cancel()
	d.Wait()

	assert.False(t, sawCancel.Load())
}

func TestSideEffectDispatcher_RecordsOutcome(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig("test"))
	d := NewSideEffectDispatcher(logging.New(&logging.Config{ServiceName: "test"}), m, &SideEffectConfig{
		Timeout: time.Second,
		Retry:   &resilience.RetryConfig{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1},
	})

	d.Dispatch(context.Background(), SideEffectBroadcast, func(ctx context.Context) error { return errors.New("broker down") })
	d.Dispatch(context.Background(), SideEffectBroadcast, func(ctx context.Context) error { return nil })
	d.Wait()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var total float64
	for _, f := range families {
		if f.GetName() == "wms_side_effects_total" {
			for _, metric := range f.GetMetric() {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, total)
}
