package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
	"github.com/wms-platform/fulfillment-scheduler/pkg/resilience"
)

func testTasks(t *testing.T) []*domain.PickTask {
	t.Helper()
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	var tasks []*domain.PickTask
	for _, tc := range []struct{ id, sku, bin string }{
		{"T1", "SKU-1", "C-05-01"},
		{"T2", "SKU-2", "A-01-01"},
		{"T3", "SKU-3", "B-02-04"},
	} {
		task, err := domain.NewPickTask(tc.id, "ORD-1", tc.sku, 1, tc.bin, "", domain.PriorityNormal, now)
		require.NoError(t, err)
		tasks = append(tasks, task)
	}
	return tasks
}

func newTestRoutingClient(url string) *RoutingServiceClient {
	c := NewRoutingServiceClient(url, logging.New(&logging.Config{ServiceName: "test", Output: io.Discard}), nil)
	c.retry.InitialDelay = time.Millisecond
	c.retry.MaxDelay = time.Millisecond
	return c
}

func taskIDs(tasks []*domain.PickTask) []string {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.TaskID)
	}
	return ids
}

func TestRoutingServiceClient_OptimizeRoute(t *testing.T) {
	var got routeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/routes", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(routeResponse{
			Stops: []routeStop{
				{StopNumber: 2, Location: routeLocation{LocationID: "B-02-04"}, SKU: "SKU-3"},
				{StopNumber: 1, Location: routeLocation{LocationID: "A-01-01"}, SKU: "SKU-2"},
			},
			EstimatedDistance: 42.5,
			EstimatedTime:     300,
		})
	}))
	defer server.Close()

	route, err := newTestRoutingClient(server.URL).OptimizeRoute(context.Background(), testTasks(t))

	require.NoError(t, err)
	assert.Len(t, got.Items, 3)
	assert.Equal(t, "C-05-01", got.Items[0].Location.LocationID)
	assert.Equal(t, []string{"T2", "T3", "T1"}, taskIDs(route.Tasks), "unrouted tasks go last")
	assert.Equal(t, 5*time.Minute, route.EstimatedTime)
	assert.Equal(t, 42.5, route.TotalDistance)
}

func TestRoutingServiceClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(routeResponse{EstimatedTime: 60})
	}))
	defer server.Close()

	route, err := newTestRoutingClient(server.URL).OptimizeRoute(context.Background(), testTasks(t))

	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Len(t, route.Tasks, 3)
}

func TestRoutingServiceClient_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "items must not be empty", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestRoutingClient(server.URL).OptimizeRoute(context.Background(), testTasks(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "items must not be empty")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRoutingServiceClient_FallsBackWhenCircuitOpen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestRoutingClient(server.URL)
	c.retry.MaxAttempts = 1
	cfg := resilience.DefaultCircuitBreakerConfig("routing-service")
	cfg.FailureThreshold = 1
	c.breaker = resilience.NewCircuitBreaker(cfg, nil, nil)

	_, err := c.OptimizeRoute(context.Background(), testTasks(t))
	require.Error(t, err)

	route, err := c.OptimizeRoute(context.Background(), testTasks(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"T2", "T3", "T1"}, taskIDs(route.Tasks))
	assert.Equal(t, 3*domain.DefaultAverageTimePerTask, route.EstimatedTime)
}

func TestRoutingServiceClient_NoTasks(t *testing.T) {
	route, err := newTestRoutingClient("http://127.0.0.1:1").OptimizeRoute(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, route.Tasks)
}
