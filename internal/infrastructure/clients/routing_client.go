package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
	"github.com/wms-platform/fulfillment-scheduler/pkg/resilience"
)

// routing-service request and response shapes
type routeLocation struct {
	LocationID string `json:"locationId"`
	Aisle      string `json:"aisle,omitempty"`
	Zone       string `json:"zone,omitempty"`
}

type routeItem struct {
	SKU      string        `json:"sku"`
	Quantity int           `json:"quantity"`
	Location routeLocation `json:"location"`
}

type routeRequest struct {
	WaveID   string      `json:"waveId,omitempty"`
	Items    []routeItem `json:"items"`
	Strategy string      `json:"strategy,omitempty"`
}

type routeStop struct {
	StopNumber int           `json:"stopNumber"`
	Location   routeLocation `json:"location"`
	SKU        string        `json:"sku"`
	Quantity   int           `json:"quantity"`
}

type routeResponse struct {
	Stops             []routeStop `json:"stops"`
	EstimatedDistance float64     `json:"estimatedDistance"`
	EstimatedTime     int64       `json:"estimatedTime"` // seconds
}

// RoutingServiceClient implements domain.RouteEstimator against routing-service.
// While the circuit is open it falls back to bin order at the default pace.
type RoutingServiceClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	retry      *resilience.RetryConfig
	strategy   string
	logger     *logging.Logger
}

// NewRoutingServiceClient creates a new RoutingServiceClient. observer may be nil.
func NewRoutingServiceClient(baseURL string, logger *logging.Logger, observer resilience.StateObserver) *RoutingServiceClient {
	retry := resilience.DefaultRetryConfig()
	retry.RetryableErrors = func(err error) bool { return !errors.Is(err, errPermanent) }

	return &RoutingServiceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		breaker:  resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("routing-service"), logger.Logger, observer),
		retry:    retry,
		strategy: "s_shape",
		logger:   logger.WithComponent("routing-client"),
	}
}

// errPermanent marks responses that retrying cannot fix
var errPermanent = errors.New("permanent routing error")

// OptimizeRoute orders the tasks into a pick route and returns its cost
func (c *RoutingServiceClient) OptimizeRoute(ctx context.Context, tasks []*domain.PickTask) (*domain.RouteEstimate, error) {
	if len(tasks) == 0 {
		return &domain.RouteEstimate{Tasks: []*domain.PickTask{}}, nil
	}

	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return resilience.RetryWithResult(ctx, c.retry, func() (*routeResponse, error) {
			return c.calculateRoute(ctx, tasks)
		})
	})
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Warn("Routing service unavailable, using bin order", "taskCount", len(tasks))
			return NaiveRoute(tasks), nil
		}
		return nil, fmt.Errorf("failed to calculate route: %w", err)
	}

	resp := result.(*routeResponse)
	return &domain.RouteEstimate{
		Tasks:         orderByStops(tasks, resp.Stops),
		EstimatedTime: time.Duration(resp.EstimatedTime) * time.Second,
		TotalDistance: resp.EstimatedDistance,
	}, nil
}

func (c *RoutingServiceClient) calculateRoute(ctx context.Context, tasks []*domain.PickTask) (*routeResponse, error) {
	req := routeRequest{Strategy: c.strategy, Items: make([]routeItem, 0, len(tasks))}
	for _, t := range tasks {
		req.Items = append(req.Items, routeItem{
			SKU:      t.SKU,
			Quantity: t.Quantity,
			Location: routeLocation{LocationID: t.BinLocation, Aisle: t.Zone, Zone: t.Zone},
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", errPermanent, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/routes", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", errPermanent, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call routing service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("routing service returned status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: routing service returned status %d: %s", errPermanent, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var route routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
		return nil, fmt.Errorf("%w: failed to decode route response: %v", errPermanent, err)
	}
	return &route, nil
}

// orderByStops arranges tasks in stop order. Tasks the route does not mention
// keep their relative order after the routed ones.
func orderByStops(tasks []*domain.PickTask, stops []routeStop) []*domain.PickTask {
	sorted := make([]routeStop, len(stops))
	copy(sorted, stops)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StopNumber < sorted[j].StopNumber })

	pending := make(map[string][]*domain.PickTask)
	for _, t := range tasks {
		key := t.BinLocation + "|" + t.SKU
		pending[key] = append(pending[key], t)
	}

	ordered := make([]*domain.PickTask, 0, len(tasks))
	used := make(map[*domain.PickTask]bool, len(tasks))
	for _, s := range sorted {
		key := s.Location.LocationID + "|" + s.SKU
		queue := pending[key]
		if len(queue) == 0 {
			continue
		}
		ordered = append(ordered, queue[0])
		used[queue[0]] = true
		pending[key] = queue[1:]
	}

	for _, t := range tasks {
		if !used[t] {
			ordered = append(ordered, t)
		}
	}
	return ordered
}

// NaiveRoute walks the bins in lexical order at the default per-task pace
func NaiveRoute(tasks []*domain.PickTask) *domain.RouteEstimate {
	ordered := make([]*domain.PickTask, len(tasks))
	copy(ordered, tasks)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].BinLocation < ordered[j].BinLocation })

	return &domain.RouteEstimate{
		Tasks:         ordered,
		EstimatedTime: time.Duration(len(ordered)) * domain.DefaultAverageTimePerTask,
	}
}
