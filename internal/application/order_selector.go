package application

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
)

// Balanced strategy weights
const (
	balancedPriorityWeight = 0.6
	balancedDeadlineWeight = 0.4
	deadlineHorizonHours   = 72.0
)

// OrderSelector chooses the orders of a new wave. The order store applies the
// strategy filter; the selector ranks the candidates and caps the wave size.
type OrderSelector struct {
	orders domain.OrderRepository
	logger *logging.Logger
	now    func() time.Time
}

// NewOrderSelector creates a new OrderSelector
func NewOrderSelector(orders domain.OrderRepository, logger *logging.Logger) *OrderSelector {
	return &OrderSelector{
		orders: orders,
		logger: logger.WithComponent("order-selector"),
		now:    time.Now,
	}
}

// SelectOrders returns the IDs of the orders for a wave, best first
func (s *OrderSelector) SelectOrders(ctx context.Context, criteria domain.WaveCriteria) ([]string, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	candidates, err := s.orders.FindCandidates(ctx, criteria.Filter())
	if err != nil {
		s.logger.WithError(err).Error("Failed to find candidate orders", "strategy", criteria.Strategy)
		return nil, fmt.Errorf("failed to find candidate orders: %w", err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: strategy %s", domain.ErrNoMatchingOrders, criteria.Strategy)
	}

	ranked := rankOrders(candidates, criteria.Strategy, s.now())

	limit := criteria.MaxOrdersPerWave
	if limit <= 0 {
		limit = domain.DefaultMaxOrdersPerWave
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	orderIDs := make([]string, 0, len(ranked))
	for _, o := range ranked {
		orderIDs = append(orderIDs, o.OrderID)
	}

	s.logger.Debug("Selected orders", "strategy", criteria.Strategy, "candidates", len(candidates), "selected", len(orderIDs))
	return orderIDs, nil
}

func rankOrders(orders []*domain.Order, strategy domain.WaveStrategy, now time.Time) []*domain.Order {
	ranked := append([]*domain.Order(nil), orders...)

	var scores map[string]float64
	if strategy == domain.StrategyBalanced {
		scores = make(map[string]float64, len(ranked))
		for _, o := range ranked {
			scores[o.OrderID] = balancedScore(o, now)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]

		var c int
		switch strategy {
		case domain.StrategyCarrier:
			c = compareTimes(a.CarrierCutoff, b.CarrierCutoff)
		case domain.StrategyDeadline:
			c = compareTimes(a.RequiredShipDate, b.RequiredShipDate)
		case domain.StrategyBalanced:
			c = compareFloatsDesc(scores[a.OrderID], scores[b.OrderID])
		default:
			c = b.Priority.Weight() - a.Priority.Weight()
		}
		if c != 0 {
			return c < 0
		}

		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.OrderID < b.OrderID
	})

	return ranked
}

// balancedScore weighs priority against how close the order is to its ship date
func balancedScore(o *domain.Order, now time.Time) float64 {
	priority := float64(o.Priority.Weight()) / domain.MaxPriorityWeight

	proximity := 0.0
	if o.RequiredShipDate != nil {
		hours := math.Max(0, o.RequiredShipDate.Sub(now).Hours())
		proximity = 1 - math.Min(hours, deadlineHorizonHours)/deadlineHorizonHours
	}

	return balancedPriorityWeight*priority + balancedDeadlineWeight*proximity
}

// compareTimes orders earlier first; missing times sort last
func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case b.Before(*a):
		return 1
	default:
		return 0
	}
}

func compareFloatsDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
