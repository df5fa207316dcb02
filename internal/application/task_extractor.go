package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
)

// TaskExtractor expands orders into pick tasks
type TaskExtractor struct {
	orders domain.OrderRepository
	logger *logging.Logger
	now    func() time.Time
	newID  func() string
}

// NewTaskExtractor creates a new TaskExtractor
func NewTaskExtractor(orders domain.OrderRepository, logger *logging.Logger) *TaskExtractor {
	return &TaskExtractor{
		orders: orders,
		logger: logger.WithComponent("task-extractor"),
		now:    time.Now,
		newID:  generateTaskID,
	}
}

// ExtractTasks returns one PENDING task per order line, in the order of orderIDs
func (e *TaskExtractor) ExtractTasks(ctx context.Context, orderIDs []string) ([]*domain.PickTask, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}

	orders, err := e.orders.FindByIDs(ctx, orderIDs)
	if err != nil {
		e.logger.WithError(err).Error("Failed to load orders", "orderCount", len(orderIDs))
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	byID := make(map[string]*domain.Order, len(orders))
	for _, o := range orders {
		byID[o.OrderID] = o
	}

	now := e.now()
	var tasks []*domain.PickTask
	for _, orderID := range orderIDs {
		order, ok := byID[orderID]
		if !ok {
			e.logger.Warn("Order disappeared before task extraction", "orderId", orderID)
			continue
		}

		for _, line := range order.Lines {
			if line.Quantity <= 0 {
				continue
			}
			task, err := domain.NewPickTask(e.newID(), order.OrderID, line.SKU, line.Quantity, line.BinLocation, line.Zone, order.Priority, now)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}
	}

	return tasks, nil
}

func generateTaskID() string {
	return "TASK-" + uuid.New().String()
}
