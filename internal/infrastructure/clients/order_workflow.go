package clients

import (
	"context"
	"fmt"
	"time"
)

const waveAssignedSignal = "waveAssigned"

// WorkflowSignaler sends signals to running workflows
type WorkflowSignaler interface {
	SignalWorkflow(ctx context.Context, workflowID, runID, signalName string, arg interface{}) error
}

// WaveAssignedSignal is the payload of the order workflow's waveAssigned signal
type WaveAssignedSignal struct {
	WaveID         string    `json:"waveId"`
	ScheduledStart time.Time `json:"scheduledStart"`
}

// OrderWorkflowClient implements domain.OrderWorkflowSignaler over Temporal
type OrderWorkflowClient struct {
	temporal WorkflowSignaler
}

// NewOrderWorkflowClient creates a new OrderWorkflowClient
func NewOrderWorkflowClient(temporal WorkflowSignaler) *OrderWorkflowClient {
	return &OrderWorkflowClient{temporal: temporal}
}

// NotifyWaveReleased signals the order's fulfillment workflow that its wave was released
func (c *OrderWorkflowClient) NotifyWaveReleased(ctx context.Context, orderID, waveID string, at time.Time) error {
	if c.temporal == nil {
		return fmt.Errorf("temporal client not configured")
	}

	workflowID := fmt.Sprintf("order-fulfillment-%s", orderID)
	signal := WaveAssignedSignal{WaveID: waveID, ScheduledStart: at}

	if err := c.temporal.SignalWorkflow(ctx, workflowID, "", waveAssignedSignal, signal); err != nil {
		return fmt.Errorf("failed to signal workflow %s: %w", workflowID, err)
	}
	return nil
}
