package clients

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWorkflowSignaler struct {
	mock.Mock
}

func (m *MockWorkflowSignaler) SignalWorkflow(ctx context.Context, workflowID, runID, signalName string, arg interface{}) error {
	args := m.Called(ctx, workflowID, runID, signalName, arg)
	return args.Error(0)
}

func TestOrderWorkflowClient_NotifyWaveReleased(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	signaler := new(MockWorkflowSignaler)
	signaler.On("SignalWorkflow", mock.Anything, "order-fulfillment-ORD-1", "", "waveAssigned",
		WaveAssignedSignal{WaveID: "WAVE-0001", ScheduledStart: at}).Return(nil).Once()

	err := NewOrderWorkflowClient(signaler).NotifyWaveReleased(context.Background(), "ORD-1", "WAVE-0001", at)

	require.NoError(t, err)
	signaler.AssertExpectations(t)
}

func TestOrderWorkflowClient_SignalFailure(t *testing.T) {
	signaler := new(MockWorkflowSignaler)
	boom := errors.New("workflow not found")
	signaler.On("SignalWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(boom)

	err := NewOrderWorkflowClient(signaler).NotifyWaveReleased(context.Background(), "ORD-9", "WAVE-0001", time.Now())

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "order-fulfillment-ORD-9")
}

func TestOrderWorkflowClient_NotConfigured(t *testing.T) {
	err := NewOrderWorkflowClient(nil).NotifyWaveReleased(context.Background(), "ORD-1", "WAVE-0001", time.Now())

	assert.Error(t, err)
}
