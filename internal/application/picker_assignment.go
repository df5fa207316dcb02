package application

import "github.com/wms-platform/fulfillment-scheduler/internal/domain"

// PickerAssignmentStrategy sizes the picker crew of a wave and spreads its tasks
type PickerAssignmentStrategy struct{}

// NewPickerAssignmentStrategy creates a new PickerAssignmentStrategy
func NewPickerAssignmentStrategy() *PickerAssignmentStrategy {
	return &PickerAssignmentStrategy{}
}

// SelectPickers returns the first ceil(taskCount/threshold) pickers of the
// roster, bounded by the roster size
func (s *PickerAssignmentStrategy) SelectPickers(taskCount, threshold int, roster []string) []string {
	if taskCount <= 0 || len(roster) == 0 {
		return []string{}
	}
	if threshold <= 0 {
		threshold = domain.DefaultTasksPerPicker
	}

	needed := (taskCount + threshold - 1) / threshold
	if needed > len(roster) {
		needed = len(roster)
	}

	return append([]string(nil), roster[:needed]...)
}

// DistributeTasks assigns tasks round-robin in route order, returning task ID -> picker
func (s *PickerAssignmentStrategy) DistributeTasks(tasks []*domain.PickTask, pickers []string) map[string]string {
	assignments := make(map[string]string, len(tasks))
	if len(pickers) == 0 {
		return assignments
	}

	for i, t := range tasks {
		assignments[t.TaskID] = pickers[i%len(pickers)]
	}
	return assignments
}
