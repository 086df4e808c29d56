package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup is the task type for pre-building dashboard caches.
	TaskDashboardWarmup = "dashboard:warmup"
)

// DashboardWarmupPayload carries options for a warmup run.
type DashboardWarmupPayload struct {
	Reason string `json:"reason"`
}

// NewDashboardWarmupTask constructs an Asynq task.
func NewDashboardWarmupTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(DashboardWarmupPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}
