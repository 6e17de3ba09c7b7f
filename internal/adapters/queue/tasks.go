// Package queue adapts the asynq broker to the planning.TaskQueue port and
// runs the worker side of the optimization pipeline.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// TypeOptimizeRoutes is the task type of an optimization run
	TypeOptimizeRoutes = "optimization:run"

	// QueueOptimization is the dedicated queue for solver tasks
	QueueOptimization = "optimization"
)

// OptimizePayload is the task body handed to workers
type OptimizePayload struct {
	JobID            string `json:"job_id"`
	TimeLimitSeconds int    `json:"time_limit_seconds"`
}

// NewOptimizeTask builds the broker task for a job. The task id is the job id
// so enqueueing is idempotent and revocation needs no extra lookup.
func NewOptimizeTask(jobID uuid.UUID, timeLimitSeconds int) (*asynq.Task, []asynq.Option, error) {
	payload, err := json.Marshal(OptimizePayload{
		JobID:            jobID.String(),
		TimeLimitSeconds: timeLimitSeconds,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to serialize task payload: %w", err)
	}

	opts := []asynq.Option{
		asynq.TaskID(jobID.String()),
		asynq.Queue(QueueOptimization),
		asynq.MaxRetry(maxTaskRetries),
		asynq.Timeout(taskTimeout(timeLimitSeconds)),
		asynq.Retention(resultRetention),
	}
	return asynq.NewTask(TypeOptimizeRoutes, payload), opts, nil
}

// ParseOptimizePayload decodes a task body back into its payload
func ParseOptimizePayload(task *asynq.Task) (*OptimizePayload, error) {
	var payload OptimizePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse task payload: %w", err)
	}
	if _, err := uuid.Parse(payload.JobID); err != nil {
		return nil, fmt.Errorf("task payload has invalid job id %q: %w", payload.JobID, err)
	}
	return &payload, nil
}
