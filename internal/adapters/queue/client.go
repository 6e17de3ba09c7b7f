package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
)

const (
	maxTaskRetries = 2

	// resultRetention keeps finished task rows visible in asynq tooling for a
	// day, matching the result-cache TTL
	resultRetention = 24 * time.Hour

	// taskTimeoutGrace covers materialization and persistence after the solver
	// deadline expires
	taskTimeoutGrace = 60 * time.Second
)

func taskTimeout(timeLimitSeconds int) time.Duration {
	return time.Duration(timeLimitSeconds)*time.Second + taskTimeoutGrace
}

// AsynqQueue implements planning.TaskQueue against a Redis-backed asynq broker
type AsynqQueue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewAsynqQueue creates the producer-side broker adapter
func NewAsynqQueue(redisOpt asynq.RedisClientOpt) *AsynqQueue {
	return &AsynqQueue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
	}
}

// EnqueueOptimization enqueues a run task keyed by job id and returns the
// broker task id
func (q *AsynqQueue) EnqueueOptimization(ctx context.Context, jobID uuid.UUID, timeLimitSeconds int) (string, error) {
	task, opts, err := NewOptimizeTask(jobID, timeLimitSeconds)
	if err != nil {
		return "", err
	}

	info, err := q.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return "", shared.NewConflictError("optimization job already enqueued: " + jobID.String())
		}
		return "", fmt.Errorf("failed to enqueue optimization task: %w", err)
	}

	log.Printf("Enqueued optimization task %s on queue %s", info.ID, info.Queue)
	return info.ID, nil
}

// CancelOptimization revokes a queued task or signals a running one.
// Best-effort: deletion only works while the task is still pending, and a
// running worker notices the cancellation on its next guarded write.
func (q *AsynqQueue) CancelOptimization(ctx context.Context, taskID string) error {
	if taskID == "" {
		return nil
	}

	if err := q.inspector.DeleteTask(QueueOptimization, taskID); err == nil {
		log.Printf("Deleted pending optimization task %s", taskID)
		return nil
	}

	if err := q.inspector.CancelProcessing(taskID); err != nil {
		log.Printf("Cancellation signal for task %s not delivered: %v", taskID, err)
	}
	return nil
}

// Close releases the broker connections
func (q *AsynqQueue) Close() error {
	if err := q.inspector.Close(); err != nil {
		return err
	}
	return q.client.Close()
}
