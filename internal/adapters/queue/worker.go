package queue

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// JobRunner executes one optimization job end to end. The worker binds it to
// the broker; the application layer provides the implementation.
type JobRunner interface {
	Run(ctx context.Context, jobID uuid.UUID, timeLimitSeconds int) error
}

// Worker consumes optimization tasks from the broker
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewWorker creates the consumer-side broker adapter. Concurrency is the
// number of solver runs processed in parallel.
func NewWorker(redisOpt asynq.RedisClientOpt, concurrency int, runner JobRunner) *Worker {
	if concurrency <= 0 {
		concurrency = 1
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueOptimization: 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Printf("Task %s failed: %v", task.Type(), err)
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeOptimizeRoutes, func(ctx context.Context, task *asynq.Task) error {
		payload, err := ParseOptimizePayload(task)
		if err != nil {
			// malformed payloads can never succeed on retry
			return asynq.SkipRetry
		}
		jobID := uuid.MustParse(payload.JobID)
		return runner.Run(ctx, jobID, payload.TimeLimitSeconds)
	})

	return &Worker{server: server, mux: mux}
}

// Run starts consuming tasks and blocks until Shutdown
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Shutdown drains in-flight tasks and stops the server
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}
