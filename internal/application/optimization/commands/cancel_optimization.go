package commands

import (
	"context"
	"fmt"
	"log"

	"github.com/andrescamacho/coldroute-go/internal/application/common"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/types"
	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
)

// Type aliases for convenience
type CancelOptimizationCommand = types.CancelOptimizationCommand
type CancelOptimizationResponse = types.CancelOptimizationResponse

// CancelOptimizationHandler revokes a pre-terminal job: it marks the row
// CANCELLED and asks the broker to drop or interrupt the task. A worker
// already past materialization wins the race; cancellation then reports a
// conflict.
type CancelOptimizationHandler struct {
	jobs  planning.JobRepository
	queue planning.TaskQueue
	clock shared.Clock
}

// NewCancelOptimizationHandler creates the cancel handler
func NewCancelOptimizationHandler(jobs planning.JobRepository, queue planning.TaskQueue, clock shared.Clock) *CancelOptimizationHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &CancelOptimizationHandler{jobs: jobs, queue: queue, clock: clock}
}

// Handle executes the cancel command
func (h *CancelOptimizationHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*CancelOptimizationCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	job, err := h.jobs.FindByID(ctx, cmd.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status().IsTerminal() {
		return nil, shared.NewConflictError("cannot cancel job with status " + string(job.Status()))
	}

	// Mark first so the database guard settles the race with the worker, then
	// revoke the broker task best-effort.
	cancelled, err := h.jobs.MarkCancelled(ctx, cmd.JobID, h.clock.Now())
	if err != nil {
		return nil, err
	}
	if !cancelled {
		return nil, shared.NewConflictError("job finished before cancellation")
	}

	if err := h.queue.CancelOptimization(ctx, job.TaskID()); err != nil {
		log.Printf("Broker revocation for job %s failed: %v", cmd.JobID, err)
	}

	log.Printf("Cancelled optimization job %s", cmd.JobID)

	return &CancelOptimizationResponse{
		JobID:  cmd.JobID,
		Status: planning.JobCancelled,
	}, nil
}
