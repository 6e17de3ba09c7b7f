// Package queries holds the optimization read-side use cases.
package queries

import (
	"context"
	"fmt"
	"log"

	"github.com/andrescamacho/coldroute-go/internal/application/common"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/types"
	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
)

// Type aliases for convenience
type GetJobStatusQuery = types.GetJobStatusQuery
type JobStatusResponse = types.JobStatusResponse

// GetJobStatusHandler answers status polls. For completed jobs the result
// summary is served from the cache when present, falling back to the row.
type GetJobStatusHandler struct {
	jobs  planning.JobRepository
	cache types.ResultCache
}

// NewGetJobStatusHandler creates the status handler. cache may be nil.
func NewGetJobStatusHandler(jobs planning.JobRepository, cache types.ResultCache) *GetJobStatusHandler {
	return &GetJobStatusHandler{jobs: jobs, cache: cache}
}

// Handle executes the status query
func (h *GetJobStatusHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*GetJobStatusQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	job, err := h.jobs.FindByID(ctx, query.JobID)
	if err != nil {
		return nil, err
	}

	response := JobStatusFromJob(job)

	if job.Status() == planning.JobCompleted && h.cache != nil {
		cached, err := h.cache.GetResult(ctx, query.JobID)
		if err != nil {
			log.Printf("Result cache read for job %s failed: %v", query.JobID, err)
		} else if cached != nil {
			response.Result = cached
		}
	}

	return response, nil
}

// JobStatusFromJob maps a job entity onto the poll read model
func JobStatusFromJob(job *planning.OptimizationJob) *JobStatusResponse {
	return &JobStatusResponse{
		JobID:                 job.ID(),
		TaskID:                job.TaskID(),
		Status:                job.Status(),
		Progress:              job.Progress(),
		PlanDate:              job.PlanDate(),
		CreatedAt:             job.CreatedAt(),
		StartedAt:             job.StartedAt(),
		CompletedAt:           job.CompletedAt(),
		DurationSeconds:       job.DurationSeconds(),
		Result:                job.ResultSummary(),
		ErrorMessage:          job.ErrorMessage(),
		RouteIDs:              job.RouteIDs(),
		UnassignedShipmentIDs: job.UnassignedShipmentIDs(),
	}
}
