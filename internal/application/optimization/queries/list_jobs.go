package queries

import (
	"context"
	"fmt"

	"github.com/andrescamacho/coldroute-go/internal/application/common"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/types"
	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
)

// Type aliases for convenience
type ListJobsQuery = types.ListJobsQuery
type ListJobsResponse = types.ListJobsResponse

// DefaultJobListLimit bounds unfiltered job listings
const DefaultJobListLimit = 50

// ListJobsHandler lists jobs newest first with optional filters
type ListJobsHandler struct {
	jobs planning.JobRepository
}

// NewListJobsHandler creates the list handler
func NewListJobsHandler(jobs planning.JobRepository) *ListJobsHandler {
	return &ListJobsHandler{jobs: jobs}
}

// Handle executes the list query
func (h *ListJobsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*ListJobsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultJobListLimit
	}

	jobs, err := h.jobs.List(ctx, query.PlanDate, query.Status, limit)
	if err != nil {
		return nil, err
	}

	response := &ListJobsResponse{Jobs: make([]types.JobStatusResponse, 0, len(jobs))}
	for _, job := range jobs {
		response.Jobs = append(response.Jobs, *JobStatusFromJob(job))
	}
	return response, nil
}
