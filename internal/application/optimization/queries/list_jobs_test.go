package queries_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/coldroute-go/internal/adapters/persistence"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/queries"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/types"
	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/test/helpers"
)

func TestListJobs_FiltersByPlanDate(t *testing.T) {
	db := helpers.NewTestDB(t)
	otherDate := queryPlanDate.AddDate(0, 0, 1)
	newPendingJob(t, db, queryPlanDate)
	newPendingJob(t, db, queryPlanDate)
	newPendingJob(t, db, otherDate)

	handler := queries.NewListJobsHandler(persistence.NewJobRepository(db))

	response, err := handler.Handle(context.Background(), &types.ListJobsQuery{PlanDate: &queryPlanDate})
	require.NoError(t, err)
	assert.Len(t, response.(*types.ListJobsResponse).Jobs, 2)
}

func TestListJobs_FiltersByStatus(t *testing.T) {
	db := helpers.NewTestDB(t)
	pending := newPendingJob(t, db, queryPlanDate)
	failed := newPendingJob(t, db, queryPlanDate)

	jobs := persistence.NewJobRepository(db)
	_, err := jobs.MarkRunning(context.Background(), failed.ID(), queryPlanDate.Add(6*time.Hour))
	require.NoError(t, err)
	_, err = jobs.MarkFailed(context.Background(), failed.ID(), "solver execution failed", "", queryPlanDate.Add(7*time.Hour))
	require.NoError(t, err)

	handler := queries.NewListJobsHandler(jobs)

	status := planning.JobFailed
	response, err := handler.Handle(context.Background(), &types.ListJobsQuery{Status: &status})
	require.NoError(t, err)

	listed := response.(*types.ListJobsResponse).Jobs
	require.Len(t, listed, 1)
	assert.Equal(t, failed.ID(), listed[0].JobID)
	assert.Equal(t, "solver execution failed", listed[0].ErrorMessage)
	assert.NotEqual(t, pending.ID(), listed[0].JobID)
}

func TestListJobs_LimitIsApplied(t *testing.T) {
	db := helpers.NewTestDB(t)
	newPendingJob(t, db, queryPlanDate)
	newPendingJob(t, db, queryPlanDate)
	newPendingJob(t, db, queryPlanDate)

	handler := queries.NewListJobsHandler(persistence.NewJobRepository(db))

	response, err := handler.Handle(context.Background(), &types.ListJobsQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, response.(*types.ListJobsResponse).Jobs, 2)

	// Zero limit falls back to the default, not an empty list
	response, err = handler.Handle(context.Background(), &types.ListJobsQuery{})
	require.NoError(t, err)
	assert.Len(t, response.(*types.ListJobsResponse).Jobs, 3)
}
