package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/andrescamacho/coldroute-go/internal/adapters/persistence"
	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
	"github.com/andrescamacho/coldroute-go/test/helpers"
)

var repoPlanDate = time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

func seedJob(t *testing.T, db *gorm.DB) *planning.OptimizationJob {
	t.Helper()
	params := planning.JobParameters{}
	params.ApplyDefaults(planning.ParameterDefaults{
		TimeLimitSeconds:   30,
		AmbientTemperature: 30.0,
		InitialVehicleTemp: -5.0,
	})
	job, err := planning.NewOptimizationJob(uuid.Nil, repoPlanDate, nil, nil, params, nil)
	require.NoError(t, err)
	require.NoError(t, persistence.NewJobRepository(db).Create(context.Background(), job))
	return job
}

func TestJobRepository_Roundtrip(t *testing.T) {
	db := helpers.NewTestDB(t)
	job := seedJob(t, db)

	stored, err := persistence.NewJobRepository(db).FindByID(context.Background(), job.ID())
	require.NoError(t, err)

	assert.Equal(t, job.ID(), stored.ID())
	assert.Equal(t, planning.JobPending, stored.Status())
	assert.Equal(t, 0, stored.Progress())
	assert.True(t, stored.PlanDate().Equal(repoPlanDate))
	assert.Equal(t, 30, stored.Parameters().TimeLimitSeconds)
	assert.InDelta(t, 30.0, *stored.Parameters().AmbientTemperature, 1e-9)
	assert.Nil(t, stored.StartedAt())
	assert.Nil(t, stored.ResultSummary())
}

func TestJobRepository_MarkRunningClaimsOnce(t *testing.T) {
	db := helpers.NewTestDB(t)
	job := seedJob(t, db)
	jobs := persistence.NewJobRepository(db)

	claimed, err := jobs.MarkRunning(context.Background(), job.ID(), repoPlanDate.Add(6*time.Hour))
	require.NoError(t, err)
	assert.True(t, claimed)

	// A broker redelivery must not restart the job
	claimed, err = jobs.MarkRunning(context.Background(), job.ID(), repoPlanDate.Add(6*time.Hour))
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestJobRepository_MarkRunningReclaimsFailedRow(t *testing.T) {
	db := helpers.NewTestDB(t)
	job := seedJob(t, db)
	jobs := persistence.NewJobRepository(db)

	_, err := jobs.MarkRunning(context.Background(), job.ID(), repoPlanDate.Add(6*time.Hour))
	require.NoError(t, err)

	failed, err := jobs.MarkFailed(context.Background(), job.ID(), "solver execution failed", "dial tcp: refused", repoPlanDate.Add(6*time.Hour))
	require.NoError(t, err)
	require.True(t, failed)

	// A broker retry restarts the failed attempt with clean error fields
	claimed, err := jobs.MarkRunning(context.Background(), job.ID(), repoPlanDate.Add(7*time.Hour))
	require.NoError(t, err)
	assert.True(t, claimed)

	stored, err := jobs.FindByID(context.Background(), job.ID())
	require.NoError(t, err)
	assert.Equal(t, planning.JobRunning, stored.Status())
	assert.Equal(t, 5, stored.Progress())
	assert.Empty(t, stored.ErrorMessage())
	assert.Nil(t, stored.CompletedAt())

	// Cancelled rows stay unclaimable
	_, err = jobs.MarkCancelled(context.Background(), job.ID(), repoPlanDate.Add(8*time.Hour))
	require.NoError(t, err)

	claimed, err = jobs.MarkRunning(context.Background(), job.ID(), repoPlanDate.Add(9*time.Hour))
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestJobRepository_ProgressGuards(t *testing.T) {
	db := helpers.NewTestDB(t)
	job := seedJob(t, db)
	jobs := persistence.NewJobRepository(db)

	// Progress writes require RUNNING
	written, err := jobs.UpdateProgress(context.Background(), job.ID(), 50)
	require.NoError(t, err)
	assert.False(t, written)

	_, err = jobs.MarkRunning(context.Background(), job.ID(), repoPlanDate.Add(6*time.Hour))
	require.NoError(t, err)

	written, err = jobs.UpdateProgress(context.Background(), job.ID(), 50)
	require.NoError(t, err)
	assert.True(t, written)

	// Regressions are discarded in SQL
	written, err = jobs.UpdateProgress(context.Background(), job.ID(), 40)
	require.NoError(t, err)
	assert.False(t, written)

	// A cancelled row rejects further progress, which tells the reporter to
	// abort the run
	_, err = jobs.MarkCancelled(context.Background(), job.ID(), repoPlanDate.Add(7*time.Hour))
	require.NoError(t, err)

	written, err = jobs.UpdateProgress(context.Background(), job.ID(), 60)
	require.NoError(t, err)
	assert.False(t, written)
}

func TestJobRepository_TerminalRowsAreNeverOverwritten(t *testing.T) {
	db := helpers.NewTestDB(t)
	job := seedJob(t, db)
	jobs := persistence.NewJobRepository(db)

	cancelled, err := jobs.MarkCancelled(context.Background(), job.ID(), repoPlanDate)
	require.NoError(t, err)
	require.True(t, cancelled)

	failed, err := jobs.MarkFailed(context.Background(), job.ID(), "boom", "", repoPlanDate)
	require.NoError(t, err)
	assert.False(t, failed)

	cancelled, err = jobs.MarkCancelled(context.Background(), job.ID(), repoPlanDate)
	require.NoError(t, err)
	assert.False(t, cancelled)

	stored, err := jobs.FindByID(context.Background(), job.ID())
	require.NoError(t, err)
	assert.Equal(t, planning.JobCancelled, stored.Status())
	assert.Empty(t, stored.ErrorMessage())
}

func TestJobRepository_SetTaskIDUnknownJob(t *testing.T) {
	db := helpers.NewTestDB(t)

	err := persistence.NewJobRepository(db).SetTaskID(context.Background(), uuid.New(), "task-1")

	var notFound *shared.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestJobRepository_ListNewestFirst(t *testing.T) {
	db := helpers.NewTestDB(t)
	jobs := persistence.NewJobRepository(db)

	first := seedJob(t, db)
	_, err := jobs.MarkRunning(context.Background(), first.ID(), repoPlanDate.Add(6*time.Hour))
	require.NoError(t, err)
	seedJob(t, db)

	status := planning.JobRunning
	listed, err := jobs.List(context.Background(), nil, &status, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, first.ID(), listed[0].ID())

	listed, err = jobs.List(context.Background(), nil, nil, 1)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}
