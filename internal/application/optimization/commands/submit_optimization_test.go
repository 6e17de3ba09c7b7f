package commands_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/coldroute-go/internal/adapters/persistence"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/commands"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/types"
	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
	"github.com/andrescamacho/coldroute-go/test/helpers"
)

func testSettings() types.Settings {
	return types.Settings{
		Defaults: planning.ParameterDefaults{
			TimeLimitSeconds:   30,
			AmbientTemperature: 30.0,
			InitialVehicleTemp: -5.0,
		},
		AverageSpeedKmh:      30,
		DistanceCostPerKm:    10,
		VehicleFixedCost:     50000,
		InfeasibleCost:       10000000,
		TempViolationPenalty: 100000,
		LateDeliveryPenalty:  1000,
	}
}

var testPlanDate = time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

func TestSubmit_AcceptsAndEnqueues(t *testing.T) {
	db := helpers.NewTestDB(t)
	helpers.SeedVehicle(t, db, "KEA-1207")
	helpers.SeedShipment(t, db, "ORD-001", 25.0478, 121.5170, 50)

	queue := &helpers.FakeQueue{}
	jobs := persistence.NewJobRepository(db)
	handler := commands.NewSubmitOptimizationHandler(
		jobs, persistence.NewVehicleRepository(db), persistence.NewShipmentRepository(db),
		queue, testSettings(), nil,
	)

	response, err := handler.Handle(context.Background(), &types.SubmitOptimizationCommand{PlanDate: testPlanDate})
	require.NoError(t, err)

	accepted := response.(*types.SubmitOptimizationResponse)
	assert.Equal(t, planning.JobPending, accepted.Status)

	require.Len(t, queue.Enqueued, 1)
	assert.Equal(t, accepted.JobID, queue.Enqueued[0].JobID)
	assert.Equal(t, 30, queue.Enqueued[0].TimeLimitSeconds)

	// Task id is persisted on the row
	job, err := jobs.FindByID(context.Background(), accepted.JobID)
	require.NoError(t, err)
	assert.Equal(t, accepted.JobID.String(), job.TaskID())
	assert.Equal(t, planning.JobPending, job.Status())
}

func TestSubmit_FailsFastWithoutVehicles(t *testing.T) {
	db := helpers.NewTestDB(t)
	helpers.SeedShipment(t, db, "ORD-001", 25.0478, 121.5170, 50)

	queue := &helpers.FakeQueue{}
	jobs := persistence.NewJobRepository(db)
	handler := commands.NewSubmitOptimizationHandler(
		jobs, persistence.NewVehicleRepository(db), persistence.NewShipmentRepository(db),
		queue, testSettings(), nil,
	)

	_, err := handler.Handle(context.Background(), &types.SubmitOptimizationCommand{PlanDate: testPlanDate})

	var noResources *shared.NoResourcesError
	require.ErrorAs(t, err, &noResources)
	assert.Equal(t, "vehicles", noResources.Resource)
	assert.Empty(t, queue.Enqueued)

	// No job row was created
	list, err := jobs.List(context.Background(), nil, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubmit_FailsFastWithoutShipments(t *testing.T) {
	db := helpers.NewTestDB(t)
	helpers.SeedVehicle(t, db, "KEA-1207")

	handler := commands.NewSubmitOptimizationHandler(
		persistence.NewJobRepository(db), persistence.NewVehicleRepository(db),
		persistence.NewShipmentRepository(db), &helpers.FakeQueue{}, testSettings(), nil,
	)

	_, err := handler.Handle(context.Background(), &types.SubmitOptimizationCommand{PlanDate: testPlanDate})

	var noResources *shared.NoResourcesError
	require.ErrorAs(t, err, &noResources)
	assert.Equal(t, "shipments", noResources.Resource)
}

func TestSubmit_RejectsOutOfRangeTimeLimit(t *testing.T) {
	db := helpers.NewTestDB(t)
	helpers.SeedVehicle(t, db, "KEA-1207")
	helpers.SeedShipment(t, db, "ORD-001", 25.0478, 121.5170, 50)

	handler := commands.NewSubmitOptimizationHandler(
		persistence.NewJobRepository(db), persistence.NewVehicleRepository(db),
		persistence.NewShipmentRepository(db), &helpers.FakeQueue{}, testSettings(), nil,
	)

	_, err := handler.Handle(context.Background(), &types.SubmitOptimizationCommand{
		PlanDate:   testPlanDate,
		Parameters: planning.JobParameters{TimeLimitSeconds: 5},
	})

	var validation *shared.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestSubmit_EnqueueFailureFailsTheJob(t *testing.T) {
	db := helpers.NewTestDB(t)
	helpers.SeedVehicle(t, db, "KEA-1207")
	helpers.SeedShipment(t, db, "ORD-001", 25.0478, 121.5170, 50)

	queue := &helpers.FakeQueue{EnqueueErr: fmt.Errorf("broker unavailable")}
	jobs := persistence.NewJobRepository(db)
	handler := commands.NewSubmitOptimizationHandler(
		jobs, persistence.NewVehicleRepository(db), persistence.NewShipmentRepository(db),
		queue, testSettings(), nil,
	)

	_, err := handler.Handle(context.Background(), &types.SubmitOptimizationCommand{PlanDate: testPlanDate})
	require.Error(t, err)

	// The orphaned row is FAILED so status polls terminate
	list, listErr := jobs.List(context.Background(), nil, nil, 10)
	require.NoError(t, listErr)
	require.Len(t, list, 1)
	assert.Equal(t, planning.JobFailed, list[0].Status())
}
