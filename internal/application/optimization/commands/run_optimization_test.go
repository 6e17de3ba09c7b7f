package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/andrescamacho/coldroute-go/internal/adapters/persistence"
	"github.com/andrescamacho/coldroute-go/internal/adapters/solving"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/commands"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/services"
	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/internal/domain/shipment"
	"github.com/andrescamacho/coldroute-go/test/helpers"
)

func newRunHandler(db *gorm.DB) *commands.RunOptimizationHandler {
	return newRunHandlerWith(db, solving.NewClient())
}

func newRunHandlerWith(db *gorm.DB, client planning.SolverClient) *commands.RunOptimizationHandler {
	settings := testSettings()
	jobs := persistence.NewJobRepository(db)
	return commands.NewRunOptimizationHandler(
		jobs,
		persistence.NewVehicleRepository(db),
		persistence.NewShipmentRepository(db),
		persistence.NewDepotRepository(db),
		persistence.NewRouteRepository(db),
		client,
		services.NewMaterializer(settings.DistanceCostPerKm, nil),
		services.NewProgressReporter(jobs, time.Minute, nil),
		nil,
		settings,
		nil,
	)
}

// stubSolver replaces the engine when a test needs a fixed outcome
type stubSolver struct {
	result *planning.SolveResult
	err    error
}

func (s *stubSolver) Solve(context.Context, *planning.SolveRequest) (*planning.SolveResult, error) {
	return s.result, s.err
}

func TestRun_CompletesAndPersistsThePlan(t *testing.T) {
	db := helpers.NewTestDB(t)
	helpers.SeedVehicle(t, db, "KEA-1207")
	helpers.SeedDepot(t, db)
	first := helpers.SeedShipment(t, db, "ORD-001", 25.0478, 121.5170, 50)
	second := helpers.SeedShipment(t, db, "ORD-002", 25.0200, 121.5400, 30)
	job := createPendingJob(t, db, "")

	handler := newRunHandler(db)
	require.NoError(t, handler.Run(context.Background(), job.ID(), 10))

	jobs := persistence.NewJobRepository(db)
	completed, err := jobs.FindByID(context.Background(), job.ID())
	require.NoError(t, err)
	require.Equal(t, planning.JobCompleted, completed.Status())
	assert.Equal(t, 100, completed.Progress())

	summary := completed.ResultSummary()
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.RoutesCreated)
	assert.Equal(t, 2, summary.ShipmentsAssigned)
	assert.Equal(t, 0, summary.ShipmentsUnassigned)

	// Routes landed with gapless stops
	routes, err := persistence.NewRouteRepository(db).FindByJobID(context.Background(), job.ID())
	require.NoError(t, err)
	require.Len(t, routes, 1)
	require.Len(t, routes[0].Stops, 2)
	assert.Equal(t, planning.RouteScheduled, routes[0].Status)

	// Shipments moved to ASSIGNED with their route references
	shipments := persistence.NewShipmentRepository(db)
	for _, id := range []struct {
		order string
	}{{first.OrderNumber()}, {second.OrderNumber()}} {
		s, err := shipments.FindByOrderNumber(context.Background(), id.order)
		require.NoError(t, err)
		assert.Equal(t, shipment.StatusAssigned, s.Status())
		require.NotNil(t, s.RouteID())
		assert.Equal(t, routes[0].ID, *s.RouteID())
	}
}

func TestRun_SkipsJobsAlreadyCancelled(t *testing.T) {
	db := helpers.NewTestDB(t)
	job := createPendingJob(t, db, "")

	jobs := persistence.NewJobRepository(db)
	_, err := jobs.MarkCancelled(context.Background(), job.ID(), time.Now().UTC())
	require.NoError(t, err)

	handler := newRunHandler(db)
	require.NoError(t, handler.Run(context.Background(), job.ID(), 10))

	stored, err := jobs.FindByID(context.Background(), job.ID())
	require.NoError(t, err)
	assert.Equal(t, planning.JobCancelled, stored.Status())
	assert.Nil(t, stored.ResultSummary())
}

func TestRun_FailsWithoutPendingShipments(t *testing.T) {
	db := helpers.NewTestDB(t)
	helpers.SeedVehicle(t, db, "KEA-1207")
	helpers.SeedDepot(t, db)
	job := createPendingJob(t, db, "")

	handler := newRunHandler(db)
	require.NoError(t, handler.Run(context.Background(), job.ID(), 10))

	stored, err := persistence.NewJobRepository(db).FindByID(context.Background(), job.ID())
	require.NoError(t, err)
	assert.Equal(t, planning.JobFailed, stored.Status())
	assert.Contains(t, stored.ErrorMessage(), "no pending shipments")
}

func TestRun_FailsWithoutDepot(t *testing.T) {
	db := helpers.NewTestDB(t)
	helpers.SeedVehicle(t, db, "KEA-1207")
	helpers.SeedShipment(t, db, "ORD-001", 25.0478, 121.5170, 50)
	job := createPendingJob(t, db, "")

	handler := newRunHandler(db)
	require.NoError(t, handler.Run(context.Background(), job.ID(), 10))

	stored, err := persistence.NewJobRepository(db).FindByID(context.Background(), job.ID())
	require.NoError(t, err)
	assert.Equal(t, planning.JobFailed, stored.Status())
	assert.Contains(t, stored.ErrorMessage(), "depot")
}

func TestRun_DepotOverrideSkipsTheLookup(t *testing.T) {
	db := helpers.NewTestDB(t)
	helpers.SeedVehicle(t, db, "KEA-1207")
	helpers.SeedShipment(t, db, "ORD-001", 25.0478, 121.5170, 50)

	lat, lon := 25.0330, 121.5654
	params := planning.JobParameters{DepotLatitude: &lat, DepotLongitude: &lon, DepotAddress: "Override Depot"}
	params.ApplyDefaults(testSettings().Defaults)

	job, err := planning.NewOptimizationJob(uuid.Nil, testPlanDate, nil, nil, params, nil)
	require.NoError(t, err)
	jobs := persistence.NewJobRepository(db)
	require.NoError(t, jobs.Create(context.Background(), job))

	handler := newRunHandler(db)
	require.NoError(t, handler.Run(context.Background(), job.ID(), 10))

	stored, err := jobs.FindByID(context.Background(), job.ID())
	require.NoError(t, err)
	require.Equal(t, planning.JobCompleted, stored.Status())

	routes, err := persistence.NewRouteRepository(db).FindByJobID(context.Background(), job.ID())
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "Override Depot", routes[0].DepotAddress)
	assert.InDelta(t, lat, routes[0].DepotLatitude, 1e-9)
}

func TestRun_SolverErrorPropagatesAndRetrySucceeds(t *testing.T) {
	db := helpers.NewTestDB(t)
	helpers.SeedVehicle(t, db, "KEA-1207")
	helpers.SeedDepot(t, db)
	helpers.SeedShipment(t, db, "ORD-001", 25.0478, 121.5170, 50)
	job := createPendingJob(t, db, "")

	broken := newRunHandlerWith(db, &stubSolver{err: errors.New("backend unavailable")})
	err := broken.Run(context.Background(), job.ID(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "solver execution failed")

	jobs := persistence.NewJobRepository(db)
	stored, err := jobs.FindByID(context.Background(), job.ID())
	require.NoError(t, err)
	assert.Equal(t, planning.JobFailed, stored.Status())
	assert.Contains(t, stored.ErrorMessage(), "solver execution failed")

	// A broker redelivery re-claims the FAILED row and finishes the job
	require.NoError(t, newRunHandler(db).Run(context.Background(), job.ID(), 10))

	retried, err := jobs.FindByID(context.Background(), job.ID())
	require.NoError(t, err)
	assert.Equal(t, planning.JobCompleted, retried.Status())
	assert.Empty(t, retried.ErrorMessage())
}

func TestRun_NoResourceFailuresAreNotRetried(t *testing.T) {
	db := helpers.NewTestDB(t)
	helpers.SeedVehicle(t, db, "KEA-1207")
	helpers.SeedDepot(t, db)
	job := createPendingJob(t, db, "")

	// No pending shipments: the FAILED row is written and no error surfaces
	// to the broker
	require.NoError(t, newRunHandler(db).Run(context.Background(), job.ID(), 10))

	stored, err := persistence.NewJobRepository(db).FindByID(context.Background(), job.ID())
	require.NoError(t, err)
	assert.Equal(t, planning.JobFailed, stored.Status())
}

func TestRun_PartialTimeoutPublishesRoutes(t *testing.T) {
	db := helpers.NewTestDB(t)
	helpers.SeedVehicle(t, db, "KEA-1207")
	helpers.SeedDepot(t, db)
	helpers.SeedShipment(t, db, "ORD-001", 25.0478, 121.5170, 50)
	job := createPendingJob(t, db, "")

	timedOut := &stubSolver{result: &planning.SolveResult{
		Status: planning.SolverTimeout,
		Tours: []planning.VehicleTour{{
			VehicleIndex:    0,
			Nodes:           []int{1},
			ArrivalMinutes:  []int{520},
			SlackMinutes:    []int{0},
			DepartureMinute: 480,
			ReturnMinute:    560,
		}},
	}}

	handler := newRunHandlerWith(db, timedOut)
	require.NoError(t, handler.Run(context.Background(), job.ID(), 10))

	stored, err := persistence.NewJobRepository(db).FindByID(context.Background(), job.ID())
	require.NoError(t, err)
	require.Equal(t, planning.JobCompleted, stored.Status())

	summary := stored.ResultSummary()
	require.NotNil(t, summary)
	assert.Equal(t, string(planning.SolverTimeout), summary.SolverStatus)
	assert.Equal(t, 1, summary.RoutesCreated)

	routes, err := persistence.NewRouteRepository(db).FindByJobID(context.Background(), job.ID())
	require.NoError(t, err)
	require.Len(t, routes, 1)
	require.Len(t, routes[0].Stops, 1)
}

func TestRun_StrictOverweightShipmentFailsInfeasible(t *testing.T) {
	db := helpers.NewTestDB(t)
	helpers.SeedVehicle(t, db, "KEA-1207") // 1000 kg capacity
	helpers.SeedDepot(t, db)

	heavy, err := shipment.NewShipment(
		uuid.Nil, "ORD-HEAVY", "No. 100, Roosevelt Road", 25.0478, 121.5170,
		[]shipment.TimeWindow{{Start: "08:00", End: "12:00"}},
		shipment.SLAStrict, 5.0, nil, 15, 2000, nil, 90,
	)
	require.NoError(t, err)
	require.NoError(t, persistence.NewShipmentRepository(db).Save(context.Background(), heavy))

	job := createPendingJob(t, db, "")

	handler := newRunHandler(db)
	require.NoError(t, handler.Run(context.Background(), job.ID(), 10))

	stored, err := persistence.NewJobRepository(db).FindByID(context.Background(), job.ID())
	require.NoError(t, err)
	assert.Equal(t, planning.JobFailed, stored.Status())
	assert.Contains(t, stored.ErrorMessage(), "no feasible assignment")
}
