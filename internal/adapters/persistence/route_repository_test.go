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
	"github.com/andrescamacho/coldroute-go/internal/domain/shipment"
	"github.com/andrescamacho/coldroute-go/test/helpers"
)

// planFixture is a one-route plan over a seeded vehicle and shipment, with
// the job already claimed and the entity finalized for persistence
type planFixture struct {
	job      *planning.OptimizationJob
	route    *planning.Route
	shipment *shipment.Shipment
	plan     *planning.MaterializedPlan
}

func buildPlan(t *testing.T, db *gorm.DB, code string) *planFixture {
	t.Helper()
	vehicle := helpers.SeedVehicle(t, db, "KEA-"+code)
	routed := helpers.SeedShipment(t, db, "ORD-"+code, 25.0478, 121.5170, 50)
	job := seedJob(t, db)

	jobs := persistence.NewJobRepository(db)
	claimed, err := jobs.MarkRunning(context.Background(), job.ID(), repoPlanDate.Add(6*time.Hour))
	require.NoError(t, err)
	require.True(t, claimed)

	running, err := jobs.FindByID(context.Background(), job.ID())
	require.NoError(t, err)

	routeID := uuid.New()
	jobID := job.ID()
	arrival := repoPlanDate.Add(9 * time.Hour)
	route := &planning.Route{
		ID:                 routeID,
		RouteCode:          "R-20260825-KEA-" + code,
		PlanDate:           repoPlanDate,
		VehicleID:          vehicle.ID(),
		Status:             planning.RouteScheduled,
		TotalStops:         1,
		TotalDistanceKm:    8.4,
		TotalDuration:      55,
		TotalWeightKg:      50,
		InitialTemperature: -5.0,
		DepotAddress:       "Taipei Main Station",
		DepotLatitude:      25.0330,
		DepotLongitude:     121.5654,
		OptimizationJobID:  &jobID,
		Stops: []*planning.RouteStop{{
			ID:                   uuid.New(),
			RouteID:              routeID,
			ShipmentID:           routed.ID(),
			SequenceNumber:       1,
			Latitude:             routed.Latitude(),
			Longitude:            routed.Longitude(),
			Address:              routed.DeliveryAddress(),
			ExpectedArrivalAt:    arrival,
			ExpectedDepartureAt:  arrival.Add(15 * time.Minute),
			PredictedArrivalTemp: -1.2,
			IsTempFeasible:       true,
		}},
	}

	clock := shared.NewMockClock(repoPlanDate.Add(6*time.Hour + 30*time.Second))
	require.NoError(t, running.MarkCompleted(
		[]uuid.UUID{routeID}, nil,
		planning.ResultSummary{RoutesCreated: 1, ShipmentsAssigned: 1, SolverStatus: "OPTIMAL"},
		clock,
	))

	return &planFixture{
		job:      job,
		route:    route,
		shipment: routed,
		plan: &planning.MaterializedPlan{
			Job:    running,
			Routes: []*planning.Route{route},
			Assignments: []planning.ShipmentAssignment{
				{ShipmentID: routed.ID(), RouteID: routeID, Sequence: 1},
			},
		},
	}
}

func TestPersistPlan_CommitsEverythingAtomically(t *testing.T) {
	db := helpers.NewTestDB(t)
	fixture := buildPlan(t, db, "1001")
	routes := persistence.NewRouteRepository(db)

	committed, err := routes.PersistPlan(context.Background(), fixture.plan)
	require.NoError(t, err)
	require.True(t, committed)

	stored, err := routes.FindByID(context.Background(), fixture.route.ID)
	require.NoError(t, err)
	assert.Equal(t, fixture.route.RouteCode, stored.RouteCode)
	require.Len(t, stored.Stops, 1)
	assert.Equal(t, 1, stored.Stops[0].SequenceNumber)

	s, err := persistence.NewShipmentRepository(db).FindByID(context.Background(), fixture.shipment.ID())
	require.NoError(t, err)
	assert.Equal(t, shipment.StatusAssigned, s.Status())

	job, err := persistence.NewJobRepository(db).FindByID(context.Background(), fixture.job.ID())
	require.NoError(t, err)
	assert.Equal(t, planning.JobCompleted, job.Status())
	assert.Equal(t, []uuid.UUID{fixture.route.ID}, job.RouteIDs())
}

func TestPersistPlan_CancelledJobDiscardsThePlan(t *testing.T) {
	db := helpers.NewTestDB(t)
	fixture := buildPlan(t, db, "1002")

	// Cancel wins the race while the worker is materializing
	jobs := persistence.NewJobRepository(db)
	cancelled, err := jobs.MarkCancelled(context.Background(), fixture.job.ID(), repoPlanDate.Add(7*time.Hour))
	require.NoError(t, err)
	require.True(t, cancelled)

	routes := persistence.NewRouteRepository(db)
	committed, err := routes.PersistPlan(context.Background(), fixture.plan)
	require.NoError(t, err)
	assert.False(t, committed)

	// Nothing partial survived the rollback
	_, err = routes.FindByID(context.Background(), fixture.route.ID)
	var notFound *shared.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	s, err := persistence.NewShipmentRepository(db).FindByID(context.Background(), fixture.shipment.ID())
	require.NoError(t, err)
	assert.Equal(t, shipment.StatusPending, s.Status())
	assert.Nil(t, s.RouteID())
}

func TestPersistPlan_NonPendingShipmentRollsBack(t *testing.T) {
	db := helpers.NewTestDB(t)
	fixture := buildPlan(t, db, "1003")

	// Another plan grabbed the shipment first
	taken := buildPlan(t, db, "1004")
	taken.plan.Assignments[0].ShipmentID = fixture.shipment.ID()
	routes := persistence.NewRouteRepository(db)
	committed, err := routes.PersistPlan(context.Background(), taken.plan)
	require.NoError(t, err)
	require.True(t, committed)

	_, err = routes.PersistPlan(context.Background(), fixture.plan)
	var conflict *shared.ConflictError
	require.ErrorAs(t, err, &conflict)

	_, err = routes.FindByID(context.Background(), fixture.route.ID)
	var notFound *shared.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestUpdateStatus_Transitions(t *testing.T) {
	db := helpers.NewTestDB(t)
	fixture := buildPlan(t, db, "1005")
	routes := persistence.NewRouteRepository(db)

	committed, err := routes.PersistPlan(context.Background(), fixture.plan)
	require.NoError(t, err)
	require.True(t, committed)

	require.NoError(t, routes.UpdateStatus(context.Background(), fixture.route.ID, planning.RouteInProgress))

	stored, err := routes.FindByID(context.Background(), fixture.route.ID)
	require.NoError(t, err)
	assert.Equal(t, planning.RouteInProgress, stored.Status)
	assert.NotNil(t, stored.ActualDepartureAt)

	// SCHEDULED is behind IN_PROGRESS, the state machine rejects going back
	err = routes.UpdateStatus(context.Background(), fixture.route.ID, planning.RouteScheduled)
	var conflict *shared.ConflictError
	assert.ErrorAs(t, err, &conflict)

	require.NoError(t, routes.UpdateStatus(context.Background(), fixture.route.ID, planning.RouteCompleted))
	stored, err = routes.FindByID(context.Background(), fixture.route.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.ActualReturnAt)
}

func TestUpdateStop_RecordsExecution(t *testing.T) {
	db := helpers.NewTestDB(t)
	fixture := buildPlan(t, db, "1006")
	routes := persistence.NewRouteRepository(db)

	committed, err := routes.PersistPlan(context.Background(), fixture.plan)
	require.NoError(t, err)
	require.True(t, committed)
	stopID := fixture.route.Stops[0].ID

	arrival := repoPlanDate.Add(9*time.Hour + 12*time.Minute)
	temp := 1.4
	status := planning.DeliverySucceeded
	notes := "left with reception"
	err = routes.UpdateStop(context.Background(), fixture.route.ID, stopID, planning.StopExecutionUpdate{
		ActualArrivalAt:   &arrival,
		ActualTemperature: &temp,
		DeliveryStatus:    &status,
		Notes:             &notes,
	})
	require.NoError(t, err)

	stored, err := routes.FindByID(context.Background(), fixture.route.ID)
	require.NoError(t, err)
	stop := stored.Stops[0]
	require.NotNil(t, stop.ActualArrivalAt)
	assert.InDelta(t, 1.4, *stop.ActualTemperature, 1e-9)
	require.NotNil(t, stop.DeliveryStatus)
	assert.Equal(t, planning.DeliverySucceeded, *stop.DeliveryStatus)
	assert.Equal(t, "left with reception", stop.Notes)
}

func TestUpdateStop_Guards(t *testing.T) {
	db := helpers.NewTestDB(t)
	fixture := buildPlan(t, db, "1007")
	routes := persistence.NewRouteRepository(db)

	committed, err := routes.PersistPlan(context.Background(), fixture.plan)
	require.NoError(t, err)
	require.True(t, committed)

	err = routes.UpdateStop(context.Background(), fixture.route.ID, fixture.route.Stops[0].ID, planning.StopExecutionUpdate{})
	var validation *shared.ValidationError
	assert.ErrorAs(t, err, &validation)

	temp := 2.0
	err = routes.UpdateStop(context.Background(), fixture.route.ID, uuid.New(), planning.StopExecutionUpdate{ActualTemperature: &temp})
	var notFound *shared.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
