package services_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/coldroute-go/internal/application/optimization/services"
	"github.com/andrescamacho/coldroute-go/internal/domain/fleet"
	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
	"github.com/andrescamacho/coldroute-go/internal/domain/shipment"
)

var planDate = time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

func runningJob(t *testing.T, clock shared.Clock) *planning.OptimizationJob {
	t.Helper()
	params := planning.JobParameters{}
	params.ApplyDefaults(planning.ParameterDefaults{
		TimeLimitSeconds:   300,
		AmbientTemperature: 30.0,
		InitialVehicleTemp: -5.0,
	})
	job, err := planning.NewOptimizationJob(uuid.Nil, planDate, nil, nil, params, clock)
	require.NoError(t, err)
	require.NoError(t, job.MarkRunning(clock))
	return job
}

func reeferVehicle(t *testing.T) *fleet.Vehicle {
	t.Helper()
	v, err := fleet.NewVehicle(
		uuid.Nil, "KEA-1207", 1000, 12,
		fleet.InsulationStandard, fleet.DoorRoll, false,
		-2.5, -20, fleet.VehicleAvailable,
	)
	require.NoError(t, err)
	return v
}

func coldShipment(t *testing.T, order string, lat, lon, weight float64) *shipment.Shipment {
	t.Helper()
	s, err := shipment.NewShipment(
		uuid.Nil, order, "No. 7, Section 5, Xinyi Road", lat, lon,
		[]shipment.TimeWindow{{Start: "08:00", End: "12:00"}},
		shipment.SLAStandard, 5.0, nil, 15, weight, nil, 50,
	)
	require.NoError(t, err)
	return s
}

func materializeFixture(t *testing.T) (*planning.MaterializedPlan, services.MaterializeInput) {
	t.Helper()
	clock := shared.NewMockClock(planDate.Add(6 * time.Hour))
	job := runningJob(t, clock)
	vehicle := reeferVehicle(t)
	shipments := []*shipment.Shipment{
		coldShipment(t, "ORD-001", 25.0478, 121.5170, 50),
		coldShipment(t, "ORD-002", 25.0200, 121.5400, 30),
	}

	depot := services.DepotInfo{Address: "Taipei Depot", Latitude: 25.0330, Longitude: 121.5654}
	matrices := planning.BuildTravelMatrices(
		planning.Location{Latitude: depot.Latitude, Longitude: depot.Longitude},
		[]planning.Location{
			{Latitude: shipments[0].Latitude(), Longitude: shipments[0].Longitude()},
			{Latitude: shipments[1].Latitude(), Longitude: shipments[1].Longitude()},
		},
		30,
	)

	result := &planning.SolveResult{
		Status:    planning.SolverOptimal,
		Objective: 123456,
		SolveTime: 2 * time.Second,
		Tours: []planning.VehicleTour{
			{
				VehicleIndex:    0,
				Nodes:           []int{1, 2},
				ArrivalMinutes:  []int{490, 530},
				SlackMinutes:    []int{10, 0},
				DepartureMinute: 470,
				ReturnMinute:    560,
			},
		},
	}

	input := services.MaterializeInput{
		Job:       job,
		Vehicles:  []*fleet.Vehicle{vehicle},
		Shipments: shipments,
		Depot:     depot,
		Matrices:  matrices,
		Result:    result,
	}

	materializer := services.NewMaterializer(10, clock)
	plan, err := materializer.Materialize(input)
	require.NoError(t, err)
	return plan, input
}

func TestMaterialize_BuildsGaplessStopSequences(t *testing.T) {
	plan, _ := materializeFixture(t)

	require.Len(t, plan.Routes, 1)
	route := plan.Routes[0]
	require.Len(t, route.Stops, 2)

	assert.Equal(t, 1, route.Stops[0].SequenceNumber)
	assert.Equal(t, 2, route.Stops[1].SequenceNumber)
	assert.Equal(t, 2, route.TotalStops)
	require.NoError(t, route.Validate())
}

func TestMaterialize_StopSchedule(t *testing.T) {
	plan, input := materializeFixture(t)

	route := plan.Routes[0]
	first := route.Stops[0]

	assert.Equal(t, planDate.Add(490*time.Minute), first.ExpectedArrivalAt)
	assert.Equal(t, planDate.Add(505*time.Minute), first.ExpectedDepartureAt)
	assert.Equal(t, 0, first.TargetTimeWindowIndex)
	require.NotNil(t, first.SlackMinutes)
	assert.Equal(t, 10, *first.SlackMinutes)

	require.NotNil(t, first.DistanceFromPrevKm)
	assert.InDelta(t, input.Matrices.DistanceKm(0, 1), *first.DistanceFromPrevKm, 1e-9)
}

func TestMaterialize_RouteTotalsCloseTheLoop(t *testing.T) {
	plan, input := materializeFixture(t)

	route := plan.Routes[0]
	expected := input.Matrices.DistanceKm(0, 1) + input.Matrices.DistanceKm(1, 2) + input.Matrices.DistanceKm(2, 0)
	assert.InDelta(t, expected, route.TotalDistanceKm, 1e-9)
	assert.Equal(t, 90, route.TotalDuration)
	assert.InDelta(t, 80.0, route.TotalWeightKg, 1e-9)

	require.NotNil(t, route.OptimizationCost)
	assert.InDelta(t, route.TotalDistanceKm*10, *route.OptimizationCost, 1e-9)
}

func TestMaterialize_RouteCodeAndStatus(t *testing.T) {
	plan, input := materializeFixture(t)

	route := plan.Routes[0]
	assert.Equal(t, planning.RouteCode(planDate, "KEA-1207", input.Job.ID()), route.RouteCode)
	assert.Contains(t, route.RouteCode, "R-20260825-KEA-1207-")
	assert.Equal(t, planning.RouteScheduled, route.Status)
}

func TestMaterialize_TemperaturePredictionsPropagate(t *testing.T) {
	plan, _ := materializeFixture(t)

	route := plan.Routes[0]
	require.NotNil(t, route.PredictedMaxTemp)
	require.NotNil(t, route.PredictedFinalTemp)

	// Second stop starts from the first stop's departure temperature
	first := route.Stops[0]
	second := route.Stops[1]
	require.NotNil(t, first.PredictedDepartureTemp)
	assert.Greater(t, *first.PredictedDepartureTemp, first.PredictedArrivalTemp)
	assert.NotEqual(t, first.PredictedArrivalTemp, second.PredictedArrivalTemp)
	assert.True(t, first.IsTempFeasible)
}

func TestMaterialize_CompletesTheJob(t *testing.T) {
	plan, _ := materializeFixture(t)

	job := plan.Job
	assert.Equal(t, planning.JobCompleted, job.Status())
	assert.Equal(t, 100, job.Progress())

	summary := job.ResultSummary()
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.RoutesCreated)
	assert.Equal(t, 2, summary.ShipmentsAssigned)
	assert.Equal(t, 0, summary.ShipmentsUnassigned)
	assert.Equal(t, string(planning.SolverOptimal), summary.SolverStatus)
	assert.InDelta(t, 123456.0, summary.TotalCost, 1e-9)
	assert.InDelta(t, 2.0, summary.SolverTimeSeconds, 1e-9)
}

func TestMaterialize_MapsUnassignedNodesToShipments(t *testing.T) {
	clock := shared.NewMockClock(planDate.Add(6 * time.Hour))
	job := runningJob(t, clock)
	vehicle := reeferVehicle(t)
	shipments := []*shipment.Shipment{
		coldShipment(t, "ORD-001", 25.0478, 121.5170, 50),
		coldShipment(t, "ORD-002", 25.0200, 121.5400, 30),
	}
	matrices := planning.BuildTravelMatrices(
		planning.Location{Latitude: 25.0330, Longitude: 121.5654},
		[]planning.Location{
			{Latitude: 25.0478, Longitude: 121.5170},
			{Latitude: 25.0200, Longitude: 121.5400},
		},
		30,
	)

	result := &planning.SolveResult{
		Status:    planning.SolverFeasible,
		SolveTime: time.Second,
		Tours: []planning.VehicleTour{
			{VehicleIndex: 0, Nodes: []int{1}, ArrivalMinutes: []int{490}, SlackMinutes: []int{0}, DepartureMinute: 470, ReturnMinute: 530},
		},
		UnassignedNodes: []int{2},
	}

	plan, err := services.NewMaterializer(10, clock).Materialize(services.MaterializeInput{
		Job: job, Vehicles: []*fleet.Vehicle{vehicle}, Shipments: shipments,
		Depot:    services.DepotInfo{Latitude: 25.0330, Longitude: 121.5654},
		Matrices: matrices, Result: result,
	})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{shipments[1].ID()}, plan.Job.UnassignedShipmentIDs())
	assert.Equal(t, 1, plan.Job.ResultSummary().ShipmentsUnassigned)
}
