package solving

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/internal/domain/shipment"
)

func sampleRequest() *planning.SolveRequest {
	depot := planning.Location{Latitude: 25.0330, Longitude: 121.5654}
	stops := []planning.Location{
		{Latitude: 25.0478, Longitude: 121.5170},
		{Latitude: 25.0200, Longitude: 121.5400},
	}
	matrices := planning.BuildTravelMatrices(depot, stops, 30)

	return &planning.SolveRequest{
		Vehicles: []planning.SolveVehicle{
			{VehicleID: uuid.New(), LicensePlate: "ABC-123", CapacityWeightKg: 1000, CapacityVolumeM3: 12.5},
		},
		Stops: []planning.SolveStop{
			{
				ShipmentID:     uuid.New(),
				Node:           1,
				WeightKg:       50.5,
				VolumeM3:       0.4,
				ServiceMinutes: 15,
				TimeWindows:    []shipment.TimeWindow{{Start: "08:00", End: "12:00"}},
				Strict:         true,
				Priority:       50,
			},
			{
				ShipmentID:     uuid.New(),
				Node:           2,
				WeightKg:       30,
				VolumeM3:       0.2,
				ServiceMinutes: 10,
				TimeWindows:    []shipment.TimeWindow{{Start: "08:00", End: "10:00"}, {Start: "14:00", End: "16:00"}},
				Strict:         false,
				Priority:       80,
			},
		},
		Matrices: matrices,
		Params: planning.SolveParams{
			TimeLimit:                5 * time.Second,
			Strategy:                 planning.StrategyMinimizeVehicles,
			EarliestDepartureMinutes: 360,
			VehicleFixedCost:         50000,
			InfeasibleCost:           10000000,
			Seed:                     1,
		},
	}
}

func TestBuildModel_Dimensions(t *testing.T) {
	request := sampleRequest()

	model := buildModel(request)

	assert.Equal(t, 3, model.Nodes)
	assert.Equal(t, 1, model.Vehicles)
	require.Len(t, model.Capacities, 2)

	// Weight in grams, volume in liters, ceilinged
	assert.Equal(t, int64(50500), model.Capacities[0].Demand[1])
	assert.Equal(t, int64(30000), model.Capacities[0].Demand[2])
	assert.Equal(t, int64(1000000), model.Capacities[0].Capacity[0])
	assert.Equal(t, int64(400), model.Capacities[1].Demand[1])
	assert.Equal(t, int64(12500), model.Capacities[1].Capacity[0])

	// Zero demand at the depot
	assert.Equal(t, int64(0), model.Capacities[0].Demand[0])
	assert.Equal(t, int64(0), model.Capacities[1].Demand[0])
}

func TestBuildModel_TransitIncludesOriginService(t *testing.T) {
	request := sampleRequest()

	model := buildModel(request)

	travel01 := request.Matrices.TravelMinutes(0, 1)
	travel12 := request.Matrices.TravelMinutes(1, 2)

	// Leaving the depot carries no service time
	assert.Equal(t, travel01, model.Time.Transit[0][1])
	// Leaving node 1 carries its 15 service minutes
	assert.Equal(t, travel12+15, model.Time.Transit[1][2])
}

func TestBuildModel_WindowsUseUnionHull(t *testing.T) {
	request := sampleRequest()

	model := buildModel(request)

	assert.Equal(t, [2]int{0, 1440}, model.Time.Windows[0])
	assert.Equal(t, [2]int{480, 720}, model.Time.Windows[1])
	// Two windows collapse to their hull; the gap is checked downstream
	assert.Equal(t, [2]int{480, 960}, model.Time.Windows[2])
}

func TestBuildModel_DropPenalties(t *testing.T) {
	request := sampleRequest()

	model := buildModel(request)

	// Strict shipments are effectively must-serve
	assert.Equal(t, int64(10000000), model.DropPenalty[1])
	assert.Equal(t, int64(10000000), model.MustServePenalty)

	// Standard shipments scale with priority: fixed * 3 * (101-priority) / 100
	assert.Equal(t, int64(50000*3*21/100), model.DropPenalty[2])
	assert.Equal(t, int64(0), model.DropPenalty[0])
}

func TestVehicleFixedCosts_StrategyScaling(t *testing.T) {
	request := sampleRequest()

	request.Params.Strategy = planning.StrategyMinimizeVehicles
	assert.Equal(t, int64(50000), vehicleFixedCosts(request)[0])

	request.Params.Strategy = planning.StrategyMinimizeDistance
	assert.Equal(t, int64(500), vehicleFixedCosts(request)[0])

	request.Params.VehicleFixedCost = 50
	assert.Equal(t, int64(1), vehicleFixedCosts(request)[0])
}

func TestMapStatus(t *testing.T) {
	cases := map[int]planning.SolverStatus{
		1:  planning.SolverOptimal,
		2:  planning.SolverFeasible,
		3:  planning.SolverInfeasible,
		4:  planning.SolverTimeout,
		5:  planning.SolverInfeasible,
		6:  planning.SolverInfeasible,
		0:  planning.SolverNotSolved,
		99: planning.SolverNotSolved,
	}
	for native, expected := range cases {
		assert.Equal(t, expected, mapStatus(native), "native status %d", native)
	}
}

func TestClient_SolvesSampleInstance(t *testing.T) {
	client := NewClient()

	result, err := client.Solve(context.Background(), sampleRequest())

	require.NoError(t, err)
	assert.True(t, result.Status.IsSuccess())
	require.Len(t, result.Tours, 1)
	assert.Len(t, result.Tours[0].Nodes, 2)
	assert.Empty(t, result.UnassignedNodes)
}

func TestClient_MaxVehiclesTruncatesFleet(t *testing.T) {
	request := sampleRequest()
	request.Vehicles = append(request.Vehicles, planning.SolveVehicle{
		VehicleID: uuid.New(), LicensePlate: "DEF-456", CapacityWeightKg: 1000, CapacityVolumeM3: 12,
	})
	request.Params.MaxVehicles = 1

	result, err := NewClient().Solve(context.Background(), request)

	require.NoError(t, err)
	for _, tour := range result.Tours {
		assert.Equal(t, 0, tour.VehicleIndex)
	}
}

func TestClient_RejectsEmptyRequests(t *testing.T) {
	_, err := NewClient().Solve(context.Background(), &planning.SolveRequest{})
	assert.Error(t, err)
}
