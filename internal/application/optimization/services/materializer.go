// Package services holds the worker-side collaborators of an optimization
// run: plan materialization and progress reporting.
package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/coldroute-go/internal/domain/fleet"
	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
	"github.com/andrescamacho/coldroute-go/internal/domain/shipment"
	"github.com/andrescamacho/coldroute-go/internal/domain/thermo"
)

// DepotInfo is the resolved route anchor for one run
type DepotInfo struct {
	Address   string
	Latitude  float64
	Longitude float64
}

// Materializer turns a solver solution into persistable routes with stop
// schedules and propagated temperature predictions
type Materializer struct {
	distanceCostPerKm int64
	clock             shared.Clock
}

// NewMaterializer creates a materializer with the configured distance cost
func NewMaterializer(distanceCostPerKm int64, clock shared.Clock) *Materializer {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Materializer{distanceCostPerKm: distanceCostPerKm, clock: clock}
}

// MaterializeInput gathers everything a successful solve produced.
// Vehicles are in solver order (after any MaxVehicles truncation); shipments
// are in node order, node i+1 = Shipments[i].
type MaterializeInput struct {
	Job       *planning.OptimizationJob
	Vehicles  []*fleet.Vehicle
	Shipments []*shipment.Shipment
	Depot     DepotInfo
	Matrices  *planning.TravelMatrices
	Result    *planning.SolveResult
}

// Materialize builds the route aggregate for every non-empty tour, then
// finalizes the job entity with the run summary so the repository can commit
// everything in one transaction. Times are wall-clock offsets from the plan
// date's midnight; stop sequences are 1-based and gapless.
func (m *Materializer) Materialize(input MaterializeInput) (*planning.MaterializedPlan, error) {
	midnight := time.Date(
		input.Job.PlanDate().Year(), input.Job.PlanDate().Month(), input.Job.PlanDate().Day(),
		0, 0, 0, 0, time.UTC,
	)

	routes := make([]*planning.Route, 0, len(input.Result.Tours))
	assignments := make([]planning.ShipmentAssignment, 0, len(input.Shipments))

	var totalDistanceKm float64
	var totalDurationMinutes int
	assignedCount := 0

	for _, tour := range input.Result.Tours {
		vehicle := input.Vehicles[tour.VehicleIndex]
		route, tourAssignments := m.materializeTour(input, tour, vehicle, midnight)
		if err := route.Validate(); err != nil {
			return nil, err
		}

		routes = append(routes, route)
		assignments = append(assignments, tourAssignments...)
		totalDistanceKm += route.TotalDistanceKm
		totalDurationMinutes += route.TotalDuration
		assignedCount += len(route.Stops)
	}

	unassigned := make([]uuid.UUID, 0, len(input.Result.UnassignedNodes))
	for _, node := range input.Result.UnassignedNodes {
		unassigned = append(unassigned, input.Shipments[node-1].ID())
	}

	routeIDs := make([]uuid.UUID, 0, len(routes))
	for _, route := range routes {
		routeIDs = append(routeIDs, route.ID)
	}

	summary := planning.ResultSummary{
		RoutesCreated:        len(routes),
		ShipmentsAssigned:    assignedCount,
		ShipmentsUnassigned:  len(unassigned),
		TotalDistanceKm:      totalDistanceKm,
		TotalDurationMinutes: totalDurationMinutes,
		TotalCost:            float64(input.Result.Objective),
		SolverStatus:         string(input.Result.Status),
		SolverTimeSeconds:    input.Result.SolveTime.Seconds(),
	}

	if err := input.Job.MarkCompleted(routeIDs, unassigned, summary, m.clock); err != nil {
		return nil, err
	}

	return &planning.MaterializedPlan{
		Job:         input.Job,
		Routes:      routes,
		Assignments: assignments,
	}, nil
}

func (m *Materializer) materializeTour(
	input MaterializeInput,
	tour planning.VehicleTour,
	vehicle *fleet.Vehicle,
	midnight time.Time,
) (*planning.Route, []planning.ShipmentAssignment) {
	job := input.Job
	params := job.Parameters()

	routeID := uuid.New()
	legs := buildLegs(input, tour)
	predictions := thermo.PropagateTour(
		vehicle.ThermalParams(), *params.AmbientTemperature, *params.InitialVehicleTemp, legs,
	)

	stops := make([]*planning.RouteStop, 0, len(tour.Nodes))
	assignments := make([]planning.ShipmentAssignment, 0, len(tour.Nodes))

	var totalWeight, totalVolume float64
	prevNode := 0

	for i, node := range tour.Nodes {
		s := input.Shipments[node-1]
		arrivalMinute := tour.ArrivalMinutes[i]
		arrivalAt := midnight.Add(time.Duration(arrivalMinute) * time.Minute)
		departureAt := arrivalAt.Add(time.Duration(s.ServiceDuration()) * time.Minute)

		distanceKm := input.Matrices.DistanceKm(prevNode, node)
		travelMinutes := input.Matrices.TravelMinutes(prevNode, node)
		pred := predictions[i]

		slack := tour.SlackMinutes[i]
		departureTemp := pred.DepartureTemp
		transitRise := pred.TransitRise
		doorRise := pred.DoorRise
		cooling := pred.CoolingApplied

		stop := &planning.RouteStop{
			ID:                     uuid.New(),
			RouteID:                routeID,
			ShipmentID:             s.ID(),
			SequenceNumber:         i + 1,
			Latitude:               s.Latitude(),
			Longitude:              s.Longitude(),
			Address:                s.DeliveryAddress(),
			ExpectedArrivalAt:      arrivalAt,
			ExpectedDepartureAt:    departureAt,
			TargetTimeWindowIndex:  shipment.EnclosingWindowIndex(s.TimeWindows(), arrivalMinute),
			SlackMinutes:           &slack,
			PredictedArrivalTemp:   pred.ArrivalTemp,
			TransitTempRise:        &transitRise,
			ServiceTempRise:        &doorRise,
			CoolingApplied:         &cooling,
			PredictedDepartureTemp: &departureTemp,
			IsTempFeasible:         pred.Feasible,
			DistanceFromPrevKm:     &distanceKm,
			TravelTimeFromPrev:     &travelMinutes,
		}
		stops = append(stops, stop)
		assignments = append(assignments, planning.ShipmentAssignment{
			ShipmentID: s.ID(),
			RouteID:    routeID,
			Sequence:   i + 1,
		})

		totalWeight += s.Weight()
		totalVolume += s.VolumeOrZero()
		prevNode = node
	}

	// close the loop back to the depot for distance totals
	var routeDistanceKm float64
	for _, stop := range stops {
		routeDistanceKm += *stop.DistanceFromPrevKm
	}
	routeDistanceKm += input.Matrices.DistanceKm(prevNode, 0)

	departureAt := midnight.Add(time.Duration(tour.DepartureMinute) * time.Minute)
	returnAt := midnight.Add(time.Duration(tour.ReturnMinute) * time.Minute)
	routeCost := routeDistanceKm * float64(m.distanceCostPerKm)
	jobID := job.ID()

	route := &planning.Route{
		ID:                 routeID,
		RouteCode:          planning.RouteCode(job.PlanDate(), vehicle.LicensePlate(), job.ID()),
		PlanDate:           job.PlanDate(),
		VehicleID:          vehicle.ID(),
		DriverID:           vehicle.DriverID(),
		DriverName:         vehicle.DriverName(),
		Status:             planning.RouteScheduled,
		TotalStops:         len(stops),
		TotalDistanceKm:    routeDistanceKm,
		TotalDuration:      tour.ReturnMinute - tour.DepartureMinute,
		TotalWeightKg:      totalWeight,
		TotalVolumeM3:      totalVolume,
		InitialTemperature: *params.InitialVehicleTemp,
		PlannedDepartureAt: &departureAt,
		PlannedReturnAt:    &returnAt,
		DepotAddress:       input.Depot.Address,
		DepotLatitude:      input.Depot.Latitude,
		DepotLongitude:     input.Depot.Longitude,
		OptimizationJobID:  &jobID,
		OptimizationCost:   &routeCost,
		Stops:              stops,
	}

	if len(predictions) > 0 {
		final := predictions[len(predictions)-1].DepartureTemp
		route.PredictedFinalTemp = &final
	}
	route.PredictedMaxTemp = route.MaxPredictedTemp()

	return route, assignments
}

// buildLegs translates one tour into thermodynamic legs: travel to each stop
// followed by its service time, carrying the shipment's limits
func buildLegs(input MaterializeInput, tour planning.VehicleTour) []thermo.Leg {
	legs := make([]thermo.Leg, 0, len(tour.Nodes))
	prevNode := 0
	for _, node := range tour.Nodes {
		s := input.Shipments[node-1]
		legs = append(legs, thermo.Leg{
			TravelMinutes:  input.Matrices.TravelMinutes(prevNode, node),
			ServiceMinutes: s.ServiceDuration(),
			TempLimitUpper: s.TempLimitUpper(),
			TempLimitLower: s.TempLimitLower(),
			Strict:         s.IsStrict(),
		})
		prevNode = node
	}
	return legs
}
