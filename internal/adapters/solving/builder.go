// Package solving implements the planning.SolverClient port on top of the
// in-process metaheuristic engine: it translates a domain SolveRequest into
// an engine Model (the constraint construction), runs the search, and maps
// the native status back to the domain enum.
package solving

import (
	"math"

	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/internal/domain/shipment"
	"github.com/andrescamacho/coldroute-go/internal/solver"
)

const (
	// timeSlackMinutes is the per-stop waiting allowance of the time dimension
	timeSlackMinutes = 60

	// timeHorizonMinutes bounds all time cumuls to the plan day
	timeHorizonMinutes = 24 * 60

	// timeSpanCostCoefficient secondarily minimizes each vehicle's makespan
	timeSpanCostCoefficient = 10
)

// buildModel translates the domain problem instance into engine primitives.
// Node 0 is the depot; request stops carry their node index explicitly so the
// matrices and the model agree on ordering.
func buildModel(request *planning.SolveRequest) *solver.Model {
	numNodes := len(request.Stops) + 1
	numVehicles := len(request.Vehicles)

	arcCost := make([][]int64, numNodes)
	for i := range arcCost {
		arcCost[i] = make([]int64, numNodes)
		for j := range arcCost[i] {
			arcCost[i][j] = request.Matrices.DistanceMeters(i, j)
		}
	}

	model := &solver.Model{
		Nodes:            numNodes,
		Vehicles:         numVehicles,
		ArcCost:          arcCost,
		FixedCost:        vehicleFixedCosts(request),
		Time:             buildTimeDimension(request, numNodes, numVehicles),
		Capacities:       buildCapacityDimensions(request, numNodes),
		DropPenalty:      buildDropPenalties(request, numNodes),
		MustServePenalty: request.Params.InfeasibleCost,
	}
	return model
}

// vehicleFixedCosts charges every vehicle an opening cost. Under
// MINIMIZE_VEHICLES the full configured cost applies; under MINIMIZE_DISTANCE
// the cost is scaled down so the arc term dominates route shape while empty
// vehicles still stay parked.
func vehicleFixedCosts(request *planning.SolveRequest) []int64 {
	cost := request.Params.VehicleFixedCost
	if request.Params.Strategy == planning.StrategyMinimizeDistance {
		cost /= 100
		if cost < 1 {
			cost = 1
		}
	}
	out := make([]int64, len(request.Vehicles))
	for i, v := range request.Vehicles {
		if v.FixedCost > 0 && request.Params.Strategy == planning.StrategyMinimizeVehicles {
			out[i] = v.FixedCost
			continue
		}
		out[i] = cost
	}
	return out
}

// buildTimeDimension assembles the transit callback values (travel plus
// service at the origin, no service leaving the depot), the per-node window
// domains, and the per-vehicle departure lower bound.
func buildTimeDimension(request *planning.SolveRequest, numNodes, numVehicles int) *solver.TimeDimension {
	serviceMinutes := make([]int, numNodes)
	for _, stop := range request.Stops {
		serviceMinutes[stop.Node] = stop.ServiceMinutes
	}

	transit := make([][]int, numNodes)
	for i := range transit {
		transit[i] = make([]int, numNodes)
		for j := range transit[i] {
			transit[i][j] = request.Matrices.TravelMinutes(i, j) + serviceMinutes[i]
		}
	}

	windows := make([][2]int, numNodes)
	windows[0] = [2]int{0, timeHorizonMinutes}
	for _, stop := range request.Stops {
		// Single window → exact domain; several windows → union hull. The
		// materializer records which actual window the chosen arrival hit.
		start, end := shipment.UnionHull(stop.TimeWindows)
		windows[stop.Node] = [2]int{start, end}
	}

	startMin := make([]int, numVehicles)
	for i := range startMin {
		startMin[i] = request.Params.EarliestDepartureMinutes
	}

	return &solver.TimeDimension{
		Transit:  transit,
		Windows:  windows,
		SlackMax: timeSlackMinutes,
		Horizon:  timeHorizonMinutes,
		StartMin: startMin,
		SpanCost: timeSpanCostCoefficient,
	}
}

// buildCapacityDimensions emits the weight dimension in grams and the volume
// dimension in liters, both with zero demand at the depot.
func buildCapacityDimensions(request *planning.SolveRequest, numNodes int) []*solver.CapacityDimension {
	weightDemand := make([]int64, numNodes)
	volumeDemand := make([]int64, numNodes)
	for _, stop := range request.Stops {
		weightDemand[stop.Node] = int64(math.Ceil(stop.WeightKg * 1000))
		volumeDemand[stop.Node] = int64(math.Ceil(stop.VolumeM3 * 1000))
	}

	weightCap := make([]int64, len(request.Vehicles))
	volumeCap := make([]int64, len(request.Vehicles))
	for i, v := range request.Vehicles {
		weightCap[i] = int64(math.Ceil(v.CapacityWeightKg * 1000))
		volumeCap[i] = int64(math.Ceil(v.CapacityVolumeM3 * 1000))
	}

	return []*solver.CapacityDimension{
		{Name: "weight_g", Demand: weightDemand, Capacity: weightCap},
		{Name: "volume_l", Demand: volumeDemand, Capacity: volumeCap},
	}
}

// buildDropPenalties sets the disjunction penalty per node: effectively
// must-serve for STRICT shipments, priority-scaled for STANDARD ones so that
// dropping any order costs several opened vehicles.
func buildDropPenalties(request *planning.SolveRequest, numNodes int) []int64 {
	penalties := make([]int64, numNodes)
	for _, stop := range request.Stops {
		if stop.Strict {
			penalties[stop.Node] = request.Params.InfeasibleCost
			continue
		}
		penalties[stop.Node] = request.Params.VehicleFixedCost * 3 * int64(101-stop.Priority) / 100
	}
	return penalties
}
