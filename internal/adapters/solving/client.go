package solving

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/internal/solver"
)

// Client implements planning.SolverClient with the in-process engine. No
// business logic lives here: it builds the model, runs the search under the
// wall-clock limit, records solve time, and maps statuses.
type Client struct{}

// NewClient creates the solver driver
func NewClient() *Client {
	return &Client{}
}

// Solve runs one problem instance. MaxVehicles truncates the fleet handed to
// the engine; zero means unlimited.
func (c *Client) Solve(ctx context.Context, request *planning.SolveRequest) (*planning.SolveResult, error) {
	if len(request.Vehicles) == 0 {
		return nil, fmt.Errorf("solve request has no vehicles")
	}
	if len(request.Stops) == 0 {
		return nil, fmt.Errorf("solve request has no stops")
	}

	trimmed := *request
	if max := request.Params.MaxVehicles; max > 0 && max < len(request.Vehicles) {
		trimmed.Vehicles = request.Vehicles[:max]
	}

	model := buildModel(&trimmed)

	limit := trimmed.Params.TimeLimit
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < limit {
			limit = remaining
		}
	}

	log.Printf("solver: %d vehicles, %d stops, limit %s, strategy %s",
		len(trimmed.Vehicles), len(trimmed.Stops), limit, trimmed.Params.Strategy)

	started := time.Now()
	native := solver.Solve(model, solver.Options{TimeLimit: limit, Seed: trimmed.Params.Seed})
	elapsed := time.Since(started)

	result := &planning.SolveResult{
		Status:    mapStatus(native.Status),
		Objective: native.Objective,
		SolveTime: elapsed,
	}

	for vehicle, nodes := range native.Routes {
		if len(nodes) == 0 {
			continue
		}
		result.Tours = append(result.Tours, planning.VehicleTour{
			VehicleIndex:    vehicle,
			Nodes:           append([]int(nil), nodes...),
			ArrivalMinutes:  append([]int(nil), native.Arrival[vehicle]...),
			SlackMinutes:    append([]int(nil), native.Slack[vehicle]...),
			DepartureMinute: native.Start[vehicle],
			ReturnMinute:    native.Return[vehicle],
		})
	}
	result.UnassignedNodes = append([]int(nil), native.Unassigned...)

	log.Printf("solver: finished %s in %.2fs, %d tours, %d unassigned, objective %d",
		result.Status, elapsed.Seconds(), len(result.Tours), len(result.UnassignedNodes), result.Objective)

	return result, nil
}

// mapStatus converts the engine's native status codes to the backend-neutral
// enum: {1 → OPTIMAL, 2 → FEASIBLE, 3,5,6 → INFEASIBLE, 4 → TIMEOUT, else
// NOT_SOLVED}.
func mapStatus(native int) planning.SolverStatus {
	switch native {
	case 1:
		return planning.SolverOptimal
	case 2:
		return planning.SolverFeasible
	case 3, 5, 6:
		return planning.SolverInfeasible
	case 4:
		return planning.SolverTimeout
	default:
		return planning.SolverNotSolved
	}
}
