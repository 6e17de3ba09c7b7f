package commands

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/coldroute-go/internal/adapters/metrics"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/services"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/types"
	"github.com/andrescamacho/coldroute-go/internal/domain/depot"
	"github.com/andrescamacho/coldroute-go/internal/domain/fleet"
	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
	"github.com/andrescamacho/coldroute-go/internal/domain/shipment"
)

// RunOptimizationHandler is the worker-side entry point: it claims the job,
// assembles the problem instance, runs the solver under the time limit with
// live progress reporting, and materializes the solution atomically.
//
// Terminal writes are guarded in the repository; when a concurrent cancel
// wins any race, the run's results are discarded without error.
//
// Transient failures (solver execution, materialization, persistence, and
// repository errors) write the FAILED row first and then propagate, so the
// broker retries up to its cap and the redelivery re-claims the FAILED row.
// Deterministic outcomes (empty resource sets, infeasible instances) swallow
// the error after the FAILED row; retrying them cannot change the result.
type RunOptimizationHandler struct {
	jobs         planning.JobRepository
	vehicles     fleet.VehicleRepository
	shipments    shipment.Repository
	depots       depot.Repository
	routes       planning.RouteRepository
	solver       planning.SolverClient
	materializer *services.Materializer
	reporter     *services.ProgressReporter
	cache        types.ResultCache
	settings     types.Settings
	clock        shared.Clock
}

// NewRunOptimizationHandler creates the worker handler. cache may be nil.
func NewRunOptimizationHandler(
	jobs planning.JobRepository,
	vehicles fleet.VehicleRepository,
	shipments shipment.Repository,
	depots depot.Repository,
	routes planning.RouteRepository,
	solverClient planning.SolverClient,
	materializer *services.Materializer,
	reporter *services.ProgressReporter,
	cache types.ResultCache,
	settings types.Settings,
	clock shared.Clock,
) *RunOptimizationHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &RunOptimizationHandler{
		jobs:         jobs,
		vehicles:     vehicles,
		shipments:    shipments,
		depots:       depots,
		routes:       routes,
		solver:       solverClient,
		materializer: materializer,
		reporter:     reporter,
		cache:        cache,
		settings:     settings,
		clock:        clock,
	}
}

// Run executes one optimization job end to end
func (h *RunOptimizationHandler) Run(ctx context.Context, jobID uuid.UUID, timeLimitSeconds int) error {
	claimed, err := h.jobs.MarkRunning(ctx, jobID, h.clock.Now())
	if err != nil {
		return err
	}
	if !claimed {
		log.Printf("Job %s is no longer startable, skipping", jobID)
		return nil
	}

	job, err := h.jobs.FindByID(ctx, jobID)
	if err != nil {
		return err
	}

	vehicles, shipments, depotInfo, err := h.loadResources(ctx, job)
	if err != nil {
		h.failJob(ctx, jobID, err.Error(), "")
		var noResources *shared.NoResourcesError
		if errors.As(err, &noResources) {
			// Deterministic business outcome; a broker retry cannot help
			return nil
		}
		return err
	}

	request := h.buildRequest(job, vehicles, shipments, depotInfo)

	limit := time.Duration(timeLimitSeconds) * time.Second
	if timeLimitSeconds <= 0 {
		limit = time.Duration(job.Parameters().TimeLimitSeconds) * time.Second
	}

	result, cancelled, err := h.solve(ctx, jobID, request, limit)
	if cancelled {
		log.Printf("Job %s cancelled mid-run, discarding solution", jobID)
		metrics.RecordJobOutcome(string(planning.JobCancelled))
		return nil
	}
	if err != nil {
		h.failJob(ctx, jobID, "solver execution failed", err.Error())
		return fmt.Errorf("solver execution failed: %w", err)
	}

	assigned := 0
	for _, tour := range result.Tours {
		assigned += len(tour.Nodes)
	}
	metrics.RecordSolve(string(result.Status), result.SolveTime.Seconds(), assigned, len(result.UnassignedNodes))

	// A timed-out search that still produced tours publishes them; the summary
	// keeps the TIMEOUT status.
	partial := result.Status == planning.SolverTimeout && len(result.Tours) > 0
	if !result.Status.IsSuccess() && !partial {
		h.failJob(ctx, jobID, failureMessage(result.Status), "")
		return nil
	}

	plan, err := h.materializer.Materialize(services.MaterializeInput{
		Job:       job,
		Vehicles:  request.SolvedVehicles,
		Shipments: shipments,
		Depot:     depotInfo,
		Matrices:  request.Request.Matrices,
		Result:    result,
	})
	if err != nil {
		h.failJob(ctx, jobID, "failed to materialize plan", err.Error())
		return fmt.Errorf("failed to materialize plan: %w", err)
	}

	committed, err := h.routes.PersistPlan(ctx, plan)
	if err != nil {
		h.failJob(ctx, jobID, "failed to persist plan", err.Error())
		return fmt.Errorf("failed to persist plan: %w", err)
	}
	if !committed {
		log.Printf("Job %s cancelled during materialization, plan discarded", jobID)
		metrics.RecordJobOutcome(string(planning.JobCancelled))
		return nil
	}
	metrics.RecordJobOutcome(string(planning.JobCompleted))

	if h.cache != nil {
		if err := h.cache.StoreResult(ctx, jobID, job.ResultSummary()); err != nil {
			log.Printf("Result cache write for job %s failed: %v", jobID, err)
		}
	}

	summary := job.ResultSummary()
	log.Printf("Job %s completed: %d routes, %d assigned, %d unassigned, %.1f km",
		jobID, summary.RoutesCreated, summary.ShipmentsAssigned,
		summary.ShipmentsUnassigned, summary.TotalDistanceKm)
	return nil
}

// preparedRequest pairs the wire request with the vehicle entities in solver
// order, which the materializer needs to resolve tours back to fleet data
type preparedRequest struct {
	Request        *planning.SolveRequest
	SolvedVehicles []*fleet.Vehicle
}

func (h *RunOptimizationHandler) loadResources(ctx context.Context, job *planning.OptimizationJob) ([]*fleet.Vehicle, []*shipment.Shipment, services.DepotInfo, error) {
	var depotInfo services.DepotInfo

	vehicles, err := h.vehicles.FindAvailable(ctx, job.VehicleIDs())
	if err != nil {
		return nil, nil, depotInfo, err
	}
	if len(vehicles) == 0 {
		return nil, nil, depotInfo, shared.NewNoResourcesError("vehicles", "no available vehicles match the request")
	}

	shipments, err := h.shipments.FindPending(ctx, job.ShipmentIDs())
	if err != nil {
		return nil, nil, depotInfo, err
	}
	if len(shipments) == 0 {
		return nil, nil, depotInfo, shared.NewNoResourcesError("shipments", "no pending shipments match the request")
	}

	depotInfo, err = h.resolveDepot(ctx, job.Parameters())
	if err != nil {
		return nil, nil, depotInfo, err
	}
	return vehicles, shipments, depotInfo, nil
}

// resolveDepot prefers explicit coordinates on the job parameters over the
// configured active depot
func (h *RunOptimizationHandler) resolveDepot(ctx context.Context, params planning.JobParameters) (services.DepotInfo, error) {
	if params.DepotLatitude != nil && params.DepotLongitude != nil {
		return services.DepotInfo{
			Address:   params.DepotAddress,
			Latitude:  *params.DepotLatitude,
			Longitude: *params.DepotLongitude,
		}, nil
	}

	active, err := h.depots.FindActive(ctx)
	if err != nil {
		return services.DepotInfo{}, shared.NewNoResourcesError("depot", "no active depot configured and no depot override given")
	}
	return services.DepotInfo{
		Address:   active.Address(),
		Latitude:  active.Latitude(),
		Longitude: active.Longitude(),
	}, nil
}

func (h *RunOptimizationHandler) buildRequest(
	job *planning.OptimizationJob,
	vehicles []*fleet.Vehicle,
	shipments []*shipment.Shipment,
	depotInfo services.DepotInfo,
) preparedRequest {
	params := job.Parameters()

	solveVehicles := make([]planning.SolveVehicle, 0, len(vehicles))
	for _, v := range vehicles {
		solveVehicles = append(solveVehicles, planning.SolveVehicle{
			VehicleID:        v.ID(),
			LicensePlate:     v.LicensePlate(),
			CapacityWeightKg: v.CapacityWeight(),
			CapacityVolumeM3: v.CapacityVolume(),
		})
	}

	stops := make([]planning.SolveStop, 0, len(shipments))
	stopLocations := make([]planning.Location, 0, len(shipments))
	for i, s := range shipments {
		stops = append(stops, planning.SolveStop{
			ShipmentID:     s.ID(),
			Node:           i + 1,
			WeightKg:       s.Weight(),
			VolumeM3:       s.VolumeOrZero(),
			ServiceMinutes: s.ServiceDuration(),
			TimeWindows:    s.TimeWindows(),
			Strict:         s.IsStrict(),
			Priority:       s.Priority(),
		})
		stopLocations = append(stopLocations, planning.Location{
			Latitude:  s.Latitude(),
			Longitude: s.Longitude(),
		})
	}

	matrices := planning.BuildTravelMatrices(
		planning.Location{Latitude: depotInfo.Latitude, Longitude: depotInfo.Longitude},
		stopLocations,
		h.settings.AverageSpeedKmh,
	)

	solvedVehicles := vehicles
	if max := params.MaxVehicles; max > 0 && max < len(solvedVehicles) {
		solvedVehicles = solvedVehicles[:max]
	}

	return preparedRequest{
		Request: &planning.SolveRequest{
			Vehicles: solveVehicles,
			Stops:    stops,
			Matrices: matrices,
			Params: planning.SolveParams{
				TimeLimit:                time.Duration(params.TimeLimitSeconds) * time.Second,
				Strategy:                 params.Strategy,
				MaxVehicles:              params.MaxVehicles,
				EarliestDepartureMinutes: params.EarliestDepartureMinutes(),
				VehicleFixedCost:         h.settings.VehicleFixedCost,
				InfeasibleCost:           h.settings.InfeasibleCost,
				Seed:                     seedFromJob(job.ID()),
			},
		},
		SolvedVehicles: solvedVehicles,
	}
}

// solve runs the engine with the progress reporter attached. A discarded
// progress write aborts the search via context cancellation.
func (h *RunOptimizationHandler) solve(
	ctx context.Context,
	jobID uuid.UUID,
	prepared preparedRequest,
	limit time.Duration,
) (*planning.SolveResult, bool, error) {
	solveCtx, cancel := context.WithTimeout(ctx, limit+30*time.Second)
	defer cancel()

	handle := h.reporter.Start(ctx, jobID, limit)
	defer handle.Stop()

	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-handle.Cancelled:
			cancel()
		case <-solveCtx.Done():
		}
	}()

	result, err := h.solver.Solve(solveCtx, prepared.Request)

	cancel()
	<-watcherDone

	select {
	case <-handle.Cancelled:
		return nil, true, nil
	default:
	}
	return result, false, err
}

func (h *RunOptimizationHandler) failJob(ctx context.Context, jobID uuid.UUID, message, detail string) {
	failed, err := h.jobs.MarkFailed(ctx, jobID, message, detail, h.clock.Now())
	if err != nil {
		log.Printf("Could not mark job %s failed: %v", jobID, err)
		return
	}
	if !failed {
		log.Printf("Job %s already terminal, failure %q discarded", jobID, message)
		return
	}
	metrics.RecordJobOutcome(string(planning.JobFailed))
	log.Printf("Job %s failed: %s", jobID, message)
}

func failureMessage(status planning.SolverStatus) string {
	switch status {
	case planning.SolverInfeasible:
		return "no feasible assignment exists for the strict constraints"
	case planning.SolverTimeout:
		return "time limit reached before any solution was found"
	default:
		return fmt.Sprintf("solver finished without a solution (status %s)", status)
	}
}

// seedFromJob derives a stable search seed from the job id so reruns of the
// same job explore identically
func seedFromJob(jobID uuid.UUID) int64 {
	bytes := jobID[:]
	return int64(binary.BigEndian.Uint64(bytes[:8]) >> 1)
}
