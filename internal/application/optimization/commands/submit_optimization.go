// Package commands holds the optimization write-side use cases.
package commands

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/andrescamacho/coldroute-go/internal/application/common"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/types"
	"github.com/andrescamacho/coldroute-go/internal/domain/fleet"
	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
	"github.com/andrescamacho/coldroute-go/internal/domain/shipment"
)

// Type aliases for convenience
type SubmitOptimizationCommand = types.SubmitOptimizationCommand
type SubmitOptimizationResponse = types.SubmitOptimizationResponse

// SubmitOptimizationHandler accepts a planning request, fails fast on empty
// resource sets, persists the PENDING job and hands it to the broker
type SubmitOptimizationHandler struct {
	jobs      planning.JobRepository
	vehicles  fleet.VehicleRepository
	shipments shipment.Repository
	queue     planning.TaskQueue
	settings  types.Settings
	clock     shared.Clock
}

// NewSubmitOptimizationHandler creates the submit handler
func NewSubmitOptimizationHandler(
	jobs planning.JobRepository,
	vehicles fleet.VehicleRepository,
	shipments shipment.Repository,
	queue planning.TaskQueue,
	settings types.Settings,
	clock shared.Clock,
) *SubmitOptimizationHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &SubmitOptimizationHandler{
		jobs:      jobs,
		vehicles:  vehicles,
		shipments: shipments,
		queue:     queue,
		settings:  settings,
		clock:     clock,
	}
}

// Handle executes the submit command
func (h *SubmitOptimizationHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*SubmitOptimizationCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	parameters := cmd.Parameters
	parameters.ApplyDefaults(h.settings.Defaults)
	if err := parameters.Validate(); err != nil {
		return nil, err
	}

	if err := h.checkResources(ctx, cmd); err != nil {
		return nil, err
	}

	job, err := planning.NewOptimizationJob(
		uuid.Nil, cmd.PlanDate, cmd.VehicleIDs, cmd.ShipmentIDs, parameters, h.clock,
	)
	if err != nil {
		return nil, err
	}

	if err := h.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	taskID, err := h.queue.EnqueueOptimization(ctx, job.ID(), parameters.TimeLimitSeconds)
	if err != nil {
		// the job row exists but will never run; fail it so polls terminate
		if _, markErr := h.jobs.MarkFailed(ctx, job.ID(), "failed to enqueue optimization task", err.Error(), h.clock.Now()); markErr != nil {
			log.Printf("Could not mark unenqueued job %s failed: %v", job.ID(), markErr)
		}
		return nil, fmt.Errorf("failed to enqueue optimization: %w", err)
	}

	if err := h.jobs.SetTaskID(ctx, job.ID(), taskID); err != nil {
		return nil, err
	}

	log.Printf("Accepted optimization job %s for %s (%d vehicle filter, %d shipment filter)",
		job.ID(), cmd.PlanDate.Format("2006-01-02"), len(cmd.VehicleIDs), len(cmd.ShipmentIDs))

	return &SubmitOptimizationResponse{
		JobID:   job.ID(),
		Status:  planning.JobPending,
		Message: "optimization accepted",
	}, nil
}

// checkResources rejects submissions whose filtered vehicle or shipment set
// is empty, before any job row is created
func (h *SubmitOptimizationHandler) checkResources(ctx context.Context, cmd *SubmitOptimizationCommand) error {
	availableVehicles, err := h.vehicles.CountAvailable(ctx, cmd.VehicleIDs)
	if err != nil {
		return err
	}
	if availableVehicles == 0 {
		return shared.NewNoResourcesError("vehicles", "no available vehicles match the request")
	}

	pendingShipments, err := h.shipments.CountPending(ctx, cmd.ShipmentIDs)
	if err != nil {
		return err
	}
	if pendingShipments == 0 {
		return shared.NewNoResourcesError("shipments", "no pending shipments match the request")
	}
	return nil
}
