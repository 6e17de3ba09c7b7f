// Package steps holds the godog step definitions for the end-to-end
// optimization scenarios. Each scenario runs against a fresh in-memory
// database with the real solver, handlers and repositories; only the broker
// is faked.
package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andrescamacho/coldroute-go/internal/adapters/persistence"
	"github.com/andrescamacho/coldroute-go/internal/adapters/solving"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/commands"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/services"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/types"
	"github.com/andrescamacho/coldroute-go/internal/domain/depot"
	"github.com/andrescamacho/coldroute-go/internal/domain/fleet"
	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/internal/domain/shipment"
	"github.com/andrescamacho/coldroute-go/internal/infrastructure/database"
	"github.com/andrescamacho/coldroute-go/test/helpers"
)

type optimizationContext struct {
	db    *gorm.DB
	queue *helpers.FakeQueue

	jobs      *persistence.JobRepositoryGORM
	vehicles  *persistence.VehicleRepositoryGORM
	shipments *persistence.ShipmentRepositoryGORM
	depots    *persistence.DepotRepositoryGORM
	routes    *persistence.RouteRepositoryGORM

	jobID     uuid.UUID
	submitErr error
}

func settings() types.Settings {
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

func (oc *optimizationContext) reset() error {
	if oc.db != nil {
		_ = database.Close(oc.db)
	}
	db, err := database.NewTestConnection()
	if err != nil {
		return fmt.Errorf("failed to open test database: %w", err)
	}
	oc.db = db
	oc.queue = &helpers.FakeQueue{}
	oc.jobs = persistence.NewJobRepository(db)
	oc.vehicles = persistence.NewVehicleRepository(db)
	oc.shipments = persistence.NewShipmentRepository(db)
	oc.depots = persistence.NewDepotRepository(db)
	oc.routes = persistence.NewRouteRepository(db)
	oc.jobID = uuid.Nil
	oc.submitErr = nil
	return nil
}

// Setup steps

func (oc *optimizationContext) anActiveDepotAt(latitude, longitude float64) error {
	d, err := depot.NewDepot(uuid.Nil, "Main Depot", "Taipei Main Station", latitude, longitude)
	if err != nil {
		return err
	}
	return oc.depots.Save(context.Background(), d)
}

func (oc *optimizationContext) anAvailableVehicle(plate string, capacityKg float64) error {
	v, err := fleet.NewVehicle(
		uuid.Nil, plate, capacityKg, 12,
		fleet.InsulationStandard, fleet.DoorRoll, false,
		-2.5, -20, fleet.VehicleAvailable,
	)
	if err != nil {
		return err
	}
	return oc.vehicles.Save(context.Background(), v)
}

func (oc *optimizationContext) aPendingShipment(order string, latitude, longitude, weightKg float64) error {
	s, err := shipment.NewShipment(
		uuid.Nil, order, "No. 100, Roosevelt Road", latitude, longitude,
		[]shipment.TimeWindow{{Start: "08:00", End: "12:00"}},
		shipment.SLAStandard, 5.0, nil, 15, weightKg, nil, 50,
	)
	if err != nil {
		return err
	}
	return oc.shipments.Save(context.Background(), s)
}

// Action steps

func (oc *optimizationContext) iSubmitAnOptimizationForPlanDate(raw string) error {
	planDate, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return err
	}

	handler := commands.NewSubmitOptimizationHandler(
		oc.jobs, oc.vehicles, oc.shipments, oc.queue, settings(), nil,
	)
	response, err := handler.Handle(context.Background(), &types.SubmitOptimizationCommand{PlanDate: planDate})
	if err != nil {
		oc.submitErr = err
		return nil
	}
	oc.jobID = response.(*types.SubmitOptimizationResponse).JobID
	return nil
}

func (oc *optimizationContext) iCancelTheJob() error {
	if oc.jobID == uuid.Nil {
		return fmt.Errorf("no job was accepted")
	}
	handler := commands.NewCancelOptimizationHandler(oc.jobs, oc.queue, nil)
	_, err := handler.Handle(context.Background(), &types.CancelOptimizationCommand{JobID: oc.jobID})
	return err
}

func (oc *optimizationContext) theWorkerProcessesTheJob() error {
	if oc.jobID == uuid.Nil {
		return fmt.Errorf("no job was accepted")
	}
	cfg := settings()
	handler := commands.NewRunOptimizationHandler(
		oc.jobs, oc.vehicles, oc.shipments, oc.depots, oc.routes,
		solving.NewClient(),
		services.NewMaterializer(cfg.DistanceCostPerKm, nil),
		services.NewProgressReporter(oc.jobs, time.Minute, nil),
		nil, cfg, nil,
	)
	return handler.Run(context.Background(), oc.jobID, 10)
}

// Assertion steps

func (oc *optimizationContext) theJobStatusShouldBe(expected string) error {
	job, err := oc.jobs.FindByID(context.Background(), oc.jobID)
	if err != nil {
		return err
	}
	if string(job.Status()) != expected {
		return fmt.Errorf("expected job status %s, got %s", expected, job.Status())
	}
	return nil
}

func (oc *optimizationContext) theJobErrorShouldMention(fragment string) error {
	job, err := oc.jobs.FindByID(context.Background(), oc.jobID)
	if err != nil {
		return err
	}
	if !strings.Contains(job.ErrorMessage(), fragment) {
		return fmt.Errorf("expected error mentioning %q, got %q", fragment, job.ErrorMessage())
	}
	return nil
}

func (oc *optimizationContext) routesShouldBeMaterialized(count int) error {
	routes, err := oc.routes.FindByJobID(context.Background(), oc.jobID)
	if err != nil {
		return err
	}
	if len(routes) != count {
		return fmt.Errorf("expected %d routes, got %d", count, len(routes))
	}
	return nil
}

func (oc *optimizationContext) noRoutesShouldBeMaterialized() error {
	return oc.routesShouldBeMaterialized(0)
}

func (oc *optimizationContext) theRouteShouldVisitStopsInSequence(count int) error {
	routes, err := oc.routes.FindByJobID(context.Background(), oc.jobID)
	if err != nil {
		return err
	}
	if len(routes) != 1 {
		return fmt.Errorf("expected exactly one route, got %d", len(routes))
	}
	stops := routes[0].Stops
	if len(stops) != count {
		return fmt.Errorf("expected %d stops, got %d", count, len(stops))
	}
	for i, stop := range stops {
		if stop.SequenceNumber != i+1 {
			return fmt.Errorf("stop %d has sequence %d", i, stop.SequenceNumber)
		}
	}
	return nil
}

func (oc *optimizationContext) everyStopShouldBeTemperatureFeasible() error {
	routes, err := oc.routes.FindByJobID(context.Background(), oc.jobID)
	if err != nil {
		return err
	}
	for _, route := range routes {
		for _, stop := range route.Stops {
			if !stop.IsTempFeasible {
				return fmt.Errorf("stop %d on %s exceeds its temperature limit (%.1f)",
					stop.SequenceNumber, route.RouteCode, stop.PredictedArrivalTemp)
			}
		}
	}
	return nil
}

func (oc *optimizationContext) shipmentsShouldBeAssigned(count int) error {
	status := shipment.StatusAssigned
	_, total, err := oc.shipments.FindAll(context.Background(), &status, 0, 0)
	if err != nil {
		return err
	}
	if total != int64(count) {
		return fmt.Errorf("expected %d assigned shipments, got %d", count, total)
	}
	return nil
}

func (oc *optimizationContext) theSubmissionShouldBeRejectedWith(fragment string) error {
	if oc.submitErr == nil {
		return fmt.Errorf("expected the submission to fail")
	}
	if !strings.Contains(oc.submitErr.Error(), fragment) {
		return fmt.Errorf("expected rejection mentioning %q, got %q", fragment, oc.submitErr)
	}
	return nil
}

// InitializeOptimizationScenario registers the optimization lifecycle steps
func InitializeOptimizationScenario(sc *godog.ScenarioContext) {
	oc := &optimizationContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, oc.reset()
	})

	sc.Step(`^an active depot at latitude ([0-9.]+) and longitude ([0-9.]+)$`, oc.anActiveDepotAt)
	sc.Step(`^an available vehicle "([^"]*)" with capacity ([0-9.]+) kg$`, oc.anAvailableVehicle)
	sc.Step(`^a pending shipment "([^"]*)" at latitude ([0-9.]+) and longitude ([0-9.]+) weighing ([0-9.]+) kg$`, oc.aPendingShipment)

	sc.Step(`^I submit an optimization for plan date "([^"]*)"$`, oc.iSubmitAnOptimizationForPlanDate)
	sc.Step(`^I cancel the job$`, oc.iCancelTheJob)
	sc.Step(`^the worker processes the job$`, oc.theWorkerProcessesTheJob)

	sc.Step(`^the job status should be "([^"]*)"$`, oc.theJobStatusShouldBe)
	sc.Step(`^the job error should mention "([^"]*)"$`, oc.theJobErrorShouldMention)
	sc.Step(`^(\d+) routes? should be materialized$`, oc.routesShouldBeMaterialized)
	sc.Step(`^no routes should be materialized$`, oc.noRoutesShouldBeMaterialized)
	sc.Step(`^the route should visit (\d+) stops in sequence$`, oc.theRouteShouldVisitStopsInSequence)
	sc.Step(`^every stop should be temperature feasible$`, oc.everyStopShouldBeTemperatureFeasible)
	sc.Step(`^(\d+) shipments should be assigned$`, oc.shipmentsShouldBeAssigned)
	sc.Step(`^the submission should be rejected with "([^"]*)"$`, oc.theSubmissionShouldBeRejectedWith)
}
