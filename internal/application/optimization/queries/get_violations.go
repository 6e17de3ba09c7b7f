package queries

import (
	"context"
	"fmt"

	"github.com/andrescamacho/coldroute-go/internal/application/common"
	"github.com/andrescamacho/coldroute-go/internal/application/optimization/types"
	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/internal/domain/shipment"
)

// Type aliases for convenience
type GetViolationsQuery = types.GetViolationsQuery
type ViolationsResponse = types.ViolationsResponse

// departureBufferMinutes is the travel allowance added to the planned
// departure when judging whether a window is reachable at all
const departureBufferMinutes = 30

// coldChainLimit marks shipments whose ceiling makes them hard to keep cold
// on long tours
const coldChainLimit = 4.0

// GetViolationsHandler builds the violation report of a finished job: a
// diagnosis per unassigned shipment plus every predicted temperature
// violation on the materialized routes
type GetViolationsHandler struct {
	jobs      planning.JobRepository
	routes    planning.RouteRepository
	shipments shipment.Repository
}

// NewGetViolationsHandler creates the violations handler
func NewGetViolationsHandler(
	jobs planning.JobRepository,
	routes planning.RouteRepository,
	shipments shipment.Repository,
) *GetViolationsHandler {
	return &GetViolationsHandler{jobs: jobs, routes: routes, shipments: shipments}
}

// Handle executes the violations query
func (h *GetViolationsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*GetViolationsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	job, err := h.jobs.FindByID(ctx, query.JobID)
	if err != nil {
		return nil, err
	}

	response := &ViolationsResponse{JobID: query.JobID}

	if ids := job.UnassignedShipmentIDs(); len(ids) > 0 {
		dropped, err := h.shipments.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		departure := job.Parameters().EarliestDepartureMinutes()
		for _, s := range dropped {
			response.UnassignedShipments = append(response.UnassignedShipments, types.UnassignedShipment{
				ShipmentID:  s.ID(),
				OrderNumber: s.OrderNumber(),
				Address:     s.DeliveryAddress(),
				Reason:      classifyDrop(s, departure),
			})
		}
	}

	violations, err := h.routes.ListTemperatureViolations(ctx, query.JobID)
	if err != nil {
		return nil, err
	}
	response.TemperatureViolations = violations

	return response, nil
}

// classifyDrop attributes the most likely binding constraint to an unassigned
// shipment. A window that closes before vehicles can plausibly reach the stop
// is blamed first; STRICT shipments are otherwise dropped only when their hard
// constraints admit no placement; deep-cold ceilings are checked before the
// capacity/routing catch-all.
func classifyDrop(s *shipment.Shipment, departureMinutes int) string {
	for _, w := range s.TimeWindows() {
		end, err := shipment.ParseClock(w.End)
		if err == nil && end < departureMinutes+departureBufferMinutes {
			return types.ReasonTimeWindow
		}
	}
	if s.IsStrict() {
		return types.ReasonStrictSLA
	}
	if s.TempLimitUpper() <= coldChainLimit {
		return types.ReasonTemperature
	}
	return types.ReasonCapacityOrRouting
}
