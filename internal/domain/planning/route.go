package planning

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
)

// RouteStatus is the execution lifecycle of a planned route
type RouteStatus string

const (
	RoutePlanning   RouteStatus = "PLANNING"
	RouteScheduled  RouteStatus = "SCHEDULED"
	RouteInProgress RouteStatus = "IN_PROGRESS"
	RouteCompleted  RouteStatus = "COMPLETED"
	RouteCancelled  RouteStatus = "CANCELLED"
)

var routeTransitions = map[RouteStatus][]RouteStatus{
	RoutePlanning:   {RouteScheduled, RouteCancelled},
	RouteScheduled:  {RouteInProgress, RouteCancelled},
	RouteInProgress: {RouteCompleted, RouteCancelled},
}

// CanTransitionTo reports whether the execution state machine allows the move
func (s RouteStatus) CanTransitionTo(next RouteStatus) bool {
	for _, allowed := range routeTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s RouteStatus) IsValid() bool {
	switch s {
	case RoutePlanning, RouteScheduled, RouteInProgress, RouteCompleted, RouteCancelled:
		return true
	}
	return false
}

// DeliveryStatus records the outcome of a single stop during execution
type DeliveryStatus string

const (
	DeliverySucceeded      DeliveryStatus = "SUCCESS"
	DeliveryFailedRejected DeliveryStatus = "REJECTED"
	DeliveryFailedAbsent   DeliveryStatus = "ABSENT"
	DeliverySkipped        DeliveryStatus = "SKIPPED"
)

func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliverySucceeded, DeliveryFailedRejected, DeliveryFailedAbsent, DeliverySkipped:
		return true
	}
	return false
}

// Route is one vehicle's ordered tour on a plan date. It is produced by the
// materializer and owns its stops (cascade delete).
//
// Fields are exported: routes are write-models assembled in one place and
// read broadly, unlike the invariant-guarding entities.
type Route struct {
	ID                 uuid.UUID
	RouteCode          string
	PlanDate           time.Time
	VehicleID          uuid.UUID
	DriverID           *uuid.UUID
	DriverName         string
	Status             RouteStatus
	TotalStops         int
	TotalDistanceKm    float64
	TotalDuration      int // minutes, departure to return
	TotalWeightKg      float64
	TotalVolumeM3      float64
	InitialTemperature float64
	PredictedFinalTemp *float64
	PredictedMaxTemp   *float64
	PlannedDepartureAt *time.Time
	PlannedReturnAt    *time.Time
	ActualDepartureAt  *time.Time
	ActualReturnAt     *time.Time
	DepotAddress       string
	DepotLatitude      float64
	DepotLongitude     float64
	OptimizationJobID  *uuid.UUID
	OptimizationCost   *float64
	Stops              []*RouteStop
}

// RouteStop is one visit within a route, unique on (route, sequence).
// Sequence numbers are 1-based and gapless.
type RouteStop struct {
	ID                     uuid.UUID
	RouteID                uuid.UUID
	ShipmentID             uuid.UUID
	SequenceNumber         int
	Latitude               float64
	Longitude              float64
	Address                string
	ExpectedArrivalAt      time.Time
	ExpectedDepartureAt    time.Time
	TargetTimeWindowIndex  int
	SlackMinutes           *int
	PredictedArrivalTemp   float64
	TransitTempRise        *float64
	ServiceTempRise        *float64
	CoolingApplied         *float64
	PredictedDepartureTemp *float64
	IsTempFeasible         bool
	DistanceFromPrevKm     *float64
	TravelTimeFromPrev     *int
	ActualArrivalAt        *time.Time
	ActualTemperature      *float64
	DeliveryStatus         *DeliveryStatus
	Notes                  string
}

// Validate checks the structural invariants of a materialized route
func (r *Route) Validate() error {
	if r.RouteCode == "" {
		return shared.NewValidationError("route_code", "cannot be empty")
	}
	if r.VehicleID == uuid.Nil {
		return shared.NewValidationError("vehicle_id", "cannot be empty")
	}
	if r.TotalStops != len(r.Stops) {
		return shared.NewValidationError("total_stops", "must equal the number of stops")
	}
	seen := make(map[int]bool, len(r.Stops))
	for _, stop := range r.Stops {
		if stop.SequenceNumber < 1 || stop.SequenceNumber > len(r.Stops) {
			return shared.NewValidationError("sequence_number",
				fmt.Sprintf("stop sequence %d outside [1, %d]", stop.SequenceNumber, len(r.Stops)))
		}
		if seen[stop.SequenceNumber] {
			return shared.NewValidationError("sequence_number",
				fmt.Sprintf("duplicate stop sequence %d", stop.SequenceNumber))
		}
		seen[stop.SequenceNumber] = true
	}
	return nil
}

// MaxPredictedTemp returns the hottest predicted arrival across stops
func (r *Route) MaxPredictedTemp() *float64 {
	if len(r.Stops) == 0 {
		return nil
	}
	max := r.Stops[0].PredictedArrivalTemp
	for _, stop := range r.Stops[1:] {
		if stop.PredictedArrivalTemp > max {
			max = stop.PredictedArrivalTemp
		}
	}
	return &max
}

// IsTemperatureFeasible reports whether every stop is within its limits
func (r *Route) IsTemperatureFeasible() bool {
	for _, stop := range r.Stops {
		if !stop.IsTempFeasible {
			return false
		}
	}
	return true
}

// RouteCode builds the unique code for a materialized route:
// R-{YYYYMMDD}-{license plate}-{first 8 hex of the job id}
func RouteCode(planDate time.Time, licensePlate string, jobID uuid.UUID) string {
	short := jobID.String()
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("R-%s-%s-%s", planDate.Format("20060102"), licensePlate, short)
}
