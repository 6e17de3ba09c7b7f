package planning

import (
	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
	"github.com/andrescamacho/coldroute-go/internal/domain/shipment"
)

// Strategy selects the primary objective weighting
type Strategy string

const (
	StrategyMinimizeVehicles Strategy = "MINIMIZE_VEHICLES"
	StrategyMinimizeDistance Strategy = "MINIMIZE_DISTANCE"
)

func (s Strategy) IsValid() bool {
	return s == StrategyMinimizeVehicles || s == StrategyMinimizeDistance
}

// JobParameters is the closed set of per-job algorithm knobs. Unset fields
// are filled by ApplyDefaults before validation. The temperatures are
// pointers so an explicit 0 degree submission survives defaulting.
type JobParameters struct {
	TimeLimitSeconds     int      `json:"time_limit_seconds"`
	Strategy             Strategy `json:"strategy"`
	AmbientTemperature   *float64 `json:"ambient_temperature"`
	InitialVehicleTemp   *float64 `json:"initial_vehicle_temp"`
	AllowPartial         bool     `json:"allow_partial"`
	MaxVehicles          int      `json:"max_vehicles"`
	PlannedDepartureTime string   `json:"planned_departure_time"`
	DepotLatitude        *float64 `json:"depot_latitude,omitempty"`
	DepotLongitude       *float64 `json:"depot_longitude,omitempty"`
	DepotAddress         string   `json:"depot_address,omitempty"`
}

// ParameterDefaults carries the configured fallbacks applied to submissions
type ParameterDefaults struct {
	TimeLimitSeconds   int
	AmbientTemperature float64
	InitialVehicleTemp float64
}

// ApplyDefaults fills unset fields from configuration
func (p *JobParameters) ApplyDefaults(defaults ParameterDefaults) {
	if p.TimeLimitSeconds == 0 {
		p.TimeLimitSeconds = defaults.TimeLimitSeconds
	}
	if p.Strategy == "" {
		p.Strategy = StrategyMinimizeVehicles
	}
	if p.AmbientTemperature == nil {
		ambient := defaults.AmbientTemperature
		p.AmbientTemperature = &ambient
	}
	if p.InitialVehicleTemp == nil {
		initial := defaults.InitialVehicleTemp
		p.InitialVehicleTemp = &initial
	}
	if p.PlannedDepartureTime == "" {
		p.PlannedDepartureTime = "06:00"
	}
}

// Validate enforces the closed-set ranges
func (p JobParameters) Validate() error {
	if p.TimeLimitSeconds < 10 || p.TimeLimitSeconds > 3600 {
		return shared.NewValidationError("time_limit_seconds", "must be within [10, 3600]")
	}
	if !p.Strategy.IsValid() {
		return shared.NewValidationError("strategy", "must be MINIMIZE_VEHICLES or MINIMIZE_DISTANCE")
	}
	if p.MaxVehicles < 0 {
		return shared.NewValidationError("max_vehicles", "must be zero (unlimited) or positive")
	}
	if _, err := shipment.ParseClock(p.PlannedDepartureTime); err != nil {
		return shared.NewValidationError("planned_departure_time", "must be HH:MM")
	}
	if p.DepotLatitude != nil && (*p.DepotLatitude < -90 || *p.DepotLatitude > 90) {
		return shared.NewValidationError("depot_latitude", "must be within [-90, 90]")
	}
	if p.DepotLongitude != nil && (*p.DepotLongitude < -180 || *p.DepotLongitude > 180) {
		return shared.NewValidationError("depot_longitude", "must be within [-180, 180]")
	}
	return nil
}

// EarliestDepartureMinutes returns the planned departure as minutes from
// midnight. Parameters must have been validated.
func (p JobParameters) EarliestDepartureMinutes() int {
	minutes, _ := shipment.ParseClock(p.PlannedDepartureTime)
	return minutes
}
