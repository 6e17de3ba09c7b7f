package thermo

import "math"

// VehicleParams holds the thermodynamic characteristics of a refrigerated
// compartment. All rates are per hour.
//
// HeatTransferCoefficient (K) depends on insulation grade, DoorCoefficient (C)
// on door type. CurtainFactor is 0.5 when strip curtains are fitted and 1.0
// otherwise. CoolingRate (R) is negative while the unit is cooling.
type VehicleParams struct {
	HeatTransferCoefficient float64
	DoorCoefficient         float64
	CurtainFactor           float64
	CoolingRate             float64
}

// Leg is one arc of a tour: travel to a stop followed by service at it.
// Temperature limits are those of the shipment delivered at the stop.
type Leg struct {
	TravelMinutes  int
	ServiceMinutes int
	TempLimitUpper float64
	TempLimitLower *float64
	Strict         bool
}

// StopPrediction is the propagated temperature state at one stop.
type StopPrediction struct {
	ArrivalTemp    float64
	DepartureTemp  float64
	TransitRise    float64
	DoorRise       float64
	CoolingApplied float64
	Feasible       bool
}

// TransitRise returns the compartment warming over travelHours of driving at
// ambient temperature with the compartment currently at current:
//
//	ΔT_drive = Δt · (ambient − current) · K
func TransitRise(p VehicleParams, travelHours, ambient, current float64) float64 {
	return travelHours * (ambient - current) * p.HeatTransferCoefficient
}

// DoorRise returns the warming from door-open time during service:
//
//	ΔT_door = Δt · C · curtain_factor
func DoorRise(p VehicleParams, serviceHours float64) float64 {
	return serviceHours * p.DoorCoefficient * p.CurtainFactor
}

// Cooling returns the temperature change from active refrigeration while
// driving (negative while cooling):
//
//	ΔT_cool = Δt · R
func Cooling(p VehicleParams, travelHours float64) float64 {
	return travelHours * p.CoolingRate
}

// PropagateTour walks a tour leg by leg starting from initial compartment
// temperature. For each leg the arrival temperature is the previous departure
// plus transit rise plus cooling; the departure temperature adds the door
// rise for that stop's service time. Feasibility at a stop requires the
// arrival temperature to sit within the shipment's limits (the lower bound is
// checked only when set).
func PropagateTour(p VehicleParams, ambient, initial float64, legs []Leg) []StopPrediction {
	predictions := make([]StopPrediction, 0, len(legs))
	current := initial

	for _, leg := range legs {
		travelHours := float64(leg.TravelMinutes) / 60.0
		serviceHours := float64(leg.ServiceMinutes) / 60.0

		transit := TransitRise(p, travelHours, ambient, current)
		cooling := Cooling(p, travelHours)
		arrival := current + transit + cooling

		door := DoorRise(p, serviceHours)
		departure := arrival + door

		feasible := arrival <= leg.TempLimitUpper
		if leg.TempLimitLower != nil && arrival < *leg.TempLimitLower {
			feasible = false
		}

		predictions = append(predictions, StopPrediction{
			ArrivalTemp:    arrival,
			DepartureTemp:  departure,
			TransitRise:    transit,
			DoorRise:       door,
			CoolingApplied: cooling,
			Feasible:       feasible,
		})

		current = departure
	}

	return predictions
}

// RoutePenalty scores a propagated tour for post-processing. STANDARD stops
// contribute perDegreePenalty for every degree of upper-limit excess; any
// infeasible STRICT stop makes the whole route cost infeasibleCost.
func RoutePenalty(legs []Leg, predictions []StopPrediction, perDegreePenalty, infeasibleCost int64) int64 {
	var penalty int64
	for i, leg := range legs {
		if i >= len(predictions) {
			break
		}
		pred := predictions[i]
		if leg.Strict && !pred.Feasible {
			return infeasibleCost
		}
		excess := pred.ArrivalTemp - leg.TempLimitUpper
		if excess > 0 {
			penalty += int64(math.Round(excess * float64(perDegreePenalty)))
		}
	}
	return penalty
}

// IsRouteFeasible reports whether no STRICT stop violates its temperature
// bounds.
func IsRouteFeasible(legs []Leg, predictions []StopPrediction) bool {
	for i, leg := range legs {
		if i >= len(predictions) {
			break
		}
		if leg.Strict && !predictions[i].Feasible {
			return false
		}
	}
	return true
}
