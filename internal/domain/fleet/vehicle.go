package fleet

import (
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
	"github.com/andrescamacho/coldroute-go/internal/domain/thermo"
)

// InsulationGrade classifies compartment insulation quality
type InsulationGrade string

const (
	InsulationPremium  InsulationGrade = "PREMIUM"
	InsulationStandard InsulationGrade = "STANDARD"
	InsulationBasic    InsulationGrade = "BASIC"
)

// Canonical heat-transfer coefficients (per hour) by insulation grade
var insulationKValues = map[InsulationGrade]float64{
	InsulationPremium:  0.02,
	InsulationStandard: 0.05,
	InsulationBasic:    0.10,
}

// KValue returns the canonical heat-transfer coefficient for the grade
func (g InsulationGrade) KValue() float64 {
	return insulationKValues[g]
}

// IsValid reports whether the grade is one of the recognized values
func (g InsulationGrade) IsValid() bool {
	_, ok := insulationKValues[g]
	return ok
}

// DoorType classifies the cargo door mechanism
type DoorType string

const (
	DoorRoll  DoorType = "ROLL"
	DoorSwing DoorType = "SWING"
)

// Canonical door heat-loss coefficients by door type
var doorCoefficients = map[DoorType]float64{
	DoorRoll:  0.8,
	DoorSwing: 1.2,
}

// Coefficient returns the canonical door heat-loss coefficient
func (d DoorType) Coefficient() float64 {
	return doorCoefficients[d]
}

// IsValid reports whether the door type is recognized
func (d DoorType) IsValid() bool {
	_, ok := doorCoefficients[d]
	return ok
}

// VehicleStatus represents vehicle availability
type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "AVAILABLE"
	VehicleInUse       VehicleStatus = "IN_USE"
	VehicleMaintenance VehicleStatus = "MAINTENANCE"
	VehicleOffline     VehicleStatus = "OFFLINE"
)

var validVehicleStatuses = map[VehicleStatus]bool{
	VehicleAvailable:   true,
	VehicleInUse:       true,
	VehicleMaintenance: true,
	VehicleOffline:     true,
}

// Vehicle entity - a refrigerated delivery unit
//
// Invariants:
// - LicensePlate must be unique and non-empty
// - Capacities must be positive
// - KValue always equals the canonical coefficient of the current grade,
//   DoorCoefficient the canonical coefficient of the current door type
//   (recomputed on every change)
// - CoolingRate is negative or zero; a positive rate would mean the
//   refrigeration unit heats the box
type Vehicle struct {
	id                uuid.UUID
	licensePlate      string
	driverID          *uuid.UUID
	driverName        string
	capacityWeight    float64 // kg
	capacityVolume    float64 // m³
	insulationGrade   InsulationGrade
	kValue            float64
	doorType          DoorType
	doorCoefficient   float64
	hasStripCurtains  bool
	coolingRate       float64 // °C/hour, negative while cooling
	minTempCapability float64 // °C
	status            VehicleStatus
	currentLatitude   *float64
	currentLongitude  *float64
	currentTemp       *float64
	lastTelemetryAt   *time.Time
}

// NewVehicle creates a vehicle with derived thermodynamic coefficients
func NewVehicle(
	id uuid.UUID,
	licensePlate string,
	capacityWeight float64,
	capacityVolume float64,
	insulationGrade InsulationGrade,
	doorType DoorType,
	hasStripCurtains bool,
	coolingRate float64,
	minTempCapability float64,
	status VehicleStatus,
) (*Vehicle, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	if status == "" {
		status = VehicleAvailable
	}

	v := &Vehicle{
		id:                id,
		licensePlate:      licensePlate,
		capacityWeight:    capacityWeight,
		capacityVolume:    capacityVolume,
		insulationGrade:   insulationGrade,
		kValue:            insulationGrade.KValue(),
		doorType:          doorType,
		doorCoefficient:   doorType.Coefficient(),
		hasStripCurtains:  hasStripCurtains,
		coolingRate:       coolingRate,
		minTempCapability: minTempCapability,
		status:            status,
	}

	if err := v.validate(); err != nil {
		return nil, err
	}

	return v, nil
}

func (v *Vehicle) validate() error {
	if v.licensePlate == "" {
		return shared.NewValidationError("license_plate", "cannot be empty")
	}
	if v.capacityWeight <= 0 {
		return shared.NewValidationError("capacity_weight", "must be positive")
	}
	if v.capacityVolume <= 0 {
		return shared.NewValidationError("capacity_volume", "must be positive")
	}
	if !v.insulationGrade.IsValid() {
		return shared.NewValidationError("insulation_grade", "must be PREMIUM, STANDARD or BASIC")
	}
	if !v.doorType.IsValid() {
		return shared.NewValidationError("door_type", "must be ROLL or SWING")
	}
	if v.coolingRate > 0 {
		return shared.NewValidationError("cooling_rate", "must be negative or zero")
	}
	if !validVehicleStatuses[v.status] {
		return shared.NewValidationError("status", "unknown vehicle status")
	}
	return nil
}

func (v *Vehicle) ID() uuid.UUID                    { return v.id }
func (v *Vehicle) LicensePlate() string             { return v.licensePlate }
func (v *Vehicle) DriverID() *uuid.UUID             { return v.driverID }
func (v *Vehicle) DriverName() string               { return v.driverName }
func (v *Vehicle) CapacityWeight() float64          { return v.capacityWeight }
func (v *Vehicle) CapacityVolume() float64          { return v.capacityVolume }
func (v *Vehicle) InsulationGrade() InsulationGrade { return v.insulationGrade }
func (v *Vehicle) KValue() float64                  { return v.kValue }
func (v *Vehicle) DoorType() DoorType               { return v.doorType }
func (v *Vehicle) DoorCoefficient() float64         { return v.doorCoefficient }
func (v *Vehicle) HasStripCurtains() bool           { return v.hasStripCurtains }
func (v *Vehicle) CoolingRate() float64             { return v.coolingRate }
func (v *Vehicle) MinTempCapability() float64       { return v.minTempCapability }
func (v *Vehicle) Status() VehicleStatus            { return v.status }
func (v *Vehicle) CurrentLatitude() *float64        { return v.currentLatitude }
func (v *Vehicle) CurrentLongitude() *float64       { return v.currentLongitude }
func (v *Vehicle) CurrentTemperature() *float64     { return v.currentTemp }
func (v *Vehicle) LastTelemetryAt() *time.Time      { return v.lastTelemetryAt }

// IsAvailable reports whether the vehicle can be planned into a route
func (v *Vehicle) IsAvailable() bool {
	return v.status == VehicleAvailable
}

// CurtainFactor returns the door-loss multiplier: strip curtains halve the
// heat gained while the door is open
func (v *Vehicle) CurtainFactor() float64 {
	if v.hasStripCurtains {
		return 0.5
	}
	return 1.0
}

// ThermalParams exposes the vehicle's thermodynamic parameters for the
// propagator
func (v *Vehicle) ThermalParams() thermo.VehicleParams {
	return thermo.VehicleParams{
		HeatTransferCoefficient: v.kValue,
		DoorCoefficient:         v.doorCoefficient,
		CurtainFactor:           v.CurtainFactor(),
		CoolingRate:             v.coolingRate,
	}
}

// SetInsulationGrade changes the grade and recomputes the derived coefficient
func (v *Vehicle) SetInsulationGrade(grade InsulationGrade) error {
	if !grade.IsValid() {
		return shared.NewValidationError("insulation_grade", "must be PREMIUM, STANDARD or BASIC")
	}
	v.insulationGrade = grade
	v.kValue = grade.KValue()
	return nil
}

// SetDoorType changes the door type and recomputes the derived coefficient
func (v *Vehicle) SetDoorType(doorType DoorType) error {
	if !doorType.IsValid() {
		return shared.NewValidationError("door_type", "must be ROLL or SWING")
	}
	v.doorType = doorType
	v.doorCoefficient = doorType.Coefficient()
	return nil
}

// SetStripCurtains toggles the strip-curtain fitting
func (v *Vehicle) SetStripCurtains(fitted bool) {
	v.hasStripCurtains = fitted
}

// SetCoolingRate updates the refrigeration rate
func (v *Vehicle) SetCoolingRate(rate float64) error {
	if rate > 0 {
		return shared.NewValidationError("cooling_rate", "must be negative or zero")
	}
	v.coolingRate = rate
	return nil
}

// SetCapacity updates cargo capacity limits
func (v *Vehicle) SetCapacity(weightKg, volumeM3 float64) error {
	if weightKg <= 0 {
		return shared.NewValidationError("capacity_weight", "must be positive")
	}
	if volumeM3 <= 0 {
		return shared.NewValidationError("capacity_volume", "must be positive")
	}
	v.capacityWeight = weightKg
	v.capacityVolume = volumeM3
	return nil
}

// SetStatus transitions the vehicle's availability
func (v *Vehicle) SetStatus(status VehicleStatus) error {
	if !validVehicleStatuses[status] {
		return shared.NewValidationError("status", "unknown vehicle status")
	}
	v.status = status
	return nil
}

// AssignDriver records the driver snapshot used on planned routes
func (v *Vehicle) AssignDriver(driverID *uuid.UUID, name string) {
	v.driverID = driverID
	v.driverName = name
}

// RecordTelemetry updates the last known position and compartment temperature
func (v *Vehicle) RecordTelemetry(lat, lon, temp float64, at time.Time) {
	v.currentLatitude = &lat
	v.currentLongitude = &lon
	v.currentTemp = &temp
	v.lastTelemetryAt = &at
}

// RestoreVehicle rebuilds a vehicle from persisted state without revalidating
// derived coefficients (the repository is trusted to hold canonical values)
func RestoreVehicle(
	id uuid.UUID,
	licensePlate string,
	driverID *uuid.UUID,
	driverName string,
	capacityWeight float64,
	capacityVolume float64,
	insulationGrade InsulationGrade,
	kValue float64,
	doorType DoorType,
	doorCoefficient float64,
	hasStripCurtains bool,
	coolingRate float64,
	minTempCapability float64,
	status VehicleStatus,
	currentLatitude *float64,
	currentLongitude *float64,
	currentTemp *float64,
	lastTelemetryAt *time.Time,
) *Vehicle {
	return &Vehicle{
		id:                id,
		licensePlate:      licensePlate,
		driverID:          driverID,
		driverName:        driverName,
		capacityWeight:    capacityWeight,
		capacityVolume:    capacityVolume,
		insulationGrade:   insulationGrade,
		kValue:            kValue,
		doorType:          doorType,
		doorCoefficient:   doorCoefficient,
		hasStripCurtains:  hasStripCurtains,
		coolingRate:       coolingRate,
		minTempCapability: minTempCapability,
		status:            status,
		currentLatitude:   currentLatitude,
		currentLongitude:  currentLongitude,
		currentTemp:       currentTemp,
		lastTelemetryAt:   lastTelemetryAt,
	}
}
