package shipment

import (
	"github.com/google/uuid"

	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
)

// SLATier controls constraint hardness: STRICT shipments must be served with
// every constraint met; STANDARD shipments may be dropped or may exceed their
// temperature ceiling at a penalty
type SLATier string

const (
	SLAStrict   SLATier = "STRICT"
	SLAStandard SLATier = "STANDARD"
)

func (s SLATier) IsValid() bool {
	return s == SLAStrict || s == SLAStandard
}

// Status is the shipment delivery lifecycle
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAssigned  Status = "ASSIGNED"
	StatusInTransit Status = "IN_TRANSIT"
	StatusDelivered Status = "DELIVERED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

var validStatuses = map[Status]bool{
	StatusPending:   true,
	StatusAssigned:  true,
	StatusInTransit: true,
	StatusDelivered: true,
	StatusFailed:    true,
	StatusCancelled: true,
}

const (
	// DefaultServiceMinutes is assumed when an order does not specify
	// unloading time
	DefaultServiceMinutes = 15

	// DefaultTempLimitUpper is the ceiling applied to orders created without
	// an explicit limit
	DefaultTempLimitUpper = 5.0
)

// Dimensions describes cargo measurements in centimeters for bin packing
type Dimensions struct {
	Length float64 `json:"l"`
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

// Shipment entity - one delivery order
//
// Invariants:
// - OrderNumber unique and non-empty
// - Coordinates inside WGS-84 bounds
// - At least one forward-running time window
// - Weight positive; priority within [0,100]
// - Deletion allowed only while PENDING
type Shipment struct {
	id              uuid.UUID
	orderNumber     string
	customerID      *uuid.UUID
	deliveryAddress string
	latitude        float64
	longitude       float64
	timeWindows     []TimeWindow
	slaTier         SLATier
	tempLimitUpper  float64
	tempLimitLower  *float64
	serviceDuration int // minutes
	weight          float64
	volume          *float64
	dimensions      *Dimensions
	packageCount    int
	priority        int
	status          Status
	routeID         *uuid.UUID
	routeSequence   *int
	specialNotes    string
}

// NewShipment creates a pending shipment
func NewShipment(
	id uuid.UUID,
	orderNumber string,
	deliveryAddress string,
	latitude float64,
	longitude float64,
	timeWindows []TimeWindow,
	slaTier SLATier,
	tempLimitUpper float64,
	tempLimitLower *float64,
	serviceDuration int,
	weight float64,
	volume *float64,
	priority int,
) (*Shipment, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	if slaTier == "" {
		slaTier = SLAStandard
	}
	if serviceDuration == 0 {
		serviceDuration = DefaultServiceMinutes
	}
	if len(timeWindows) == 0 {
		timeWindows = []TimeWindow{{Start: "08:00", End: "18:00"}}
	}

	s := &Shipment{
		id:              id,
		orderNumber:     orderNumber,
		deliveryAddress: deliveryAddress,
		latitude:        latitude,
		longitude:       longitude,
		timeWindows:     timeWindows,
		slaTier:         slaTier,
		tempLimitUpper:  tempLimitUpper,
		tempLimitLower:  tempLimitLower,
		serviceDuration: serviceDuration,
		weight:          weight,
		volume:          volume,
		packageCount:    1,
		priority:        priority,
		status:          StatusPending,
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Shipment) validate() error {
	if s.orderNumber == "" {
		return shared.NewValidationError("order_number", "cannot be empty")
	}
	if s.deliveryAddress == "" {
		return shared.NewValidationError("delivery_address", "cannot be empty")
	}
	if s.latitude < -90 || s.latitude > 90 {
		return shared.NewValidationError("latitude", "must be within [-90, 90]")
	}
	if s.longitude < -180 || s.longitude > 180 {
		return shared.NewValidationError("longitude", "must be within [-180, 180]")
	}
	if len(s.timeWindows) == 0 {
		return shared.NewValidationError("time_windows", "at least one window is required")
	}
	for _, w := range s.timeWindows {
		if err := w.Validate(); err != nil {
			return err
		}
	}
	if !s.slaTier.IsValid() {
		return shared.NewValidationError("sla_tier", "must be STRICT or STANDARD")
	}
	if s.serviceDuration < 1 || s.serviceDuration > 120 {
		return shared.NewValidationError("service_duration", "must be within [1, 120] minutes")
	}
	if s.weight <= 0 {
		return shared.NewValidationError("weight", "must be positive")
	}
	if s.priority < 0 || s.priority > 100 {
		return shared.NewValidationError("priority", "must be within [0, 100]")
	}
	if s.tempLimitLower != nil && *s.tempLimitLower >= s.tempLimitUpper {
		return shared.NewValidationError("temp_limit_lower", "must be below temp_limit_upper")
	}
	if !validStatuses[s.status] {
		return shared.NewValidationError("status", "unknown shipment status")
	}
	return nil
}

func (s *Shipment) ID() uuid.UUID            { return s.id }
func (s *Shipment) OrderNumber() string      { return s.orderNumber }
func (s *Shipment) CustomerID() *uuid.UUID   { return s.customerID }
func (s *Shipment) DeliveryAddress() string  { return s.deliveryAddress }
func (s *Shipment) Latitude() float64        { return s.latitude }
func (s *Shipment) Longitude() float64       { return s.longitude }
func (s *Shipment) TimeWindows() []TimeWindow { return s.timeWindows }
func (s *Shipment) SLATier() SLATier         { return s.slaTier }
func (s *Shipment) TempLimitUpper() float64  { return s.tempLimitUpper }
func (s *Shipment) TempLimitLower() *float64 { return s.tempLimitLower }
func (s *Shipment) ServiceDuration() int     { return s.serviceDuration }
func (s *Shipment) Weight() float64          { return s.weight }
func (s *Shipment) Volume() *float64         { return s.volume }
func (s *Shipment) Dimensions() *Dimensions  { return s.dimensions }
func (s *Shipment) PackageCount() int        { return s.packageCount }
func (s *Shipment) Priority() int            { return s.priority }
func (s *Shipment) Status() Status           { return s.status }
func (s *Shipment) RouteID() *uuid.UUID      { return s.routeID }
func (s *Shipment) RouteSequence() *int      { return s.routeSequence }
func (s *Shipment) SpecialNotes() string     { return s.specialNotes }

// IsStrict reports whether every constraint on this shipment is hard
func (s *Shipment) IsStrict() bool {
	return s.slaTier == SLAStrict
}

// IsPending reports whether the shipment can still be planned
func (s *Shipment) IsPending() bool {
	return s.status == StatusPending
}

// VolumeOrZero returns the declared volume, or zero when unmeasured
func (s *Shipment) VolumeOrZero() float64 {
	if s.volume == nil {
		return 0
	}
	return *s.volume
}

// ArrivalOnTime reports whether an arrival (minutes from midnight) satisfies
// any of the shipment's windows
func (s *Shipment) ArrivalOnTime(arrivalMinutes int) bool {
	for _, w := range s.timeWindows {
		if w.Contains(arrivalMinutes) {
			return true
		}
	}
	return false
}

// TemperatureCompliant reports whether a temperature respects both limits
func (s *Shipment) TemperatureCompliant(temp float64) bool {
	if temp > s.tempLimitUpper {
		return false
	}
	if s.tempLimitLower != nil && temp < *s.tempLimitLower {
		return false
	}
	return true
}

// AssignToRoute records the planning result on the shipment
func (s *Shipment) AssignToRoute(routeID uuid.UUID, sequence int) error {
	if s.status != StatusPending {
		return shared.NewConflictError("only PENDING shipments can be assigned to a route")
	}
	s.status = StatusAssigned
	s.routeID = &routeID
	s.routeSequence = &sequence
	return nil
}

// ResetToPending clears route assignment and returns the shipment to the pool
func (s *Shipment) ResetToPending() {
	s.status = StatusPending
	s.routeID = nil
	s.routeSequence = nil
}

// SetStatus transitions delivery status
func (s *Shipment) SetStatus(status Status) error {
	if !validStatuses[status] {
		return shared.NewValidationError("status", "unknown shipment status")
	}
	s.status = status
	return nil
}

// SetTimeWindows replaces the delivery windows
func (s *Shipment) SetTimeWindows(windows []TimeWindow) error {
	if len(windows) == 0 {
		return shared.NewValidationError("time_windows", "at least one window is required")
	}
	for _, w := range windows {
		if err := w.Validate(); err != nil {
			return err
		}
	}
	s.timeWindows = windows
	return nil
}

// SetPriority updates the drop-penalty priority
func (s *Shipment) SetPriority(priority int) error {
	if priority < 0 || priority > 100 {
		return shared.NewValidationError("priority", "must be within [0, 100]")
	}
	s.priority = priority
	return nil
}

// SetCustomer links the ordering customer
func (s *Shipment) SetCustomer(customerID *uuid.UUID) {
	s.customerID = customerID
}

// SetDimensions records cargo measurements
func (s *Shipment) SetDimensions(d *Dimensions) {
	s.dimensions = d
}

// SetPackageCount records the number of packages
func (s *Shipment) SetPackageCount(count int) error {
	if count < 1 {
		return shared.NewValidationError("package_count", "must be at least 1")
	}
	s.packageCount = count
	return nil
}

// SetSpecialNotes records handling instructions
func (s *Shipment) SetSpecialNotes(notes string) {
	s.specialNotes = notes
}

// RestoreShipment rebuilds a shipment from persisted state
func RestoreShipment(
	id uuid.UUID,
	orderNumber string,
	customerID *uuid.UUID,
	deliveryAddress string,
	latitude float64,
	longitude float64,
	timeWindows []TimeWindow,
	slaTier SLATier,
	tempLimitUpper float64,
	tempLimitLower *float64,
	serviceDuration int,
	weight float64,
	volume *float64,
	dimensions *Dimensions,
	packageCount int,
	priority int,
	status Status,
	routeID *uuid.UUID,
	routeSequence *int,
	specialNotes string,
) *Shipment {
	return &Shipment{
		id:              id,
		orderNumber:     orderNumber,
		customerID:      customerID,
		deliveryAddress: deliveryAddress,
		latitude:        latitude,
		longitude:       longitude,
		timeWindows:     timeWindows,
		slaTier:         slaTier,
		tempLimitUpper:  tempLimitUpper,
		tempLimitLower:  tempLimitLower,
		serviceDuration: serviceDuration,
		weight:          weight,
		volume:          volume,
		dimensions:      dimensions,
		packageCount:    packageCount,
		priority:        priority,
		status:          status,
		routeID:         routeID,
		routeSequence:   routeSequence,
		specialNotes:    specialNotes,
	}
}
