package persistence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Geometry columns are stored as WKT text "POINT(lon lat)" (SRID 4326).
// PostGIS can cast the text on read; SQLite test databases carry it verbatim.
// The numeric latitude/longitude columns stay authoritative for queries.

// PointWKT renders a WGS-84 coordinate pair as WKT
func PointWKT(latitude, longitude float64) string {
	return fmt.Sprintf("POINT(%s %s)",
		strconv.FormatFloat(longitude, 'f', -1, 64),
		strconv.FormatFloat(latitude, 'f', -1, 64))
}

// ParsePointWKT reads a WKT point back into (latitude, longitude)
func ParsePointWKT(wkt string) (float64, float64, bool) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(wkt), "POINT("), ")")
	parts := strings.Fields(trimmed)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lon, err1 := strconv.ParseFloat(parts[0], 64)
	lat, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// UserModel represents the users table
type UserModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	Username       string    `gorm:"column:username;unique;not null"`
	Email          string    `gorm:"column:email;unique;not null"`
	HashedPassword string    `gorm:"column:hashed_password;not null"`
	FullName       string    `gorm:"column:full_name"`
	Disabled       bool      `gorm:"column:disabled;not null;default:false"`
	IsSuperuser    bool      `gorm:"column:is_superuser;not null;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

// VehicleModel represents the vehicles table. KValue and DoorCoefficient are
// derived columns kept canonical on every write (see fleet.Vehicle).
type VehicleModel struct {
	ID                string     `gorm:"column:id;primaryKey"`
	LicensePlate      string     `gorm:"column:license_plate;unique;not null"`
	DriverID          *string    `gorm:"column:driver_id"`
	DriverName        string     `gorm:"column:driver_name"`
	CapacityWeight    float64    `gorm:"column:capacity_weight;not null"`
	CapacityVolume    float64    `gorm:"column:capacity_volume;not null"`
	InsulationGrade   string     `gorm:"column:insulation_grade;not null"`
	KValue            float64    `gorm:"column:k_value;not null"`
	DoorType          string     `gorm:"column:door_type;not null"`
	DoorCoefficient   float64    `gorm:"column:door_coefficient;not null"`
	HasStripCurtains  bool       `gorm:"column:has_strip_curtains;not null;default:false"`
	CoolingRate       float64    `gorm:"column:cooling_rate;not null"`
	MinTempCapability float64    `gorm:"column:min_temp_capability;not null"`
	Status            string     `gorm:"column:status;not null;index"`
	CurrentLatitude   *float64   `gorm:"column:current_latitude"`
	CurrentLongitude  *float64   `gorm:"column:current_longitude"`
	CurrentLocation   string     `gorm:"column:current_location"` // WKT point, SRID 4326
	CurrentTemp       *float64   `gorm:"column:current_temp"`
	LastTelemetryAt   *time.Time `gorm:"column:last_telemetry_at"`
	CreatedAt         time.Time  `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (VehicleModel) TableName() string {
	return "vehicles"
}

// ShipmentModel represents the shipments table. TimeWindows and Dimensions
// are JSON stored as strings; time_windows carries a check constraint
// requiring a non-empty array of {start,end} objects.
type ShipmentModel struct {
	ID               string    `gorm:"column:id;primaryKey"`
	OrderNumber      string    `gorm:"column:order_number;unique;not null"`
	CustomerID       *string   `gorm:"column:customer_id"`
	DeliveryAddress  string    `gorm:"column:delivery_address;not null"`
	Latitude         float64   `gorm:"column:latitude;not null"`
	Longitude        float64   `gorm:"column:longitude;not null"`
	DeliveryLocation string    `gorm:"column:delivery_location"` // WKT point, SRID 4326
	// TimeWindows must be a non-empty JSON array of {start,end} objects.
	// The repository validates the shape on every write; migrations add the
	// matching CHECK constraint on PostgreSQL.
	TimeWindows string `gorm:"column:time_windows;type:jsonb;not null"`
	SLATier          string    `gorm:"column:sla_tier;not null"`
	TempLimitUpper   float64   `gorm:"column:temp_limit_upper;not null"`
	TempLimitLower   *float64  `gorm:"column:temp_limit_lower"`
	ServiceDuration  int       `gorm:"column:service_duration;not null"`
	Weight           float64   `gorm:"column:weight;not null"`
	Volume           *float64  `gorm:"column:volume"`
	Dimensions       *string   `gorm:"column:dimensions;type:jsonb"`
	PackageCount     int       `gorm:"column:package_count;not null;default:1"`
	Priority         int       `gorm:"column:priority;not null;default:50"`
	Status           string    `gorm:"column:status;not null;index"`
	RouteID          *string   `gorm:"column:route_id;index"`
	RouteSequence    *int      `gorm:"column:route_sequence"`
	SpecialNotes     string    `gorm:"column:special_notes"`
	CreatedAt        time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (ShipmentModel) TableName() string {
	return "shipments"
}

// DepotModel represents the depots table
type DepotModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Address   string    `gorm:"column:address"`
	Latitude  float64   `gorm:"column:latitude;not null"`
	Longitude float64   `gorm:"column:longitude;not null"`
	Location  string    `gorm:"column:location"` // WKT point, SRID 4326
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (DepotModel) TableName() string {
	return "depots"
}

// OptimizationJobModel represents the optimization_jobs table. The id-list
// columns are JSON arrays stored as strings (ARRAY columns on PostgreSQL in
// the relational layout; the JSON form is driver-neutral).
type OptimizationJobModel struct {
	ID                    string     `gorm:"column:id;primaryKey"`
	TaskID                string     `gorm:"column:task_id"`
	Status                string     `gorm:"column:status;not null;index"`
	Progress              int        `gorm:"column:progress;not null;default:0"`
	PlanDate              time.Time  `gorm:"column:plan_date;not null;index"`
	VehicleIDs            string     `gorm:"column:vehicle_ids;type:jsonb"`
	ShipmentIDs           string     `gorm:"column:shipment_ids;type:jsonb"`
	Parameters            string     `gorm:"column:parameters;type:jsonb"`
	ResultSummary         *string    `gorm:"column:result_summary;type:jsonb"`
	RouteIDs              string     `gorm:"column:route_ids;type:jsonb"`
	UnassignedShipmentIDs string     `gorm:"column:unassigned_shipment_ids;type:jsonb"`
	ErrorMessage          string     `gorm:"column:error_message"`
	ErrorTraceback        string     `gorm:"column:error_traceback;type:text"`
	CreatedAt             time.Time  `gorm:"column:created_at;not null"`
	StartedAt             *time.Time `gorm:"column:started_at"`
	CompletedAt           *time.Time `gorm:"column:completed_at"`
	UpdatedAt             time.Time  `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (OptimizationJobModel) TableName() string {
	return "optimization_jobs"
}

// RouteModel represents the routes table
type RouteModel struct {
	ID                 string     `gorm:"column:id;primaryKey"`
	RouteCode          string     `gorm:"column:route_code;unique;not null"`
	PlanDate           time.Time  `gorm:"column:plan_date;not null;index"`
	VehicleID          string     `gorm:"column:vehicle_id;not null;index"`
	Vehicle            *VehicleModel `gorm:"foreignKey:VehicleID;references:ID"`
	DriverID           *string    `gorm:"column:driver_id"`
	DriverName         string     `gorm:"column:driver_name"`
	Status             string     `gorm:"column:status;not null;index"`
	TotalStops         int        `gorm:"column:total_stops;not null;default:0"`
	TotalDistanceKm    float64    `gorm:"column:total_distance_km;not null;default:0"`
	TotalDuration      int        `gorm:"column:total_duration;not null;default:0"`
	TotalWeightKg      float64    `gorm:"column:total_weight_kg;not null;default:0"`
	TotalVolumeM3      float64    `gorm:"column:total_volume_m3;not null;default:0"`
	InitialTemperature float64    `gorm:"column:initial_temperature;not null"`
	PredictedFinalTemp *float64   `gorm:"column:predicted_final_temp"`
	PredictedMaxTemp   *float64   `gorm:"column:predicted_max_temp"`
	PlannedDepartureAt *time.Time `gorm:"column:planned_departure_at"`
	PlannedReturnAt    *time.Time `gorm:"column:planned_return_at"`
	ActualDepartureAt  *time.Time `gorm:"column:actual_departure_at"`
	ActualReturnAt     *time.Time `gorm:"column:actual_return_at"`
	DepotAddress       string     `gorm:"column:depot_address"`
	DepotLatitude      float64    `gorm:"column:depot_latitude;not null"`
	DepotLongitude     float64    `gorm:"column:depot_longitude;not null"`
	DepotLocation      string     `gorm:"column:depot_location"` // WKT point, SRID 4326
	OptimizationJobID  *string    `gorm:"column:optimization_job_id;index"`
	OptimizationCost   *float64   `gorm:"column:optimization_cost"`
	Stops              []RouteStopModel `gorm:"foreignKey:RouteID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt          time.Time  `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (RouteModel) TableName() string {
	return "routes"
}

// RouteStopModel represents the route_stops table, unique on
// (route_id, sequence_number)
type RouteStopModel struct {
	ID                     string     `gorm:"column:id;primaryKey"`
	RouteID                string     `gorm:"column:route_id;not null;uniqueIndex:idx_route_sequence"`
	SequenceNumber         int        `gorm:"column:sequence_number;not null;uniqueIndex:idx_route_sequence"`
	ShipmentID             string     `gorm:"column:shipment_id;not null;index"`
	Shipment               *ShipmentModel `gorm:"foreignKey:ShipmentID;references:ID"`
	Latitude               float64    `gorm:"column:latitude;not null"`
	Longitude              float64    `gorm:"column:longitude;not null"`
	Location               string     `gorm:"column:location"` // WKT point, SRID 4326
	Address                string     `gorm:"column:address"`
	ExpectedArrivalAt      time.Time  `gorm:"column:expected_arrival_at;not null"`
	ExpectedDepartureAt    time.Time  `gorm:"column:expected_departure_at;not null"`
	TargetTimeWindowIndex  int        `gorm:"column:target_time_window_index;not null;default:0"`
	SlackMinutes           *int       `gorm:"column:slack_minutes"`
	PredictedArrivalTemp   float64    `gorm:"column:predicted_arrival_temp;not null"`
	TransitTempRise        *float64   `gorm:"column:transit_temp_rise"`
	ServiceTempRise        *float64   `gorm:"column:service_temp_rise"`
	CoolingApplied         *float64   `gorm:"column:cooling_applied"`
	PredictedDepartureTemp *float64   `gorm:"column:predicted_departure_temp"`
	IsTempFeasible         bool       `gorm:"column:is_temp_feasible;not null;default:true"`
	DistanceFromPrev       *float64   `gorm:"column:distance_from_prev"`
	TravelTimeFromPrev     *int       `gorm:"column:travel_time_from_prev"`
	ActualArrivalAt        *time.Time `gorm:"column:actual_arrival_at"`
	ActualTemperature      *float64   `gorm:"column:actual_temperature"`
	DeliveryStatus         *string    `gorm:"column:delivery_status"`
	Notes                  string     `gorm:"column:notes"`
	CreatedAt              time.Time  `gorm:"column:created_at;not null;autoCreateTime"`
}

func (RouteStopModel) TableName() string {
	return "route_stops"
}
