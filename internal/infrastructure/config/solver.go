package config

// SolverConfig holds the cost model and run defaults of the optimizer
type SolverConfig struct {
	// Default per-job search budget, overridable per submission
	DefaultTimeLimitSeconds int `mapstructure:"default_time_limit_seconds" validate:"omitempty,min=10,max=3600"`

	// Thermodynamic defaults
	DefaultAmbientTemperature float64 `mapstructure:"default_ambient_temperature"`
	DefaultInitialVehicleTemp float64 `mapstructure:"default_initial_vehicle_temp"`

	// Depot fallback when no active depot row exists
	DefaultDepotLatitude  float64 `mapstructure:"default_depot_latitude" validate:"omitempty,min=-90,max=90"`
	DefaultDepotLongitude float64 `mapstructure:"default_depot_longitude" validate:"omitempty,min=-180,max=180"`
	DefaultDepotAddress   string  `mapstructure:"default_depot_address"`

	// Cost model
	AverageSpeedKmh      float64 `mapstructure:"average_speed_kmh" validate:"omitempty,min=1"`
	DistanceCostPerKm    int64   `mapstructure:"distance_cost_per_km" validate:"omitempty,min=1"`
	VehicleFixedCost     int64   `mapstructure:"vehicle_fixed_cost" validate:"omitempty,min=1"`
	TempViolationPenalty int64   `mapstructure:"temp_violation_penalty" validate:"omitempty,min=0"`
	LateDeliveryPenalty  int64   `mapstructure:"late_delivery_penalty" validate:"omitempty,min=0"`
	InfeasibleCost       int64   `mapstructure:"infeasible_cost" validate:"omitempty,min=1"`
}
