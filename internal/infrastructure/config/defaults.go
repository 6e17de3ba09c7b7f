package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8000"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Server.RateLimit.RequestsPerSecond == 0 {
		cfg.Server.RateLimit.RequestsPerSecond = 20
	}
	if cfg.Server.RateLimit.Burst == 0 {
		cfg.Server.RateLimit.Burst = 40
	}

	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "coldroute"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "coldroute"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.Size == 0 {
		cfg.Database.Pool.Size = 10
	}
	if cfg.Database.Pool.Overflow == 0 {
		cfg.Database.Pool.Overflow = 20
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Redis defaults
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = "redis://localhost:6379/0"
	}
	if cfg.Redis.Concurrency == 0 {
		cfg.Redis.Concurrency = 2
	}

	// Auth defaults
	if cfg.Auth.SecretKey == "" {
		cfg.Auth.SecretKey = "dev-secret-change-me"
	}
	if cfg.Auth.TokenExpiryMinutes == 0 {
		cfg.Auth.TokenExpiryMinutes = 1440
	}

	// Solver defaults
	if cfg.Solver.DefaultTimeLimitSeconds == 0 {
		cfg.Solver.DefaultTimeLimitSeconds = 300
	}
	if cfg.Solver.DefaultAmbientTemperature == 0 {
		cfg.Solver.DefaultAmbientTemperature = 30.0
	}
	if cfg.Solver.DefaultInitialVehicleTemp == 0 {
		cfg.Solver.DefaultInitialVehicleTemp = -5.0
	}
	if cfg.Solver.AverageSpeedKmh == 0 {
		cfg.Solver.AverageSpeedKmh = 30.0
	}
	if cfg.Solver.DistanceCostPerKm == 0 {
		cfg.Solver.DistanceCostPerKm = 10
	}
	if cfg.Solver.VehicleFixedCost == 0 {
		cfg.Solver.VehicleFixedCost = 50000
	}
	if cfg.Solver.TempViolationPenalty == 0 {
		cfg.Solver.TempViolationPenalty = 100000
	}
	if cfg.Solver.LateDeliveryPenalty == 0 {
		cfg.Solver.LateDeliveryPenalty = 1000
	}
	if cfg.Solver.InfeasibleCost == 0 {
		cfg.Solver.InfeasibleCost = 10000000
	}

	// Worker defaults
	if cfg.Worker.PIDFile == "" {
		cfg.Worker.PIDFile = "/tmp/coldroute-worker.pid"
	}
	if cfg.Worker.ProgressInterval == 0 {
		cfg.Worker.ProgressInterval = 10 * time.Second
	}
}
