package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the main configuration struct combining all sub-configs
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Solver   SolverConfig   `mapstructure:"solver"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

// LoadConfig loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. Config file (config.yaml)
// 3. Defaults (lowest priority)
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/coldroute")
	}

	v.SetEnvPrefix("COLDROUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - don't error if missing)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unprefixed environment overrides kept for drop-in compatibility with
	// existing deployments
	applyLegacyEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	SetDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyLegacyEnv maps the well-known unprefixed variables onto config keys
func applyLegacyEnv(v *viper.Viper) {
	bindings := map[string]string{
		"DATABASE_URL":                 "database.url",
		"DATABASE_URL_SYNC":            "database.url",
		"REDIS_URL":                    "redis.url",
		"CELERY_BROKER_URL":            "redis.url",
		"SECRET_KEY":                   "auth.secret_key",
		"ACCESS_TOKEN_EXPIRE_MINUTES":  "auth.token_expiry_minutes",
		"DB_POOL_SIZE":                 "database.pool.size",
		"DB_MAX_OVERFLOW":              "database.pool.overflow",
		"DEFAULT_SOLVER_TIME_LIMIT":    "solver.default_time_limit_seconds",
		"DEFAULT_AMBIENT_TEMPERATURE":  "solver.default_ambient_temperature",
		"DEFAULT_INITIAL_VEHICLE_TEMP": "solver.default_initial_vehicle_temp",
		"DEFAULT_DEPOT_LATITUDE":       "solver.default_depot_latitude",
		"DEFAULT_DEPOT_LONGITUDE":      "solver.default_depot_longitude",
		"DEFAULT_DEPOT_ADDRESS":        "solver.default_depot_address",
		"TEMP_VIOLATION_PENALTY":       "solver.temp_violation_penalty",
		"LATE_DELIVERY_PENALTY":        "solver.late_delivery_penalty",
		"VEHICLE_FIXED_COST":           "solver.vehicle_fixed_cost",
		"DISTANCE_COST_PER_KM":         "solver.distance_cost_per_km",
		"AVERAGE_SPEED_KMH":            "solver.average_speed_kmh",
		"INFEASIBLE_COST":              "solver.infeasible_cost",
	}
	for env, key := range bindings {
		if value := os.Getenv(env); value != "" {
			v.Set(key, value)
		}
	}
}

// MustLoadConfig loads configuration and panics on error (for use in main.go)
func MustLoadConfig(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
