package config

import "time"

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	// Listen address, e.g. ":8000"
	Address string `mapstructure:"address"`

	// Request handling timeouts
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// Allowed CORS origins; "*" allows any
	CORSOrigins []string `mapstructure:"cors_origins"`

	// Per-client rate limit
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// Expose /metrics with Prometheus collectors
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
}

// RateLimitConfig holds the per-IP token bucket settings
type RateLimitConfig struct {
	// Sustained requests per second per client
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"omitempty,min=0"`

	// Burst size for the token bucket
	Burst int `mapstructure:"burst" validate:"omitempty,min=1"`
}
