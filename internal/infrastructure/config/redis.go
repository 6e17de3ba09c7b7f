package config

// RedisConfig holds the broker and result-cache connection
type RedisConfig struct {
	// Connection URL, e.g. redis://localhost:6379/0
	URL string `mapstructure:"url" validate:"required"`

	// Worker-side solver concurrency
	Concurrency int `mapstructure:"concurrency" validate:"omitempty,min=1"`
}
