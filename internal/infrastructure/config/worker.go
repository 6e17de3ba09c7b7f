package config

import "time"

// WorkerConfig holds the worker daemon settings
type WorkerConfig struct {
	// PID file guarding against double starts
	PIDFile string `mapstructure:"pid_file"`

	// How often the worker writes job progress
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
}
