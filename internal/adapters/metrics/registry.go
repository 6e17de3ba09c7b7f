// Package metrics wires Prometheus collectors for the HTTP surface and the
// optimization pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	// Namespace for all metrics
	namespace = "coldroute"
)

var (
	// Registry is the global Prometheus registry for all metrics
	Registry *prometheus.Registry

	// globalJobCollector is the singleton optimization metrics collector,
	// set by SetJobCollector when metrics are enabled
	globalJobCollector JobMetricsRecorder
)

// JobMetricsRecorder records optimization pipeline events. Application code
// calls the package-level helpers so metrics stay optional.
type JobMetricsRecorder interface {
	RecordJobOutcome(status string)
	RecordSolve(status string, seconds float64, assigned, unassigned int)
}

// InitRegistry initializes the Prometheus registry. Call once at startup when
// metrics are enabled.
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns the global registry, nil when metrics are disabled
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled reports whether metrics collection is active
func IsEnabled() bool {
	return Registry != nil
}

// SetJobCollector installs the global optimization metrics collector
func SetJobCollector(collector JobMetricsRecorder) {
	globalJobCollector = collector
}

// RecordJobOutcome records a terminal job transition globally
func RecordJobOutcome(status string) {
	if globalJobCollector != nil {
		globalJobCollector.RecordJobOutcome(status)
	}
}

// RecordSolve records one solver run globally
func RecordSolve(status string, seconds float64, assigned, unassigned int) {
	if globalJobCollector != nil {
		globalJobCollector.RecordSolve(status, seconds, assigned, unassigned)
	}
}
