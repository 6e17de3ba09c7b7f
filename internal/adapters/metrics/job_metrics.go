package metrics

import "github.com/prometheus/client_golang/prometheus"

// JobMetricsCollector tracks the optimization pipeline: job outcomes, solver
// runtimes and assignment counts
type JobMetricsCollector struct {
	jobOutcomes         *prometheus.CounterVec
	solveDuration       *prometheus.HistogramVec
	shipmentsAssigned   prometheus.Counter
	shipmentsUnassigned prometheus.Counter
}

// NewJobMetricsCollector creates the optimization metrics collector
func NewJobMetricsCollector() *JobMetricsCollector {
	return &JobMetricsCollector{
		jobOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "jobs",
				Name:      "outcomes_total",
				Help:      "Terminal optimization job transitions by status",
			},
			[]string{"status"},
		),
		solveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "solver",
				Name:      "duration_seconds",
				Help:      "Solver wall-clock time distribution",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"status"},
		),
		shipmentsAssigned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "solver",
				Name:      "shipments_assigned_total",
				Help:      "Shipments placed on routes across all runs",
			},
		),
		shipmentsUnassigned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "solver",
				Name:      "shipments_unassigned_total",
				Help:      "Shipments dropped by the solver across all runs",
			},
		),
	}
}

// Register registers the collectors with the Prometheus registry
func (c *JobMetricsCollector) Register() error {
	if Registry == nil {
		return nil // metrics not enabled
	}
	for _, collector := range []prometheus.Collector{
		c.jobOutcomes,
		c.solveDuration,
		c.shipmentsAssigned,
		c.shipmentsUnassigned,
	} {
		if err := Registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// RecordJobOutcome counts one terminal job transition
func (c *JobMetricsCollector) RecordJobOutcome(status string) {
	c.jobOutcomes.WithLabelValues(status).Inc()
}

// RecordSolve records one solver run
func (c *JobMetricsCollector) RecordSolve(status string, seconds float64, assigned, unassigned int) {
	c.solveDuration.WithLabelValues(status).Observe(seconds)
	c.shipmentsAssigned.Add(float64(assigned))
	c.shipmentsUnassigned.Add(float64(unassigned))
}
