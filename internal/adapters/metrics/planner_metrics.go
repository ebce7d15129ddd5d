package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PlannerMetricsCollector handles all load-planning run metrics
type PlannerMetricsCollector struct {
	// Run metrics
	planRunsTotal   *prometheus.CounterVec
	planRunDuration *prometheus.HistogramVec

	// Plan shape metrics
	loadsBuiltTotal prometheus.Counter
	mergesTotal     *prometheus.CounterVec
	loadUtilization prometheus.Histogram
}

// NewPlannerMetricsCollector creates a new planner metrics collector
func NewPlannerMetricsCollector() *PlannerMetricsCollector {
	return &PlannerMetricsCollector{
		// Run outcome counter
		planRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystemPlanner,
				Name:      "plan_runs_total",
				Help:      "Total number of planning runs by algorithm and outcome",
			},
			[]string{"algorithm", "status"},
		),

		// Run duration histogram
		planRunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystemPlanner,
				Name:      "plan_run_duration_seconds",
				Help:      "Planning run duration distribution",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"algorithm", "status"},
		),

		// Loads built counter
		loadsBuiltTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystemPlanner,
				Name:      "loads_built_total",
				Help:      "Total number of loads produced across planning runs",
			},
		),

		// Committed merges by optimizer pass
		mergesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystemPlanner,
				Name:      "merges_committed_total",
				Help:      "Total number of committed load merges by optimizer pass",
			},
			[]string{"pass"},
		),

		// Per-load utilization distribution
		loadUtilization: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystemPlanner,
				Name:      "load_utilization_pct",
				Help:      "Trailer utilization distribution of built loads",
				Buckets:   []float64{10, 20, 30, 40, 55, 70, 85, 95, 100},
			},
		),
	}
}

// Register registers all planner metrics with the Prometheus registry
func (c *PlannerMetricsCollector) Register() error {
	return register(
		c.planRunsTotal,
		c.planRunDuration,
		c.loadsBuiltTotal,
		c.mergesTotal,
		c.loadUtilization,
	)
}

// RecordPlanRun records one planning run outcome and its duration
func (c *PlannerMetricsCollector) RecordPlanRun(algorithm, status string, seconds float64) {
	c.planRunsTotal.WithLabelValues(algorithm, status).Inc()
	c.planRunDuration.WithLabelValues(algorithm, status).Observe(seconds)
}

// RecordLoadsBuilt records the number of loads a run produced
func (c *PlannerMetricsCollector) RecordLoadsBuilt(n int) {
	c.loadsBuiltTotal.Add(float64(n))
}

// RecordMergeCommitted records one committed merge from an optimizer pass
func (c *PlannerMetricsCollector) RecordMergeCommitted(pass string) {
	c.mergesTotal.WithLabelValues(pass).Inc()
}

// RecordLoadUtilization records the trailer utilization of one built load
func (c *PlannerMetricsCollector) RecordLoadUtilization(pct float64) {
	c.loadUtilization.Observe(pct)
}
