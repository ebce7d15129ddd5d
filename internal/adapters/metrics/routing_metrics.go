package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RoutingMetricsCollector handles all route-resolution metrics
type RoutingMetricsCollector struct {
	providerRequests *prometheus.CounterVec
	providerErrors   *prometheus.CounterVec
	fallbacks        *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
}

// NewRoutingMetricsCollector creates a new routing metrics collector
func NewRoutingMetricsCollector() *RoutingMetricsCollector {
	return &RoutingMetricsCollector{
		// Provider call counter
		providerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystemRouting,
				Name:      "provider_requests_total",
				Help:      "Total number of road-provider calls by operation",
			},
			[]string{"provider", "operation"},
		),

		// Provider failure counter
		providerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystemRouting,
				Name:      "provider_errors_total",
				Help:      "Total number of failed road-provider calls by operation",
			},
			[]string{"provider", "operation"},
		),

		// Haversine fallback counter
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystemRouting,
				Name:      "fallback_total",
				Help:      "Total number of routes served by great-circle fallback, by reason",
			},
			[]string{"reason"},
		),

		// Route cache hit counter
		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystemRouting,
				Name:      "cache_hits_total",
				Help:      "Total number of route cache hits by tier",
			},
			[]string{"tier"},
		),
	}
}

// Register registers all routing metrics with the Prometheus registry
func (c *RoutingMetricsCollector) Register() error {
	return register(
		c.providerRequests,
		c.providerErrors,
		c.fallbacks,
		c.cacheHits,
	)
}

// RecordProviderRequest records one provider call
func (c *RoutingMetricsCollector) RecordProviderRequest(provider, operation string) {
	c.providerRequests.WithLabelValues(provider, operation).Inc()
}

// RecordProviderError records one failed provider call
func (c *RoutingMetricsCollector) RecordProviderError(provider, operation string) {
	c.providerErrors.WithLabelValues(provider, operation).Inc()
}

// RecordFallback records one great-circle fallback
func (c *RoutingMetricsCollector) RecordFallback(reason string) {
	c.fallbacks.WithLabelValues(reason).Inc()
}

// RecordCacheHit records one cache hit on the given tier
func (c *RoutingMetricsCollector) RecordCacheHit(tier string) {
	c.cacheHits.WithLabelValues(tier).Inc()
}
