// Package metrics defines the Prometheus collectors for network builds and queries.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	buildsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "grantnet",
		Subsystem: "builder",
		Name:      "builds_total",
		Help:      "Total network builds and updates",
	})

	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "grantnet",
		Subsystem: "builder",
		Name:      "build_duration_seconds",
		Help:      "Network build duration in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	// Labels: status (ok, missing, error)
	enrichmentLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grantnet",
		Subsystem: "builder",
		Name:      "enrichment_lookups_total",
		Help:      "Organization registry lookups by outcome",
	}, []string{"status"})

	// Labels: type (foundation, grantee)
	networkNodes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "grantnet",
		Subsystem: "network",
		Name:      "nodes",
		Help:      "Node count of the most recently built network",
	}, []string{"type"})

	networkEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "grantnet",
		Subsystem: "network",
		Name:      "edges",
		Help:      "Edge count of the most recently built network",
	})

	// Labels: metric (pagerank)
	centralityFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grantnet",
		Subsystem: "influence",
		Name:      "fallbacks_total",
		Help:      "Centrality computations that fell back to degree centrality",
	}, []string{"metric"})

	// Labels: operation
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grantnet",
		Subsystem: "query",
		Name:      "requests_total",
		Help:      "Read queries served by operation",
	}, []string{"operation"})
)

// RecordBuild records a completed build and the resulting network size.
func RecordBuild(d time.Duration, foundations, grantees, edges int) {
	buildsTotal.Inc()
	buildDuration.Observe(d.Seconds())
	networkNodes.WithLabelValues("foundation").Set(float64(foundations))
	networkNodes.WithLabelValues("grantee").Set(float64(grantees))
	networkEdges.Set(float64(edges))
}

// RecordEnrichment records one registry lookup outcome.
func RecordEnrichment(status string) {
	enrichmentLookups.WithLabelValues(status).Inc()
}

// RecordFallback records a centrality fallback.
func RecordFallback(metric string) {
	centralityFallbacks.WithLabelValues(metric).Inc()
}

// RecordQuery counts one query by operation name.
func RecordQuery(operation string) {
	queriesTotal.WithLabelValues(operation).Inc()
}
