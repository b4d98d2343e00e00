// Package metrics provides Prometheus metrics for the verification engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all verification engine metrics.
type Metrics struct {
	// Cache behaviour
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	// Live federation calls
	LiveCallsTotal          prometheus.Counter
	LiveCallDurationSeconds prometheus.Histogram
	SharedFlightsTotal      prometheus.Counter // callers coalesced onto an in-flight call
	OutcomesTotal           *prometheus.CounterVec
	CachePurgesTotal        prometheus.Counter
	IdentifierLookupsTotal  *prometheus.CounterVec
	EligibilityChecksTotal  *prometheus.CounterVec
}

// New creates a Metrics instance with all metrics registered on the default
// registry.
func New() *Metrics {
	return &Metrics{
		CacheHitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dossard_verify_cache_hits_total",
			Help: "Total number of verification cache hits",
		}),

		CacheMissesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dossard_verify_cache_misses_total",
			Help: "Total number of verification cache misses",
		}),

		LiveCallsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dossard_verify_live_calls_total",
			Help: "Total number of live federation verification calls",
		}),

		LiveCallDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dossard_verify_live_call_duration_seconds",
			Help:    "Duration of live federation verification calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // legacy upstream routinely takes seconds
		}),

		SharedFlightsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dossard_verify_shared_flights_total",
			Help: "Total number of callers that shared an in-flight verification",
		}),

		OutcomesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dossard_verify_outcomes_total",
			Help: "Total verification outcomes by result code",
		}, []string{"code"}),

		CachePurgesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dossard_verify_cache_purges_total",
			Help: "Total number of manual cache purge operations",
		}),

		IdentifierLookupsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dossard_identifier_lookups_total",
			Help: "Total identifier classifications by kind",
		}, []string{"kind"}),

		EligibilityChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dossard_eligibility_checks_total",
			Help: "Total eligibility evaluations by verdict",
		}, []string{"verdict"}),
	}
}

// RegisterCacheSize exposes a live entry count as a gauge. Only cache
// backends that can count cheaply register one.
func (m *Metrics) RegisterCacheSize(count func() float64) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "dossard_verify_cache_entries",
		Help: "Current number of cached verification entries",
	}, count)
}

// RecordOutcome counts one verification outcome. Successful outcomes are
// labelled "ok".
func (m *Metrics) RecordOutcome(code string) {
	if code == "" {
		code = "ok"
	}
	m.OutcomesTotal.WithLabelValues(code).Inc()
}
