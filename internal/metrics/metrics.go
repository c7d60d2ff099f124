// Package metrics holds the Prometheus instrumentation surface for a
// provider/consumer pair, registered against whatever Registerer the host
// process exposes on its scrape endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every metric this module records. Pass the same *Metrics to
// both a Provider and a Consumer sharing one process to get a unified view.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	ActiveSubChannels  prometheus.Gauge
	PendingRequests    prometheus.Gauge
	TimeoutsTotal      prometheus.Counter
	PolicyDecisions    *prometheus.CounterVec
}

// New creates and registers every metric against reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "remobj",
				Name:      "requests_total",
				Help:      "Total number of dispatched requests, by operation type and result",
			},
			[]string{"operation", "result"},
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "remobj",
				Name:      "request_duration_seconds",
				Help:      "Request/response round-trip duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		ActiveSubChannels: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "remobj",
				Name:      "active_sub_channels",
				Help:      "Number of sub-channels currently open for non-clonable arguments/results",
			},
		),
		PendingRequests: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "remobj",
				Name:      "pending_requests",
				Help:      "Number of consumer requests awaiting a response",
			},
		),
		TimeoutsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "remobj",
				Name:      "request_timeouts_total",
				Help:      "Total number of requests that timed out waiting for a response",
			},
		),
		PolicyDecisions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "remobj",
				Name:      "policy_decisions_total",
				Help:      "Total policy evaluations, by outcome",
			},
			[]string{"decision"},
		),
	}
}
