// Package metrics holds the Prometheus instruments used across the gate.
// All collectors are registered with the global registry, so importing
// this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	GateDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_decisions_total",
			Help: "Routing decisions by matching rule and final action.",
		}, []string{"rule", "action"})

	TenantStatusChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_status_checks_total",
			Help: "Tenant status checks by verdict (active, suspended, unknown).",
		}, []string{"verdict"})

	TenantStatusCheckSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tenant_status_check_seconds",
			Help:    "Latency of one tenant status fetch, failures included.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		})

	TenantStatusCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_status_cache_total",
			Help: "Status cache lookups by result (hit, miss).",
		}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		GateDecisionsTotal,
		TenantStatusChecksTotal,
		TenantStatusCheckSeconds,
		TenantStatusCacheTotal,
	)
}
