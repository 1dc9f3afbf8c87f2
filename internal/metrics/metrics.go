// Package metrics exposes procpool's Prometheus instrumentation,
// following the naming and construction style of cuemby-warren's
// pkg/metrics (one prefixed gauge/counter/histogram per observable,
// registered once as package-level vars).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SlotsInUse is the number of slots currently held by a borrow.
	SlotsInUse = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "procpool_slots_in_use",
		Help: "Number of pool slots currently checked out to a caller.",
	})

	// SlotsTotal is the current slot table size.
	SlotsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "procpool_slots_total",
		Help: "Current number of slots in the pool's table.",
	})

	// WorkersSpawnedTotal counts worker processes started.
	WorkersSpawnedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "procpool_workers_spawned_total",
		Help: "Total number of worker processes started.",
	})

	// WorkersEvictedTotal counts LRU-idle evictions.
	WorkersEvictedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "procpool_workers_evicted_total",
		Help: "Total number of idle workers evicted to make room for a new fingerprint.",
	})

	// WorkersDiedTotal counts workers observed dead on reuse attempt.
	WorkersDiedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "procpool_workers_died_total",
		Help: "Total number of workers found dead while scanning for reuse.",
	})

	// AcquireDuration tracks how long Pool.Acquire takes end to end.
	AcquireDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "procpool_acquire_duration_seconds",
		Help:    "Duration of Pool.Acquire calls, including any spawn.",
		Buckets: prometheus.DefBuckets,
	})
)

// MustRegister registers every procpool collector against reg. Panics
// on duplicate registration, matching promhttp idioms used across the
// pack for one-shot startup wiring.
func MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(
		SlotsInUse,
		SlotsTotal,
		WorkersSpawnedTotal,
		WorkersEvictedTotal,
		WorkersDiedTotal,
		AcquireDuration,
	)
}
