package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Point mutations
	MutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "point_mutations_total",
			Help: "Point mutations by type and outcome",
		},
		[]string{"type", "outcome"}, // CHARGE|USE, ok|invalid_amount|limit_exceeded|insufficient_balance|store_failure|canceled
	)
	LockWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "point_lock_wait_seconds",
			Help:    "Time spent waiting for a per-user lock",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)
	LockHold = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "point_lock_hold_seconds",
			Help:    "Time a per-user lock was held",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)

	initOnce sync.Once
)

// /metrics endpoint handler
var Handler = promhttp.Handler

// Init registers the collectors on the default registry. liveLocks, when set, is exported
// as point_locks_live.
func Init(liveLocks func() float64) {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal)
		prometheus.MustRegister(MutationsTotal)
		prometheus.MustRegister(LockWait)
		prometheus.MustRegister(LockHold)
		prometheus.MustRegister(WorkerQueueDepth)
		if liveLocks != nil {
			prometheus.MustRegister(prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "point_locks_live",
					Help: "Per-user lock entries currently in the registry",
				},
				liveLocks,
			))
		}
	})
}
