package services

import "github.com/prometheus/client_golang/prometheus"

// Refresh outcome label values.
const (
	outcomeSuccess     = "success"
	outcomeUnavailable = "external_unavailable"
	outcomeBusy        = "in_progress"
	outcomeError       = "error"
)

var (
	// refreshTotal counts refresh attempts by outcome.
	refreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "country_refresh_total",
			Help: "Refresh attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// refreshDuration observes end-to-end refresh latency, lock wait excluded.
	refreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "country_refresh_duration_seconds",
			Help:    "Duration of refresh runs in seconds.",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		},
	)

	// refreshRows counts rows written by committed refreshes.
	refreshRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "country_refresh_rows_total",
			Help: "Rows written by committed refreshes, by operation.",
		},
		[]string{"op"},
	)

	// snapshotFailures counts summary images that could not be produced.
	snapshotFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "country_snapshot_failures_total",
			Help: "Summary image renders or writes that failed after a commit.",
		},
	)
)

func init() {
	prometheus.MustRegister(refreshTotal, refreshDuration, refreshRows, snapshotFailures)
}
