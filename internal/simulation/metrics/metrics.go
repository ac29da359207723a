package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExternalAttemptsTotal tracks every call to the generative service by result
	ExternalAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsim_external_attempts_total",
			Help: "Total number of attempts against the external generative service",
		},
		[]string{"result"},
	)

	// ExternalRetriesTotal tracks backoff sleeps taken before a retry
	ExternalRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adsim_external_retries_total",
			Help: "Total number of retries scheduled after a transient failure",
		},
	)

	// ExternalLatency tracks single attempt latency
	ExternalLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adsim_external_latency_seconds",
			Help:    "External generative call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// AdmissionWait tracks time spent waiting for the request-rate limiter
	AdmissionWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adsim_admission_wait_seconds",
			Help:    "Time spent waiting for admission to the external service",
			Buckets: prometheus.DefBuckets,
		},
	)

	// OutcomesTotal tracks produced outcomes by provenance
	OutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsim_outcomes_total",
			Help: "Total number of simulation outcomes produced",
		},
		[]string{"source", "reason"},
	)

	// WindowsTotal tracks settled windows by result (success, partial, failed, cancelled)
	WindowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsim_batch_windows_total",
			Help: "Total number of batch windows settled",
		},
		[]string{"result"},
	)

	// WindowWidth tracks the width used by the most recent window
	WindowWidth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adsim_batch_window_width",
			Help: "Concurrency width of the most recent batch window",
		},
	)

	// DegradationsTotal tracks transitions into degraded-retry mode
	DegradationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adsim_batch_degradations_total",
			Help: "Total number of degraded-retry transitions",
		},
	)

	// BatchDuration tracks end-to-end batch latency
	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adsim_batch_duration_seconds",
			Help:    "Batch run duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// DBConnectionPoolUsage tracks open connections as a share of the pool
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adsim_db_connection_pool_usage_percent",
			Help: "Open database connections as a percentage of the pool size",
		},
	)
)
