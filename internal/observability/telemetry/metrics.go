package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Report refresh cycle
	ReportRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "console_report_refresh_total",
		Help: "Report refreshes by source and outcome",
	}, []string{"source", "outcome"})

	ReportRefreshLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "console_report_refresh_seconds",
		Help:    "End-to-end report refresh latency",
		Buckets: prometheus.DefBuckets,
	})

	FallbackActivationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "console_fallback_activations_total",
		Help: "Local fallback aggregations triggered by a missing remote revenue slice",
	})

	StaleRefreshesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "console_stale_refreshes_dropped_total",
		Help: "Completed refreshes discarded because a newer one was issued",
	})

	// Remote aggregation service
	RemoteSliceFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "console_remote_slice_failures_total",
		Help: "Failed remote aggregate slice requests by slice name",
	}, []string{"slice"})

	RemoteSliceLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "console_remote_slice_seconds",
		Help:    "Remote aggregate slice request latency by slice name",
		Buckets: prometheus.DefBuckets,
	}, []string{"slice"})
)
