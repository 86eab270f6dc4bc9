// Package observability exposes poolmon's own health metrics: how long
// passes take and how often sources fail.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "poolmon"

var (
	FetchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_attempts_total",
		Help:      "Queries sent to pool daemons, by source type.",
	}, []string{"source_type"})

	FetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_failures_total",
		Help:      "Failed query attempts, by source type and whether the failure was retryable.",
	}, []string{"source_type", "retryable"})

	SourcesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sources_dropped_total",
		Help:      "Sources whose records were left out of a pass after every attempt failed.",
	}, []string{"source_type"})

	PassDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pass_duration_seconds",
		Help:      "Wall clock duration of aggregation passes.",
		Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"pass"})

	RecordsFolded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_folded_total",
		Help:      "Job and slot records folded into aggregation tables.",
	}, []string{"pass"})

	TableSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "table_entries",
		Help:      "Number of metric names produced by the last pass.",
	}, []string{"pass"})
)
