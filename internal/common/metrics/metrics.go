// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RowsNormalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_rows_normalized_total",
			Help: "Total number of rows normalized per source kind",
		},
		[]string{"source_kind"},
	)

	IngestionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_ingestion_failures_total",
			Help: "Total number of source files rejected as malformed",
		},
		[]string{"source_kind"},
	)

	RecordsMerged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_records_merged_total",
			Help: "Total number of merged borrower/student records",
		},
	)

	RecordsUnmatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_records_unmatched_total",
			Help: "Total number of records dropped by the inner join per side",
		},
		[]string{"side"},
	)

	MessagesRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_messages_rendered_total",
			Help: "Total number of message render attempts by outcome",
		},
		[]string{"template", "outcome"},
	)

	DispatchResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_dispatch_results_total",
			Help: "Total per-recipient dispatch simulation results by status",
		},
		[]string{"status"},
	)

	ExportsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_exports_written_total",
			Help: "Total number of export sheets written",
		},
		[]string{"sheet"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_stage_duration_seconds",
			Help: "Duration of pipeline stage execution in seconds",
		},
		[]string{"stage"},
	)
)
