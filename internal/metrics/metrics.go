package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Run outcomes: completed, already_loaded, failed
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_import_runs_total",
			Help: "Total number of import runs by outcome",
		},
		[]string{"outcome"},
	)

	// Row outcomes: inserted, skipped
	RowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_import_rows_total",
			Help: "Total number of source rows by outcome",
		},
		[]string{"result"},
	)

	RejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_import_rejections_total",
			Help: "Total number of rejected rows by reason",
		},
		[]string{"reason"},
	)

	// File outcomes: processed, read_error
	FilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_import_files_total",
			Help: "Total number of source files by outcome",
		},
		[]string{"outcome"},
	)

	FlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "activity_import_flush_duration_seconds",
			Help:    "Duration of batch flushes to storage in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Rows accepted by the writer but dropped by the primary key conflict rule
	RowsConflicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activity_import_rows_conflicted_total",
			Help: "Total number of written rows ignored because the event_id already existed",
		},
	)
)
