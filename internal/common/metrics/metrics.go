// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	IngestResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_results_total",
			Help: "Attachment ingestion outcomes by slot",
		},
		[]string{"slot", "result"},
	)

	CompressionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_compression_total",
			Help: "Image recompression outcomes (compressed, fallback, skipped)",
		},
		[]string{"mime_type", "outcome"},
	)

	CompressionRatio = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_compression_ratio",
			Help:    "Compressed size divided by original size",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_submissions_total",
			Help: "Wizard submission outcomes",
		},
		[]string{"result"},
	)

	AttachmentWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_attachment_write_failures_total",
			Help: "Attachments skipped after a storage or metadata write failure",
		},
		[]string{"slot"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wizard_active_sessions",
			Help: "Wizard sessions currently held in memory",
		},
	)

	SynthesisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "synthesis_duration_seconds",
			Help:    "Rasterize, paginate and emit duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"geometry"},
	)

	SynthesisResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synthesis_results_total",
			Help: "Synthesis outcomes (ok, busy, error)",
		},
		[]string{"geometry", "result"},
	)
)
