// ABOUTME: Prometheus metrics for analysis requests
// ABOUTME: Counts requests and outcomes and times each pipeline stage
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "minutes_analyses_active",
		Help: "Analyses currently in flight",
	})

	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minutes_analyses_total",
		Help: "Analyses finished, by transport and outcome",
	}, []string{"transport", "outcome"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "minutes_stage_duration_seconds",
		Help:    "Per-stage latency",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
	}, []string{"stage"})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minutes_errors_total",
		Help: "Error counts by stage",
	}, []string{"stage", "error_type"})

	UploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "minutes_upload_bytes",
		Help:    "Size of uploaded audio",
		Buckets: prometheus.ExponentialBuckets(64*1024, 4, 8),
	})

	CompressionRatio = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "minutes_compression_ratio",
		Help:    "Compressed size over original size when compression ran",
		Buckets: []float64{0.02, 0.05, 0.1, 0.2, 0.3, 0.5, 0.75, 1, 1.5},
	})

	CompressionFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minutes_compression_fallbacks_total",
		Help: "Uploads sent uncompressed, by reason",
	}, []string{"reason"})

	Exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minutes_exports_total",
		Help: "Rendered exports by format",
	}, []string{"format"})
)
