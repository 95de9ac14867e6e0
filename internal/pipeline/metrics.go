package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stageRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formscan_pipeline_stage_runs_total",
			Help: "Total number of pipeline stage runs",
		},
		[]string{"stage", "outcome"},
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "formscan_pipeline_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"stage"},
	)

	documentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formscan_documents_processed_total",
			Help: "Total number of processed documents",
		},
		[]string{"outcome"},
	)

	documentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "formscan_document_duration_seconds",
			Help:    "End-to-end document processing duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 25},
		},
	)
)
