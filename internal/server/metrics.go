package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formscan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "formscan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Structuring metrics
	structureRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formscan_structure_requests_total",
			Help: "Total number of structuring requests",
		},
		[]string{"type", "status"}, // type: http, websocket
	)

	structureProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "formscan_structure_processing_duration_seconds",
			Help:    "Structuring duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"type"},
	)

	fieldsExtracted = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "formscan_fields_extracted",
			Help:    "Number of question/answer pairs per document",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
		[]string{"type"},
	)

	rateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "formscan_rate_limit_hits_total",
			Help: "Total number of rejected requests due to rate limiting",
		},
	)

	uploadSizeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "formscan_upload_size_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024},
		},
		[]string{"part"}, // part: tokens, image
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "formscan_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formscan_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)
