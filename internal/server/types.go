// Package server exposes form structuring over HTTP and WebSocket.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/formscan/internal/pipeline"
)

// processor is the part of a pipeline the server needs.
type processor interface {
	Process(ctx context.Context, in pipeline.Input) (*pipeline.Result, error)
	Close() error
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline       processor
	pipelineConfig pipeline.Config
	corsOrigin     string
	maxUploadMB    int64
	timeoutSec     int
	rateLimiter    *RateLimiter
}

// RateLimitConfig configures per-client token buckets.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
	// IdleTimeout drops a client's bucket after this long without requests.
	IdleTimeout time.Duration
}

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	CORSOrigin     string
	MaxUploadMB    int64
	TimeoutSec     int
	PipelineConfig pipeline.Config
	RateLimit      RateLimitConfig
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// StructureResponse wraps a structured document or an error.
type StructureResponse struct {
	Success bool             `json:"success"`
	Result  *pipeline.Result `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// NewServer builds the pipeline and returns a ready server.
func NewServer(config Config) (*Server, error) {
	pl, err := pipeline.NewBuilderWithConfig(config.PipelineConfig).Build()
	if err != nil {
		return nil, err
	}

	s := &Server{
		pipeline:       pl,
		pipelineConfig: config.PipelineConfig,
		corsOrigin:     config.CORSOrigin,
		maxUploadMB:    config.MaxUploadMB,
		timeoutSec:     config.TimeoutSec,
	}
	if config.RateLimit.Enabled {
		s.rateLimiter = NewRateLimiter(config.RateLimit.RequestsPerSecond, config.RateLimit.Burst)
		s.rateLimiter.StartCleanup(DefaultLimiterCleanupInterval, config.RateLimit.IdleTimeout)
	}
	return s, nil
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.pipeline != nil {
		return s.pipeline.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/structure", s.corsMiddleware(s.rateLimitMiddleware(s.structureHandler)))
	mux.HandleFunc("/ws/structure", s.corsMiddleware(s.rateLimitMiddleware(s.structureWebSocketHandler)))
	mux.HandleFunc("/metrics", s.corsMiddleware(promhttp.Handler().ServeHTTP))
}
