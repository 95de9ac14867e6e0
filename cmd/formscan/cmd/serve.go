package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/formscan/internal/config"
	"github.com/MeKo-Tech/formscan/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP server for the structuring API",
		Long: `Start an HTTP server that structures uploaded forms.

The server provides the following endpoints:
  POST /structure     - multipart upload with a "tokens" part and an optional "image" part
  GET  /ws/structure  - WebSocket endpoint for streaming requests
  GET  /health        - Health check endpoint
  GET  /metrics       - Prometheus metrics

Examples:
  formscan serve
  formscan serve --port 8080
  formscan serve --host 0.0.0.0 --port 3000 --rate-limit-enabled --requests-per-second 2`,
		RunE: runServe,
	}

	cmd.Flags().StringP("host", "H", "localhost", "server host")
	cmd.Flags().IntP("port", "p", 8080, "server port")
	cmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	cmd.Flags().Int("max-upload-size", 50, "maximum upload size in MB")
	cmd.Flags().Int("timeout", 30, "request timeout in seconds")
	cmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	// Pipeline flags
	addPipelineFlags(cmd.Flags())
	// Rate limiting flags
	cmd.Flags().Bool("rate-limit-enabled", false, "enable rate limiting")
	cmd.Flags().Float64("requests-per-second", 5, "sustained requests per second per client")
	cmd.Flags().Int("burst", 10, "burst size per client")
	return cmd
}

// serverConfigFrom maps centralized configuration to server.Config; changed flags win.
func serverConfigFrom(cfg *config.Config, cmd *cobra.Command) server.Config {
	sc := cfg.Server
	if cmd.Flags().Changed("host") {
		sc.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		sc.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("cors-origin") {
		sc.CORSOrigin, _ = cmd.Flags().GetString("cors-origin")
	}
	if cmd.Flags().Changed("max-upload-size") {
		sc.MaxUploadMB, _ = cmd.Flags().GetInt("max-upload-size")
	}
	if cmd.Flags().Changed("timeout") {
		sc.TimeoutSec, _ = cmd.Flags().GetInt("timeout")
	}
	if cmd.Flags().Changed("rate-limit-enabled") {
		sc.RateLimit.Enabled, _ = cmd.Flags().GetBool("rate-limit-enabled")
	}
	if cmd.Flags().Changed("requests-per-second") {
		sc.RateLimit.RequestsPerSecond, _ = cmd.Flags().GetFloat64("requests-per-second")
	}
	if cmd.Flags().Changed("burst") {
		sc.RateLimit.Burst, _ = cmd.Flags().GetInt("burst")
	}

	return server.Config{
		Host:           sc.Host,
		Port:           sc.Port,
		CORSOrigin:     sc.CORSOrigin,
		MaxUploadMB:    int64(sc.MaxUploadMB),
		TimeoutSec:     sc.TimeoutSec,
		PipelineConfig: pipelineConfigFrom(cfg, cmd),
		RateLimit: server.RateLimitConfig{
			Enabled:           sc.RateLimit.Enabled,
			RequestsPerSecond: sc.RateLimit.RequestsPerSecond,
			Burst:             sc.RateLimit.Burst,
			IdleTimeout:       time.Duration(sc.RateLimit.IdleTimeoutSec) * time.Second,
		},
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	serverConfig := serverConfigFrom(cfg, cmd)

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if cmd.Flags().Changed("shutdown-timeout") {
		shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
	}

	// Validate port number
	if serverConfig.Port < 1 || serverConfig.Port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", serverConfig.Port)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	formServer, err := server.NewServer(serverConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	mux := http.NewServeMux()
	formServer.SetupRoutes(mux)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", serverConfig.Host, serverConfig.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(serverConfig.TimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(serverConfig.TimeoutSec) * time.Second,
	}

	go func() {
		slog.Info("Starting form server", "host", serverConfig.Host, "port", serverConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		slog.Info("Context cancelled, initiating shutdown")
	}

	slog.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", shutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(shutdownTimeout)*time.Second)
	defer shutdownCancel()

	slog.Info("Shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server shutdown completed")
	}

	slog.Info("Cleaning up server resources")
	if err := formServer.Close(); err != nil {
		slog.Error("Server cleanup error", "error", err)
	}

	slog.Info("Graceful shutdown completed")
	return nil
}
