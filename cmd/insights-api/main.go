// cmd/insights-api/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	awsclients "sector-insights/internal/common/aws"
	"sector-insights/internal/common/camunda"
	"sector-insights/internal/common/config"
	"sector-insights/internal/common/logger"
	"sector-insights/internal/common/observability"
	sr "sector-insights/internal/workers/insights/sector-report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting insights api...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// Missing source settings are reported per request, not here.
	if err := cfg.Source.Validate(); err != nil {
		zapLog.Warn("source location not configured; /insights will fail until it is", zap.Error(err))
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	sourceRegion := cfg.Source.Region
	if sourceRegion == "" {
		sourceRegion = cfg.Inference.Region
	}
	s3Client, err := awsclients.NewS3Client(ctx, sourceRegion)
	if err != nil {
		zapLog.Fatal("s3 client init failed", zap.Error(err))
	}
	bedrockClient, err := awsclients.NewBedrockClient(ctx, cfg.Inference.Region)
	if err != nil {
		zapLog.Fatal("bedrock client init failed", zap.Error(err))
	}
	zapLog.Info("AWS clients initialized",
		zap.String("sourceRegion", sourceRegion),
		zap.String("inferenceRegion", cfg.Inference.Region),
		zap.String("modelId", cfg.Inference.ModelID),
	)

	service := sr.NewService(sr.ServiceDependencies{
		Fetcher:   s3Client,
		Generator: bedrockClient,
		Logger:    log,
		Obs:       obs,
	}, sr.ConfigFrom(cfg))

	// --- Optional Zeebe job worker ---
	var zeebe *camunda.Client
	var jobWorker *camunda.Worker
	if cfg.Camunda.Enabled {
		zeebe, err = camunda.Connect(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		}, log)
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")

		jobWorker = camunda.StartWorker(zeebe, sr.TaskType, cfg.Camunda.MaxJobsActive,
			sr.NewJobHandler(service, log, obs), log)
	}

	// --- HTTP server ---
	mux := http.NewServeMux()
	mux.Handle("/insights", sr.NewHandler(service, log, obs))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := cfg.Source.Validate(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "not ready", "reason": err.Error()})
			return
		}
		if zeebe != nil {
			if err := zeebe.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "not ready", "reason": err.Error()})
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	if jobWorker != nil {
		jobWorker.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Insights api stopped gracefully")
}
