package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felipeah-dev/echo-app/internal/config"
	"github.com/felipeah-dev/echo-app/internal/logger"
	"github.com/felipeah-dev/echo-app/internal/metrics"
	"github.com/felipeah-dev/echo-app/internal/queue"
	"github.com/felipeah-dev/echo-app/internal/services/orchestration"
	"github.com/felipeah-dev/echo-app/internal/telemetry"
	"github.com/felipeah-dev/echo-app/internal/workers"
	"go.uber.org/zap"
)

const rabbitMQConnectAttempts = 10

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	if cfg.RabbitMQURL == "" {
		zapLogger.Fatal("rabbitmq_url_not_configured")
	}

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
		zap.Duration("integration_timeout", cfg.IntegrationTimeout),
	)

	if cfg.OTELEnabled && cfg.OTELEndpoint != "" {
		tp, err := telemetry.InitTracer(context.Background(), telemetry.WorkerServiceName, cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobQueue, err := queue.ConnectWithRetry(ctx, cfg.RabbitMQURL, rabbitMQConnectAttempts, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq")

	executor := orchestration.NewDirectExecutor(
		orchestration.DefaultIntegrations(zapLogger, cfg.EmailRecipient),
		cfg.IntegrationTimeout,
		zapLogger,
	)

	var recorder workers.ResultRecorder
	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		m := metrics.New()
		recorder = m
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			if err := jobQueue.HealthCheck(r.Context()); err != nil {
				http.Error(w, "unhealthy: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
		metricsServer = &http.Server{
			Addr:              ":" + cfg.WorkerMetricsPort,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zapLogger.Error("metrics_server_failed", zap.Error(err))
			}
		}()
	}

	dispatcher := workers.NewSyncDispatcher(executor, jobQueue, recorder, zapLogger)

	gc := queue.NewGarbageCollector(jobQueue, cfg.DLQGCInterval, cfg.DLQRetention, zapLogger)
	go func() {
		if err := gc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("dlq_garbage_collector_stopped", zap.Error(err))
		}
	}()
	zapLogger.Info("started_dlq_garbage_collector",
		zap.Duration("interval", cfg.DLQGCInterval),
		zap.Duration("retention", cfg.DLQRetention),
	)

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}
	zapLogger.Info("worker_started")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgChan {
			if err := dispatcher.ProcessJob(ctx, msg); err != nil {
				job := msg.GetJob()
				zapLogger.Warn("job_not_completed",
					zap.String("job_id", job.ID.String()),
					zap.String("job_type", string(job.Type)),
					zap.Int("retry_count", job.RetryCount),
					zap.Error(err),
				)
			}
		}
		zapLogger.Info("message_channel_closed")
	}()

	go func() {
		for err := range errChan {
			zapLogger.Error("queue_error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		zapLogger.Info("worker_shutting_down")
	case <-done:
		zapLogger.Warn("worker_consumer_stopped")
	}

	cancel()
	<-done

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			zapLogger.Warn("metrics_server_shutdown_failed", zap.Error(err))
		}
	}

	zapLogger.Info("worker_stopped")
}
