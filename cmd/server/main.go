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

	"github.com/felipeah-dev/echo-app/api"
	"github.com/felipeah-dev/echo-app/internal/config"
	"github.com/felipeah-dev/echo-app/internal/database"
	"github.com/felipeah-dev/echo-app/internal/handlers"
	"github.com/felipeah-dev/echo-app/internal/logger"
	"github.com/felipeah-dev/echo-app/internal/metrics"
	"github.com/felipeah-dev/echo-app/internal/middleware"
	"github.com/felipeah-dev/echo-app/internal/queue"
	"github.com/felipeah-dev/echo-app/internal/services/automation"
	"github.com/felipeah-dev/echo-app/internal/services/dealstats"
	"github.com/felipeah-dev/echo-app/internal/services/detection"
	"github.com/felipeah-dev/echo-app/internal/services/orchestration"
	"github.com/felipeah-dev/echo-app/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
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

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("executor_mode", cfg.ExecutorMode),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled),
	)

	tracerProvider := initTracing(cfg, zapLogger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx, tracerProvider); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	// Rule store: Postgres when configured, process memory otherwise
	var ruleStore automation.RuleStore = automation.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
			}
		}()
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = db.Migrate(migrateCtx)
		cancel()
		if err != nil {
			zapLogger.Fatal("failed_to_migrate_database", zap.Error(err))
		}
		ruleStore = database.NewRuleRepository(db)
		zapLogger.Info("connected_to_database")
	} else {
		zapLogger.Info("using_memory_rule_store")
	}

	// Redis backs the rate limiter when configured
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = middleware.NewRedisClient(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_redis")
	}
	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimit, redisClient, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	var executor orchestration.Executor
	var jobQueue queue.JobQueue
	switch cfg.ExecutorMode {
	case config.ExecutorQueue:
		rq, err := queue.ConnectWithRetry(context.Background(), cfg.RabbitMQURL, rabbitMQConnectAttempts, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
		}
		defer func() {
			if err := rq.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		jobQueue = rq
		executor = orchestration.NewQueueExecutor(rq, zapLogger)
		zapLogger.Info("connected_to_rabbitmq")
	default:
		executor = orchestration.NewDirectExecutor(
			orchestration.DefaultIntegrations(zapLogger, cfg.EmailRecipient),
			cfg.IntegrationTimeout,
			zapLogger,
		)
	}

	registryOpts := []detection.RegistryOption{
		detection.WithFieldDetector(cfg.FieldDetectorEnabled),
		detection.WithRegistryLogger(zapLogger),
	}
	syncOpts := []handlers.SyncOption{
		handlers.WithDemoUser(cfg.DemoUserID),
		handlers.WithExecutorMode(cfg.ExecutorMode),
	}
	var httpObserver middleware.HTTPObserver
	if m != nil {
		registryOpts = append(registryOpts, detection.WithRecorder(m))
		syncOpts = append(syncOpts, handlers.WithSyncRecorder(m))
		httpObserver = m
	}
	registry := detection.NewRegistry(detection.Config{
		MinSequenceLength: cfg.PatternMinSequenceLength,
		MinOccurrences:    cfg.PatternMinOccurrences,
		Retention:         cfg.PatternRetention,
	}, registryOpts...)
	matcher := automation.NewMatcher(ruleStore, zapLogger)

	dealLedger := dealstats.NewLedger(dealstats.DefaultCapacity)
	syncOpts = append(syncOpts, handlers.WithDealLedger(dealLedger))

	syncHandler := handlers.NewSyncHandler(matcher, executor, registry, zapLogger, syncOpts...)
	actionHandler := handlers.NewActionHandler(registry, cfg.DemoUserID)
	patternHandler := handlers.NewPatternHandler(registry, ruleStore, cfg.DemoUserID, zapLogger)
	automationHandler := handlers.NewAutomationHandler(ruleStore, cfg.DemoUserID, zapLogger)
	dealMetricsHandler := handlers.NewDealMetricsHandler(dealLedger)

	healthChecks := map[string]handlers.HealthCheckFunc{
		"rule_store":   ruleStore.Ping,
		"rate_limiter": rateLimiter.Ping,
	}
	if jobQueue != nil {
		healthChecks["queue"] = jobQueue.HealthCheck
	}
	healthChecker := handlers.NewHealthChecker(healthChecks)

	openAPIHandler, err := handlers.NewOpenAPIHandler(api.OpenAPISpec)
	if err != nil {
		zapLogger.Fatal("failed_to_load_openapi_spec", zap.Error(err))
	}

	r := mux.NewRouter()

	// gorilla/mux runs middleware in registration order, outermost first
	if tracerProvider != nil {
		r.Use(otelmux.Middleware(telemetry.ServiceName))
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger, httpObserver))

	healthChecker.RegisterRoutes(r)
	openAPIHandler.RegisterRoutes(r)
	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(rateLimiter.Middleware())
	syncHandler.RegisterRoutes(apiRouter)
	actionHandler.RegisterRoutes(apiRouter)
	patternHandler.RegisterRoutes(apiRouter)
	automationHandler.RegisterRoutes(apiRouter)
	dealMetricsHandler.RegisterRoutes(apiRouter)

	// CORS answers preflights before this runs
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   35 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// initTracing returns nil when tracing is disabled or cannot start
func initTracing(cfg *config.Config, zapLogger *zap.Logger) *sdktrace.TracerProvider {
	if !cfg.OTELEnabled {
		return nil
	}
	if cfg.OTELEndpoint == "" {
		zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		return nil
	}
	tp, err := telemetry.InitTracer(context.Background(), telemetry.ServiceName, cfg.OTELEndpoint)
	if err != nil {
		zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		return nil
	}
	zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
	return tp
}
