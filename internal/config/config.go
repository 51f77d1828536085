package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Executor modes
const (
	ExecutorDirect = "direct"
	ExecutorQueue  = "queue"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	BaseURL         string
	FrontendURL     string
	ServerDebugMode bool
	WorkerDebugMode bool
	EnableHSTS      bool

	DatabaseURL string
	RedisURL    string
	RateLimit   string

	RabbitMQURL      string
	RabbitMQPrefetch int
	ExecutorMode     string
	DLQRetention     time.Duration
	DLQGCInterval    time.Duration

	IntegrationTimeout time.Duration
	EmailRecipient     string

	OTELEnabled       bool
	OTELEndpoint      string
	MetricsEnabled    bool
	WorkerMetricsPort string

	PatternMinSequenceLength int
	PatternMinOccurrences    int
	PatternRetention         time.Duration
	FieldDetectorEnabled     bool

	DemoUserID string
}

// Load loads configuration from a .env file (when present) and the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		BaseURL:         getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		WorkerDebugMode: getEnvBool("WORKER_DEBUG_MODE", false),
		EnableHSTS:      getEnvBool("ENABLE_HSTS", false),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		RateLimit:   getEnv("RATE_LIMIT", "20-S"),

		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),
		ExecutorMode:     getEnv("EXECUTOR_MODE", ExecutorDirect),
		DLQRetention:     getEnvDuration("DLQ_RETENTION", 7*24*time.Hour),
		DLQGCInterval:    getEnvDuration("DLQ_GC_INTERVAL", time.Hour),

		IntegrationTimeout: getEnvDuration("INTEGRATION_TIMEOUT", 10*time.Second),
		EmailRecipient:     getEnv("SMTP_USER", "test@example.com"),

		OTELEnabled:       getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
		WorkerMetricsPort: getEnv("WORKER_METRICS_PORT", "9091"),

		PatternMinSequenceLength: getEnvInt("PATTERN_MIN_SEQUENCE_LENGTH", 3),
		PatternMinOccurrences:    getEnvInt("PATTERN_MIN_OCCURRENCES", 3),
		PatternRetention:         getEnvDuration("PATTERN_RETENTION", 30*24*time.Hour),
		FieldDetectorEnabled:     getEnvBool("FIELD_DETECTOR_ENABLED", true),

		DemoUserID: getEnv("DEMO_USER_ID", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ExecutorMode {
	case ExecutorDirect:
	case ExecutorQueue:
		if c.RabbitMQURL == "" {
			return fmt.Errorf("RABBITMQ_URL is required when EXECUTOR_MODE=%s", ExecutorQueue)
		}
	default:
		return fmt.Errorf("EXECUTOR_MODE must be %q or %q, got %q", ExecutorDirect, ExecutorQueue, c.ExecutorMode)
	}
	if c.PatternMinSequenceLength < 1 {
		return fmt.Errorf("PATTERN_MIN_SEQUENCE_LENGTH must be positive")
	}
	if c.PatternMinOccurrences < 1 {
		return fmt.Errorf("PATTERN_MIN_OCCURRENCES must be positive")
	}
	if c.PatternRetention <= 0 {
		return fmt.Errorf("PATTERN_RETENTION must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
