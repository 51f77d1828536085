package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/felipeah-dev/echo-app/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const (
	// DefaultRate applies when no rate is configured
	DefaultRate = "20-S"

	rateLimitPrefix = "echo_ratelimit"
)

// RateLimiter limits requests per client IP with ulule/limiter, backed by
// Redis when a client is given and by process memory otherwise.
type RateLimiter struct {
	instance *limiter.Limiter
	redis    *redis.Client
	logger   *zap.Logger
}

// NewRateLimiter parses rateStr (ulule format, e.g. "20-S") and builds the store
func NewRateLimiter(rateStr string, redisClient *redis.Client, log *zap.Logger) (*RateLimiter, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if rateStr == "" {
		rateStr = DefaultRate
	}
	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rateStr, err)
	}

	opts := limiter.StoreOptions{Prefix: rateLimitPrefix, CleanUpInterval: limiter.DefaultCleanUpInterval}
	var store limiter.Store
	if redisClient != nil {
		store, err = redisstore.NewStoreWithOptions(redisClient, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
		}
	} else {
		store = memorystore.NewStoreWithOptions(opts)
	}

	return &RateLimiter{
		instance: limiter.New(store, rate),
		redis:    redisClient,
		logger:   log,
	}, nil
}

// Middleware returns the rate limiting middleware
func (l *RateLimiter) Middleware() func(http.Handler) http.Handler {
	mw := stdlibmw.NewMiddleware(l.instance,
		stdlibmw.WithKeyGetter(request.ClientIP),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			respondErrorJSON(w, r, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded", l.logger)
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			l.logger.Error("rate_limit_store_error", zap.Error(err))
			respondErrorJSON(w, r, http.StatusInternalServerError, "Internal Server Error", "Rate limiter unavailable", l.logger)
		}),
	)
	return mw.Handler
}

// Ping checks the backing store; the memory store is always healthy
func (l *RateLimiter) Ping(ctx context.Context) error {
	if l.redis == nil {
		return nil
	}
	return l.redis.Ping(ctx).Err()
}

// NewRedisClient parses redisURL and verifies the connection
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
