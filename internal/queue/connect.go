package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	connectInitialDelay = 2 * time.Second
	connectMaxDelay     = 30 * time.Second
)

// ConnectWithRetry dials RabbitMQ up to maxAttempts times with exponential
// backoff, for brokers that start after the service.
func ConnectWithRetry(ctx context.Context, amqpURL string, maxAttempts int, log *zap.Logger) (*RabbitMQQueue, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		q, err := NewRabbitMQQueue(amqpURL, log)
		if err == nil {
			return q, nil
		}
		lastErr = err
		if attempt == maxAttempts-1 {
			break
		}

		delay := connectBackoff(attempt)
		log.Warn("rabbitmq_connect_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxAttempts),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("rabbitmq unavailable after %d attempts: %w", maxAttempts, lastErr)
}

func connectBackoff(attempt int) time.Duration {
	if attempt > 4 {
		return connectMaxDelay
	}
	delay := connectInitialDelay << uint(attempt)
	if delay > connectMaxDelay {
		return connectMaxDelay
	}
	return delay
}
