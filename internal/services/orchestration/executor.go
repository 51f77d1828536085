// Package orchestration fans a deal out to its sync targets.
package orchestration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/felipeah-dev/echo-app/internal/models"
	"go.uber.org/zap"
)

// Executor delivers a deal to every target and reports one result per target.
// A returned error means the whole dispatch failed; per-target failures are
// reported in the result map.
type Executor interface {
	Execute(ctx context.Context, targets []string, deal models.Deal) (map[string]models.IntegrationResult, error)
}

// DirectExecutor calls every integration concurrently in-process
type DirectExecutor struct {
	integrations map[models.SyncTarget]Integration
	timeout      time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

var _ Executor = (*DirectExecutor)(nil)

// NewDirectExecutor creates a DirectExecutor over the given integrations.
// A later integration for the same target replaces an earlier one.
func NewDirectExecutor(integrations []Integration, timeout time.Duration, log *zap.Logger) *DirectExecutor {
	if log == nil {
		log = zap.NewNop()
	}
	byTarget := make(map[models.SyncTarget]Integration, len(integrations))
	for _, in := range integrations {
		byTarget[in.Target()] = in
	}
	return &DirectExecutor{
		integrations: byTarget,
		timeout:      timeout,
		logger:       log,
		now:          time.Now,
	}
}

// Execute runs one goroutine per target and waits for all of them
func (e *DirectExecutor) Execute(ctx context.Context, targets []string, deal models.Deal) (map[string]models.IntegrationResult, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	results := make(map[string]models.IntegrationResult, len(targets))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, target := range targets {
		mu.Lock()
		_, seen := results[target]
		if !seen {
			// reserve the slot so duplicate targets run once
			results[target] = models.IntegrationResult{Target: target}
		}
		mu.Unlock()
		if seen {
			continue
		}

		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			res := e.run(ctx, target, deal)
			mu.Lock()
			results[target] = res
			mu.Unlock()
		}(target)
	}

	wg.Wait()
	return results, nil
}

func (e *DirectExecutor) run(ctx context.Context, target string, deal models.Deal) (res models.IntegrationResult) {
	res = models.IntegrationResult{Target: target}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("integration_panic", zap.String("target", target), zap.Any("panic", r))
			res = models.IntegrationResult{
				Success:   false,
				Target:    target,
				Error:     fmt.Sprintf("integration panicked: %v", r),
				Timestamp: e.now(),
			}
		}
	}()

	in, ok := e.integrations[models.SyncTarget(target)]
	if !ok {
		res.Error = fmt.Sprintf("Unknown target: %s", target)
		res.Timestamp = e.now()
		return res
	}

	msg, err := in.Send(ctx, deal)
	res.Timestamp = e.now()
	if err != nil {
		e.logger.Warn("integration_failed", zap.String("target", target), zap.Error(err))
		res.Error = err.Error()
		return res
	}
	res.Success = true
	res.Message = msg
	return res
}
