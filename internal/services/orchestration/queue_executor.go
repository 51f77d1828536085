package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/felipeah-dev/echo-app/internal/models"
	"github.com/felipeah-dev/echo-app/internal/queue"
	"github.com/felipeah-dev/echo-app/internal/request"
	"go.uber.org/zap"
)

// QueuedMessage is reported for every target of a deferred dispatch
const QueuedMessage = "Queued for delivery"

// QueueExecutor hands the dispatch to a worker through the job queue
type QueueExecutor struct {
	publisher queue.Publisher
	userID    func(ctx context.Context) string
	logger    *zap.Logger
	now       func() time.Time
}

var _ Executor = (*QueueExecutor)(nil)

// NewQueueExecutor creates a QueueExecutor publishing to p
func NewQueueExecutor(p queue.Publisher, log *zap.Logger) *QueueExecutor {
	if log == nil {
		log = zap.NewNop()
	}
	return &QueueExecutor{
		publisher: p,
		userID:    request.UserIDFromContext,
		logger:    log,
		now:       time.Now,
	}
}

// Execute enqueues a single sync_dispatch job and reports each target as queued
func (e *QueueExecutor) Execute(ctx context.Context, targets []string, deal models.Deal) (map[string]models.IntegrationResult, error) {
	job, err := queue.NewSyncDispatchJob(e.userID(ctx), deal, targets)
	if err != nil {
		return nil, err
	}
	if err := e.publisher.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue sync dispatch: %w", err)
	}

	e.logger.Info("sync_dispatch_enqueued",
		zap.String("job_id", job.ID.String()),
		zap.Int("targets", len(targets)),
	)

	ts := e.now()
	results := make(map[string]models.IntegrationResult, len(targets))
	for _, t := range targets {
		results[t] = models.IntegrationResult{
			Success:   true,
			Target:    t,
			Message:   QueuedMessage,
			Timestamp: ts,
		}
	}
	return results, nil
}
