package workers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/felipeah-dev/echo-app/internal/models"
	"github.com/felipeah-dev/echo-app/internal/queue"
	"github.com/felipeah-dev/echo-app/internal/request"
	"github.com/felipeah-dev/echo-app/internal/services/orchestration"
	"go.uber.org/zap"
)

const (
	baseRetryDelay = 5 * time.Second
	maxRetryDelay  = 5 * time.Minute
)

// ResultRecorder receives the per-target outcome of every dispatch
type ResultRecorder interface {
	IntegrationResults(mode string, results map[string]models.IntegrationResult)
}

// SyncDispatcher processes sync_dispatch jobs published by the queue executor
type SyncDispatcher struct {
	executor  orchestration.Executor
	publisher queue.Publisher // re-enqueues delayed retries
	recorder  ResultRecorder
	logger    *zap.Logger
}

// NewSyncDispatcher creates a new dispatcher. publisher and recorder may be nil.
func NewSyncDispatcher(executor orchestration.Executor, publisher queue.Publisher, recorder ResultRecorder, log *zap.Logger) *SyncDispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &SyncDispatcher{
		executor:  executor,
		publisher: publisher,
		recorder:  recorder,
		logger:    log,
	}
}

// ProcessJob processes a job based on its type and settles the message
func (d *SyncDispatcher) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if job.IsExpired() {
		if nackErr := msg.Nack(false); nackErr != nil {
			d.logger.Warn("failed to nack expired job", zap.Error(nackErr))
		}
		return fmt.Errorf("job %s expired", job.ID)
	}
	// Delayed exchange unavailable: the job arrived early
	if !job.ShouldProcess() {
		return d.deferJob(ctx, msg, job)
	}

	switch job.Type {
	case queue.JobTypeSyncDispatch:
		return d.processSyncDispatch(ctx, msg, job)
	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			d.logger.Warn("failed to nack unknown job type", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (d *SyncDispatcher) processSyncDispatch(ctx context.Context, msg queue.MessageInterface, job *queue.Job) error {
	payload, err := job.SyncDispatch()
	if err != nil {
		if nackErr := msg.Nack(false); nackErr != nil {
			d.logger.Warn("failed to nack malformed job", zap.Error(nackErr))
		}
		return fmt.Errorf("malformed sync dispatch job: %w", err)
	}

	ctx = request.WithUserID(ctx, job.UserID)
	results, err := d.executor.Execute(ctx, payload.Targets, payload.Deal)
	if err != nil {
		return d.handleJobError(ctx, msg, job, payload, payload.Targets, err)
	}
	if d.recorder != nil {
		d.recorder.IntegrationResults("queue", results)
	}

	failed := failedTargets(results)
	if len(failed) == 0 {
		d.logger.Info("sync_dispatch_completed",
			zap.String("job_id", job.ID.String()),
			zap.Int("targets", len(results)),
		)
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil
	}

	return d.handleJobError(ctx, msg, job, payload, failed,
		fmt.Errorf("%d of %d targets failed", len(failed), len(results)))
}

// handleJobError retries only the failed targets with exponential backoff,
// and dead-letters the job once its retries are spent.
func (d *SyncDispatcher) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, payload queue.SyncDispatchPayload, targets []string, cause error) error {
	if !job.CanRetry() {
		d.logger.Error("sync_dispatch_failed",
			zap.String("job_id", job.ID.String()),
			zap.Strings("targets", targets),
			zap.Int("retries", job.RetryCount),
			zap.Error(cause),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			d.logger.Warn("failed to nack job to DLQ", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (max retries): %w", cause)
	}

	if d.publisher == nil {
		if nackErr := msg.Nack(true); nackErr != nil {
			d.logger.Warn("failed to nack job for requeue", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (will retry): %w", cause)
	}

	delay := RetryDelay(job.RetryCount)
	next := job.Retry(delay)
	payload.Targets = targets
	if err := next.SetSyncDispatch(payload); err != nil {
		if nackErr := msg.Nack(false); nackErr != nil {
			d.logger.Warn("failed to nack job to DLQ", zap.Error(nackErr))
		}
		return err
	}

	if err := d.publisher.Enqueue(ctx, next); err != nil {
		if nackErr := msg.Nack(true); nackErr != nil {
			d.logger.Warn("failed to nack job for requeue", zap.Error(nackErr))
		}
		return fmt.Errorf("failed to re-enqueue job: %w", err)
	}
	if ackErr := msg.Ack(); ackErr != nil {
		d.logger.Warn("failed to ack job after re-enqueue", zap.Error(ackErr))
	}

	d.logger.Info("sync_dispatch_retry_scheduled",
		zap.String("job_id", job.ID.String()),
		zap.String("retry_job_id", next.ID.String()),
		zap.Strings("targets", targets),
		zap.Int("attempt", next.RetryCount),
		zap.Duration("delay", delay),
		zap.Error(cause),
	)
	return fmt.Errorf("job failed (will retry): %w", cause)
}

func (d *SyncDispatcher) deferJob(ctx context.Context, msg queue.MessageInterface, job *queue.Job) error {
	if d.publisher == nil {
		if nackErr := msg.Nack(true); nackErr != nil {
			return fmt.Errorf("failed to requeue early job: %w", nackErr)
		}
		return nil
	}
	if err := d.publisher.Enqueue(ctx, job); err != nil {
		if nackErr := msg.Nack(true); nackErr != nil {
			d.logger.Warn("failed to nack early job", zap.Error(nackErr))
		}
		return fmt.Errorf("failed to defer job: %w", err)
	}
	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack deferred job: %w", ackErr)
	}
	d.logger.Debug("sync_dispatch_deferred", zap.String("job_id", job.ID.String()), zap.Timep("not_before", job.NotBefore))
	return nil
}

// RetryDelay is the backoff before attempt retryCount+1
func RetryDelay(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	if retryCount > 10 {
		retryCount = 10
	}
	delay := baseRetryDelay * time.Duration(1<<uint(retryCount))
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

func failedTargets(results map[string]models.IntegrationResult) []string {
	var failed []string
	for target, res := range results {
		if !res.Success {
			failed = append(failed, target)
		}
	}
	sort.Strings(failed)
	return failed
}
