package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felipeah-dev/echo-app/internal/models"
	"github.com/felipeah-dev/echo-app/internal/queue"
	"github.com/google/uuid"
)

// mockExecutor is a mock implementation of orchestration.Executor
type mockExecutor struct {
	executeFunc func(ctx context.Context, targets []string, deal models.Deal) (map[string]models.IntegrationResult, error)
	calls       [][]string
}

func (m *mockExecutor) Execute(ctx context.Context, targets []string, deal models.Deal) (map[string]models.IntegrationResult, error) {
	m.calls = append(m.calls, targets)
	if m.executeFunc != nil {
		return m.executeFunc(ctx, targets, deal)
	}
	out := make(map[string]models.IntegrationResult, len(targets))
	for _, t := range targets {
		out[t] = models.IntegrationResult{Success: true, Target: t}
	}
	return out, nil
}

// mockPublisher is a mock implementation of queue.Publisher
type mockPublisher struct {
	mu   sync.Mutex
	jobs []*queue.Job
	err  error
}

func (m *mockPublisher) Enqueue(_ context.Context, job *queue.Job) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return nil
}

// mockMessage is a mock implementation of MessageInterface
type mockMessage struct {
	job      *queue.Job
	acked    bool
	nacked   bool
	requeued bool
}

func (m *mockMessage) Ack() error {
	m.acked = true
	return nil
}

func (m *mockMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeued = requeue
	return nil
}

func (m *mockMessage) GetJob() *queue.Job {
	return m.job
}

// Ensure mock implements interface
var _ queue.MessageInterface = (*mockMessage)(nil)

type recordingRecorder struct {
	results []map[string]models.IntegrationResult
}

func (r *recordingRecorder) IntegrationResults(_ string, results map[string]models.IntegrationResult) {
	r.results = append(r.results, results)
}

func newDispatchJob(t *testing.T, targets ...string) *queue.Job {
	t.Helper()
	job, err := queue.NewSyncDispatchJob("user-1", models.Deal{DealID: "D-1", Customer: "Acme", Amount: 150000}, targets)
	if err != nil {
		t.Fatalf("NewSyncDispatchJob: %v", err)
	}
	return job
}

func failTargets(failing ...string) func(context.Context, []string, models.Deal) (map[string]models.IntegrationResult, error) {
	return func(_ context.Context, targets []string, _ models.Deal) (map[string]models.IntegrationResult, error) {
		out := make(map[string]models.IntegrationResult, len(targets))
		for _, t := range targets {
			out[t] = models.IntegrationResult{Success: true, Target: t}
			for _, f := range failing {
				if f == t {
					out[t] = models.IntegrationResult{Target: t, Error: "down"}
				}
			}
		}
		return out, nil
	}
}

func TestSyncDispatcher_ProcessJob_Success(t *testing.T) {
	t.Parallel()

	exec := &mockExecutor{}
	rec := &recordingRecorder{}
	d := NewSyncDispatcher(exec, &mockPublisher{}, rec, nil)
	msg := &mockMessage{job: newDispatchJob(t, "chat", "email")}

	if err := d.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !msg.acked || msg.nacked {
		t.Errorf("expected ack only, got acked=%v nacked=%v", msg.acked, msg.nacked)
	}
	if len(exec.calls) != 1 || len(exec.calls[0]) != 2 {
		t.Errorf("unexpected executor calls %v", exec.calls)
	}
	if len(rec.results) != 1 {
		t.Errorf("expected results to be recorded once, got %d", len(rec.results))
	}
}

func TestSyncDispatcher_ProcessJob_RetriesFailedTargets(t *testing.T) {
	t.Parallel()

	exec := &mockExecutor{executeFunc: failTargets("email")}
	pub := &mockPublisher{}
	d := NewSyncDispatcher(exec, pub, nil, nil)
	job := newDispatchJob(t, "chat", "email")
	msg := &mockMessage{job: job}

	if err := d.ProcessJob(context.Background(), msg); err == nil {
		t.Fatal("expected retry error")
	}
	if !msg.acked {
		t.Error("expected original message to be acked after re-enqueue")
	}
	if len(pub.jobs) != 1 {
		t.Fatalf("expected one retry job, got %d", len(pub.jobs))
	}

	retry := pub.jobs[0]
	if retry.RetryCount != 1 {
		t.Errorf("expected retry count 1, got %d", retry.RetryCount)
	}
	if retry.NotBefore == nil || !retry.NotBefore.After(time.Now()) {
		t.Errorf("expected delayed retry, got %v", retry.NotBefore)
	}
	payload, err := retry.SyncDispatch()
	if err != nil {
		t.Fatalf("SyncDispatch: %v", err)
	}
	if len(payload.Targets) != 1 || payload.Targets[0] != "email" {
		t.Errorf("expected only failed target to be retried, got %v", payload.Targets)
	}
}

func TestSyncDispatcher_ProcessJob_MaxRetries(t *testing.T) {
	t.Parallel()

	exec := &mockExecutor{executeFunc: failTargets("chat")}
	pub := &mockPublisher{}
	d := NewSyncDispatcher(exec, pub, nil, nil)
	job := newDispatchJob(t, "chat")
	job.RetryCount = job.MaxRetries
	msg := &mockMessage{job: job}

	if err := d.ProcessJob(context.Background(), msg); err == nil {
		t.Fatal("expected error")
	}
	if !msg.nacked || msg.requeued {
		t.Errorf("expected dead-letter nack, got nacked=%v requeued=%v", msg.nacked, msg.requeued)
	}
	if len(pub.jobs) != 0 {
		t.Errorf("expected no re-enqueue, got %d", len(pub.jobs))
	}
}

func TestSyncDispatcher_ProcessJob_ExecutorError(t *testing.T) {
	t.Parallel()

	exec := &mockExecutor{executeFunc: func(context.Context, []string, models.Deal) (map[string]models.IntegrationResult, error) {
		return nil, errors.New("executor down")
	}}
	d := NewSyncDispatcher(exec, nil, nil, nil)
	msg := &mockMessage{job: newDispatchJob(t, "chat")}

	if err := d.ProcessJob(context.Background(), msg); err == nil {
		t.Fatal("expected error")
	}
	if !msg.nacked || !msg.requeued {
		t.Errorf("expected requeue without publisher, got nacked=%v requeued=%v", msg.nacked, msg.requeued)
	}
}

func TestSyncDispatcher_ProcessJob_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		job  *queue.Job
	}{
		{
			name: "unknown job type",
			job:  &queue.Job{ID: uuid.New(), Type: queue.JobType("unknown")},
		},
		{
			name: "missing payload",
			job:  &queue.Job{ID: uuid.New(), Type: queue.JobTypeSyncDispatch},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			exec := &mockExecutor{}
			d := NewSyncDispatcher(exec, &mockPublisher{}, nil, nil)
			msg := &mockMessage{job: tt.job}

			if err := d.ProcessJob(context.Background(), msg); err == nil {
				t.Error("expected error")
			}
			if !msg.nacked || msg.requeued {
				t.Errorf("expected dead-letter nack, got nacked=%v requeued=%v", msg.nacked, msg.requeued)
			}
			if len(exec.calls) != 0 {
				t.Error("executor should not run")
			}
		})
	}
}

func TestSyncDispatcher_ProcessJob_NotReady(t *testing.T) {
	t.Parallel()

	exec := &mockExecutor{}
	pub := &mockPublisher{}
	d := NewSyncDispatcher(exec, pub, nil, nil)
	job := newDispatchJob(t, "chat")
	job.NotBefore = timePtr(time.Now().Add(time.Hour))
	msg := &mockMessage{job: job}

	if err := d.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !msg.acked {
		t.Error("expected ack after deferring")
	}
	if len(pub.jobs) != 1 || pub.jobs[0].ID != job.ID {
		t.Errorf("expected the same job to be re-published, got %v", pub.jobs)
	}
	if len(exec.calls) != 0 {
		t.Error("executor should not run before NotBefore")
	}
}

func TestRetryDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		retry int
		want  time.Duration
	}{
		{-1, 5 * time.Second},
		{0, 5 * time.Second},
		{1, 10 * time.Second},
		{3, 40 * time.Second},
		{10, 5 * time.Minute},
		{50, 5 * time.Minute},
	}
	for _, tt := range tests {
		if got := RetryDelay(tt.retry); got != tt.want {
			t.Errorf("RetryDelay(%d) = %v, want %v", tt.retry, got, tt.want)
		}
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
