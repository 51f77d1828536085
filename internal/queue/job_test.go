package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/felipeah-dev/echo-app/internal/models"
	"github.com/google/uuid"
)

func TestNewJob(t *testing.T) {
	t.Parallel()

	job := NewJob(JobTypeSyncDispatch, "user-1")

	if job.ID == uuid.Nil {
		t.Error("Expected job ID to be set")
	}
	if job.Type != JobTypeSyncDispatch {
		t.Errorf("Expected job type to be %s, got %s", JobTypeSyncDispatch, job.Type)
	}
	if job.UserID != "user-1" {
		t.Errorf("Expected user ID to be user-1, got %s", job.UserID)
	}
	if job.RetryCount != 0 {
		t.Errorf("Expected retry count to be 0, got %d", job.RetryCount)
	}
	if job.MaxRetries != 3 {
		t.Errorf("Expected max retries to be 3, got %d", job.MaxRetries)
	}
	if job.CreatedAt.IsZero() {
		t.Error("Expected created at to be set")
	}
}

func TestNewSyncDispatchJob(t *testing.T) {
	t.Parallel()

	deal := models.Deal{DealID: "D-1", Customer: "Acme", Amount: 150000}
	job, err := NewSyncDispatchJob("user-1", deal, []string{"chat", "email"})
	if err != nil {
		t.Fatalf("NewSyncDispatchJob: %v", err)
	}

	payload, err := job.SyncDispatch()
	if err != nil {
		t.Fatalf("SyncDispatch: %v", err)
	}
	if payload.Deal.DealID != "D-1" || payload.Deal.Amount != 150000 {
		t.Errorf("unexpected deal %+v", payload.Deal)
	}
	if len(payload.Targets) != 2 || payload.Targets[0] != "chat" || payload.Targets[1] != "email" {
		t.Errorf("unexpected targets %v", payload.Targets)
	}
}

func TestJob_SyncDispatch_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		job  *Job
	}{
		{
			name: "wrong type",
			job:  &Job{ID: uuid.New(), Type: JobType("other"), Payload: json.RawMessage(`{}`)},
		},
		{
			name: "empty payload",
			job:  &Job{ID: uuid.New(), Type: JobTypeSyncDispatch},
		},
		{
			name: "malformed payload",
			job:  &Job{ID: uuid.New(), Type: JobTypeSyncDispatch, Payload: json.RawMessage(`{"deal":`)},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := tt.job.SyncDispatch(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestJob_ShouldProcess(t *testing.T) {
	t.Parallel()

	now := time.Now()

	tests := []struct {
		name string
		job  *Job
		want bool
	}{
		{
			name: "no time constraints",
			job:  &Job{ID: uuid.New(), Type: JobTypeSyncDispatch},
			want: true,
		},
		{
			name: "not before in past",
			job:  &Job{ID: uuid.New(), Type: JobTypeSyncDispatch, NotBefore: timePtr(now.Add(-time.Hour))},
			want: true,
		},
		{
			name: "not before in future",
			job:  &Job{ID: uuid.New(), Type: JobTypeSyncDispatch, NotBefore: timePtr(now.Add(time.Hour))},
			want: false,
		},
		{
			name: "not after in future",
			job:  &Job{ID: uuid.New(), Type: JobTypeSyncDispatch, NotAfter: timePtr(now.Add(time.Hour))},
			want: true,
		},
		{
			name: "not after in past",
			job:  &Job{ID: uuid.New(), Type: JobTypeSyncDispatch, NotAfter: timePtr(now.Add(-time.Hour))},
			want: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.job.ShouldProcess(); got != tt.want {
				t.Errorf("ShouldProcess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJob_IsExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tests := []struct {
		name     string
		notAfter *time.Time
		want     bool
	}{
		{"no expiration", nil, false},
		{"expires later", timePtr(now.Add(time.Hour)), false},
		{"expired", timePtr(now.Add(-time.Hour)), true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			job := &Job{NotAfter: tt.notAfter}
			if got := job.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJob_CanRetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		retryCount int
		maxRetries int
		want       bool
	}{
		{"no retries yet", 0, 3, true},
		{"one retry left", 2, 3, true},
		{"at max", 3, 3, false},
		{"over max", 4, 3, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			job := &Job{RetryCount: tt.retryCount, MaxRetries: tt.maxRetries}
			if got := job.CanRetry(); got != tt.want {
				t.Errorf("CanRetry() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJob_Retry(t *testing.T) {
	t.Parallel()

	job := NewJob(JobTypeSyncDispatch, "user-1")
	job.Payload = json.RawMessage(`{"deal":{},"targets":["chat"]}`)

	before := time.Now()
	next := job.Retry(30 * time.Second)

	if next.ID == job.ID {
		t.Error("expected retry to get a new ID")
	}
	if next.RetryCount != 1 {
		t.Errorf("expected retry count 1, got %d", next.RetryCount)
	}
	if job.RetryCount != 0 {
		t.Errorf("original job should be unchanged, got retry count %d", job.RetryCount)
	}
	if next.NotBefore == nil || next.NotBefore.Before(before.Add(30*time.Second)) {
		t.Errorf("expected NotBefore at least 30s out, got %v", next.NotBefore)
	}
	if string(next.Payload) != string(job.Payload) {
		t.Error("expected payload to carry over")
	}
	if next.ShouldProcess() {
		t.Error("retried job should not be processed before its delay")
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
