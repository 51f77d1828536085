package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/felipeah-dev/echo-app/internal/models"
	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeSyncDispatch delivers a deal to its targets out of band
	JobTypeSyncDispatch JobType = "sync_dispatch"
)

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID       `json:"id"`
	Type       JobType         `json:"type"`
	UserID     string          `json:"user_id,omitempty"`
	NotBefore  *time.Time      `json:"not_before,omitempty"` // nil = immediate
	NotAfter   *time.Time      `json:"not_after,omitempty"`  // nil = no expiration
	Payload    json.RawMessage `json:"payload,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	RetryCount int             `json:"retry_count"`
	MaxRetries int             `json:"max_retries"`
}

// SyncDispatchPayload is the body of a sync_dispatch job
type SyncDispatchPayload struct {
	Deal    models.Deal `json:"deal"`
	Targets []string    `json:"targets"`
}

// NewJob creates a new job
func NewJob(jobType JobType, userID string) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// NewSyncDispatchJob creates a sync_dispatch job for deal and targets
func NewSyncDispatchJob(userID string, deal models.Deal, targets []string) (*Job, error) {
	job := NewJob(JobTypeSyncDispatch, userID)
	if err := job.SetSyncDispatch(SyncDispatchPayload{Deal: deal, Targets: targets}); err != nil {
		return nil, err
	}
	return job, nil
}

// SetSyncDispatch replaces the job payload
func (j *Job) SetSyncDispatch(p SyncDispatchPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal sync payload: %w", err)
	}
	j.Payload = body
	return nil
}

// SyncDispatch decodes the job payload
func (j *Job) SyncDispatch() (SyncDispatchPayload, error) {
	var p SyncDispatchPayload
	if j.Type != JobTypeSyncDispatch {
		return p, fmt.Errorf("job %s is %s, not %s", j.ID, j.Type, JobTypeSyncDispatch)
	}
	if len(j.Payload) == 0 {
		return p, fmt.Errorf("job %s has no payload", j.ID)
	}
	if err := json.Unmarshal(j.Payload, &p); err != nil {
		return p, fmt.Errorf("failed to decode sync payload: %w", err)
	}
	return p, nil
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}
	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// Retry returns a copy of the job scheduled after delay with the retry
// count incremented.
func (j *Job) Retry(delay time.Duration) *Job {
	next := *j
	next.ID = uuid.New()
	notBefore := time.Now().Add(delay)
	next.NotBefore = &notBefore
	next.RetryCount = j.RetryCount + 1
	return &next
}
