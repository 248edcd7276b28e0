package job

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a persisted job.
type Status string

// Possible job status values.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Job is a unit of background work. Implementations must be safe to
// execute more than once: delivery is at-least-once.
type Job interface {
	// ID returns the job's unique identifier.
	ID() uuid.UUID

	// Type returns the identifier used to find the job's Factory on recovery.
	Type() string

	// Payload returns the data needed to rebuild the job.
	Payload() []byte

	// Execute runs the job logic. ctx carries the per-attempt timeout.
	Execute(ctx context.Context) error
}

// Retryable is implemented by jobs that allow more than one attempt.
type Retryable interface {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts() int
}

// Timeouter is implemented by jobs that bound each attempt.
type Timeouter interface {
	Timeout() time.Duration
}

// FailureHandler is implemented by jobs that want to react once every
// attempt has failed.
type FailureHandler interface {
	Failed(ctx context.Context, err error)
}

// Submitter accepts jobs for asynchronous execution.
type Submitter interface {
	Submit(ctx context.Context, job Job) error
}

// Record is the persisted form of a job.
type Record struct {
	ID        uuid.UUID `db:"id"`
	Type      string    `db:"type"`
	Payload   []byte    `db:"payload"`
	Status    Status    `db:"status"`
	Attempts  int       `db:"attempts"`
	LastError *string   `db:"last_error"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NewRecord builds a pending record for j.
func NewRecord(j Job, now time.Time) Record {
	return Record{
		ID:        j.ID(),
		Type:      j.Type(),
		Payload:   j.Payload(),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Store defines the interface for persisting jobs.
type Store interface {
	// Save persists a new job record.
	Save(ctx context.Context, rec Record) error

	// UpdateStatus updates the status, attempt count and last error of a job.
	// An empty errMsg clears the last error.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, attempts int, errMsg string) error

	// Transition is UpdateStatus applied only while the job is still in
	// from. It reports whether the row changed.
	Transition(ctx context.Context, id uuid.UUID, from, to Status, attempts int, errMsg string) (bool, error)

	// ListByStatus returns jobs in status. If olderThan is non-zero, only
	// jobs whose status has not changed for at least that long are returned.
	ListByStatus(ctx context.Context, status Status, olderThan time.Duration) ([]Record, error)
}

// Factory rebuilds a job from its persisted record.
type Factory func(rec Record) (Job, error)

// maxAttempts returns the attempt budget for j.
func maxAttempts(j Job) int {
	if r, ok := j.(Retryable); ok && r.MaxAttempts() > 0 {
		return r.MaxAttempts()
	}
	return 1
}

// timeout returns the per-attempt timeout for j, or fallback.
func timeout(j Job, fallback time.Duration) time.Duration {
	if t, ok := j.(Timeouter); ok && t.Timeout() > 0 {
		return t.Timeout()
	}
	return fallback
}
