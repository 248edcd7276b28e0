package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/job"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// Job types registered with the runner.
const (
	JobTypeFanOut   = "notification.fanout"
	JobTypeDispatch = "notification.dispatch"
)

// Dispatch limits.
const (
	DispatchMaxAttempts = 3
	DispatchTimeout     = 60 * time.Second
)

// DispatchPayload is the persisted form of a DispatchJob.
type DispatchPayload struct {
	UserID int64                   `json:"user_id"`
	Type   string                  `json:"type"`
	Data   domain.NotificationData `json:"data"`
}

// DispatchJob delivers one notification to one user. It is not idempotent:
// running it twice stores two notifications.
type DispatchJob struct {
	id      uuid.UUID
	payload DispatchPayload

	users         store.UserStore
	notifications store.NotificationStore
	logger        *slog.Logger
	now           func() time.Time
}

var (
	_ job.Retryable      = (*DispatchJob)(nil)
	_ job.Timeouter      = (*DispatchJob)(nil)
	_ job.FailureHandler = (*DispatchJob)(nil)
)

// DispatchJobFactory builds DispatchJobs with their dependencies.
type DispatchJobFactory struct {
	users         store.UserStore
	notifications store.NotificationStore
	logger        *slog.Logger
	now           func() time.Time
}

// NewDispatchJobFactory creates a DispatchJobFactory.
func NewDispatchJobFactory(
	users store.UserStore,
	notifications store.NotificationStore,
	logger *slog.Logger,
) (*DispatchJobFactory, error) {
	if users == nil {
		return nil, fmt.Errorf("users cannot be nil")
	}
	if notifications == nil {
		return nil, fmt.Errorf("notifications cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &DispatchJobFactory{
		users:         users,
		notifications: notifications,
		logger:        logger.With("component", "notification_dispatch"),
		now:           time.Now,
	}, nil
}

// New creates a DispatchJob for userID.
func (f *DispatchJobFactory) New(userID int64, notificationType string, data domain.NotificationData) *DispatchJob {
	return f.build(uuid.New(), DispatchPayload{UserID: userID, Type: notificationType, Data: data})
}

// FromRecord rebuilds a DispatchJob from its persisted record.
func (f *DispatchJobFactory) FromRecord(rec job.Record) (job.Job, error) {
	var payload DispatchPayload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dispatch payload: %w", err)
	}
	return f.build(rec.ID, payload), nil
}

func (f *DispatchJobFactory) build(id uuid.UUID, payload DispatchPayload) *DispatchJob {
	return &DispatchJob{
		id:            id,
		payload:       payload,
		users:         f.users,
		notifications: f.notifications,
		logger:        f.logger.With(slog.String("job_id", id.String())),
		now:           f.now,
	}
}

// ID implements job.Job.
func (j *DispatchJob) ID() uuid.UUID { return j.id }

// Type implements job.Job.
func (j *DispatchJob) Type() string { return JobTypeDispatch }

// Payload implements job.Job.
func (j *DispatchJob) Payload() []byte {
	b, err := json.Marshal(j.payload)
	if err != nil {
		j.logger.Error("failed to marshal dispatch payload", slog.String("error", err.Error()))
		return []byte("{}")
	}
	return b
}

// UserID returns the recipient.
func (j *DispatchJob) UserID() int64 { return j.payload.UserID }

// Data returns the notification payload.
func (j *DispatchJob) Data() domain.NotificationData { return j.payload.Data }

// MaxAttempts implements job.Retryable.
func (j *DispatchJob) MaxAttempts() int { return DispatchMaxAttempts }

// Timeout implements job.Timeouter.
func (j *DispatchJob) Timeout() time.Duration { return DispatchTimeout }

// Execute checks that the recipient exists and stores the notification.
func (j *DispatchJob) Execute(ctx context.Context) error {
	log := j.logger.With(
		slog.Int64("user_id", j.payload.UserID),
		slog.String("type", j.payload.Type))

	if _, err := j.users.GetByID(ctx, j.payload.UserID); err != nil {
		log.ErrorContext(ctx, "failed to send notification", slog.String("error", err.Error()))
		return err
	}

	now := j.now().UTC()
	n := &domain.Notification{
		UserID:    j.payload.UserID,
		Type:      j.payload.Type,
		Data:      j.payload.Data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := j.notifications.Create(ctx, n); err != nil {
		log.ErrorContext(ctx, "failed to send notification", slog.String("error", err.Error()))
		return err
	}

	log.InfoContext(ctx, "notification sent", slog.Int64("notification_id", n.ID))
	return nil
}

// Failed implements job.FailureHandler.
func (j *DispatchJob) Failed(ctx context.Context, err error) {
	j.logger.ErrorContext(ctx, "notification dispatch failed permanently",
		slog.Int64("user_id", j.payload.UserID),
		slog.String("type", j.payload.Type),
		slog.String("error", err.Error()))
}
