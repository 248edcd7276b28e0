package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/events"
	"github.com/phrazzld/taskboard-api/internal/job"
)

// TaskUpdatedMessage is the human readable text of a task update notification.
const TaskUpdatedMessage = "A task has been updated"

// FanOutMaxAttempts bounds retries of recipient resolution.
const FanOutMaxAttempts = 3

// FanOutPayload is the persisted form of a FanOutJob.
type FanOutPayload struct {
	EventID uuid.UUID                 `json:"event_id"`
	Update  events.TaskUpdatedPayload `json:"update"`
}

// FanOutJob submits one DispatchJob per recipient of a task update.
type FanOutJob struct {
	id      uuid.UUID
	payload FanOutPayload
	factory *FanOutJobFactory

	// Recipients already handed to the submitter, so a retry after a
	// partial failure does not queue them twice.
	mu   sync.Mutex
	done map[int64]struct{}
}

var _ job.Retryable = (*FanOutJob)(nil)

// FanOutJobFactory builds FanOutJobs with their dependencies.
type FanOutJobFactory struct {
	resolver  RecipientResolver
	submitter job.Submitter
	dispatch  *DispatchJobFactory
	logger    *slog.Logger
}

// NewFanOutJobFactory creates a FanOutJobFactory.
func NewFanOutJobFactory(
	resolver RecipientResolver,
	submitter job.Submitter,
	dispatch *DispatchJobFactory,
	logger *slog.Logger,
) (*FanOutJobFactory, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver cannot be nil")
	}
	if submitter == nil {
		return nil, fmt.Errorf("submitter cannot be nil")
	}
	if dispatch == nil {
		return nil, fmt.Errorf("dispatch factory cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &FanOutJobFactory{
		resolver:  resolver,
		submitter: submitter,
		dispatch:  dispatch,
		logger:    logger.With("component", "notification_fanout"),
	}, nil
}

// New creates a FanOutJob for one task update event.
func (f *FanOutJobFactory) New(eventID uuid.UUID, update events.TaskUpdatedPayload) *FanOutJob {
	return f.build(uuid.New(), FanOutPayload{EventID: eventID, Update: update})
}

// FromRecord rebuilds a FanOutJob from its persisted record.
func (f *FanOutJobFactory) FromRecord(rec job.Record) (job.Job, error) {
	var payload FanOutPayload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fan-out payload: %w", err)
	}
	return f.build(rec.ID, payload), nil
}

func (f *FanOutJobFactory) build(id uuid.UUID, payload FanOutPayload) *FanOutJob {
	return &FanOutJob{
		id:      id,
		payload: payload,
		factory: f,
		done:    make(map[int64]struct{}),
	}
}

// ID implements job.Job.
func (j *FanOutJob) ID() uuid.UUID { return j.id }

// Type implements job.Job.
func (j *FanOutJob) Type() string { return JobTypeFanOut }

// Payload implements job.Job.
func (j *FanOutJob) Payload() []byte {
	b, err := json.Marshal(j.payload)
	if err != nil {
		j.factory.logger.Error("failed to marshal fan-out payload", slog.String("error", err.Error()))
		return []byte("{}")
	}
	return b
}

// MaxAttempts implements job.Retryable.
func (j *FanOutJob) MaxAttempts() int { return FanOutMaxAttempts }

// NotificationData builds the data stored on each recipient's notification.
func NotificationData(update events.TaskUpdatedPayload) domain.NotificationData {
	fields := update.ChangedFields
	if fields == nil {
		fields = []string{}
	}
	return domain.NotificationData{
		"task_id":        update.Task.ID,
		"task_title":     update.Task.Title,
		"message":        TaskUpdatedMessage,
		"updated_fields": fields,
		"updated_at":     update.OccurredAt.UTC().Format(time.RFC3339),
	}
}

// Execute resolves the recipients and submits one DispatchJob each.
func (j *FanOutJob) Execute(ctx context.Context) error {
	log := j.factory.logger.With(
		slog.String("job_id", j.id.String()),
		slog.String("event_id", j.payload.EventID.String()),
		slog.Int64("task_id", j.payload.Update.Task.ID))

	recipients, err := j.factory.resolver.Recipients(ctx, j.payload.Update)
	if err != nil {
		log.ErrorContext(ctx, "failed to resolve notification recipients", slog.String("error", err.Error()))
		return err
	}
	if len(recipients) == 0 {
		log.InfoContext(ctx, "no recipients for task update")
		return nil
	}

	data := NotificationData(j.payload.Update)
	var errs []error
	submitted := 0
	for _, userID := range recipients {
		if j.isDone(userID) {
			continue
		}
		dispatch := j.factory.dispatch.New(userID, domain.NotificationTypeTaskUpdated, data)
		if err := j.factory.submitter.Submit(ctx, dispatch); err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", userID, err))
			continue
		}
		j.markDone(userID)
		submitted++
	}

	log.InfoContext(ctx, "task update fanned out",
		slog.Int("recipient_count", len(recipients)),
		slog.Int("submitted_count", submitted),
		slog.Int("failed_count", len(errs)))
	return errors.Join(errs...)
}

func (j *FanOutJob) isDone(userID int64) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, ok := j.done[userID]
	return ok
}

func (j *FanOutJob) markDone(userID int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.done[userID] = struct{}{}
}
