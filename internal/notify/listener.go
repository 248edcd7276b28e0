package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskboard-api/internal/events"
	"github.com/phrazzld/taskboard-api/internal/job"
)

// FanOutListener handles task.updated events by queueing a FanOutJob. It
// never fans out inline, so the emitting request returns immediately.
type FanOutListener struct {
	factory   *FanOutJobFactory
	submitter job.Submitter
	logger    *slog.Logger
}

var _ events.EventHandler = (*FanOutListener)(nil)

// NewFanOutListener creates a FanOutListener.
func NewFanOutListener(factory *FanOutJobFactory, submitter job.Submitter, logger *slog.Logger) (*FanOutListener, error) {
	if factory == nil {
		return nil, fmt.Errorf("factory cannot be nil")
	}
	if submitter == nil {
		return nil, fmt.Errorf("submitter cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &FanOutListener{
		factory:   factory,
		submitter: submitter,
		logger:    logger.With("component", "fanout_listener"),
	}, nil
}

// HandleEvent implements events.EventHandler. Events of other types are ignored.
func (l *FanOutListener) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeTaskUpdated {
		return nil
	}

	log := l.logger.With(slog.String("event_id", event.ID.String()))

	var update events.TaskUpdatedPayload
	if err := event.UnmarshalPayload(&update); err != nil {
		log.ErrorContext(ctx, "failed to decode task update event", slog.String("error", err.Error()))
		return fmt.Errorf("failed to decode task update event: %w", err)
	}

	fanOut := l.factory.New(event.ID, update)
	if err := l.submitter.Submit(ctx, fanOut); err != nil {
		log.ErrorContext(ctx, "failed to queue notification fan-out", slog.String("error", err.Error()))
		return fmt.Errorf("failed to queue notification fan-out: %w", err)
	}

	log.DebugContext(ctx, "queued notification fan-out",
		slog.String("job_id", fanOut.ID().String()),
		slog.Int64("task_id", update.Task.ID))
	return nil
}
