package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// Event types.
const (
	// TypeTaskUpdated is emitted after a task update changed at least one field.
	TypeTaskUpdated = "task.updated"
)

// Event is an immutable record of a domain change. The payload is
// serialized at construction so handlers see the state as of emission.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type names what happened, e.g. TypeTaskUpdated
	Type string `json:"type"`

	// Payload contains the event data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the emission time
	CreatedAt time.Time `json:"created_at"`
}

// NewEvent creates a new Event with the specified type and payload.
func NewEvent(eventType string, payload any, at time.Time) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: at.UTC(),
	}, nil
}

// UnmarshalPayload decodes the event payload into v.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// TaskUpdatedPayload is the payload of a TypeTaskUpdated event.
type TaskUpdatedPayload struct {
	Task          domain.TaskSnapshot `json:"task"`
	ChangedFields []string            `json:"changed_fields"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

// NewTaskUpdatedEvent snapshots task and the fields that changed.
func NewTaskUpdatedEvent(task *domain.Task, changedFields []string, at time.Time) (*Event, error) {
	fields := make([]string, len(changedFields))
	copy(fields, changedFields)
	return NewEvent(TypeTaskUpdated, TaskUpdatedPayload{
		Task:          task.Snapshot(),
		ChangedFields: fields,
		OccurredAt:    at.UTC(),
	}, at)
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f.
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}
