package events

import (
	"context"
	"log/slog"
	"sync"
)

type registration struct {
	eventType string // empty matches every type
	handler   EventHandler
}

// InMemoryEventEmitter dispatches events synchronously to handlers
// registered in the same process. Handlers that need to do slow work are
// expected to hand it off, e.g. to a job queue.
type InMemoryEventEmitter struct {
	handlers []registration
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryEventEmitter creates a new instance of InMemoryEventEmitter.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	return &InMemoryEventEmitter{
		logger: logger.With("component", "in_memory_event_emitter"),
	}
}

// RegisterHandler adds a handler that receives every event.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.RegisterHandlerFor("", handler)
}

// RegisterHandlerFor adds a handler that receives only events of eventType.
func (e *InMemoryEventEmitter) RegisterHandlerFor(eventType string, handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, registration{eventType: eventType, handler: handler})
	e.logger.Debug("registered event handler",
		slog.String("event_type", eventType),
		slog.Int("handler_count", len(e.handlers)))
}

// EmitEvent publishes the given event to all matching handlers.
// If any handler returns an error, the event is still sent to the others
// and the first error encountered is returned.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *Event) error {
	e.mu.RLock()
	matching := make([]EventHandler, 0, len(e.handlers))
	for _, reg := range e.handlers {
		if reg.eventType == "" || reg.eventType == event.Type {
			matching = append(matching, reg.handler)
		}
	}
	e.mu.RUnlock()

	log := e.logger.With(
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type))

	if len(matching) == 0 {
		log.Warn("no handlers registered for event")
		return nil
	}
	log.Debug("emitting event", slog.Int("handler_count", len(matching)))

	var firstErr error
	for i, handler := range matching {
		if err := handler.HandleEvent(ctx, event); err != nil {
			log.Error("handler failed to process event",
				slog.String("error", err.Error()),
				slog.Int("handler_index", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
