package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryEmitter is a Publisher that fans events out to registered
// handlers in-process. It is the default notifier when no broker is
// configured, and doubles as a test double.
type InMemoryEmitter struct {
	handlers []Handler
	mu       sync.RWMutex
	logger   *slog.Logger
}

var _ Publisher = (*InMemoryEmitter)(nil)

// NewInMemoryEmitter creates an emitter with no handlers registered.
func NewInMemoryEmitter(logger *slog.Logger) *InMemoryEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEmitter{
		handlers: make([]Handler, 0),
		logger:   logger.With(slog.String("component", "event_emitter")),
	}
}

// RegisterHandler adds a handler that will receive all published events.
func (e *InMemoryEmitter) RegisterHandler(handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
}

// Publish delivers the event to every registered handler synchronously.
// A handler error does not stop delivery to the remaining handlers; the
// first error encountered is returned.
func (e *InMemoryEmitter) Publish(ctx context.Context, event *TaskEvent) error {
	e.mu.RLock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	e.logger.Debug("publishing event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.String("topic", event.Topic()))

	var firstErr error
	for _, handler := range handlers {
		if err := handler.HandleEvent(ctx, event); err != nil {
			e.logger.Error("event handler failed",
				slog.String("event_id", event.ID.String()),
				slog.String("event_type", event.Type),
				slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
