package events

import (
	"context"
	"sync"

	"travelcrm_backend/platform/logger"
)

// InMemoryBus is a process-local Bus implementation. Handlers run in their
// own goroutine; a handler error is logged, never propagated to the
// publisher.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for the named event type.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event to all subscribed handlers asynchronously.
func (b *InMemoryBus) Publish(_ context.Context, event Event) {
	b.mu.RLock()
	subscribed := make([]Handler, len(b.handlers[event.EventName()]))
	copy(subscribed, b.handlers[event.EventName()])
	b.mu.RUnlock()

	for _, h := range subscribed {
		handler := h
		go func() {
			if err := handler.Handle(context.Background(), event); err != nil {
				b.log.Error("event handler failed", "event", event.EventName(), "error", err)
			}
		}()
	}
}

var _ Bus = (*InMemoryBus)(nil)
