package events

import (
	"context"
	"errors"
	"sync"

	"vhc_backend/platform/logger"
)

// InMemoryBus dispatches events to handlers registered in the same process.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
	wg       sync.WaitGroup
}

// NewInMemoryBus creates an empty in-process bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for eventName.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish runs every handler in its own goroutine. Handler errors are logged.
// The request context is detached so handlers outlive the request that raised the event.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	handlers := b.snapshot(event.EventName())
	detached := context.WithoutCancel(ctx)

	for _, h := range handlers {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			if err := h.Handle(detached, event); err != nil && b.log != nil {
				b.log.Error("event handler failed", "event", event.EventName(), "error", err)
			}
		}(h)
	}
}

// PublishSync runs handlers sequentially and joins their errors.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	var errs []error
	for _, h := range b.snapshot(event.EventName()) {
		if err := h.Handle(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Wait blocks until all asynchronously published events have been handled.
func (b *InMemoryBus) Wait() {
	b.wg.Wait()
}

func (b *InMemoryBus) snapshot(eventName string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	handlers := b.handlers[eventName]
	out := make([]Handler, len(handlers))
	copy(out, handlers)
	return out
}
