// Package events is the in-process publish/subscribe layer shared by modules.
package events

import (
	"context"
	"time"
)

// Event is anything that can be published on a Bus.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent stamps an event with the time it was raised.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent returns a BaseEvent stamped with the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

// Handler reacts to a published event.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function act as a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error { return f(ctx, event) }

// Bus routes events to the handlers subscribed to their name.
type Bus interface {
	// Publish dispatches without waiting for handlers.
	Publish(ctx context.Context, event Event)
	// PublishSync runs handlers in order and returns their joined errors.
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}
