// Package events defines the in-process event bus the bounded contexts use to
// talk to each other without importing one another. Lifecycle milestones
// (case created, review decided, stage blocked) are published here and picked
// up by whichever module cares, notifications most of all.
// This is part of the platform layer and contains no business logic.
package events

import (
	"context"
	"time"
)

// Event is implemented by every published event type.
type Event interface {
	// EventName identifies the event type; subscriptions are keyed on it.
	EventName() string
	// OccurredAt reports when the event happened.
	OccurredAt() time.Time
}

// BaseEvent carries the timestamp shared by all event types. Embed it and
// add the payload fields.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt reports when the event happened.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of one subscribed type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes events and routes them to subscribed handlers.
type Bus interface {
	// Publish delivers an event to every handler subscribed to its name.
	// Delivery is asynchronous; publishers never block on handlers.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers an event and waits for every handler to finish.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under an event name, matching the value
	// the event's EventName returns.
	Subscribe(eventName string, handler Handler)
}
