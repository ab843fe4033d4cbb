package bus

import "time"

// EventBus is an in-process, synchronous pub/sub bus for simulation events.
//
// Handlers subscribe by Event.Type() or by Wildcard for every type. Publish
// calls handlers in the publisher's goroutine, in subscription order, so a
// simulation that publishes from its tick loop stays deterministic. Handler
// errors are joined and returned. All methods are safe for concurrent use.
type EventBus interface {
	// Publish delivers event to every active subscriber of its type and to
	// wildcard subscribers.
	Publish(event Event) error
	// Subscribe registers handler for eventType and returns a cancellable handle.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels sub. Nil is a no-op.
	Unsubscribe(sub Subscription) error

	// Stats returns delivery counters.
	Stats() Stats
}

// Wildcard subscribes to every event type.
const Wildcard = "*"

// Event is an immutable message. Tick is the simulation tick the event was
// raised on; Timestamp is wall-clock time.
type Event interface {
	Type() string
	Source() string
	Tick() uint64
	Timestamp() time.Time
	Data() any
}

// EventHandler is invoked per delivered event.
type EventHandler func(event Event) error

// Subscription is a registered handler.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel removes the handler. Repeated calls are safe.
	Cancel() error
}

// Stats counts bus activity since creation.
type Stats struct {
	Published   uint64 `json:"published"`
	Delivered   uint64 `json:"delivered"`
	Errors      uint64 `json:"errors"`
	Subscribers int    `json:"subscribers"`
}
