// Package history defines lifecycle-event export for supervised processes.
// Sinks are best effort: a failing sink is logged and never blocks process
// control.
package history

import (
	"context"
	"time"

	"github.com/lakowske/backdrop/internal/registry"
)

// EventType defines the kind of lifecycle event.
type EventType string

const (
	EventStart   EventType = "start"
	EventStop    EventType = "stop"
	EventCleanup EventType = "cleanup" // stale record purged, nothing was killed
)

// Event represents one lifecycle transition of a supervised process.
type Event struct {
	Type       EventType       `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Record     registry.Record `json:"record"`
}

// Sink is a destination for lifecycle events (audit/statistics systems).
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}
