package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is a change read from the store.
type Event interface {
	EventID() uuid.UUID
	EventType() string
	// Row is the id of the changed row.
	Row() uuid.UUID
}

// StoreEvent holds what every store event carries.
type StoreEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	RowID      uuid.UUID `json:"row_id"`
	ReceivedAt time.Time `json:"received_at"`
}

func newStoreEvent(eventType string, row uuid.UUID) StoreEvent {
	return StoreEvent{
		ID:         uuid.New(),
		Type:       eventType,
		RowID:      row,
		ReceivedAt: time.Now().UTC(),
	}
}

func (e StoreEvent) EventID() uuid.UUID { return e.ID }
func (e StoreEvent) EventType() string  { return e.Type }
func (e StoreEvent) Row() uuid.UUID     { return e.RowID }

// Handler reacts to store events of the types it subscribes to.
// The same change may be delivered more than once, so handling it twice
// must not repeat side effects.
type Handler interface {
	Subscribes() []string
	Handle(ctx context.Context, event Event) error
}

type handlerFunc struct {
	types []string
	fn    func(context.Context, Event) error
}

// On returns a Handler running fn for the given event types.
func On(fn func(context.Context, Event) error, eventTypes ...string) Handler {
	return &handlerFunc{types: eventTypes, fn: fn}
}

func (h *handlerFunc) Subscribes() []string { return h.types }

func (h *handlerFunc) Handle(ctx context.Context, event Event) error {
	return h.fn(ctx, event)
}
