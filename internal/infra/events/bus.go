package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Bus hands store events to their handlers synchronously, in
// registration order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

// NewBus creates a new event bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Register subscribes handler to its event types.
func (b *Bus) Register(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, eventType := range handler.Subscribes() {
		b.handlers[eventType] = append(b.handlers[eventType], handler)
	}
	b.logger.Debug("store event handler registered", zap.Strings("event_types", handler.Subscribes()))
}

// Publish dispatches an event to all registered handlers.
// Every handler runs even if an earlier one fails; the failures are joined
// and returned so the source can redeliver the event.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := b.handlers[event.EventType()]
	b.mu.RUnlock()

	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("row_id", event.Row().String()),
	}
	if len(handlers) == 0 {
		b.logger.Warn("store event dropped, no handler", fields...)
		return nil
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			b.logger.Error("store event handler failed", append(fields, zap.Error(err))...)
			errs = append(errs, fmt.Errorf("%s %s: %w", event.EventType(), event.Row(), err))
		}
	}
	return errors.Join(errs...)
}

// PublishAll dispatches multiple events and joins their failures.
func (b *Bus) PublishAll(ctx context.Context, events []Event) error {
	var errs []error
	for _, event := range events {
		if err := b.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
