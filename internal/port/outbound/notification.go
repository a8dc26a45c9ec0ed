package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/approvenow/server/internal/model"
)

// NotificationSenderPort delivers notification intents.
// Every recipient in the intent carries an email address.
type NotificationSenderPort interface {
	Send(ctx context.Context, intent *model.NotificationIntent) error
}

// IntentLedgerPort remembers which intents were already handed off.
type IntentLedgerPort interface {
	// Claim marks key as in flight or delivered. It returns false if the key
	// was already claimed and the claim has not expired.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release forgets a claim so a later attempt can deliver the intent.
	Release(ctx context.Context, key string) error
}

// ErrDuplicateIntent is returned by Dispatch when another attempt already
// holds the claim on the intent key. Nothing was sent by this call.
var ErrDuplicateIntent = errors.New("notification intent already claimed")

// NotificationDispatcherPort hands intents to the delivery pipeline.
// A nil error means this call delivered the intent.
type NotificationDispatcherPort interface {
	Dispatch(ctx context.Context, intent *model.NotificationIntent) error
}
