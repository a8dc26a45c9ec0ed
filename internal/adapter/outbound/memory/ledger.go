package memory

import (
	"context"
	"sync"
	"time"

	"github.com/approvenow/server/internal/port/outbound"
)

// IntentLedger is a process-local notification intent ledger.
type IntentLedger struct {
	mu     sync.Mutex
	claims map[string]time.Time
	now    func() time.Time
}

// NewIntentLedger creates an empty ledger.
func NewIntentLedger() *IntentLedger {
	return &IntentLedger{claims: make(map[string]time.Time), now: time.Now}
}

func (l *IntentLedger) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if exp, ok := l.claims[key]; ok && now.Before(exp) {
		return false, nil
	}
	l.claims[key] = now.Add(ttl)

	// Drop expired claims while we hold the lock.
	for k, exp := range l.claims {
		if !now.Before(exp) {
			delete(l.claims, k)
		}
	}
	return true, nil
}

func (l *IntentLedger) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.claims, key)
	return nil
}

var _ outbound.IntentLedgerPort = (*IntentLedger)(nil)
