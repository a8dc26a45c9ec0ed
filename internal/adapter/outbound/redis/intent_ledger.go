package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/approvenow/server/internal/port/outbound"
)

const intentKeyPrefix = "notify:intent:"

// intentLedger implements outbound.IntentLedgerPort with SETNX.
type intentLedger struct {
	client redis.UniversalClient
}

// NewIntentLedger creates a redis-backed notification intent ledger.
func NewIntentLedger(client redis.UniversalClient) outbound.IntentLedgerPort {
	return &intentLedger{client: client}
}

func (l *intentLedger) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, intentKeyPrefix+key, time.Now().UTC().Format(time.RFC3339Nano), ttl).Result()
}

func (l *intentLedger) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, intentKeyPrefix+key).Err()
}

var _ outbound.IntentLedgerPort = (*intentLedger)(nil)
