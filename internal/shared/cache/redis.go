package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/approvenow/server/internal/shared/config"
)

const pingTimeout = 3 * time.Second

// Open connects to Redis and pings it. A comma-separated address list
// yields a cluster client; a single address a plain one.
func Open(ctx context.Context, cfg *config.RedisConfig) (redis.UniversalClient, error) {
	addrs := strings.Split(cfg.Address, ",")
	for i := range addrs {
		addrs[i] = strings.TrimSpace(addrs[i])
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    addrs,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Address, err)
	}
	return client, nil
}
