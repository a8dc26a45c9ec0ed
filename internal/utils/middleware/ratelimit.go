package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/approvenow/server/internal/port/outbound"
	apperrors "github.com/approvenow/server/internal/utils/errors"
)

const (
	// RateLimitRemaining is the header for remaining requests.
	RateLimitRemaining = "X-RateLimit-Remaining"
	// RateLimitLimit is the header for the limit.
	RateLimitLimit = "X-RateLimit-Limit"
	// RetryAfter is the header for retry time.
	RetryAfter = "Retry-After"
)

// RateLimitConfig holds rate limit configuration.
type RateLimitConfig struct {
	// Name prefixes every key so separate limits do not share buckets.
	Name   string
	Limit  int
	Window time.Duration
	// KeyFunc generates the rate limit key from request.
	// Default uses the caller, falling back to client IP.
	KeyFunc func(*gin.Context) string
	Logger  *zap.Logger
}

// RateLimit returns a middleware that limits requests using the given limiter.
// Limiter failures let the request through.
func RateLimit(limiter outbound.RateLimiterPort, cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = callerOrIP
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		if limiter == nil || cfg.Limit <= 0 {
			c.Next()
			return
		}

		key := "ratelimit:" + cfg.Name + ":" + cfg.KeyFunc(c)
		ctx := c.Request.Context()

		allowed, err := limiter.Allow(ctx, key, cfg.Limit, cfg.Window)
		if err != nil {
			cfg.Logger.Warn("rate limiter unavailable", zap.String("limit", cfg.Name), zap.Error(err))
			c.Next()
			return
		}

		if remaining, err := limiter.GetRemaining(ctx, key, cfg.Limit, cfg.Window); err == nil {
			c.Header(RateLimitRemaining, strconv.Itoa(remaining))
		}
		c.Header(RateLimitLimit, strconv.Itoa(cfg.Limit))

		if !allowed {
			c.Header(RetryAfter, strconv.Itoa(int(cfg.Window.Seconds())))
			abort(c, apperrors.RateLimited("too many requests, please try again later"))
			return
		}

		c.Next()
	}
}

func callerOrIP(c *gin.Context) string {
	if id := GetUserID(c); id != uuid.Nil {
		return "user:" + id.String()
	}
	return "ip:" + c.ClientIP()
}
