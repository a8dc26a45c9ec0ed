package outbound

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTClaims represents the identity asserted by an access token.
type JWTClaims struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

// TokenValidatorPort validates access tokens minted by the identity provider.
type TokenValidatorPort interface {
	ValidateAccessToken(token string) (*JWTClaims, error)
}

// RateLimiterPort defines rate limiting operations.
type RateLimiterPort interface {
	// Allow checks if a request is allowed under the rate limit.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// GetRemaining returns the remaining requests in the current window.
	GetRemaining(ctx context.Context, key string, limit int, window time.Duration) (int, error)
}
