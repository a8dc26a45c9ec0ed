package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/approvenow/server/internal/port/outbound"
	apperrors "github.com/approvenow/server/internal/utils/errors"
	"github.com/approvenow/server/internal/utils/requestctx"
)

const (
	// AuthorizationHeader is the header key for authorization.
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens.
	BearerPrefix = "Bearer "
	// InternalTokenHeader carries the shared secret of internal callers.
	InternalTokenHeader = "X-Internal-Token"
	// UserIDKey is the context key for user ID.
	UserIDKey = "user_id"
	// EmailKey is the context key for email.
	EmailKey = "email"
)

// Auth returns a middleware that validates bearer tokens.
// A valid token stores the caller on both gin.Context and the request context.
// If optional is true, the middleware does not abort on missing or invalid tokens.
func Auth(validator outbound.TokenValidatorPort, optional bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			if !optional {
				abort(c, apperrors.Unauthorized("authorization header required"))
				return
			}
			c.Next()
			return
		}

		claims, err := validator.ValidateAccessToken(token)
		if err != nil {
			if !optional {
				abort(c, apperrors.Unauthorized("invalid or expired token"))
				return
			}
			c.Next()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)
		c.Request = c.Request.WithContext(requestctx.WithCaller(c.Request.Context(), requestctx.Caller{
			UserID:      claims.UserID,
			Email:       claims.Email,
			DisplayName: claims.Name,
		}))

		c.Next()
	}
}

// RequireAuth returns a middleware that requires a valid token.
func RequireAuth(validator outbound.TokenValidatorPort) gin.HandlerFunc {
	return Auth(validator, false)
}

// OptionalAuth returns a middleware that optionally validates tokens.
func OptionalAuth(validator outbound.TokenValidatorPort) gin.HandlerFunc {
	return Auth(validator, true)
}

// RequireInternalToken guards endpoints called by the scheduler and database hooks.
// An empty secret rejects every request.
func RequireInternalToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(InternalTokenHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			abort(c, apperrors.Unauthorized("internal token required"))
			return
		}
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if strings.HasPrefix(authHeader, BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
	}
	return ""
}

// GetUserID returns the user ID from context.
// Returns uuid.Nil if not found.
func GetUserID(c *gin.Context) uuid.UUID {
	if val, exists := c.Get(UserIDKey); exists {
		if userID, ok := val.(uuid.UUID); ok {
			return userID
		}
	}
	return uuid.Nil
}

// GetCaller returns the authenticated caller, if any.
func GetCaller(c *gin.Context) (requestctx.Caller, bool) {
	return requestctx.CallerFrom(c.Request.Context())
}

// IsAuthenticated returns true if the user is authenticated.
func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != uuid.Nil
}
