// Package requestctx carries per-request values across layers that do not see gin.Context.
package requestctx

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	callerKey
)

// Caller is the authenticated identity behind a request.
type Caller struct {
	UserID      uuid.UUID
	Email       string
	DisplayName string
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(requestIDKey).(string); ok {
		return s
	}
	return ""
}

func WithCaller(ctx context.Context, caller Caller) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFrom returns the caller stored in ctx, if any.
func CallerFrom(ctx context.Context) (Caller, bool) {
	if ctx == nil {
		return Caller{}, false
	}
	c, ok := ctx.Value(callerKey).(Caller)
	return c, ok && c.UserID != uuid.Nil
}

// Fields returns zap fields identifying the request for log correlation.
func Fields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if id := RequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if c, ok := CallerFrom(ctx); ok {
		fields = append(fields, zap.String("caller_id", c.UserID.String()))
	}
	return fields
}
