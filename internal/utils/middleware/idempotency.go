package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/approvenow/server/internal/utils/errors"
)

const (
	// IdempotencyKeyHeader is the header for idempotency key.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayHeader marks a response served from the cache.
	IdempotentReplayHeader = "Idempotent-Replay"

	idempotencyKeyPrefix  = "idempotency:"
	defaultIdempotencyTTL = 24 * time.Hour
	idempotencyLockTTL    = 30 * time.Second
)

// IdempotencyConfig holds idempotency middleware configuration.
type IdempotencyConfig struct {
	TTL    time.Duration
	Logger *zap.Logger
}

type idempotencyResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type idempotencyResponseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response of a mutating request sent again
// with the same Idempotency-Key, caller and body. Requests without the header
// pass through. A nil client disables the middleware.
func Idempotency(redis goredis.UniversalClient, cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultIdempotencyTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		if redis == nil || !isMutating(c.Request.Method) {
			c.Next()
			return
		}
		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey, err := cacheKeyFor(c, idempotencyKey)
		if err != nil {
			abort(c, apperrors.ValidationError("unreadable request body"))
			return
		}

		if cached, err := getCachedResponse(ctx, redis, cacheKey); err == nil {
			c.Header(IdempotentReplayHeader, "true")
			c.Data(cached.StatusCode, cached.ContentType, cached.Body)
			c.Abort()
			return
		}

		lockKey := cacheKey + ":lock"
		locked, err := redis.SetNX(ctx, lockKey, "1", idempotencyLockTTL).Result()
		if err != nil {
			cfg.Logger.Warn("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !locked {
			abort(c, apperrors.NewAppError("request_in_progress",
				"a request with this idempotency key is already being processed",
				http.StatusConflict, apperrors.ErrStaleState))
			return
		}
		defer redis.Del(context.WithoutCancel(ctx), lockKey)

		w := &idempotencyResponseWriter{ResponseWriter: c.Writer, body: bytes.NewBuffer(nil)}
		c.Writer = w

		c.Next()

		// 5xx responses are not stored so the client may retry.
		if status := w.Status(); status < 500 {
			resp := &idempotencyResponse{
				StatusCode:  status,
				ContentType: w.Header().Get("Content-Type"),
				Body:        w.body.Bytes(),
			}
			if err := cacheResponse(context.WithoutCancel(ctx), redis, cacheKey, resp, cfg.TTL); err != nil {
				cfg.Logger.Warn("failed to store idempotent response", zap.Error(err))
			}
		}
	}
}

func isMutating(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch || method == http.MethodDelete
}

// cacheKeyFor scopes the key to method, route, caller and body.
func cacheKeyFor(c *gin.Context, idempotencyKey string) (string, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	h := sha256.New()
	h.Write([]byte(c.Request.Method + ":" + c.FullPath() + ":" + c.Request.URL.Path + ":" + GetUserID(c).String() + ":" + idempotencyKey + ":"))
	h.Write(body)
	return idempotencyKeyPrefix + hex.EncodeToString(h.Sum(nil)), nil
}

func getCachedResponse(ctx context.Context, redis goredis.UniversalClient, key string) (*idempotencyResponse, error) {
	data, err := redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var resp idempotencyResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func cacheResponse(ctx context.Context, redis goredis.UniversalClient, key string, resp *idempotencyResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return redis.Set(ctx, key, data, ttl).Err()
}
