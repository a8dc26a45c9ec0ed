package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/approvenow/server/internal/utils/errors"
	"github.com/approvenow/server/internal/utils/requestctx"
)

// Recovery turns a panicking handler into a 500 envelope and logs the
// stack with the request's correlation fields.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			fields := append(requestctx.Fields(c.Request.Context()),
				zap.Any("panic", rec),
				zap.String("route", c.FullPath()),
				zap.Stack("stack"),
			)
			log.Error("panic recovered", fields...)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			abort(c, apperrors.Internal("internal server error", nil))
		}()
		c.Next()
	}
}
