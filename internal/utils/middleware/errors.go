package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/approvenow/server/internal/utils/errors"
)

// abort stops the chain and writes err in the standard error envelope.
func abort(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.StatusCode, err.ToResponse())
}
