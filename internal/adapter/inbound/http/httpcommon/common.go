// Package httpcommon holds helpers shared by the HTTP handlers.
package httpcommon

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/approvenow/server/internal/utils/errors"
	"github.com/approvenow/server/internal/utils/middleware"
	"github.com/approvenow/server/internal/utils/pagination"
	"github.com/approvenow/server/internal/utils/requestctx"
)

// ListResponse wraps one page of items.
type ListResponse[T any] struct {
	Items []T                 `json:"items"`
	Page  pagination.PageInfo `json:"page"`
}

// NewListResponse builds a list response, rendering nil as an empty array.
func NewListResponse[T any](items []T, q pagination.Query) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Page: q.Info(len(items))}
}

// UserID returns the authenticated user ID, writing 401 when absent.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		WriteError(c, nil, apperrors.Unauthorized(""))
		return uuid.Nil, false
	}
	return userID, true
}

// Caller returns the authenticated caller, writing 401 when absent.
func Caller(c *gin.Context) (requestctx.Caller, bool) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		WriteError(c, nil, apperrors.Unauthorized(""))
		return requestctx.Caller{}, false
	}
	return caller, true
}

// ParamUUID parses a UUID path parameter, writing 400 when malformed.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		WriteError(c, nil, apperrors.ValidationError("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON binds the request body, writing 400 on failure.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		WriteError(c, nil, apperrors.ValidationError(err.Error()))
		return false
	}
	return true
}

// Page binds page and page_size query parameters.
func Page(c *gin.Context) (pagination.Query, bool) {
	var q pagination.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		WriteError(c, nil, apperrors.ValidationError(err.Error()))
		return q, false
	}
	return q, true
}

// WriteError writes err in the standard envelope. Internal failures are
// logged with their cause and reported without it.
func WriteError(c *gin.Context, log *zap.Logger, err error) {
	appErr := apperrors.From(err)
	if appErr.StatusCode >= http.StatusInternalServerError && log != nil {
		log.Error("request failed",
			append(requestctx.Fields(c.Request.Context()),
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)...,
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.StatusCode, appErr.ToResponse())
}
