// Package internalhttp serves the endpoints called by the scheduler and by
// database hooks rather than by users.
package internalhttp

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/approvenow/server/internal/adapter/inbound/http/httpcommon"
	"github.com/approvenow/server/internal/infra/events"
	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/inbound"
	apperrors "github.com/approvenow/server/internal/utils/errors"
)

// Publisher is the part of the event bus the trigger endpoints need.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Handler serves /internal routes.
type Handler struct {
	invitations inbound.InvitationDomain
	bus         Publisher
	logger      *zap.Logger
}

// NewHandler creates a new internal handler.
func NewHandler(invitations inbound.InvitationDomain, bus Publisher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{invitations: invitations, bus: bus, logger: logger.Named("internal")}
}

// RegisterRoutes registers the internal routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/jobs/sweep-invitations", h.SweepInvitations)
	r.POST("/triggers/invitations", h.InvitationCreated)
	r.POST("/triggers/requests", h.RequestUpdated)
}

// SweepInvitations handles POST /internal/jobs/sweep-invitations.
func (h *Handler) SweepInvitations(c *gin.Context) {
	cleaned, err := h.invitations.Sweep(c.Request.Context())
	if err != nil {
		httpcommon.WriteError(c, h.logger, err)
		return
	}
	h.logger.Info("sweep requested", zap.Int64("cleaned", cleaned))
	c.JSON(http.StatusOK, gin.H{"cleaned": cleaned})
}

// InvitationCreatedInput is the snapshot of an inserted invitation row.
type InvitationCreatedInput struct {
	Invitation *model.Invitation `json:"invitation" binding:"required"`
}

// InvitationCreated handles POST /internal/triggers/invitations.
func (h *Handler) InvitationCreated(c *gin.Context) {
	var req InvitationCreatedInput
	if !httpcommon.BindJSON(c, &req) {
		return
	}
	h.publish(c, events.NewInvitationCreated(req.Invitation))
}

// RequestUpdatedInput carries the row before and after an update.
type RequestUpdatedInput struct {
	Before *model.Request `json:"before"`
	After  *model.Request `json:"after" binding:"required"`
}

// RequestUpdated handles POST /internal/triggers/requests.
func (h *Handler) RequestUpdated(c *gin.Context) {
	var req RequestUpdatedInput
	if !httpcommon.BindJSON(c, &req) {
		return
	}
	if req.Before != nil && req.Before.ID != req.After.ID {
		httpcommon.WriteError(c, nil, apperrors.ValidationError("before and after describe different requests"))
		return
	}
	h.publish(c, events.NewRequestUpdated(req.Before, req.After))
}

// publish answers 202 on success. A handler failure is a 500 so the hook redelivers.
func (h *Handler) publish(c *gin.Context, event events.Event) {
	if err := h.bus.Publish(c.Request.Context(), event); err != nil {
		httpcommon.WriteError(c, h.logger, apperrors.Internal("trigger handling failed", err))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"event_id": event.EventID()})
}
