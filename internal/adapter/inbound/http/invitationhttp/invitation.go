package invitationhttp

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/approvenow/server/internal/adapter/inbound/http/httpcommon"
	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/inbound"
	apperrors "github.com/approvenow/server/internal/utils/errors"
	"github.com/approvenow/server/internal/utils/middleware"
	"github.com/approvenow/server/internal/utils/requestctx"
)

// InvitationHandler handles invitation HTTP requests.
type InvitationHandler struct {
	domain inbound.InvitationDomain
	logger *zap.Logger
}

// NewInvitationHandler creates a new invitation handler.
func NewInvitationHandler(domain inbound.InvitationDomain, logger *zap.Logger) *InvitationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvitationHandler{domain: domain, logger: logger}
}

// RegisterRoutes registers the member-facing invitation routes.
func (h *InvitationHandler) RegisterRoutes(r *gin.RouterGroup) {
	invitations := r.Group("/workspaces/:id/invitations")
	{
		invitations.POST("", h.CreateInvitation)
		invitations.GET("", h.ListInvitations)
	}
}

// RegisterCallableRoutes registers the routes that answer in the callable
// envelope. They must sit behind optional auth: the handler reports a missing
// caller itself so the envelope stays the same for every failure.
func (h *InvitationHandler) RegisterCallableRoutes(r *gin.RouterGroup) {
	r.POST("/workspaces/:id/invitations/:invitationId/resend", h.ResendInvitation)
}

// RegisterPublicRoutes registers the invitee-facing routes. Redeem runs
// behind the given middleware (rate limiting, idempotency).
func (h *InvitationHandler) RegisterPublicRoutes(r *gin.RouterGroup, redeemMiddleware ...gin.HandlerFunc) {
	invitations := r.Group("/invitations")
	{
		invitations.GET("/preview", h.PreviewInvitation)
		invitations.POST("/redeem", append(redeemMiddleware, h.RedeemInvitation)...)
	}
}

// CreateInvitation handles POST /workspaces/:id/invitations.
func (h *InvitationHandler) CreateInvitation(c *gin.Context) {
	userID, ok := httpcommon.UserID(c)
	if !ok {
		return
	}
	workspaceID, ok := httpcommon.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req inbound.CreateInvitationInput
	if !httpcommon.BindJSON(c, &req) {
		return
	}

	inv, err := h.domain.Create(c.Request.Context(), userID, workspaceID, &req)
	if err != nil {
		httpcommon.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// ListInvitations handles GET /workspaces/:id/invitations.
func (h *InvitationHandler) ListInvitations(c *gin.Context) {
	userID, ok := httpcommon.UserID(c)
	if !ok {
		return
	}
	workspaceID, ok := httpcommon.ParamUUID(c, "id")
	if !ok {
		return
	}
	page, ok := httpcommon.Page(c)
	if !ok {
		return
	}

	var status *model.InvitationStatus
	if s := c.Query("status"); s != "" {
		st := model.InvitationStatus(s)
		switch st {
		case model.InvitationStatusPending, model.InvitationStatusAccepted,
			model.InvitationStatusRejected, model.InvitationStatusExpired:
			status = &st
		default:
			httpcommon.WriteError(c, nil, apperrors.ValidationError("unknown status "+s))
			return
		}
	}

	list, err := h.domain.List(c.Request.Context(), userID, workspaceID, status, page.Request())
	if err != nil {
		httpcommon.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, httpcommon.NewListResponse(list, page))
}

// ResendInvitation handles POST /workspaces/:id/invitations/:invitationId/resend.
// Errors use the callable envelope.
func (h *InvitationHandler) ResendInvitation(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		h.writeCallableError(c, apperrors.Unauthorized(""))
		return
	}
	workspaceID, err1 := uuid.Parse(c.Param("id"))
	invitationID, err2 := uuid.Parse(c.Param("invitationId"))
	if err1 != nil || err2 != nil {
		h.writeCallableError(c, apperrors.ValidationError("invitation id is required"))
		return
	}

	inv, err := h.domain.Resend(c.Request.Context(), userID, workspaceID, invitationID)
	if err != nil {
		h.writeCallableError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": gin.H{"success": true, "invitation": inv}})
}

// PreviewInvitation handles GET /invitations/preview?token=.
func (h *InvitationHandler) PreviewInvitation(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		httpcommon.WriteError(c, nil, apperrors.ValidationError("token is required"))
		return
	}

	preview, err := h.domain.Preview(c.Request.Context(), token)
	if err != nil {
		httpcommon.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// RedeemInvitation handles POST /invitations/redeem.
// Rejecting works without signing in; accepting requires a caller.
func (h *InvitationHandler) RedeemInvitation(c *gin.Context) {
	var req inbound.RedeemInvitationInput
	if !httpcommon.BindJSON(c, &req) {
		return
	}

	caller, _ := middleware.GetCaller(c)
	out, err := h.domain.Redeem(c.Request.Context(), caller, &req)
	if err != nil {
		httpcommon.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Callable status codes.
const (
	CallableUnauthenticated  = "unauthenticated"
	CallableInvalidArgument  = "invalid-argument"
	CallableNotFound         = "not-found"
	CallablePermissionDenied = "permission-denied"
	CallableInternal         = "internal"
)

// CallableStatus maps an error to its callable status and HTTP code.
func CallableStatus(err error) (string, int) {
	switch apperrors.Kind(err) {
	case apperrors.KindUnauthenticated:
		return CallableUnauthenticated, http.StatusUnauthorized
	case apperrors.KindValidation, apperrors.KindInvalidState:
		return CallableInvalidArgument, http.StatusBadRequest
	case apperrors.KindNotFound:
		return CallableNotFound, http.StatusNotFound
	case apperrors.KindPermission:
		return CallablePermissionDenied, http.StatusForbidden
	default:
		return CallableInternal, http.StatusInternalServerError
	}
}

func (h *InvitationHandler) writeCallableError(c *gin.Context, err error) {
	status, code := CallableStatus(err)
	message := apperrors.From(err).Message
	if status == CallableInternal {
		h.logger.Error("resend invitation failed",
			append(requestctx.Fields(c.Request.Context()), zap.Error(err))...,
		)
		message = "failed to resend invitation"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(code, gin.H{"error": gin.H{"status": status, "message": message}})
}
