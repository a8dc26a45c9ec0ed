package approvalhttp

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/approvenow/server/internal/adapter/inbound/http/httpcommon"
	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/inbound"
	apperrors "github.com/approvenow/server/internal/utils/errors"
)

// RequestHandler handles approval request HTTP requests.
type RequestHandler struct {
	domain inbound.ApprovalDomain
	logger *zap.Logger
}

// NewRequestHandler creates a new approval request handler.
func NewRequestHandler(domain inbound.ApprovalDomain, logger *zap.Logger) *RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestHandler{domain: domain, logger: logger}
}

// RegisterRoutes registers approval request routes.
func (h *RequestHandler) RegisterRoutes(r *gin.RouterGroup) {
	requests := r.Group("/workspaces/:id/requests")
	{
		requests.POST("", h.CreateRequest)
		requests.GET("", h.ListRequests)
		requests.GET("/:requestId", h.GetRequest)
		requests.GET("/:requestId/approvers", h.GetApprovers)
		requests.POST("/:requestId/submit", h.SubmitRequest)
		requests.POST("/:requestId/decisions", h.RecordDecision)
	}
}

// CreateRequest handles POST /workspaces/:id/requests.
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	userID, workspaceID, ok := h.scope(c)
	if !ok {
		return
	}

	var req inbound.CreateRequestInput
	if !httpcommon.BindJSON(c, &req) {
		return
	}

	created, err := h.domain.CreateRequest(c.Request.Context(), userID, workspaceID, &req)
	if err != nil {
		httpcommon.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListRequests handles GET /workspaces/:id/requests.
func (h *RequestHandler) ListRequests(c *gin.Context) {
	userID, workspaceID, ok := h.scope(c)
	if !ok {
		return
	}
	page, ok := httpcommon.Page(c)
	if !ok {
		return
	}

	var status *model.RequestStatus
	if s := c.Query("status"); s != "" {
		st := model.RequestStatus(s)
		if !st.IsValid() {
			httpcommon.WriteError(c, nil, apperrors.ValidationError("unknown status "+s))
			return
		}
		status = &st
	}

	list, err := h.domain.ListRequests(c.Request.Context(), userID, workspaceID, status, page.Request())
	if err != nil {
		httpcommon.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, httpcommon.NewListResponse(list, page))
}

// GetRequest handles GET /workspaces/:id/requests/:requestId.
func (h *RequestHandler) GetRequest(c *gin.Context) {
	userID, workspaceID, requestID, ok := h.requestScope(c)
	if !ok {
		return
	}

	req, err := h.domain.GetRequest(c.Request.Context(), userID, workspaceID, requestID)
	if err != nil {
		httpcommon.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// GetApprovers handles GET /workspaces/:id/requests/:requestId/approvers.
func (h *RequestHandler) GetApprovers(c *gin.Context) {
	userID, workspaceID, requestID, ok := h.requestScope(c)
	if !ok {
		return
	}

	out, err := h.domain.Approvers(c.Request.Context(), userID, workspaceID, requestID)
	if err != nil {
		httpcommon.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// SubmitRequest handles POST /workspaces/:id/requests/:requestId/submit.
func (h *RequestHandler) SubmitRequest(c *gin.Context) {
	userID, workspaceID, requestID, ok := h.requestScope(c)
	if !ok {
		return
	}

	req, err := h.domain.SubmitRequest(c.Request.Context(), userID, workspaceID, requestID)
	if err != nil {
		httpcommon.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// RecordDecision handles POST /workspaces/:id/requests/:requestId/decisions.
// A replayed decision answers 200 instead of 201.
func (h *RequestHandler) RecordDecision(c *gin.Context) {
	userID, workspaceID, requestID, ok := h.requestScope(c)
	if !ok {
		return
	}

	var req inbound.DecisionInput
	if !httpcommon.BindJSON(c, &req) {
		return
	}

	out, err := h.domain.RecordDecision(c.Request.Context(), userID, workspaceID, requestID, &req)
	if err != nil {
		httpcommon.WriteError(c, h.logger, err)
		return
	}

	status := http.StatusCreated
	if out.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, out)
}

func (h *RequestHandler) scope(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := httpcommon.UserID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	workspaceID, ok := httpcommon.ParamUUID(c, "id")
	return userID, workspaceID, ok
}

func (h *RequestHandler) requestScope(c *gin.Context) (uuid.UUID, uuid.UUID, uuid.UUID, bool) {
	userID, workspaceID, ok := h.scope(c)
	if !ok {
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	requestID, ok := httpcommon.ParamUUID(c, "requestId")
	return userID, workspaceID, requestID, ok
}
