package workspacehttp

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/approvenow/server/internal/adapter/inbound/http/httpcommon"
	"github.com/approvenow/server/internal/port/inbound"
)

// WorkspaceHandler handles workspace and membership HTTP requests.
type WorkspaceHandler struct {
	domain inbound.WorkspaceDomain
	logger *zap.Logger
}

// NewWorkspaceHandler creates a new workspace handler.
func NewWorkspaceHandler(domain inbound.WorkspaceDomain, logger *zap.Logger) *WorkspaceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkspaceHandler{domain: domain, logger: logger}
}

// RegisterRoutes registers workspace routes.
func (h *WorkspaceHandler) RegisterRoutes(r *gin.RouterGroup) {
	workspaces := r.Group("/workspaces")
	{
		workspaces.POST("", h.CreateWorkspace)
		workspaces.GET("", h.ListWorkspaces)
		workspaces.GET("/:id", h.GetWorkspace)
		workspaces.GET("/:id/capabilities", h.GetCapabilities)
		workspaces.GET("/:id/members", h.ListMembers)
		workspaces.PATCH("/:id/members/:userId", h.UpdateMemberRole)
		workspaces.DELETE("/:id/members/:userId", h.RemoveMember)
	}
}

// CreateWorkspace handles POST /workspaces.
func (h *WorkspaceHandler) CreateWorkspace(c *gin.Context) {
	caller, ok := httpcommon.Caller(c)
	if !ok {
		return
	}

	var req inbound.CreateWorkspaceInput
	if !httpcommon.BindJSON(c, &req) {
		return
	}

	ws, err := h.domain.CreateWorkspace(c.Request.Context(), caller, &req)
	if err != nil {
		httpcommon.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, ws)
}

// ListWorkspaces handles GET /workspaces.
func (h *WorkspaceHandler) ListWorkspaces(c *gin.Context) {
	userID, ok := httpcommon.UserID(c)
	if !ok {
		return
	}
	page, ok := httpcommon.Page(c)
	if !ok {
		return
	}

	list, err := h.domain.ListMyWorkspaces(c.Request.Context(), userID, page.Request())
	if err != nil {
		httpcommon.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, httpcommon.NewListResponse(list, page))
}

// GetWorkspace handles GET /workspaces/:id.
func (h *WorkspaceHandler) GetWorkspace(c *gin.Context) {
	userID, ok := httpcommon.UserID(c)
	if !ok {
		return
	}
	workspaceID, ok := httpcommon.ParamUUID(c, "id")
	if !ok {
		return
	}

	ws, err := h.domain.GetWorkspace(c.Request.Context(), userID, workspaceID)
	if err != nil {
		httpcommon.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

// GetCapabilities handles GET /workspaces/:id/capabilities.
func (h *WorkspaceHandler) GetCapabilities(c *gin.Context) {
	userID, ok := httpcommon.UserID(c)
	if !ok {
		return
	}
	workspaceID, ok := httpcommon.ParamUUID(c, "id")
	if !ok {
		return
	}

	caps, err := h.domain.Capabilities(c.Request.Context(), userID, workspaceID)
	if err != nil {
		httpcommon.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"capabilities": caps})
}

// ListMembers handles GET /workspaces/:id/members.
func (h *WorkspaceHandler) ListMembers(c *gin.Context) {
	userID, ok := httpcommon.UserID(c)
	if !ok {
		return
	}
	workspaceID, ok := httpcommon.ParamUUID(c, "id")
	if !ok {
		return
	}

	members, err := h.domain.ListMembers(c.Request.Context(), userID, workspaceID)
	if err != nil {
		httpcommon.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// UpdateMemberRole handles PATCH /workspaces/:id/members/:userId.
func (h *WorkspaceHandler) UpdateMemberRole(c *gin.Context) {
	actorID, ok := httpcommon.UserID(c)
	if !ok {
		return
	}
	workspaceID, ok := httpcommon.ParamUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := httpcommon.ParamUUID(c, "userId")
	if !ok {
		return
	}

	var req inbound.UpdateMemberRoleInput
	if !httpcommon.BindJSON(c, &req) {
		return
	}

	member, err := h.domain.UpdateMemberRole(c.Request.Context(), actorID, workspaceID, userID, req.Role)
	if err != nil {
		httpcommon.WriteError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// RemoveMember handles DELETE /workspaces/:id/members/:userId.
func (h *WorkspaceHandler) RemoveMember(c *gin.Context) {
	actorID, ok := httpcommon.UserID(c)
	if !ok {
		return
	}
	workspaceID, ok := httpcommon.ParamUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := httpcommon.ParamUUID(c, "userId")
	if !ok {
		return
	}

	if err := h.domain.RemoveMember(c.Request.Context(), actorID, workspaceID, userID); err != nil {
		httpcommon.WriteError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
