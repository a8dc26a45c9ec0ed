package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/utils/requestctx"
)

// --- Request/Response Types ---

// CreateWorkspaceInput represents a request to create a workspace.
type CreateWorkspaceInput struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// UpdateMemberRoleInput represents a request to change a member's role.
type UpdateMemberRoleInput struct {
	Role model.Role `json:"role" binding:"required"`
}

// WorkspaceOutput represents a workspace as seen by one member.
type WorkspaceOutput struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	CreatedBy    uuid.UUID  `json:"created_by"`
	MyRole       model.Role `json:"my_role"`
	Capabilities []string   `json:"capabilities"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// --- Domain Interface ---

// WorkspaceDomain defines workspace and membership operations.
type WorkspaceDomain interface {
	CreateWorkspace(ctx context.Context, caller requestctx.Caller, in *CreateWorkspaceInput) (*WorkspaceOutput, error)
	GetWorkspace(ctx context.Context, actorID, workspaceID uuid.UUID) (*WorkspaceOutput, error)
	ListMyWorkspaces(ctx context.Context, actorID uuid.UUID, page model.PaginationRequest) ([]*model.Workspace, error)
	ListMembers(ctx context.Context, actorID, workspaceID uuid.UUID) ([]*model.MemberWithUser, error)
	UpdateMemberRole(ctx context.Context, actorID, workspaceID, userID uuid.UUID, role model.Role) (*model.Member, error)
	RemoveMember(ctx context.Context, actorID, workspaceID, userID uuid.UUID) error

	// Capabilities returns the capability tags the actor holds in the workspace.
	Capabilities(ctx context.Context, actorID, workspaceID uuid.UUID) ([]string, error)
}
