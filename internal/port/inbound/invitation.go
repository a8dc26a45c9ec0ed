package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/utils/requestctx"
)

// --- Request/Response Types ---

// CreateInvitationInput represents a request to invite someone.
type CreateInvitationInput struct {
	Email string     `json:"email" binding:"required,email"`
	Role  model.Role `json:"role" binding:"required"`
}

// RedeemInvitationInput represents an invitee's answer.
type RedeemInvitationInput struct {
	Token  string             `json:"token" binding:"required"`
	Action model.RedeemAction `json:"action" binding:"required"`
}

// RedeemOutput is the result of a redemption.
type RedeemOutput struct {
	Invitation *model.Invitation `json:"invitation"`
	Member     *model.Member     `json:"member,omitempty"`
}

// InvitationPreview is what the invite landing page shows before redemption.
type InvitationPreview struct {
	InvitationID  uuid.UUID              `json:"invitation_id"`
	WorkspaceID   uuid.UUID              `json:"workspace_id"`
	WorkspaceName string                 `json:"workspace_name"`
	Email         string                 `json:"email"`
	Role          model.Role             `json:"role"`
	Permissions   []string               `json:"permissions"`
	InviterName   string                 `json:"inviter_name"`
	Status        model.InvitationStatus `json:"status"`
	ExpiresAt     time.Time              `json:"expires_at"`
}

// --- Domain Interface ---

// InvitationDomain defines invitation lifecycle operations.
type InvitationDomain interface {
	Create(ctx context.Context, actorID, workspaceID uuid.UUID, in *CreateInvitationInput) (*model.Invitation, error)
	Resend(ctx context.Context, actorID, workspaceID, invitationID uuid.UUID) (*model.Invitation, error)
	Redeem(ctx context.Context, caller requestctx.Caller, in *RedeemInvitationInput) (*RedeemOutput, error)
	Preview(ctx context.Context, token string) (*InvitationPreview, error)
	List(ctx context.Context, actorID, workspaceID uuid.UUID, status *model.InvitationStatus, page model.PaginationRequest) ([]*model.Invitation, error)

	// Sweep expires stale pending invitations and returns how many changed.
	Sweep(ctx context.Context) (int64, error)

	// HandleInvitationCreated reacts to a store-level invitation insert.
	HandleInvitationCreated(ctx context.Context, snapshot *model.Invitation) error
}
