package outbound

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/approvenow/server/internal/model"
)

// InvitationDatabasePort defines invitation persistence operations.
type InvitationDatabasePort interface {
	// Create creates a new invitation.
	Create(ctx context.Context, invitation *model.Invitation) error

	// FindByID retrieves an invitation by ID.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invitation, error)

	// FindByToken retrieves an invitation by token.
	FindByToken(ctx context.Context, token string) (*model.Invitation, error)

	// FindPendingByEmail returns the pending invitation for an email, or nil.
	FindPendingByEmail(ctx context.Context, workspaceID uuid.UUID, email string) (*model.Invitation, error)

	// FindByWorkspace lists invitations of a workspace, newest first.
	FindByWorkspace(ctx context.Context, workspaceID uuid.UUID, status *model.InvitationStatus, limit, offset int) ([]*model.Invitation, error)

	// Transition moves a pending invitation to status.
	// Returns ErrConflict if it is no longer pending.
	Transition(ctx context.Context, id uuid.UUID, status model.InvitationStatus, redeemedBy *uuid.UUID, at time.Time) error

	// MarkResent sets resent_at on a pending invitation.
	// Returns ErrConflict if it is no longer pending.
	MarkResent(ctx context.Context, id uuid.UUID, at time.Time) error

	// RecordDelivery annotates the invitation with a delivery outcome.
	RecordDelivery(ctx context.Context, id uuid.UUID, sent bool, at time.Time, errMsg string) error

	// ExpirePending expires every pending invitation created at or before cutoff
	// in one statement and returns the number of rows changed.
	ExpirePending(ctx context.Context, cutoff, at time.Time) (int64, error)

	// FindUndelivered lists pending invitations with no recorded delivery
	// attempt, oldest first.
	FindUndelivered(ctx context.Context, limit int) ([]*model.Invitation, error)
}
