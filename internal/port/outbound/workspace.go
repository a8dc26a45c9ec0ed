package outbound

import (
	"context"

	"github.com/google/uuid"

	"github.com/approvenow/server/internal/model"
)

// WorkspaceDatabasePort defines workspace persistence operations.
type WorkspaceDatabasePort interface {
	// Create creates a new workspace.
	Create(ctx context.Context, ws *model.Workspace) error

	// FindByID retrieves a workspace by ID.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Workspace, error)

	// FindByUser lists the workspaces a user belongs to.
	FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*model.Workspace, error)
}

// MemberDatabasePort defines workspace member persistence operations.
type MemberDatabasePort interface {
	// Upsert inserts the member or updates the role of an existing one.
	Upsert(ctx context.Context, member *model.Member) error

	// Find retrieves a member.
	Find(ctx context.Context, workspaceID, userID uuid.UUID) (*model.Member, error)

	// FindByWorkspaceWithUsers lists all members with user details.
	FindByWorkspaceWithUsers(ctx context.Context, workspaceID uuid.UUID) ([]*model.MemberWithUser, error)

	// UpdateRole updates a member's role.
	UpdateRole(ctx context.Context, workspaceID, userID uuid.UUID, role model.Role) error

	// Remove removes a member from a workspace.
	Remove(ctx context.Context, workspaceID, userID uuid.UUID) error

	// LockOwners returns the owners of a workspace, locking their rows until the
	// surrounding transaction ends.
	LockOwners(ctx context.Context, workspaceID uuid.UUID) ([]uuid.UUID, error)
}

// UserDirectoryPort looks up the users mirrored from the identity provider.
type UserDirectoryPort interface {
	// FindByID retrieves a user by ID.
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// FindByIDs retrieves the users that exist among ids.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.User, error)

	// Upsert records the latest email and display name for a user.
	Upsert(ctx context.Context, user *model.User) error
}
