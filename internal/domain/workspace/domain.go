package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/approvenow/server/internal/domain/access"
	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/inbound"
	"github.com/approvenow/server/internal/port/outbound"
	apperrors "github.com/approvenow/server/internal/utils/errors"
	"github.com/approvenow/server/internal/utils/requestctx"
)

// Domain implements workspace and membership operations.
type Domain struct {
	workspaces outbound.WorkspaceDatabasePort
	members    outbound.MemberDatabasePort
	users      outbound.UserDirectoryPort
	guard      *access.Guard
	txPort     outbound.TransactionPort
	cfg        *Config
	now        func() time.Time
	logger     *zap.Logger
}

// NewDomain creates a new workspace domain.
func NewDomain(
	workspaces outbound.WorkspaceDatabasePort,
	members outbound.MemberDatabasePort,
	users outbound.UserDirectoryPort,
	guard *access.Guard,
	txPort outbound.TransactionPort,
	cfg *Config,
	logger *zap.Logger,
) *Domain {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	_ = cfg.Validate()
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Domain{
		workspaces: workspaces,
		members:    members,
		users:      users,
		guard:      guard,
		txPort:     txPort,
		cfg:        cfg,
		now:        time.Now,
		logger:     logger,
	}
}

var _ inbound.WorkspaceDomain = (*Domain)(nil)

// CreateWorkspace creates a workspace owned by the caller.
func (d *Domain) CreateWorkspace(ctx context.Context, caller requestctx.Caller, in *inbound.CreateWorkspaceInput) (*inbound.WorkspaceOutput, error) {
	if in == nil || strings.TrimSpace(in.Name) == "" {
		return nil, ErrNameRequired
	}
	if caller.UserID == uuid.Nil {
		return nil, apperrors.Unauthorized("")
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	now := d.now()
	ws := &model.Workspace{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(in.Name),
		CreatedBy: caller.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := d.txPort.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := d.users.Upsert(txCtx, &model.User{
			ID:          caller.UserID,
			Email:       strings.ToLower(strings.TrimSpace(caller.Email)),
			DisplayName: caller.DisplayName,
			CreatedAt:   now,
			UpdatedAt:   now,
		}); err != nil {
			return err
		}

		if err := d.workspaces.Create(txCtx, ws); err != nil {
			return err
		}

		return d.members.Upsert(txCtx, &model.Member{
			WorkspaceID: ws.ID,
			UserID:      caller.UserID,
			Role:        model.RoleOwner,
			JoinedAt:    now,
			UpdatedAt:   now,
		})
	})
	if err != nil {
		return nil, storeErr("create workspace", err)
	}

	d.logger.Info("workspace created",
		append(requestctx.Fields(ctx),
			zap.String("workspace_id", ws.ID.String()),
			zap.String("name", ws.Name),
		)...,
	)
	return d.toOutput(ws, model.RoleOwner), nil
}

// GetWorkspace returns a workspace as seen by the actor.
func (d *Domain) GetWorkspace(ctx context.Context, actorID, workspaceID uuid.UUID) (*inbound.WorkspaceOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	member, _, err := d.guard.Membership(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}

	ws, err := d.workspaces.FindByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, outbound.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, storeErr("find workspace", err)
	}
	return d.toOutput(ws, member.Role), nil
}

// ListMyWorkspaces lists the workspaces the actor belongs to.
func (d *Domain) ListMyWorkspaces(ctx context.Context, actorID uuid.UUID, page model.PaginationRequest) ([]*model.Workspace, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	page.Normalize()
	list, err := d.workspaces.FindByUser(ctx, actorID, page.Limit, page.Offset)
	if err != nil {
		return nil, storeErr("list workspaces", err)
	}
	return list, nil
}

// ListMembers lists the members of a workspace.
func (d *Domain) ListMembers(ctx context.Context, actorID, workspaceID uuid.UUID) ([]*model.MemberWithUser, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	if _, err := d.guard.Require(ctx, workspaceID, actorID, access.CapViewRequests); err != nil {
		return nil, err
	}

	members, err := d.members.FindByWorkspaceWithUsers(ctx, workspaceID)
	if err != nil {
		return nil, storeErr("list members", err)
	}
	return members, nil
}

// Capabilities returns the capability tags the actor holds in the workspace.
func (d *Domain) Capabilities(ctx context.Context, actorID, workspaceID uuid.UUID) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	_, caps, err := d.guard.Membership(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}
	return caps.Strings(), nil
}

// UpdateMemberRole changes a member's role.
// The actor must be able to grant both the member's current role and the new one,
// and the workspace must keep at least one owner.
func (d *Domain) UpdateMemberRole(ctx context.Context, actorID, workspaceID, userID uuid.UUID, role model.Role) (*model.Member, error) {
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	actor, err := d.guard.Require(ctx, workspaceID, actorID, access.CapManageMembers)
	if err != nil {
		return nil, err
	}

	var target *model.Member
	err = d.txPort.RunInTransaction(ctx, func(txCtx context.Context) error {
		owners, err := d.members.LockOwners(txCtx, workspaceID)
		if err != nil {
			return err
		}

		target, err = d.findMember(txCtx, workspaceID, userID)
		if err != nil {
			return err
		}
		if !access.CanAssign(actor.Role, target.Role) || !access.CanAssign(actor.Role, role) {
			return ErrRoleNotAssignable
		}
		if target.Role == role {
			return nil
		}
		if target.Role == model.RoleOwner && len(owners) <= 1 {
			return ErrLastOwner
		}

		if err := d.members.UpdateRole(txCtx, workspaceID, userID, role); err != nil {
			return err
		}
		target.Role = role
		target.UpdatedAt = d.now()
		return nil
	})
	if err != nil {
		return nil, domainErr("update member role", err)
	}

	d.logger.Info("member role updated",
		append(requestctx.Fields(ctx),
			zap.String("workspace_id", workspaceID.String()),
			zap.String("user_id", userID.String()),
			zap.String("role", string(role)),
		)...,
	)
	return target, nil
}

// RemoveMember removes a member. Members may always remove themselves;
// removing someone else requires manage_members and the right to grant
// their role. The last owner cannot leave.
func (d *Domain) RemoveMember(ctx context.Context, actorID, workspaceID, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	var actor *model.Member
	var err error
	if actorID == userID {
		actor, _, err = d.guard.Membership(ctx, workspaceID, actorID)
	} else {
		actor, err = d.guard.Require(ctx, workspaceID, actorID, access.CapManageMembers)
	}
	if err != nil {
		return err
	}

	err = d.txPort.RunInTransaction(ctx, func(txCtx context.Context) error {
		owners, err := d.members.LockOwners(txCtx, workspaceID)
		if err != nil {
			return err
		}

		target, err := d.findMember(txCtx, workspaceID, userID)
		if err != nil {
			return err
		}
		if actorID != userID && !access.CanAssign(actor.Role, target.Role) {
			return ErrRoleNotAssignable
		}
		if target.Role == model.RoleOwner && len(owners) <= 1 {
			return ErrLastOwner
		}
		return d.members.Remove(txCtx, workspaceID, userID)
	})
	if err != nil {
		return domainErr("remove member", err)
	}

	d.logger.Info("member removed",
		append(requestctx.Fields(ctx),
			zap.String("workspace_id", workspaceID.String()),
			zap.String("user_id", userID.String()),
		)...,
	)
	return nil
}

func (d *Domain) findMember(ctx context.Context, workspaceID, userID uuid.UUID) (*model.Member, error) {
	m, err := d.members.Find(ctx, workspaceID, userID)
	if errors.Is(err, outbound.ErrRecordNotFound) {
		return nil, ErrMemberNotFound
	}
	return m, err
}

func (d *Domain) toOutput(ws *model.Workspace, role model.Role) *inbound.WorkspaceOutput {
	return &inbound.WorkspaceOutput{
		ID:           ws.ID,
		Name:         ws.Name,
		CreatedBy:    ws.CreatedBy,
		MyRole:       role,
		Capabilities: d.guard.Registry().Resolve(role).Strings(),
		CreatedAt:    ws.CreatedAt,
		UpdatedAt:    ws.UpdatedAt,
	}
}

// domainErr passes domain errors through and wraps store failures.
func domainErr(op string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return storeErr(op, err)
}

func storeErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout(op + " timed out")
	}
	return fmt.Errorf("%s: %w", op, err)
}
