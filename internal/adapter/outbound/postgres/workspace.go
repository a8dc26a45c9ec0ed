package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/outbound"
)

// ========== Workspace Adapter ==========

// WorkspaceAdapter implements outbound.WorkspaceDatabasePort.
type WorkspaceAdapter struct {
	db *gorm.DB
}

// NewWorkspaceAdapter creates a new workspace adapter.
func NewWorkspaceAdapter(db *gorm.DB) *WorkspaceAdapter {
	return &WorkspaceAdapter{db: db}
}

func (a *WorkspaceAdapter) Create(ctx context.Context, ws *model.Workspace) error {
	return translate(conn(ctx, a.db).Omit(clause.Associations).Create(ws).Error)
}

func (a *WorkspaceAdapter) FindByID(ctx context.Context, id uuid.UUID) (*model.Workspace, error) {
	var ws model.Workspace
	if err := conn(ctx, a.db).Where("id = ?", id).First(&ws).Error; err != nil {
		return nil, translate(err)
	}
	return &ws, nil
}

func (a *WorkspaceAdapter) FindByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*model.Workspace, error) {
	if limit <= 0 {
		limit = 20
	}

	var list []*model.Workspace
	err := conn(ctx, a.db).
		Joins("JOIN workspace_members ON workspace_members.workspace_id = workspaces.id").
		Where("workspace_members.user_id = ?", userID).
		Order("workspaces.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ========== Member Adapter ==========

// MemberAdapter implements outbound.MemberDatabasePort.
type MemberAdapter struct {
	db *gorm.DB
}

// NewMemberAdapter creates a new member adapter.
func NewMemberAdapter(db *gorm.DB) *MemberAdapter {
	return &MemberAdapter{db: db}
}

func (a *MemberAdapter) Upsert(ctx context.Context, member *model.Member) error {
	return translate(conn(ctx, a.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).
		Create(member).Error)
}

func (a *MemberAdapter) Find(ctx context.Context, workspaceID, userID uuid.UUID) (*model.Member, error) {
	var member model.Member
	err := conn(ctx, a.db).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&member).Error
	if err != nil {
		return nil, translate(err)
	}
	return &member, nil
}

func (a *MemberAdapter) FindByWorkspaceWithUsers(ctx context.Context, workspaceID uuid.UUID) ([]*model.MemberWithUser, error) {
	var members []*model.MemberWithUser
	err := conn(ctx, a.db).
		Table("workspace_members").
		Select("workspace_members.*, users.email, users.display_name").
		Joins("LEFT JOIN users ON users.id = workspace_members.user_id").
		Where("workspace_members.workspace_id = ?", workspaceID).
		Order("workspace_members.joined_at ASC").
		Scan(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (a *MemberAdapter) UpdateRole(ctx context.Context, workspaceID, userID uuid.UUID, role model.Role) error {
	result := conn(ctx, a.db).
		Model(&model.Member{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Updates(map[string]any{"role": role, "updated_at": gorm.Expr("NOW()")})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return outbound.ErrRecordNotFound
	}
	return nil
}

func (a *MemberAdapter) Remove(ctx context.Context, workspaceID, userID uuid.UUID) error {
	result := conn(ctx, a.db).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Delete(&model.Member{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return outbound.ErrRecordNotFound
	}
	return nil
}

// LockOwners selects the owner rows FOR UPDATE so concurrent role changes
// serialize on them until the transaction ends.
func (a *MemberAdapter) LockOwners(ctx context.Context, workspaceID uuid.UUID) ([]uuid.UUID, error) {
	var owners []model.Member
	err := conn(ctx, a.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("workspace_id = ? AND role = ?", workspaceID, model.RoleOwner).
		Find(&owners).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(owners))
	for _, m := range owners {
		ids = append(ids, m.UserID)
	}
	return ids, nil
}

// Compile-time interface checks
var (
	_ outbound.WorkspaceDatabasePort = (*WorkspaceAdapter)(nil)
	_ outbound.MemberDatabasePort    = (*MemberAdapter)(nil)
)
