package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/outbound"
)

// InvitationAdapter implements outbound.InvitationDatabasePort.
type InvitationAdapter struct {
	db *gorm.DB
}

// NewInvitationAdapter creates a new invitation adapter.
func NewInvitationAdapter(db *gorm.DB) *InvitationAdapter {
	return &InvitationAdapter{db: db}
}

func (a *InvitationAdapter) Create(ctx context.Context, inv *model.Invitation) error {
	return translate(conn(ctx, a.db).Create(inv).Error)
}

func (a *InvitationAdapter) FindByID(ctx context.Context, id uuid.UUID) (*model.Invitation, error) {
	var inv model.Invitation
	if err := conn(ctx, a.db).Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (a *InvitationAdapter) FindByToken(ctx context.Context, token string) (*model.Invitation, error) {
	var inv model.Invitation
	if err := conn(ctx, a.db).Where("token = ?", token).First(&inv).Error; err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (a *InvitationAdapter) FindPendingByEmail(ctx context.Context, workspaceID uuid.UUID, email string) (*model.Invitation, error) {
	var inv model.Invitation
	err := conn(ctx, a.db).
		Where("workspace_id = ? AND email = ? AND status = ?", workspaceID, email, model.InvitationStatusPending).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (a *InvitationAdapter) FindByWorkspace(ctx context.Context, workspaceID uuid.UUID, status *model.InvitationStatus, limit, offset int) ([]*model.Invitation, error) {
	if limit <= 0 {
		limit = 20
	}

	query := conn(ctx, a.db).Where("workspace_id = ?", workspaceID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var invs []*model.Invitation
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&invs).Error
	if err != nil {
		return nil, err
	}
	return invs, nil
}

func (a *InvitationAdapter) Transition(ctx context.Context, id uuid.UUID, status model.InvitationStatus, redeemedBy *uuid.UUID, at time.Time) error {
	updates := map[string]any{
		"status":     status,
		"updated_at": at,
	}
	if status == model.InvitationStatusExpired {
		updates["expired_at"] = at
	} else {
		updates["redeemed_at"] = at
		updates["redeemed_by"] = redeemedBy
	}
	return a.updatePending(ctx, id, updates)
}

func (a *InvitationAdapter) MarkResent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return a.updatePending(ctx, id, map[string]any{
		"resent_at":  at,
		"updated_at": at,
	})
}

func (a *InvitationAdapter) RecordDelivery(ctx context.Context, id uuid.UUID, sent bool, at time.Time, errMsg string) error {
	updates := map[string]any{
		"email_sent":  sent,
		"email_error": errMsg,
	}
	if sent {
		updates["email_sent_at"] = at
	}
	return conn(ctx, a.db).
		Model(&model.Invitation{}).
		Where("id = ?", id).
		UpdateColumns(updates).Error
}

// ExpirePending expires stale pending invitations in a single statement.
func (a *InvitationAdapter) ExpirePending(ctx context.Context, cutoff, at time.Time) (int64, error) {
	result := conn(ctx, a.db).
		Model(&model.Invitation{}).
		Where("status = ? AND created_at <= ?", model.InvitationStatusPending, cutoff).
		Updates(map[string]any{
			"status":     model.InvitationStatusExpired,
			"expired_at": at,
			"updated_at": at,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (a *InvitationAdapter) FindUndelivered(ctx context.Context, limit int) ([]*model.Invitation, error) {
	var invs []*model.Invitation
	err := conn(ctx, a.db).
		Where("status = ? AND email_sent IS NULL", model.InvitationStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&invs).Error
	if err != nil {
		return nil, err
	}
	return invs, nil
}

// updatePending applies updates only while the invitation is pending.
func (a *InvitationAdapter) updatePending(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := conn(ctx, a.db).
		Model(&model.Invitation{}).
		Where("id = ? AND status = ?", id, model.InvitationStatusPending).
		Updates(updates)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := conn(ctx, a.db).Model(&model.Invitation{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return outbound.ErrRecordNotFound
	}
	return outbound.ErrConflict
}

var _ outbound.InvitationDatabasePort = (*InvitationAdapter)(nil)
