package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/outbound"
)

// RequestAdapter implements outbound.RequestDatabasePort.
type RequestAdapter struct {
	db *gorm.DB
}

// NewRequestAdapter creates a new request adapter.
func NewRequestAdapter(db *gorm.DB) *RequestAdapter {
	return &RequestAdapter{db: db}
}

func (a *RequestAdapter) Create(ctx context.Context, req *model.Request) error {
	return translate(conn(ctx, a.db).Omit(clause.Associations).Create(req).Error)
}

func (a *RequestAdapter) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := conn(ctx, a.db).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (a *RequestAdapter) FindByWorkspace(ctx context.Context, workspaceID uuid.UUID, status *model.RequestStatus, limit, offset int) ([]*model.Request, error) {
	if limit <= 0 {
		limit = 20
	}

	query := conn(ctx, a.db).Where("workspace_id = ?", workspaceID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var reqs []*model.Request
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

// CompareAndSwap writes the lifecycle columns of next only if the stored row
// still has expectedStatus and expectedLevel.
func (a *RequestAdapter) CompareAndSwap(ctx context.Context, expectedStatus model.RequestStatus, expectedLevel int, next *model.Request) error {
	result := conn(ctx, a.db).
		Model(&model.Request{}).
		Where("id = ? AND status = ? AND current_level = ?", next.ID, expectedStatus, expectedLevel).
		Updates(map[string]any{
			"status":           next.Status,
			"current_level":    next.CurrentLevel,
			"submitted_at":     next.SubmittedAt,
			"completed_at":     next.CompletedAt,
			"rejection_reason": next.RejectionReason,
			"updated_at":       next.UpdatedAt,
		})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return outbound.ErrConflict
	}
	return nil
}

func (a *RequestAdapter) RecordDecision(ctx context.Context, decision *model.RequestDecision) error {
	return translate(conn(ctx, a.db).Create(decision).Error)
}

func (a *RequestAdapter) FindDecision(ctx context.Context, requestID uuid.UUID, level int) (*model.RequestDecision, error) {
	var dec model.RequestDecision
	err := conn(ctx, a.db).
		Where("request_id = ? AND level = ?", requestID, level).
		First(&dec).Error
	if err != nil {
		return nil, translate(err)
	}
	return &dec, nil
}

func (a *RequestAdapter) FindDecisions(ctx context.Context, requestID uuid.UUID) ([]*model.RequestDecision, error) {
	var decisions []*model.RequestDecision
	err := conn(ctx, a.db).
		Where("request_id = ?", requestID).
		Order("level ASC").
		Find(&decisions).Error
	if err != nil {
		return nil, err
	}
	return decisions, nil
}

// RecordNotification leaves updated_at alone; the annotation is not a change
// of the request.
func (a *RequestAdapter) RecordNotification(ctx context.Context, id uuid.UUID, at time.Time, errMsg string) error {
	return conn(ctx, a.db).
		Model(&model.Request{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"notified_at":        at,
			"notification_error": errMsg,
		}).Error
}

func (a *RequestAdapter) FindUnnotified(ctx context.Context, limit int) ([]*model.Request, error) {
	var reqs []*model.Request
	err := conn(ctx, a.db).
		Where("status <> ? AND (notified_at IS NULL OR notified_at < updated_at)", model.RequestStatusDraft).
		Order("updated_at ASC").
		Limit(limit).
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

var _ outbound.RequestDatabasePort = (*RequestAdapter)(nil)
