package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/outbound"
)

// UserDirectoryAdapter implements outbound.UserDirectoryPort.
type UserDirectoryAdapter struct {
	db *gorm.DB
}

// NewUserDirectoryAdapter creates a new user directory adapter.
func NewUserDirectoryAdapter(db *gorm.DB) *UserDirectoryAdapter {
	return &UserDirectoryAdapter{db: db}
}

func (a *UserDirectoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	if err := conn(ctx, a.db).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (a *UserDirectoryAdapter) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}
	var users []*model.User
	if err := conn(ctx, a.db).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Upsert records the latest email and display name. An empty display name
// does not overwrite a known one.
func (a *UserDirectoryAdapter) Upsert(ctx context.Context, u *model.User) error {
	return translate(conn(ctx, a.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"email":        u.Email,
				"display_name": gorm.Expr("COALESCE(NULLIF(?, ''), users.display_name)", u.DisplayName),
				"updated_at":   u.UpdatedAt,
			}),
		}).
		Create(u).Error)
}

var _ outbound.UserDirectoryPort = (*UserDirectoryAdapter)(nil)
