package outbound

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/approvenow/server/internal/model"
)

// RequestDatabasePort defines approval request persistence operations.
type RequestDatabasePort interface {
	// Create creates a new request.
	Create(ctx context.Context, req *model.Request) error

	// FindByID retrieves a request by ID, without decisions.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error)

	// FindByWorkspace lists requests of a workspace, newest first.
	FindByWorkspace(ctx context.Context, workspaceID uuid.UUID, status *model.RequestStatus, limit, offset int) ([]*model.Request, error)

	// CompareAndSwap writes next only if the stored request still has the given
	// status and current level. Returns ErrConflict when it does not.
	CompareAndSwap(ctx context.Context, expectedStatus model.RequestStatus, expectedLevel int, next *model.Request) error

	// RecordDecision stores the decision for a level.
	// Returns ErrConflict if the level already has one.
	RecordDecision(ctx context.Context, decision *model.RequestDecision) error

	// FindDecision retrieves the decision recorded for a level.
	FindDecision(ctx context.Context, requestID uuid.UUID, level int) (*model.RequestDecision, error)

	// FindDecisions lists all decisions of a request by level.
	FindDecisions(ctx context.Context, requestID uuid.UUID) ([]*model.RequestDecision, error)

	// RecordNotification annotates the request with the last delivery outcome.
	RecordNotification(ctx context.Context, id uuid.UUID, at time.Time, errMsg string) error

	// FindUnnotified lists submitted requests changed since their last
	// notification attempt, oldest change first.
	FindUnnotified(ctx context.Context, limit int) ([]*model.Request, error)
}
