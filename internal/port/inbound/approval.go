package inbound

import (
	"context"

	"github.com/google/uuid"

	"github.com/approvenow/server/internal/model"
)

// --- Request/Response Types ---

// ApprovalStepInput configures the approvers of one level.
type ApprovalStepInput struct {
	Approvers []uuid.UUID `json:"approvers"`
}

// CreateRequestInput represents a request to create a draft approval request.
type CreateRequestInput struct {
	Title         string              `json:"title" binding:"required,min=1,max=200"`
	Description   string              `json:"description" binding:"max=5000"`
	TemplateName  string              `json:"template_name" binding:"max=100"`
	ApprovalSteps []ApprovalStepInput `json:"approval_steps"`
}

// DecisionInput represents an approver's decision.
// Level is the level the approver is deciding on. It keys the decision, so a
// retry after the level already moved on is answered from the recorded one.
type DecisionInput struct {
	Decision model.Verdict `json:"decision" binding:"required"`
	Reason   string        `json:"reason" binding:"max=1000"`
	Level    int           `json:"level" binding:"required,min=1"`
}

// DecisionOutput is the result of recording a decision.
type DecisionOutput struct {
	Request  *model.Request         `json:"request"`
	Decision *model.RequestDecision `json:"decision"`
	// Replayed is true when the same decision had already been recorded.
	Replayed bool `json:"replayed"`
}

// ApproversOutput lists who may act on a request next.
type ApproversOutput struct {
	RequestID    uuid.UUID           `json:"request_id"`
	Status       model.RequestStatus `json:"status"`
	CurrentLevel int                 `json:"current_level"`
	Approvers    []uuid.UUID         `json:"approvers"`
}

// --- Domain Interface ---

// ApprovalDomain defines approval request operations.
type ApprovalDomain interface {
	CreateRequest(ctx context.Context, actorID, workspaceID uuid.UUID, in *CreateRequestInput) (*model.Request, error)
	GetRequest(ctx context.Context, actorID, workspaceID, requestID uuid.UUID) (*model.Request, error)
	ListRequests(ctx context.Context, actorID, workspaceID uuid.UUID, status *model.RequestStatus, page model.PaginationRequest) ([]*model.Request, error)
	Approvers(ctx context.Context, actorID, workspaceID, requestID uuid.UUID) (*ApproversOutput, error)
	SubmitRequest(ctx context.Context, actorID, workspaceID, requestID uuid.UUID) (*model.Request, error)
	RecordDecision(ctx context.Context, actorID, workspaceID, requestID uuid.UUID, in *DecisionInput) (*DecisionOutput, error)

	// HandleRequestUpdated reacts to a store-level request change.
	HandleRequestUpdated(ctx context.Context, before, after *model.Request) error
}
