package approval

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/approvenow/server/internal/model"
)

// Env carries what a transition needs besides the request itself.
type Env struct {
	Now           time.Time
	WorkspaceName string
	BaseURL       string
}

// Decision is an approver's verdict on the current level.
type Decision struct {
	Actor   uuid.UUID
	Verdict model.Verdict
	Reason  string
}

// Transition is the outcome of applying a command to a request.
// Before and After never alias each other.
type Transition struct {
	Before   *model.Request
	After    *model.Request
	Decision *model.RequestDecision
	Intent   *model.NotificationIntent
}

// ValidateSteps checks that every level has at least one approver.
func ValidateSteps(steps []model.ApprovalStep, maxSteps, maxApprovers int) error {
	if len(steps) == 0 {
		return ErrNoApprovalSteps
	}
	if maxSteps > 0 && len(steps) > maxSteps {
		return ErrTooManySteps
	}
	for _, s := range steps {
		if len(uniqueApprovers(s.Approvers)) == 0 {
			return ErrEmptyStep
		}
		if maxApprovers > 0 && len(s.Approvers) > maxApprovers {
			return ErrTooManyApprovers
		}
	}
	return nil
}

// Submit moves a draft into review at level 1.
func Submit(req *model.Request, actorID uuid.UUID, env Env) (*Transition, error) {
	if req.Status != model.RequestStatusDraft {
		return nil, ErrNotDraft
	}
	if req.SubmittedBy != actorID {
		return nil, ErrNotSubmitter
	}
	if err := ValidateSteps(req.ApprovalSteps, 0, 0); err != nil {
		return nil, err
	}

	next := req.Clone()
	next.Status = model.RequestStatusPendingApproval
	next.CurrentLevel = 1
	now := env.Now
	next.SubmittedAt = &now
	next.UpdatedAt = now

	intent, err := IntentForUpdate(req, next, env)
	if err != nil {
		return nil, err
	}
	return &Transition{Before: req.Clone(), After: next, Intent: intent}, nil
}

// Decide applies an approver's verdict to the current level.
//
// Rejection at any level closes the request and leaves currentLevel where it
// was. Approval advances one level; approving the last level closes the
// request as approved with currentLevel one past the last step.
func Decide(req *model.Request, d Decision, env Env) (*Transition, error) {
	switch {
	case req.Status.IsTerminal():
		return nil, ErrRequestClosed
	case req.Status == model.RequestStatusDraft:
		return nil, ErrRequestNotSubmitted
	}
	if !d.Verdict.IsValid() {
		return nil, ErrInvalidVerdict
	}

	ok, err := IsApprover(req, d.Actor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotApprover
	}

	now := env.Now
	next := req.Clone()
	next.UpdatedAt = now

	decision := &model.RequestDecision{
		ID:         uuid.New(),
		RequestID:  req.ID,
		Level:      req.CurrentLevel,
		ApproverID: d.Actor,
		Verdict:    d.Verdict,
		Reason:     strings.TrimSpace(d.Reason),
		DecidedAt:  now,
	}

	if d.Verdict == model.VerdictReject {
		next.Status = model.RequestStatusRejected
		next.RejectionReason = decision.Reason
		next.CompletedAt = &now
	} else {
		next.CurrentLevel = req.CurrentLevel + 1
		if req.CurrentLevel >= len(req.ApprovalSteps) {
			next.Status = model.RequestStatusApproved
			next.CompletedAt = &now
		}
	}

	intent, err := IntentForUpdate(req, next, env)
	if err != nil {
		return nil, err
	}
	return &Transition{Before: req.Clone(), After: next, Decision: decision, Intent: intent}, nil
}

// IntentForUpdate derives the notification for a stored change from before to
// after. It returns nil when nobody needs to hear about the change.
func IntentForUpdate(before, after *model.Request, env Env) (*model.NotificationIntent, error) {
	if after == nil {
		return nil, nil
	}
	if before != nil && before.Status == after.Status && before.CurrentLevel == after.CurrentLevel {
		return nil, nil
	}

	data := requestData(after, env)
	intent := &model.NotificationIntent{
		Key:  model.RequestIntentKey(after.ID, after.Status, after.CurrentLevel),
		Data: data,
	}

	switch after.Status {
	case model.RequestStatusPendingApproval:
		approvers, err := ResolveApprovers(after)
		if err != nil {
			return nil, err
		}
		intent.Kind = model.NotificationApprovalRequest
		intent.To = userRecipients(approvers)
	case model.RequestStatusApproved:
		intent.Kind = model.NotificationApprovalCompleted
		intent.To = userRecipients([]uuid.UUID{after.SubmittedBy})
	case model.RequestStatusRejected:
		intent.Kind = model.NotificationRequestRejected
		intent.To = userRecipients([]uuid.UUID{after.SubmittedBy})
		data["reason"] = after.RejectionReason
	default:
		return nil, nil
	}

	if len(intent.To) == 0 {
		return nil, nil
	}
	return intent, nil
}

// RequestLink returns the web link to a request.
func RequestLink(baseURL string, req *model.Request) string {
	return fmt.Sprintf("%s/workspaces/%s/requests/%s", strings.TrimRight(baseURL, "/"), req.WorkspaceID, req.ID)
}

func requestData(req *model.Request, env Env) map[string]string {
	return map[string]string{
		"requestId":     req.ID.String(),
		"requestTitle":  req.Title,
		"workspaceId":   req.WorkspaceID.String(),
		"workspaceName": env.WorkspaceName,
		"level":         strconv.Itoa(req.CurrentLevel),
		"totalLevels":   strconv.Itoa(len(req.ApprovalSteps)),
		"requestLink":   RequestLink(env.BaseURL, req),
	}
}

func userRecipients(ids []uuid.UUID) []model.Recipient {
	out := make([]model.Recipient, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		out = append(out, model.Recipient{UserID: id})
	}
	return out
}
