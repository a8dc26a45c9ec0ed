package approval

import apperrors "github.com/approvenow/server/internal/utils/errors"

// Domain errors.
var (
	ErrRequestNotFound     = apperrors.NotFound("request")
	ErrTitleRequired       = apperrors.ValidationError("title is required")
	ErrNoApprovalSteps     = apperrors.ValidationError("request has no approval steps")
	ErrEmptyStep           = apperrors.ValidationError("every approval step needs at least one approver")
	ErrTooManySteps        = apperrors.ValidationError("too many approval steps")
	ErrTooManyApprovers    = apperrors.ValidationError("too many approvers in one step")
	ErrInvalidVerdict      = apperrors.ValidationError("decision must be approve or reject")
	ErrLevelRequired       = apperrors.ValidationError("decision level is required")
	ErrInvalidStatusFilter = apperrors.ValidationError("unknown request status")
	ErrNotDraft            = apperrors.InvalidState("only draft requests can be submitted")
	ErrRequestClosed       = apperrors.InvalidState("request is already closed")
	ErrRequestNotSubmitted = apperrors.InvalidState("request has not been submitted")
	ErrNotApprover         = apperrors.PermissionDenied("not an approver at the current level")
	ErrNotSubmitter        = apperrors.PermissionDenied("only the author can submit this request")
	ErrStaleDecision       = apperrors.StaleState("request was already decided at this level")
	ErrStaleSubmission     = apperrors.StaleState("request was already submitted")
)

// ErrLevelMismatch is returned when a decision names a level the request has not reached.
var ErrLevelMismatch = apperrors.InvalidState("decision level does not match the current level")
