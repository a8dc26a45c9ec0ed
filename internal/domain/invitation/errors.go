package invitation

import apperrors "github.com/approvenow/server/internal/utils/errors"

// Domain errors.
var (
	ErrInvitationNotFound        = apperrors.NotFound("invitation")
	ErrInvitationExpired         = apperrors.Expired("invitation has expired")
	ErrInvitationAlreadyRedeemed = apperrors.AlreadyRedeemed("invitation has already been used")
	ErrInvitationNotPending      = apperrors.InvalidState("invitation is no longer pending")
	ErrPendingInvitationExists   = apperrors.InvalidState("a pending invitation already exists for this email")
	ErrInvalidEmail              = apperrors.ValidationError("a valid email is required")
	ErrInvalidRole               = apperrors.ValidationError("unknown role")
	ErrInvalidAction             = apperrors.ValidationError("action must be accept or reject")
	ErrTokenRequired             = apperrors.ValidationError("token is required")
	ErrInvalidStatusFilter       = apperrors.ValidationError("unknown invitation status")
	ErrRoleNotAssignable         = apperrors.PermissionDenied("your role cannot grant this role")
	ErrNotForCaller              = apperrors.PermissionDenied("this invitation was sent to a different email")
	ErrSignInRequired            = apperrors.Unauthorized("sign in to accept this invitation")
)
