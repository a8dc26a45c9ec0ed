package workspace

import apperrors "github.com/approvenow/server/internal/utils/errors"

// Domain errors.
var (
	ErrWorkspaceNotFound = apperrors.NotFound("workspace")
	ErrMemberNotFound    = apperrors.NotFound("member")
	ErrNameRequired      = apperrors.ValidationError("workspace name is required")
	ErrInvalidRole       = apperrors.ValidationError("unknown role")
	ErrRoleNotAssignable = apperrors.PermissionDenied("your role cannot grant this role")
	ErrLastOwner         = apperrors.InvalidState("a workspace must keep at least one owner")
)
