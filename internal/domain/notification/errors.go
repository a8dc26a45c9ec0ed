package notification

import apperrors "github.com/approvenow/server/internal/utils/errors"

// ErrNoRecipients is returned when no recipient of an intent has an address.
var ErrNoRecipients = apperrors.ValidationError("notification has no deliverable recipients")
