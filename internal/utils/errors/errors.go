package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable error kinds surfaced to callers.
const (
	KindValidation      = "validation"
	KindPermission      = "permission_denied"
	KindNotFound        = "not_found"
	KindExpired         = "expired"
	KindAlreadyRedeemed = "already_redeemed"
	KindInvalidState    = "invalid_state"
	KindStaleState      = "stale_state"
	KindConfiguration   = "configuration"
	KindUnauthenticated = "unauthenticated"
	KindRateLimited     = "rate_limited"
	KindTimeout         = "timeout"
	KindInternal        = "internal"
)

// Base error sentinels, one per kind.
var (
	ErrValidation      = errors.New("validation failed")
	ErrPermission      = errors.New("permission denied")
	ErrNotFound        = errors.New("resource not found")
	ErrExpired         = errors.New("expired")
	ErrAlreadyRedeemed = errors.New("already redeemed")
	ErrInvalidState    = errors.New("invalid state")
	ErrStaleState      = errors.New("stale state")
	ErrConfiguration   = errors.New("configuration error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrRateLimited     = errors.New("rate limited")
	ErrTimeout         = errors.New("timeout")
	ErrInternal        = errors.New("internal error")
)

// AppError represents an application error with HTTP status and a stable kind code.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	StatusCode int            `json:"-"`
	Err        error          `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil && !isSentinel(e.Err) {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error.
// Two AppErrors match when they share a code and message; a base sentinel
// matches every AppError of its kind.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Code == t.Code && e.Message == t.Message
	}
	return errors.Is(e.Err, target)
}

// ErrorResponse represents the JSON error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ToResponse converts an AppError to ErrorResponse.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    e.Code,
			Message: e.Message,
			Details: e.Details,
		},
	}
}

// WithDetails returns a copy of the error carrying details.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithError returns a copy of the error wrapping err.
// The kind sentinel stays reachable through errors.Is.
func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = fmt.Errorf("%w: %w", sentinelFor(e.Code), err)
	return &cp
}

// NewAppError creates a new application error.
func NewAppError(code string, message string, statusCode int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// ValidationError creates a validation error for malformed input.
func ValidationError(message string) *AppError {
	return NewAppError(KindValidation, message, http.StatusBadRequest, ErrValidation)
}

// PermissionDenied creates a capability check failure.
func PermissionDenied(message string) *AppError {
	if message == "" {
		message = "permission denied"
	}
	return NewAppError(KindPermission, message, http.StatusForbidden, ErrPermission)
}

// NotFound creates a not found error.
func NotFound(resource string) *AppError {
	return NewAppError(KindNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, ErrNotFound)
}

// Expired creates an expiry error.
func Expired(message string) *AppError {
	return NewAppError(KindExpired, message, http.StatusGone, ErrExpired)
}

// AlreadyRedeemed creates an error for a single-use resource that was already consumed.
func AlreadyRedeemed(message string) *AppError {
	return NewAppError(KindAlreadyRedeemed, message, http.StatusConflict, ErrAlreadyRedeemed)
}

// InvalidState creates an error for a transition attempted from the wrong state.
func InvalidState(message string) *AppError {
	return NewAppError(KindInvalidState, message, http.StatusConflict, ErrInvalidState)
}

// StaleState creates an error for a lost compare-and-swap race.
func StaleState(message string) *AppError {
	return NewAppError(KindStaleState, message, http.StatusConflict, ErrStaleState)
}

// Configuration creates an error for inconsistent stored configuration.
func Configuration(message string) *AppError {
	return NewAppError(KindConfiguration, message, http.StatusUnprocessableEntity, ErrConfiguration)
}

// Unauthorized creates an unauthenticated error.
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(KindUnauthenticated, message, http.StatusUnauthorized, ErrUnauthenticated)
}

// RateLimited creates a rate limited error.
func RateLimited(message string) *AppError {
	if message == "" {
		message = "too many requests"
	}
	return NewAppError(KindRateLimited, message, http.StatusTooManyRequests, ErrRateLimited)
}

// Timeout creates a timeout error.
func Timeout(message string) *AppError {
	if message == "" {
		message = "operation timed out"
	}
	return NewAppError(KindTimeout, message, http.StatusGatewayTimeout, ErrTimeout)
}

// Internal creates an internal error. The message is what callers see; err is kept for logs.
func Internal(message string, err error) *AppError {
	if message == "" {
		message = "internal error"
	}
	if err == nil {
		err = ErrInternal
	}
	return NewAppError(KindInternal, message, http.StatusInternalServerError, err)
}

// Kind returns the stable kind string of err.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	for kind, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindInternal
}

// From converts any error into an AppError, hiding internal messages.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if kind := Kind(err); kind != KindInternal {
		return NewAppError(kind, sentinelFor(kind).Error(), statusFor(kind), err)
	}
	return Internal("internal error", err)
}

// GetStatusCode returns the appropriate HTTP status code for an error.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return statusFor(Kind(err))
}

var sentinels = map[string]error{
	KindValidation:      ErrValidation,
	KindPermission:      ErrPermission,
	KindNotFound:        ErrNotFound,
	KindExpired:         ErrExpired,
	KindAlreadyRedeemed: ErrAlreadyRedeemed,
	KindInvalidState:    ErrInvalidState,
	KindStaleState:      ErrStaleState,
	KindConfiguration:   ErrConfiguration,
	KindUnauthenticated: ErrUnauthenticated,
	KindRateLimited:     ErrRateLimited,
	KindTimeout:         ErrTimeout,
}

func sentinelFor(kind string) error {
	if s, ok := sentinels[kind]; ok {
		return s
	}
	return ErrInternal
}

func isSentinel(err error) bool {
	for _, s := range sentinels {
		if err == s {
			return true
		}
	}
	return err == ErrInternal
}

func statusFor(kind string) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindPermission:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindExpired:
		return http.StatusGone
	case KindAlreadyRedeemed, KindInvalidState, KindStaleState:
		return http.StatusConflict
	case KindConfiguration:
		return http.StatusUnprocessableEntity
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStaleState checks if the error reports a lost concurrency race.
func IsStaleState(err error) bool {
	return errors.Is(err, ErrStaleState)
}

// IsPermission checks if the error is a capability check failure.
func IsPermission(err error) bool {
	return errors.Is(err, ErrPermission)
}
