package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned for unknown email, missing hash, or
	// password mismatch. One error for all three so responses never reveal
	// whether an email exists.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountInactive is returned when the account is deactivated.
	ErrAccountInactive = errors.New("account is deactivated")
	// ErrUnauthenticated is returned when the session is missing, invalid
	// or expired.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the actor's role or ownership is
	// insufficient for the operation.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrNotFound is returned when the referenced entity does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrEmailTaken is returned when creating or updating a user with an
	// email already in use.
	ErrEmailTaken = errors.New("email already in use")
	// ErrInvalidStatus is returned when a status is outside the
	// application kind's closed set.
	ErrInvalidStatus = errors.New("invalid status for application kind")
	// ErrInvalidTransition is returned when a reviewer attempts a
	// transition off the guided chain.
	ErrInvalidTransition = errors.New("transition not allowed from current status")
	// ErrStaleStatus is returned when a transition loses an optimistic
	// concurrency race; the caller must re-fetch and retry.
	ErrStaleStatus = errors.New("application status changed concurrently")
	// ErrNoOpTransition is returned when newStatus equals the current
	// status and no notes are attached.
	ErrNoOpTransition = errors.New("application already in requested status")
	// ErrInvalidRole is returned when a role value is outside the defined set.
	ErrInvalidRole = errors.New("invalid role")
	// ErrLastSuperAdmin is returned when deactivating or demoting the sole
	// active super admin.
	ErrLastSuperAdmin = errors.New("cannot remove the last active super admin")
	// ErrSelfDeactivate is returned when an actor tries to deactivate
	// their own account.
	ErrSelfDeactivate = errors.New("cannot deactivate your own account")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Internal errors never
// leak their message to the client.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrAccountInactive):
		return NewHTTPError(http.StatusForbidden, err.Error(), "ACCOUNT_INACTIVE")
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrInvalidTransition):
		return NewHTTPError(http.StatusForbidden, err.Error(), "TRANSITION_NOT_ALLOWED")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, ErrEmailTaken):
		return NewHTTPError(http.StatusConflict, err.Error(), "EMAIL_TAKEN")
	case errors.Is(err, ErrStaleStatus):
		return NewHTTPError(http.StatusConflict, err.Error(), "STALE_STATUS")
	case errors.Is(err, ErrNoOpTransition):
		return NewHTTPError(http.StatusConflict, err.Error(), "NOOP_TRANSITION")
	case errors.Is(err, ErrLastSuperAdmin):
		return NewHTTPError(http.StatusConflict, err.Error(), "LAST_SUPER_ADMIN")
	case errors.Is(err, ErrSelfDeactivate):
		return NewHTTPError(http.StatusConflict, err.Error(), "SELF_DEACTIVATE")
	case errors.Is(err, ErrInvalidStatus):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_STATUS")
	case errors.Is(err, ErrInvalidRole):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_ROLE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
