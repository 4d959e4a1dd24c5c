package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrNotRegisteredMember is returned when a signed-in principal has no active membership.
	ErrNotRegisteredMember = errors.New("not a registered member")
	// ErrUnauthenticated is returned when no valid session resolves.
	ErrUnauthenticated = errors.New("not signed in")
	// ErrAuthFailed is returned when a login handshake cannot be completed.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrPrayerRequestNotFound is returned when a prayer request is missing or already removed.
	ErrPrayerRequestNotFound = errors.New("prayer request not found")
	// ErrNotRequestOwner is returned when a member tries to remove someone else's request.
	ErrNotRequestOwner = errors.New("only the author can remove this request")
	// ErrEmptyPrayerBody is returned when the request body is blank after trimming.
	ErrEmptyPrayerBody = errors.New("prayer request cannot be empty")
	// ErrPrayerBodyTooLong is returned when the request body exceeds the allowed length.
	ErrPrayerBodyTooLong = errors.New("prayer request is too long")
	// ErrInvalidVisibility is returned for an unknown visibility value.
	ErrInvalidVisibility = errors.New("invalid visibility")
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

// MapErrorToHTTP maps domain errors to HTTP errors. Wrapped errors are
// matched with errors.Is.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrAuthFailed):
		return NewHTTPError(http.StatusUnauthorized, ErrUnauthenticated.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrNotRegisteredMember):
		return NewHTTPError(http.StatusForbidden, err.Error(), "NOT_A_MEMBER")
	case errors.Is(err, ErrPrayerRequestNotFound):
		return NewHTTPError(http.StatusNotFound, ErrPrayerRequestNotFound.Error(), "PRAYER_REQUEST_NOT_FOUND")
	case errors.Is(err, ErrNotRequestOwner):
		return NewHTTPError(http.StatusForbidden, ErrNotRequestOwner.Error(), "NOT_REQUEST_OWNER")
	case errors.Is(err, ErrEmptyPrayerBody):
		return NewHTTPError(http.StatusBadRequest, ErrEmptyPrayerBody.Error(), "EMPTY_BODY")
	case errors.Is(err, ErrPrayerBodyTooLong):
		return NewHTTPError(http.StatusBadRequest, ErrPrayerBodyTooLong.Error(), "BODY_TOO_LONG")
	case errors.Is(err, ErrInvalidVisibility):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidVisibility.Error(), "INVALID_VISIBILITY")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
