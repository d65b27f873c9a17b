package domain

import (
	"errors"
	"net/http"
)

// -----------------------------------------------------------------------------
// Domain Errors
// Every request-level failure maps onto one of these sentinels. Callers wrap
// them with fmt.Errorf("...: %w", err) and the API layer maps them onto HTTP
// status codes with StatusCode.
// -----------------------------------------------------------------------------

// Authentication errors
var (
	ErrUnauthenticated   = errors.New("unauthorized access")
	ErrForbidden         = errors.New("forbidden access")
	ErrOwnershipMismatch = errors.New("email is required and must match the token email")
)

// Request errors
var (
	ErrValidation = errors.New("validation failed")
	ErrInvalidID  = errors.New("invalid document id")
)

// Storage errors
var (
	ErrNotFound = errors.New("not found")
)

// Collaborator errors (document store, completion service)
var (
	ErrUpstream = errors.New("upstream failure")
)

// StatusCode maps a domain error onto the HTTP status the API responds with.
// Unknown errors are treated as upstream failures.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrOwnershipMismatch),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
