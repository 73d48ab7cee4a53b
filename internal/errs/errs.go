// internal/errs/errs.go
package errs

import (
	"errors"
	"net/http"
)

// Sentinel errors for the core taxonomy. Callers wrap these with
// fmt.Errorf("...: %w", ...) so every failure keeps a distinct message
// while remaining matchable with errors.Is.
var (
	// ErrValidation marks bad input, e.g. a negative quantity.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks a use-or-lose race, e.g. a second active session.
	ErrConflict = errors.New("conflict")

	// ErrNotFound marks an unknown identifier.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState marks an operation illegal for the current status,
	// e.g. submitting an entry to a completed session.
	ErrInvalidState = errors.New("invalid state")
)

// HTTPStatus maps a core error to its HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the machine-readable error code used in API responses.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	default:
		return "internal_error"
	}
}
