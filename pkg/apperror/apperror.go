package apperror

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation marks missing or malformed input. Nothing was mutated.
	ErrValidation = errors.New("validation error")
	// ErrAuthentication marks a credential mismatch. Nothing was mutated.
	ErrAuthentication = errors.New("authentication error")
	// ErrNotFound marks an unknown, expired or deleted entity.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a state transition that already happened, e.g. a redeemed token.
	ErrConflict = errors.New("conflict")
	// ErrPersistence marks a failed registry write; the whole operation was rolled back
	// and may be retried.
	ErrPersistence = errors.New("persistence error")
)

// HTTPStatus maps an error chain to the status code reported to callers.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the caller may safely repeat the operation.
func Retryable(err error) bool {
	return errors.Is(err, ErrPersistence)
}
