package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/concordsrs/concord-api/internal/domain/fsrs"
	"github.com/concordsrs/concord-api/internal/service/auth"
	"github.com/concordsrs/concord-api/internal/service/review"
	"github.com/concordsrs/concord-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	// Not found errors. Ownership failures deliberately map here too.
	case errors.Is(err, review.ErrConceptNotFound),
		errors.Is(err, review.ErrPhrasingNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, review.ErrInvalidCursor),
		errors.Is(err, review.ErrInvalidQueueRequest),
		errors.Is(err, review.ErrInvalidPostpone):
		return http.StatusBadRequest

	// A stored card state the scheduler rejects is a server-side data
	// problem, never the client's fault.
	case errors.Is(err, fsrs.ErrInvalidCardState):
		return http.StatusInternalServerError

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, review.ErrConceptNotFound):
		return "Concept not found"

	case errors.Is(err, review.ErrPhrasingNotFound):
		return "Phrasing not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, review.ErrInvalidCursor):
		return "Invalid pagination cursor"

	case errors.Is(err, review.ErrInvalidQueueRequest):
		return "Invalid queue parameters"

	case errors.Is(err, review.ErrInvalidPostpone):
		return "Invalid postpone request"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		if strings.Contains(err.Error(), "record interaction") {
			return "Failed to record interaction"
		}
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError converts request validation failures into a
// client-safe message without echoing submitted values back.
func SanitizeValidationError(err error) string {
	if err == nil {
		return "Invalid request"
	}
	msg := err.Error()
	if strings.Contains(msg, "required") {
		return "Missing required fields"
	}
	return "Invalid request data"
}
