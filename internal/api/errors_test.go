package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/concordsrs/concord-api/internal/domain/fsrs"
	"github.com/concordsrs/concord-api/internal/service/auth"
	"github.com/concordsrs/concord-api/internal/service/review"
	"github.com/concordsrs/concord-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid token", err: auth.ErrInvalidToken, want: http.StatusUnauthorized},
		{name: "expired token", err: auth.ErrExpiredToken, want: http.StatusUnauthorized},
		{name: "concept not found", err: review.ErrConceptNotFound, want: http.StatusNotFound},
		{name: "phrasing not found", err: review.ErrPhrasingNotFound, want: http.StatusNotFound},
		{name: "store not found", err: store.ErrConceptNotFound, want: http.StatusNotFound},
		{name: "duplicate", err: store.ErrDuplicate, want: http.StatusConflict},
		{name: "invalid entity", err: store.ErrInvalidEntity, want: http.StatusBadRequest},
		{name: "invalid cursor", err: review.ErrInvalidCursor, want: http.StatusBadRequest},
		{name: "invalid queue request", err: review.ErrInvalidQueueRequest, want: http.StatusBadRequest},
		{name: "invalid postpone", err: review.ErrInvalidPostpone, want: http.StatusBadRequest},
		{name: "corrupt card state", err: fsrs.ErrInvalidCardState, want: http.StatusInternalServerError},
		{name: "unknown error", err: errors.New("boom"), want: http.StatusInternalServerError},
		{
			name: "wrapped errors unwrap",
			err:  fmt.Errorf("context: %w", review.ErrConceptNotFound),
			want: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil error", err: nil, want: "An unexpected error occurred"},
		{name: "expired token", err: auth.ErrExpiredToken, want: "Token expired"},
		{name: "concept not found", err: review.ErrConceptNotFound, want: "Concept not found"},
		{name: "invalid cursor", err: review.ErrInvalidCursor, want: "Invalid pagination cursor"},
		{name: "invalid postpone", err: review.ErrInvalidPostpone, want: "Invalid postpone request"},
		{
			name: "internal details are not leaked",
			err:  errors.New("pq: connection refused host=10.0.0.5"),
			want: "An unexpected error occurred",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GetSafeErrorMessage(tc.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Invalid request", SanitizeValidationError(nil))
	assert.Equal(t, "Missing required fields",
		SanitizeValidationError(errors.New("Field validation for 'ConceptID' failed on the 'required' tag")))
	assert.Equal(t, "Invalid request data",
		SanitizeValidationError(errors.New("Field validation for 'Days' failed on the 'lte' tag")))
}
