package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestQueueQueryValidate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	base := QueueQuery{
		UserID:    userID,
		Mode:      QueueModeView,
		View:      QueueViewDue,
		DueBefore: time.Now().UTC(),
		Sort:      QueueSortNextReview,
		Limit:     20,
	}

	testCases := []struct {
		name    string
		mutate  func(*QueueQuery)
		wantErr bool
	}{
		{
			name:   "valid view query",
			mutate: func(q *QueueQuery) {},
		},
		{
			name: "valid search query",
			mutate: func(q *QueueQuery) {
				q.Mode = QueueModeSearch
				q.Search = "photosynthesis"
			},
		},
		{
			name:    "missing user ID",
			mutate:  func(q *QueueQuery) { q.UserID = uuid.Nil },
			wantErr: true,
		},
		{
			name:    "non-positive limit",
			mutate:  func(q *QueueQuery) { q.Limit = 0 },
			wantErr: true,
		},
		{
			name:    "unknown sort",
			mutate:  func(q *QueueQuery) { q.Sort = QueueSort("alphabetical") },
			wantErr: true,
		},
		{
			name:    "unknown view",
			mutate:  func(q *QueueQuery) { q.View = QueueView("overdue") },
			wantErr: true,
		},
		{
			name:    "unknown mode",
			mutate:  func(q *QueueQuery) { q.Mode = QueueMode("fuzzy") },
			wantErr: true,
		},
		{
			name: "search mode without a term",
			mutate: func(q *QueueQuery) {
				q.Mode = QueueModeSearch
				q.Search = ""
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			query := base
			tc.mutate(&query)

			err := query.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidQueueQuery)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNotFoundError(ErrNotFound))
	assert.True(t, IsNotFoundError(ErrConceptNotFound))
	assert.True(t, IsNotFoundError(ErrPhrasingNotFound))
	assert.False(t, IsNotFoundError(ErrDuplicate))
	assert.False(t, IsNotFoundError(nil))
}
