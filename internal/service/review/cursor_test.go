package review

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concordsrs/concord-api/internal/store"
)

func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()

	nextReview := time.Date(2025, 3, 20, 9, 30, 0, 0, time.UTC)

	testCases := []struct {
		name string
		key  store.QueueKey
	}{
		{
			name: "scheduled row",
			key: store.QueueKey{
				CreatedAt:  time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
				NextReview: &nextReview,
				ID:         uuid.New(),
			},
		},
		{
			name: "unscheduled row has nil next review",
			key: store.QueueKey{
				CreatedAt: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
				ID:        uuid.New(),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			token := EncodeCursor(tc.key)
			require.NotEmpty(t, token)

			decoded, err := DecodeCursor(token)
			require.NoError(t, err)

			assert.True(t, decoded.CreatedAt.Equal(tc.key.CreatedAt))
			assert.Equal(t, tc.key.ID, decoded.ID)
			if tc.key.NextReview == nil {
				assert.Nil(t, decoded.NextReview)
			} else {
				require.NotNil(t, decoded.NextReview)
				assert.True(t, decoded.NextReview.Equal(*tc.key.NextReview))
			}
		})
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		cursor string
	}{
		{name: "not base64url", cursor: "!!!not-a-cursor!!!"},
		{name: "base64url but not JSON", cursor: "bm90LWpzb24"},
		{name: "JSON but wrong shape", cursor: "WyJhcnJheSJd"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeCursor(tc.cursor)
			assert.ErrorIs(t, err, ErrInvalidCursor)
		})
	}
}
