package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// QueueView filters which concepts appear in a review queue listing.
type QueueView string

// Supported queue views.
const (
	QueueViewAll      QueueView = "all"
	QueueViewDue      QueueView = "due"
	QueueViewThin     QueueView = "thin"
	QueueViewConflict QueueView = "conflict"
)

// QueueSort orders a review queue listing.
type QueueSort string

// Supported queue sorts. Ties are always broken by concept ID so that a
// fixed query enumerates rows deterministically.
const (
	QueueSortRecent     QueueSort = "recent"
	QueueSortNextReview QueueSort = "nextReview"
)

// QueueMode tags which kind of query configuration a QueueQuery carries.
type QueueMode string

const (
	// QueueModeView runs a filtered, keyset-paginated listing.
	QueueModeView QueueMode = "view"
	// QueueModeSearch runs a best-effort text match; cursor guarantees are
	// relaxed to ordering only.
	QueueModeSearch QueueMode = "search"
)

// ErrInvalidQueueQuery is returned when a QueueQuery carries an unknown view,
// sort, or mode.
var ErrInvalidQueueQuery = errors.New("invalid queue query")

// QueueKey is the keyset position of the last row of a page. Which field is
// meaningful depends on the sort: CreatedAt for recent, NextReview for
// nextReview (nil meaning the unscheduled tail of the ordering).
type QueueKey struct {
	CreatedAt  time.Time  `json:"created_at"`
	NextReview *time.Time `json:"next_review,omitempty"`
	ID         uuid.UUID  `json:"id"`
}

// QueueQuery is a fully typed queue listing configuration. Exactly one of
// the view/search shapes applies, selected by Mode; there is no loosely
// typed filter object and no skip sentinel.
type QueueQuery struct {
	UserID uuid.UUID
	Mode   QueueMode

	// View configuration (Mode == QueueModeView).
	View QueueView
	// DueBefore is the server time used for the due filter; it is also the
	// serverTime echoed to the caller so due badges agree with the filter.
	DueBefore         time.Time
	ThinThreshold     float64
	ConflictThreshold float64

	// Search configuration (Mode == QueueModeSearch).
	Search string

	Sort  QueueSort
	Limit int
	// After is the keyset continuation point; nil means the first page.
	After *QueueKey
}

// Validate checks the tagged configuration for consistency.
func (q QueueQuery) Validate() error {
	if q.UserID == uuid.Nil || q.Limit <= 0 {
		return ErrInvalidQueueQuery
	}
	switch q.Sort {
	case QueueSortRecent, QueueSortNextReview:
	default:
		return ErrInvalidQueueQuery
	}
	switch q.Mode {
	case QueueModeSearch:
		if q.Search == "" {
			return ErrInvalidQueueQuery
		}
		return nil
	case QueueModeView:
		switch q.View {
		case QueueViewAll, QueueViewDue, QueueViewThin, QueueViewConflict:
			return nil
		}
		return ErrInvalidQueueQuery
	default:
		return ErrInvalidQueueQuery
	}
}
