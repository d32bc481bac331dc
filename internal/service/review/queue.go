package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/concordsrs/concord-api/internal/domain"
	"github.com/concordsrs/concord-api/internal/platform/logger"
	"github.com/concordsrs/concord-api/internal/store"
)

// QueueConfig carries the selector's tuning knobs, normally sourced from the
// review section of the application config.
type QueueConfig struct {
	ThinThreshold     float64
	ConflictThreshold float64
	DefaultPageSize   int
	MaxPageSize       int
}

// QueueRequest is one queue page request as it arrives from the API layer.
// Zero values select the defaults: due view, nextReview sort, first page,
// configured default page size. A non-empty Search switches the whole
// request to search mode and View is ignored.
type QueueRequest struct {
	View     string
	Search   string
	Sort     string
	Cursor   string
	PageSize int
}

// QueuePage is one page of the review queue.
type QueuePage struct {
	Concepts []*domain.Concept `json:"concepts"`
	// ContinueCursor resumes enumeration after the last row of this page.
	// Empty when IsDone.
	ContinueCursor string `json:"continue_cursor,omitempty"`
	IsDone         bool   `json:"is_done"`
	// ServerTime is the instant used for the due filter, echoed so clients
	// can render due badges that agree with the page contents.
	ServerTime time.Time       `json:"server_time"`
	Mode       store.QueueMode `json:"mode"`
}

// QueueSelector builds paginated review queue listings.
type QueueSelector interface {
	// BuildQueue returns one page of the user's review queue. Enumerating a
	// fixed view via successive cursors yields each matching concept exactly
	// once, absent intervening writes; in search mode only the ordering is
	// guaranteed.
	BuildQueue(ctx context.Context, userID uuid.UUID, req QueueRequest) (*QueuePage, error)

	// Summary aggregates the user's review workload as of now.
	Summary(ctx context.Context, userID uuid.UUID) (*domain.StatsSummary, error)
}

// Verify interface compliance at compile time
var _ QueueSelector = (*queueSelectorImpl)(nil)

type queueSelectorImpl struct {
	concepts store.ConceptStore
	config   QueueConfig
	clock    Clock
	logger   *slog.Logger
}

// NewQueueSelector creates a QueueSelector over the given concept store.
func NewQueueSelector(
	concepts store.ConceptStore,
	config QueueConfig,
	clock Clock,
	logger *slog.Logger,
) QueueSelector {
	if concepts == nil {
		panic("concepts store cannot be nil")
	}
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = 20
	}
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = 100
	}
	if clock == nil {
		clock = NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &queueSelectorImpl{
		concepts: concepts,
		config:   config,
		clock:    clock,
		logger:   logger.With(slog.String("component", "queue_selector")),
	}
}

// BuildQueue implements QueueSelector.BuildQueue.
func (s *queueSelectorImpl) BuildQueue(
	ctx context.Context,
	userID uuid.UUID,
	req QueueRequest,
) (*QueuePage, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := s.clock.Now().UTC()

	query, err := s.buildQuery(userID, req, now)
	if err != nil {
		return nil, err
	}

	// Fetch one extra row to learn whether a next page exists without a
	// second query.
	pageSize := query.Limit
	query.Limit = pageSize + 1

	concepts, err := s.concepts.ListPage(ctx, query)
	if err != nil {
		log.Error("failed to list queue page",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("mode", string(query.Mode)))
		return nil, fmt.Errorf("failed to build queue page: %w", err)
	}

	page := &QueuePage{
		Concepts:   concepts,
		IsDone:     true,
		ServerTime: now,
		Mode:       query.Mode,
	}

	if len(concepts) > pageSize {
		page.Concepts = concepts[:pageSize]
		page.IsDone = false
		last := page.Concepts[pageSize-1]
		page.ContinueCursor = EncodeCursor(store.QueueKey{
			CreatedAt:  last.CreatedAt,
			NextReview: last.Scheduling.NextReview,
			ID:         last.ID,
		})
	}

	log.Debug("queue page built",
		slog.String("user_id", userID.String()),
		slog.String("mode", string(query.Mode)),
		slog.Int("count", len(page.Concepts)),
		slog.Bool("is_done", page.IsDone))

	return page, nil
}

// Summary implements QueueSelector.Summary.
func (s *queueSelectorImpl) Summary(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.StatsSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	summary, err := s.concepts.Summary(ctx, userID, s.clock.Now().UTC())
	if err != nil {
		log.Error("failed to aggregate stats summary",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to build stats summary: %w", err)
	}

	return summary, nil
}

// buildQuery resolves defaults and translates the loosely typed request into
// a typed store.QueueQuery.
func (s *queueSelectorImpl) buildQuery(
	userID uuid.UUID,
	req QueueRequest,
	now time.Time,
) (store.QueueQuery, error) {
	query := store.QueueQuery{
		UserID:            userID,
		DueBefore:         now,
		ThinThreshold:     s.config.ThinThreshold,
		ConflictThreshold: s.config.ConflictThreshold,
		Limit:             s.clampPageSize(req.PageSize),
	}

	switch req.Sort {
	case "", string(store.QueueSortNextReview):
		query.Sort = store.QueueSortNextReview
	case string(store.QueueSortRecent):
		query.Sort = store.QueueSortRecent
	default:
		return store.QueueQuery{}, fmt.Errorf("%w: unknown sort %q", ErrInvalidQueueRequest, req.Sort)
	}

	if req.Search != "" {
		query.Mode = store.QueueModeSearch
		query.Search = req.Search
	} else {
		query.Mode = store.QueueModeView
		switch req.View {
		case "", string(store.QueueViewDue):
			query.View = store.QueueViewDue
		case string(store.QueueViewAll):
			query.View = store.QueueViewAll
		case string(store.QueueViewThin):
			query.View = store.QueueViewThin
		case string(store.QueueViewConflict):
			query.View = store.QueueViewConflict
		default:
			return store.QueueQuery{}, fmt.Errorf("%w: unknown view %q", ErrInvalidQueueRequest, req.View)
		}
	}

	if req.Cursor != "" {
		after, err := DecodeCursor(req.Cursor)
		if err != nil {
			return store.QueueQuery{}, err
		}
		query.After = after
	}

	return query, nil
}

func (s *queueSelectorImpl) clampPageSize(size int) int {
	if size <= 0 {
		return s.config.DefaultPageSize
	}
	if size > s.config.MaxPageSize {
		return s.config.MaxPageSize
	}
	return size
}
