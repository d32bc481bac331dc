package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/concordsrs/concord-api/internal/domain"
	"github.com/concordsrs/concord-api/internal/domain/fsrs"
	"github.com/concordsrs/concord-api/internal/platform/logger"
	"github.com/concordsrs/concord-api/internal/store"
)

// PostgreSQL error codes
const (
	pgUniqueViolationCode     = "23505"
	pgForeignKeyViolationCode = "23503"
)

const conceptColumns = `id, user_id, title, description,
		state, stability, difficulty, reps, lapses, next_review, last_reviewed,
		attempt_count, correct_count,
		conflict_score, thin_score, quality_score, phrasing_count,
		created_at, updated_at`

// PostgresConceptStore implements the store.ConceptStore interface
// using a PostgreSQL database as the storage backend.
type PostgresConceptStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresConceptStore creates a new PostgreSQL implementation of the
// ConceptStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
func NewPostgresConceptStore(db store.DBTX, logger *slog.Logger) *PostgresConceptStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresConceptStore{
		db:     db,
		logger: logger.With(slog.String("component", "concept_store")),
	}
}

// Ensure PostgresConceptStore implements store.ConceptStore interface
var _ store.ConceptStore = (*PostgresConceptStore)(nil)

// WithTx implements store.ConceptStore.WithTx
func (s *PostgresConceptStore) WithTx(tx *sql.Tx) store.ConceptStore {
	return &PostgresConceptStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.ConceptStore.Create
func (s *PostgresConceptStore) Create(ctx context.Context, concept *domain.Concept) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := concept.Validate(); err != nil {
		log.Warn("concept validation failed during create",
			slog.String("error", err.Error()),
			slog.String("concept_id", concept.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO concepts (` + conceptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		concept.ID,
		concept.UserID,
		concept.Title,
		concept.Description,
		string(concept.Scheduling.State),
		concept.Scheduling.Stability,
		concept.Scheduling.Difficulty,
		concept.Scheduling.Reps,
		concept.Scheduling.Lapses,
		concept.Scheduling.NextReview,
		concept.Scheduling.LastReviewed,
		concept.AttemptCount,
		concept.CorrectCount,
		concept.ConflictScore,
		concept.ThinScore,
		concept.QualityScore,
		concept.PhrasingCount,
		concept.CreatedAt,
		concept.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			return fmt.Errorf("%w: concept %s", store.ErrDuplicate, concept.ID)
		}

		log.Error("failed to create concept",
			slog.String("error", err.Error()),
			slog.String("concept_id", concept.ID.String()),
			slog.String("user_id", concept.UserID.String()))
		return err
	}

	log.Info("concept created successfully",
		slog.String("concept_id", concept.ID.String()),
		slog.String("user_id", concept.UserID.String()))
	return nil
}

// GetByID implements store.ConceptStore.GetByID
func (s *PostgresConceptStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Concept, error) {
	return s.getConcept(ctx, id, false)
}

// GetForUpdate implements store.ConceptStore.GetForUpdate.
// The SELECT ... FOR UPDATE row lock serializes concurrent recordings against
// the same concept; it only has effect inside a transaction.
func (s *PostgresConceptStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Concept, error) {
	return s.getConcept(ctx, id, true)
}

func (s *PostgresConceptStore) getConcept(
	ctx context.Context,
	id uuid.UUID,
	forUpdate bool,
) (*domain.Concept, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + conceptColumns + ` FROM concepts WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	concept, err := scanConcept(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("concept not found", slog.String("concept_id", id.String()))
			return nil, store.ErrConceptNotFound
		}
		log.Error("failed to get concept by ID",
			slog.String("error", err.Error()),
			slog.String("concept_id", id.String()))
		return nil, err
	}

	return concept, nil
}

// ApplyReview implements store.ConceptStore.ApplyReview.
// Counter increments are relative so each recorded call bumps attempt_count
// by exactly one and correct_count by at most one.
func (s *PostgresConceptStore) ApplyReview(ctx context.Context, patch store.ReviewPatch) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE concepts
		SET state = $1,
		    stability = $2,
		    difficulty = $3,
		    reps = $4,
		    lapses = $5,
		    next_review = $6,
		    last_reviewed = $7,
		    attempt_count = attempt_count + 1,
		    correct_count = correct_count + CASE WHEN $8 THEN 1 ELSE 0 END,
		    updated_at = $9
		WHERE id = $10
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		string(patch.Card.State),
		patch.Card.Stability,
		patch.Card.Difficulty,
		patch.Card.Reps,
		patch.Card.Lapses,
		patch.Card.NextReview,
		patch.Card.LastReviewed,
		patch.IsCorrect,
		patch.UpdatedAt,
		patch.ConceptID,
	)

	if err != nil {
		log.Error("failed to apply review patch",
			slog.String("error", err.Error()),
			slog.String("concept_id", patch.ConceptID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("concept_id", patch.ConceptID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("concept not found for review patch",
			slog.String("concept_id", patch.ConceptID.String()))
		return store.ErrConceptNotFound
	}

	return nil
}

// UpdateScheduling implements store.ConceptStore.UpdateScheduling
func (s *PostgresConceptStore) UpdateScheduling(
	ctx context.Context,
	id uuid.UUID,
	card fsrs.CardState,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE concepts
		SET state = $1,
		    stability = $2,
		    difficulty = $3,
		    reps = $4,
		    lapses = $5,
		    next_review = $6,
		    last_reviewed = $7,
		    updated_at = $8
		WHERE id = $9
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		string(card.State),
		card.Stability,
		card.Difficulty,
		card.Reps,
		card.Lapses,
		card.NextReview,
		card.LastReviewed,
		time.Now().UTC(),
		id,
	)

	if err != nil {
		log.Error("failed to update scheduling state",
			slog.String("error", err.Error()),
			slog.String("concept_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrConceptNotFound
	}

	return nil
}

// IncrementPhrasingCount implements store.ConceptStore.IncrementPhrasingCount.
// GREATEST keeps the counter from going negative if a decrement races a
// concept reset.
func (s *PostgresConceptStore) IncrementPhrasingCount(
	ctx context.Context,
	id uuid.UUID,
	delta int,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE concepts
		SET phrasing_count = GREATEST(phrasing_count + $1, 0),
		    updated_at = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, delta, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to adjust phrasing count",
			slog.String("error", err.Error()),
			slog.String("concept_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrConceptNotFound
	}

	return nil
}

// Delete implements store.ConceptStore.Delete.
// Phrasings and interactions are removed by ON DELETE CASCADE constraints.
func (s *PostgresConceptStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM concepts WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete concept",
			slog.String("error", err.Error()),
			slog.String("concept_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrConceptNotFound
	}

	log.Info("concept deleted", slog.String("concept_id", id.String()))
	return nil
}

// ListPage implements store.ConceptStore.ListPage.
// Pages are selected with keyset predicates on the sort key plus concept ID,
// so enumerating a fixed query via successive cursors yields each matching
// row exactly once.
func (s *PostgresConceptStore) ListPage(
	ctx context.Context,
	query store.QueueQuery,
) ([]*domain.Concept, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := query.Validate(); err != nil {
		return nil, err
	}

	sqlQuery, args := buildQueuePageQuery(query)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		log.Error("failed to query concepts page",
			slog.String("error", err.Error()),
			slog.String("user_id", query.UserID.String()),
			slog.String("mode", string(query.Mode)))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var concepts []*domain.Concept
	for rows.Next() {
		concept, err := scanConcept(rows)
		if err != nil {
			log.Error("failed to scan concept row", slog.String("error", err.Error()))
			return nil, err
		}
		concepts = append(concepts, concept)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	if concepts == nil {
		concepts = []*domain.Concept{}
	}

	return concepts, nil
}

// buildQueuePageQuery assembles the SQL and argument list for one queue page.
func buildQueuePageQuery(query store.QueueQuery) (string, []any) {
	var sb strings.Builder
	args := []any{query.UserID}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sb.WriteString(`SELECT ` + conceptColumns + ` FROM concepts WHERE user_id = $1`)

	if query.Mode == store.QueueModeSearch {
		p := arg("%" + query.Search + "%")
		sb.WriteString(` AND (title ILIKE ` + p + ` OR description ILIKE ` + p + `)`)
	} else {
		switch query.View {
		case store.QueueViewDue:
			sb.WriteString(` AND next_review IS NOT NULL AND next_review <= ` + arg(query.DueBefore))
		case store.QueueViewThin:
			sb.WriteString(` AND thin_score IS NOT NULL AND thin_score >= ` + arg(query.ThinThreshold))
		case store.QueueViewConflict:
			sb.WriteString(` AND conflict_score IS NOT NULL AND conflict_score >= ` + arg(query.ConflictThreshold))
		}
	}

	switch query.Sort {
	case store.QueueSortNextReview:
		if query.After != nil {
			if query.After.NextReview != nil {
				nr := arg(*query.After.NextReview)
				id := arg(query.After.ID)
				sb.WriteString(` AND (next_review IS NULL OR (next_review, id) > (` + nr + `, ` + id + `))`)
			} else {
				// The cursor sits inside the unscheduled tail of the ordering.
				sb.WriteString(` AND next_review IS NULL AND id > ` + arg(query.After.ID))
			}
		}
		sb.WriteString(` ORDER BY next_review ASC NULLS LAST, id ASC`)
	default: // store.QueueSortRecent
		if query.After != nil {
			ca := arg(query.After.CreatedAt)
			id := arg(query.After.ID)
			sb.WriteString(` AND (created_at, id) < (` + ca + `, ` + id + `)`)
		}
		sb.WriteString(` ORDER BY created_at DESC, id DESC`)
	}

	sb.WriteString(` LIMIT ` + arg(query.Limit))

	return sb.String(), args
}

// Summary implements store.ConceptStore.Summary
func (s *PostgresConceptStore) Summary(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) (*domain.StatsSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE next_review IS NOT NULL AND next_review <= $2),
			COUNT(*) FILTER (WHERE state = 'new'),
			COUNT(*) FILTER (WHERE state = 'learning'),
			COUNT(*) FILTER (WHERE state = 'review'),
			COUNT(*) FILTER (WHERE state = 'relearning'),
			COALESCE(SUM(attempt_count), 0),
			COALESCE(SUM(correct_count), 0),
			COALESCE(AVG(stability) FILTER (WHERE state != 'new'), 0),
			COALESCE(AVG(difficulty), 0)
		FROM concepts
		WHERE user_id = $1
	`

	var summary domain.StatsSummary
	err := s.db.QueryRowContext(ctx, query, userID, now).Scan(
		&summary.TotalConcepts,
		&summary.DueConcepts,
		&summary.NewConcepts,
		&summary.LearningCount,
		&summary.ReviewCount,
		&summary.RelearningCount,
		&summary.TotalAttempts,
		&summary.TotalCorrect,
		&summary.AvgStability,
		&summary.AvgDifficulty,
	)
	if err != nil {
		log.Error("failed to aggregate stats summary",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	if summary.TotalAttempts > 0 {
		summary.Accuracy = float64(summary.TotalCorrect) / float64(summary.TotalAttempts)
	}

	return &summary, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanConcept(row rowScanner) (*domain.Concept, error) {
	var concept domain.Concept
	var state string
	var nextReview, lastReviewed sql.NullTime

	err := row.Scan(
		&concept.ID,
		&concept.UserID,
		&concept.Title,
		&concept.Description,
		&state,
		&concept.Scheduling.Stability,
		&concept.Scheduling.Difficulty,
		&concept.Scheduling.Reps,
		&concept.Scheduling.Lapses,
		&nextReview,
		&lastReviewed,
		&concept.AttemptCount,
		&concept.CorrectCount,
		&concept.ConflictScore,
		&concept.ThinScore,
		&concept.QualityScore,
		&concept.PhrasingCount,
		&concept.CreatedAt,
		&concept.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	concept.Scheduling.State = fsrs.State(state)
	if nextReview.Valid {
		t := nextReview.Time
		concept.Scheduling.NextReview = &t
	}
	if lastReviewed.Valid {
		t := lastReviewed.Time
		concept.Scheduling.LastReviewed = &t
	}

	return &concept, nil
}
