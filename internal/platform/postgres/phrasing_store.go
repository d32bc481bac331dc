package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/concordsrs/concord-api/internal/domain"
	"github.com/concordsrs/concord-api/internal/platform/logger"
	"github.com/concordsrs/concord-api/internal/store"
)

// PostgresPhrasingStore implements the store.PhrasingStore interface
// using a PostgreSQL database as the storage backend.
type PostgresPhrasingStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPhrasingStore creates a new PostgreSQL implementation of the
// PhrasingStore interface.
func NewPostgresPhrasingStore(db store.DBTX, logger *slog.Logger) *PostgresPhrasingStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPhrasingStore{
		db:     db,
		logger: logger.With(slog.String("component", "phrasing_store")),
	}
}

// Ensure PostgresPhrasingStore implements store.PhrasingStore interface
var _ store.PhrasingStore = (*PostgresPhrasingStore)(nil)

// WithTx implements store.PhrasingStore.WithTx
func (s *PostgresPhrasingStore) WithTx(tx *sql.Tx) store.PhrasingStore {
	return &PostgresPhrasingStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.PhrasingStore.Create
func (s *PostgresPhrasingStore) Create(ctx context.Context, phrasing *domain.Phrasing) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := phrasing.Validate(); err != nil {
		log.Warn("phrasing validation failed during create",
			slog.String("error", err.Error()),
			slog.String("phrasing_id", phrasing.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	options, err := json.Marshal(phrasing.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal phrasing options: %w", err)
	}

	query := `
		INSERT INTO phrasings (id, concept_id, text, options, is_canonical, archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		phrasing.ID,
		phrasing.ConceptID,
		phrasing.Text,
		options,
		phrasing.IsCanonical,
		phrasing.Archived,
		phrasing.CreatedAt,
		phrasing.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolationCode {
			log.Warn("foreign key violation during phrasing creation",
				slog.String("phrasing_id", phrasing.ID.String()),
				slog.String("concept_id", phrasing.ConceptID.String()))
			return fmt.Errorf("%w: concept with ID %s not found",
				store.ErrInvalidEntity, phrasing.ConceptID)
		}

		log.Error("failed to create phrasing",
			slog.String("error", err.Error()),
			slog.String("phrasing_id", phrasing.ID.String()))
		return err
	}

	log.Info("phrasing created successfully",
		slog.String("phrasing_id", phrasing.ID.String()),
		slog.String("concept_id", phrasing.ConceptID.String()))
	return nil
}

// GetByID implements store.PhrasingStore.GetByID
func (s *PostgresPhrasingStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Phrasing, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, concept_id, text, options, is_canonical, archived, created_at, updated_at
		FROM phrasings
		WHERE id = $1
	`

	phrasing, err := scanPhrasing(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("phrasing not found", slog.String("phrasing_id", id.String()))
			return nil, store.ErrPhrasingNotFound
		}
		log.Error("failed to get phrasing by ID",
			slog.String("error", err.Error()),
			slog.String("phrasing_id", id.String()))
		return nil, err
	}

	return phrasing, nil
}

// ListByConcept implements store.PhrasingStore.ListByConcept
func (s *PostgresPhrasingStore) ListByConcept(
	ctx context.Context,
	conceptID uuid.UUID,
	includeArchived bool,
) ([]*domain.Phrasing, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, concept_id, text, options, is_canonical, archived, created_at, updated_at
		FROM phrasings
		WHERE concept_id = $1
	`
	if !includeArchived {
		query += ` AND archived = FALSE`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, conceptID)
	if err != nil {
		log.Error("failed to query phrasings by concept",
			slog.String("error", err.Error()),
			slog.String("concept_id", conceptID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var phrasings []*domain.Phrasing
	for rows.Next() {
		phrasing, err := scanPhrasing(rows)
		if err != nil {
			log.Error("failed to scan phrasing row", slog.String("error", err.Error()))
			return nil, err
		}
		phrasings = append(phrasings, phrasing)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	if phrasings == nil {
		phrasings = []*domain.Phrasing{}
	}

	return phrasings, nil
}

// SetCanonical implements store.PhrasingStore.SetCanonical.
// Clearing the previous flag and setting the new one are two statements;
// callers must wrap this in a transaction to keep the at-most-one-canonical
// invariant visible to concurrent readers.
func (s *PostgresPhrasingStore) SetCanonical(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	clearQuery := `
		UPDATE phrasings
		SET is_canonical = FALSE, updated_at = $1
		WHERE concept_id = (SELECT concept_id FROM phrasings WHERE id = $2)
		  AND is_canonical = TRUE
	`
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, clearQuery, now, id); err != nil {
		log.Error("failed to clear previous canonical phrasing",
			slog.String("error", err.Error()),
			slog.String("phrasing_id", id.String()))
		return err
	}

	setQuery := `
		UPDATE phrasings
		SET is_canonical = TRUE, updated_at = $1
		WHERE id = $2
	`
	result, err := s.db.ExecContext(ctx, setQuery, now, id)
	if err != nil {
		log.Error("failed to set canonical phrasing",
			slog.String("error", err.Error()),
			slog.String("phrasing_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrPhrasingNotFound
	}

	log.Info("canonical phrasing updated", slog.String("phrasing_id", id.String()))
	return nil
}

// Archive implements store.PhrasingStore.Archive
func (s *PostgresPhrasingStore) Archive(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE phrasings
		SET archived = TRUE, is_canonical = FALSE, updated_at = $1
		WHERE id = $2
	`

	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to archive phrasing",
			slog.String("error", err.Error()),
			slog.String("phrasing_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrPhrasingNotFound
	}

	log.Info("phrasing archived", slog.String("phrasing_id", id.String()))
	return nil
}

func scanPhrasing(row rowScanner) (*domain.Phrasing, error) {
	var phrasing domain.Phrasing
	var options []byte

	err := row.Scan(
		&phrasing.ID,
		&phrasing.ConceptID,
		&phrasing.Text,
		&options,
		&phrasing.IsCanonical,
		&phrasing.Archived,
		&phrasing.CreatedAt,
		&phrasing.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(options) > 0 {
		if err := json.Unmarshal(options, &phrasing.Options); err != nil {
			return nil, fmt.Errorf("failed to unmarshal phrasing options: %w", err)
		}
	}

	return &phrasing, nil
}
