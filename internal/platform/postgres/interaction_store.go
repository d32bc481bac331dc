package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/concordsrs/concord-api/internal/domain"
	"github.com/concordsrs/concord-api/internal/platform/logger"
	"github.com/concordsrs/concord-api/internal/store"
)

// PostgresInteractionStore implements the store.InteractionStore interface
// using a PostgreSQL database as the storage backend. The interactions table
// is append-only.
type PostgresInteractionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresInteractionStore creates a new PostgreSQL implementation of the
// InteractionStore interface.
func NewPostgresInteractionStore(db store.DBTX, logger *slog.Logger) *PostgresInteractionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresInteractionStore{
		db:     db,
		logger: logger.With(slog.String("component", "interaction_store")),
	}
}

// Ensure PostgresInteractionStore implements store.InteractionStore interface
var _ store.InteractionStore = (*PostgresInteractionStore)(nil)

// WithTx implements store.InteractionStore.WithTx
func (s *PostgresInteractionStore) WithTx(tx *sql.Tx) store.InteractionStore {
	return &PostgresInteractionStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.InteractionStore.Create
func (s *PostgresInteractionStore) Create(ctx context.Context, interaction *domain.Interaction) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := interaction.Validate(); err != nil {
		log.Warn("interaction validation failed during create",
			slog.String("error", err.Error()),
			slog.String("interaction_id", interaction.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	contextJSON, err := json.Marshal(interaction.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal interaction context: %w", err)
	}

	query := `
		INSERT INTO interactions (id, concept_id, user_id, user_answer, is_correct,
			time_spent_ms, session_id, context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		interaction.ID,
		interaction.ConceptID,
		interaction.UserID,
		interaction.UserAnswer,
		interaction.IsCorrect,
		interaction.TimeSpentMs,
		interaction.SessionID,
		contextJSON,
		interaction.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolationCode {
			log.Warn("foreign key violation during interaction creation",
				slog.String("interaction_id", interaction.ID.String()),
				slog.String("concept_id", interaction.ConceptID.String()))
			return fmt.Errorf("%w: concept with ID %s not found",
				store.ErrInvalidEntity, interaction.ConceptID)
		}

		log.Error("failed to create interaction",
			slog.String("error", err.Error()),
			slog.String("interaction_id", interaction.ID.String()))
		return err
	}

	log.Info("interaction created successfully",
		slog.String("interaction_id", interaction.ID.String()),
		slog.String("concept_id", interaction.ConceptID.String()),
		slog.Bool("is_correct", interaction.IsCorrect))
	return nil
}

// ListByConcept implements store.InteractionStore.ListByConcept
func (s *PostgresInteractionStore) ListByConcept(
	ctx context.Context,
	conceptID uuid.UUID,
	limit, offset int,
) ([]*domain.Interaction, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, concept_id, user_id, user_answer, is_correct,
			time_spent_ms, session_id, context, created_at
		FROM interactions
		WHERE concept_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, conceptID, limit, offset)
	if err != nil {
		log.Error("failed to query interactions by concept",
			slog.String("error", err.Error()),
			slog.String("concept_id", conceptID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var interactions []*domain.Interaction
	for rows.Next() {
		interaction, err := scanInteraction(rows)
		if err != nil {
			log.Error("failed to scan interaction row", slog.String("error", err.Error()))
			return nil, err
		}
		interactions = append(interactions, interaction)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	if interactions == nil {
		interactions = []*domain.Interaction{}
	}

	return interactions, nil
}

func scanInteraction(row rowScanner) (*domain.Interaction, error) {
	var interaction domain.Interaction
	var timeSpentMs sql.NullInt64
	var sessionID sql.NullString
	var contextJSON []byte

	err := row.Scan(
		&interaction.ID,
		&interaction.ConceptID,
		&interaction.UserID,
		&interaction.UserAnswer,
		&interaction.IsCorrect,
		&timeSpentMs,
		&sessionID,
		&contextJSON,
		&interaction.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if timeSpentMs.Valid {
		ms := int(timeSpentMs.Int64)
		interaction.TimeSpentMs = &ms
	}
	if sessionID.Valid {
		interaction.SessionID = &sessionID.String
	}
	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &interaction.Context); err != nil {
			return nil, fmt.Errorf("failed to unmarshal interaction context: %w", err)
		}
	}

	return &interaction, nil
}
