package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/concordsrs/concord-api/internal/domain"
	"github.com/concordsrs/concord-api/internal/domain/fsrs"
)

// ReviewPatch carries the fields the recorder writes back to a concept after
// one grading: the full post-grading card state plus the counter increments.
// The store applies the counter increments with relative SQL updates so a
// recorded call bumps each counter exactly once.
type ReviewPatch struct {
	ConceptID uuid.UUID
	Card      fsrs.CardState
	IsCorrect bool
	UpdatedAt time.Time
}

// ConceptStore defines the interface for concept persistence.
type ConceptStore interface {
	// Create saves a new concept.
	// Returns validation errors if the concept data is invalid.
	Create(ctx context.Context, concept *domain.Concept) error

	// GetByID retrieves a concept by its unique ID.
	// Returns ErrConceptNotFound if the concept does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Concept, error)

	// GetForUpdate retrieves a concept and takes a row-level lock on it.
	// MUST be called within a transaction; the lock serializes concurrent
	// recordings against the same concept until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Concept, error)

	// ApplyReview patches the concept's scheduling fields and increments its
	// attempt/correct counters. Returns ErrConceptNotFound if the concept
	// does not exist.
	ApplyReview(ctx context.Context, patch ReviewPatch) error

	// UpdateScheduling overwrites only the scheduling state (used by
	// postpone). Returns ErrConceptNotFound if the concept does not exist.
	UpdateScheduling(ctx context.Context, id uuid.UUID, card fsrs.CardState) error

	// IncrementPhrasingCount adjusts the concept's active-phrasing counter by
	// delta (negative to decrement). Returns ErrConceptNotFound if the concept
	// does not exist.
	IncrementPhrasingCount(ctx context.Context, id uuid.UUID, delta int) error

	// ListPage returns one page of a queue listing, ordered per the query's
	// sort with concept ID as the tiebreaker. Returns up to Limit rows; the
	// caller detects the last page by receiving fewer rows than requested.
	ListPage(ctx context.Context, query QueueQuery) ([]*domain.Concept, error)

	// Summary aggregates the user's review workload as of now.
	Summary(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.StatsSummary, error)

	// Delete removes a concept. Associated phrasings and interactions are
	// removed by ON DELETE CASCADE constraints in the schema.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a ConceptStore bound to the given transaction.
	WithTx(tx *sql.Tx) ConceptStore
}
