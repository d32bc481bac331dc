package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/concordsrs/concord-api/internal/domain"
)

// PhrasingStore defines the interface for phrasing persistence.
type PhrasingStore interface {
	// Create saves a new phrasing. The caller is responsible for bumping the
	// owning concept's phrasing count in the same transaction.
	Create(ctx context.Context, phrasing *domain.Phrasing) error

	// GetByID retrieves a phrasing by its unique ID.
	// Returns ErrPhrasingNotFound if the phrasing does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Phrasing, error)

	// ListByConcept returns a concept's phrasings, oldest first. Archived
	// phrasings are excluded unless includeArchived is set.
	ListByConcept(ctx context.Context, conceptID uuid.UUID, includeArchived bool) ([]*domain.Phrasing, error)

	// SetCanonical flags the given phrasing as the concept's canonical one,
	// clearing any previous canonical flag. MUST run within a transaction so
	// the at-most-one-canonical invariant holds throughout.
	SetCanonical(ctx context.Context, id uuid.UUID) error

	// Archive marks a phrasing as archived, removing it from active review
	// while retaining it for audit.
	Archive(ctx context.Context, id uuid.UUID) error

	// WithTx returns a PhrasingStore bound to the given transaction.
	WithTx(tx *sql.Tx) PhrasingStore
}
